// Package kafka implements a Kafka transport driver for decoded document
// output, covering the SASL/TLS paths this collector actually exercises.
package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/Shopify/sarama"

	"github.com/flowforge/netflow9collector/transport"
)

type saslAlgorithm string

const (
	saslNone       saslAlgorithm = "none"
	saslPlain      saslAlgorithm = "plain"
	saslScramSHA256 saslAlgorithm = "scram-sha256"
	saslScramSHA512 saslAlgorithm = "scram-sha512"
)

var compressionCodecs = map[string]sarama.CompressionCodec{
	"none":   sarama.CompressionNone,
	"gzip":   sarama.CompressionGZIP,
	"snappy": sarama.CompressionSnappy,
	"lz4":    sarama.CompressionLZ4,
	"zstd":   sarama.CompressionZSTD,
}

// Driver publishes decoded documents to a Kafka topic.
type Driver struct {
	tlsEnabled  bool
	sasl        string
	saslUser    string
	saslPass    string
	topic       string
	brokers     string
	maxMsgBytes int
	flushBytes  int
	flushEvery  time.Duration
	version     string
	compression string

	producer sarama.AsyncProducer
	quit     chan struct{}
}

func (d *Driver) Prepare() error {
	flag.BoolVar(&d.tlsEnabled, "transport.kafka.tls", false, "Use TLS to connect to Kafka")
	flag.StringVar(&d.sasl, "transport.kafka.sasl", string(saslNone), "SASL mechanism: none, plain, scram-sha256, scram-sha512")
	flag.StringVar(&d.saslUser, "transport.kafka.sasl.user", "", "SASL username")
	flag.StringVar(&d.saslPass, "transport.kafka.sasl.pass", "", "SASL password")
	flag.StringVar(&d.topic, "transport.kafka.topic", "netflow9-documents", "Kafka topic to produce to")
	flag.StringVar(&d.brokers, "transport.kafka.brokers", "127.0.0.1:9092", "Kafka brokers, comma separated")
	flag.IntVar(&d.maxMsgBytes, "transport.kafka.maxmsgbytes", 1000000, "Kafka max message bytes")
	flag.IntVar(&d.flushBytes, "transport.kafka.flushbytes", int(sarama.MaxRequestSize), "Kafka flush bytes")
	flag.DurationVar(&d.flushEvery, "transport.kafka.flushfreq", time.Second*5, "Kafka flush frequency")
	flag.StringVar(&d.version, "transport.kafka.version", "2.8.0", "Kafka protocol version")
	flag.StringVar(&d.compression, "transport.kafka.compression", "", "Kafka compression codec")
	return nil
}

func (d *Driver) Init() error {
	version, err := sarama.ParseKafkaVersion(d.version)
	if err != nil {
		return err
	}

	cfg := sarama.NewConfig()
	cfg.Version = version
	cfg.Producer.Return.Successes = false
	cfg.Producer.MaxMessageBytes = d.maxMsgBytes
	cfg.Producer.Flush.Bytes = d.flushBytes
	cfg.Producer.Flush.Frequency = d.flushEvery

	if d.compression != "" {
		codec, ok := compressionCodecs[strings.ToLower(d.compression)]
		if !ok {
			return errors.New("kafka: unknown compression codec " + d.compression)
		}
		cfg.Producer.Compression = codec
	}

	if d.tlsEnabled {
		rootCAs, err := x509.SystemCertPool()
		if err != nil {
			return fmt.Errorf("kafka: loading system cert pool: %w", err)
		}
		cfg.Net.TLS.Enable = true
		cfg.Net.TLS.Config = &tls.Config{RootCAs: rootCAs}
	}

	if err := d.configureSASL(cfg); err != nil {
		return err
	}

	producer, err := sarama.NewAsyncProducer(strings.Split(d.brokers, ","), cfg)
	if err != nil {
		return err
	}
	d.producer = producer
	d.quit = make(chan struct{})
	return nil
}

func (d *Driver) configureSASL(cfg *sarama.Config) error {
	mech := saslAlgorithm(strings.ToLower(d.sasl))
	if mech == "" || mech == saslNone {
		return nil
	}
	if d.saslUser == "" || d.saslPass == "" {
		return errors.New("kafka: SASL requires -transport.kafka.sasl.user and -transport.kafka.sasl.pass")
	}

	cfg.Net.SASL.Enable = true
	cfg.Net.SASL.User = d.saslUser
	cfg.Net.SASL.Password = d.saslPass

	switch mech {
	case saslPlain:
		// Plain mechanism needs nothing further.
	case saslScramSHA256:
		cfg.Net.SASL.Handshake = true
		cfg.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		cfg.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &xdgSCRAMClient{hashGeneratorFcn: scramSHA256}
		}
	case saslScramSHA512:
		cfg.Net.SASL.Handshake = true
		cfg.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		cfg.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &xdgSCRAMClient{hashGeneratorFcn: scramSHA512}
		}
	default:
		return errors.New("kafka: unknown SASL mechanism " + d.sasl)
	}
	return nil
}

func (d *Driver) Send(key, data []byte) error {
	d.producer.Input() <- &sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	return nil
}

func (d *Driver) Close() error {
	err := d.producer.Close()
	close(d.quit)
	return err
}

func init() {
	transport.Register("kafka", &Driver{})
}
