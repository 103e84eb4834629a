// Package app wires the ingest, decode, and transport layers into a
// runnable collector.
package app

import (
	"log/slog"
	"sync"
	"time"

	"github.com/flowforge/netflow9collector/decoders/netflow9"
	"github.com/flowforge/netflow9collector/ingest"
	"github.com/flowforge/netflow9collector/internal/batchmute"
	"github.com/flowforge/netflow9collector/internal/recovery"
	"github.com/flowforge/netflow9collector/metrics"
	outjson "github.com/flowforge/netflow9collector/output/json"
	"github.com/flowforge/netflow9collector/transport"
)

// CollectorConfig configures a Collector.
type CollectorConfig struct {
	Source    ingest.Source
	Transport *transport.Transport
	Cache     netflow9.Cache
	ErrCnt    int
	ErrInt    time.Duration
	Logger    *slog.Logger
}

// Collector decodes every datagram its Source produces and publishes the
// resulting document through Transport.
type Collector struct {
	source    ingest.Source
	transport *transport.Transport
	cache     netflow9.Cache
	logger    *slog.Logger

	mute     *batchmute.Mute
	diagMute *batchmute.Set
	errs     chan error
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCollector constructs a Collector from cfg.
func NewCollector(cfg CollectorConfig) *Collector {
	return &Collector{
		source:    cfg.Source,
		transport: cfg.Transport,
		cache:     cfg.Cache,
		logger:    cfg.Logger,
		mute:      batchmute.New(cfg.ErrInt, cfg.ErrCnt),
		diagMute:  batchmute.NewSet(cfg.ErrInt, cfg.ErrCnt),
		errs:      make(chan error, 64),
	}
}

// Start begins ingestion. handlePayload decodes each datagram and is
// wrapped with panic recovery so a malformed datagram can never crash the
// receive goroutine — no panic from valid or invalid input should ever
// crash the process.
func (c *Collector) Start() error {
	c.stopCh = make(chan struct{})

	handler := recovery.WrapHandler(c.handlePayload, func(err error) {
		select {
		case c.errs <- err:
		default:
		}
	})

	if err := c.source.Start(handler); err != nil {
		return err
	}

	c.wg.Add(1)
	go c.watchErrors()

	return nil
}

func (c *Collector) handlePayload(p ingest.Payload) {
	if !netflow9.IsV9(p.Data) {
		return
	}

	metrics.PacketsReceived.WithLabelValues(p.Src.Addr().String()).Inc()

	start := time.Now()
	records, diags, err := netflow9.DecodePacket(p.Data, c.cache)
	metrics.DecodeDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if decErr, ok := err.(*netflow9.DecodeError); ok {
			metrics.PacketErrors.WithLabelValues(decErr.Kind.String()).Inc()
		}
		select {
		case c.errs <- err:
		default:
		}
		return
	}

	metrics.PacketsDecoded.WithLabelValues(p.Src.Addr().String()).Inc()
	metrics.ObserveRecords(records)
	metrics.ObserveDiagnostics(diags)
	metrics.TemplatesCached.Set(float64(c.cache.Len()))

	for _, d := range diags {
		kind := d.Kind.String()
		muted, skipped := c.diagMute.Increment(kind)
		switch {
		case muted && skipped == 0:
			c.logger.Warn("too many diagnostics of this kind, muting", slog.String("kind", kind))
		case !muted && skipped > 0:
			c.logger.Debug("skipped diagnostics", slog.String("kind", kind), slog.Int("count", skipped))
			fallthrough
		case !muted:
			c.logger.Debug("decode diagnostic",
				slog.String("error", d.Message),
				slog.String("kind", kind),
				slog.Uint64("source_id", uint64(d.SourceID)),
				slog.Int("template_id", int(d.TemplateID)),
				slog.Int("offset", d.Offset))
		}
	}

	pkt := outjson.BuildPacket(records)
	doc := outjson.NewDocument(time.Now(), []outjson.Packet{pkt}, outjson.BuildTemplates(c.cache.Snapshot()))

	if err := c.transport.SendDocument(doc); err != nil {
		select {
		case c.errs <- err:
		default:
		}
	}
}

func (c *Collector) watchErrors() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		case err := <-c.errs:
			c.logObserved(err)
		case err := <-c.source.Errors():
			if err != nil {
				c.logObserved(err)
			}
		}
	}
}

func (c *Collector) logObserved(err error) {
	muted, skipped := c.mute.Increment()
	switch {
	case muted && skipped == 0:
		c.logger.Warn("too many collector errors, muting")
	case !muted && skipped > 0:
		c.logger.Warn("skipped collector errors", slog.Int("count", skipped))
	case !muted:
		c.logger.Error("collector error", slog.String("error", err.Error()))
	}
}

// Stop halts ingestion and waits for the error-watching goroutine to exit.
func (c *Collector) Stop() {
	if c.stopCh != nil {
		close(c.stopCh)
	}
	if err := c.source.Stop(); err != nil {
		c.logger.Error("stopping source", slog.String("error", err.Error()))
	}
	c.wg.Wait()
}

// Templates returns a point-in-time snapshot of the cache, used by the
// HTTP templates endpoint.
func (c *Collector) Templates() map[uint32]map[uint16]netflow9.TemplateRecord {
	return c.cache.Snapshot()
}
