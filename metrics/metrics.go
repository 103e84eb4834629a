// Package metrics exposes Prometheus counters for the decode and ingest
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowforge/netflow9collector/decoders/netflow9"
)

const namespace = "netflow9collector"

var (
	// PacketsReceived counts raw datagrams handed to the decoder, labeled
	// by the exporter's remote address.
	PacketsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_received_total",
			Help:      "Datagrams received by the ingest layer.",
		},
		[]string{"remote_ip"},
	)

	// PacketsDecoded counts packets decoded without a packet-level error.
	PacketsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_decoded_total",
			Help:      "Packets successfully decoded.",
		},
		[]string{"remote_ip"},
	)

	// PacketErrors counts packet-level DecodeErrors by kind.
	PacketErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packet_errors_total",
			Help:      "Packets rejected outright, by error kind.",
		},
		[]string{"kind"},
	)

	// Diagnostics counts recoverable, non-fatal conditions by kind.
	Diagnostics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Non-fatal decode diagnostics, by kind.",
		},
		[]string{"kind"},
	)

	// RecordsEmitted counts emitted Template/Data records by kind.
	RecordsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Template and data records emitted by the decoder.",
		},
		[]string{"kind"},
	)

	// TemplatesCached reports the current number of cached templates.
	TemplatesCached = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "templates_cached",
			Help:      "Number of (source_id, template_id) entries currently cached.",
		},
	)

	// DecodeDuration summarizes per-packet decode latency.
	DecodeDuration = prometheus.NewSummary(
		prometheus.SummaryOpts{
			Namespace:  namespace,
			Name:       "decode_duration_seconds",
			Help:       "Time spent decoding one packet.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
	)

	// DocumentBytesSent counts bytes of marshaled JSON documents handed to
	// a transport driver, labeled by driver name.
	DocumentBytesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_bytes_sent_total",
			Help:      "Bytes of marshaled documents sent through a transport driver.",
		},
		[]string{"transport"},
	)
)

func init() {
	prometheus.MustRegister(
		PacketsReceived,
		PacketsDecoded,
		PacketErrors,
		Diagnostics,
		RecordsEmitted,
		TemplatesCached,
		DecodeDuration,
		DocumentBytesSent,
	)
}

// ObserveDiagnostics increments Diagnostics for each diagnostic's kind.
func ObserveDiagnostics(diags []netflow9.Diagnostic) {
	for _, d := range diags {
		Diagnostics.WithLabelValues(d.Kind.String()).Inc()
	}
}

// ObserveRecords increments RecordsEmitted for each record's kind.
func ObserveRecords(records []netflow9.Record) {
	for _, r := range records {
		switch r.Kind {
		case netflow9.RecordKindTemplate:
			RecordsEmitted.WithLabelValues("template").Inc()
		case netflow9.RecordKindData:
			RecordsEmitted.WithLabelValues("data").Inc()
		}
	}
}

// Handler returns the HTTP handler serving /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
