// Package httpserver builds the collector's HTTP mux: Prometheus metrics,
// a health check, and a template-inspection endpoint.
package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/flowforge/netflow9collector/decoders/netflow9"
	"github.com/flowforge/netflow9collector/metrics"
	outjson "github.com/flowforge/netflow9collector/output/json"
)

// Config configures the HTTP server.
type Config struct {
	Addr         string
	TemplatePath string
}

// TemplateSource returns a snapshot of cached templates for rendering.
type TemplateSource func() map[uint32]map[uint16]netflow9.TemplateRecord

// HealthHandler reports whether the collector is currently running.
func HealthHandler(isCollecting func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isCollecting() {
			w.WriteHeader(http.StatusServiceUnavailable)
			writeLine(w, "Not OK\n")
			return
		}
		w.WriteHeader(http.StatusOK)
		writeLine(w, "OK\n")
	}
}

// TemplatesHandler renders the template cache snapshot in the same
// source_id/template_id-keyed shape the decoded-document JSON uses
// (output/json.BuildTemplates), rather than dumping the cache's raw
// uint-keyed map. An optional ?source_id=N query parameter narrows the
// response to one exporter, which is the common case when diagnosing why
// one router's flows aren't decoding.
func TemplatesHandler(templates TemplateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := templates()

		if raw := r.URL.Query().Get("source_id"); raw != "" {
			sourceID, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				writeLine(w, "invalid source_id\n")
				return
			}
			filtered := map[uint32]map[uint16]netflow9.TemplateRecord{}
			if byTemplate, ok := snapshot[uint32(sourceID)]; ok {
				filtered[uint32(sourceID)] = byTemplate
			}
			snapshot = filtered
		}

		rendered := outjson.BuildTemplates(snapshot)
		body, err := json.MarshalIndent(rendered, "", "  ")
		if err != nil {
			slog.Error("marshaling templates snapshot", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusInternalServerError)
			writeLine(w, "Internal Server Error\n")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			slog.Error("writing templates response", slog.String("error", err.Error()))
		}
	}
}

func writeLine(w http.ResponseWriter, s string) {
	if _, err := w.Write([]byte(s)); err != nil {
		slog.Error("writing HTTP response", slog.String("error", err.Error()))
	}
}

// New builds the mux serving /metrics, /__health, and the configured
// templates path.
func New(cfg Config, templates TemplateSource, isCollecting func() bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/__health", HealthHandler(isCollecting))
	if cfg.TemplatePath != "" && templates != nil {
		mux.HandleFunc(cfg.TemplatePath, TemplatesHandler(templates))
	}
	return mux
}
