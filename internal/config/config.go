// Package config binds command-line flags to the collector's runtime
// configuration.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/flowforge/netflow9collector/transport"
)

// Config holds every flag the collector binary accepts.
type Config struct {
	Listen string

	MappingFile string

	PCAPFile string

	LogLevel string
	LogFmt   string

	Transport string

	ErrCnt int
	ErrInt time.Duration

	Addr         string
	TemplatePath string

	TemplatesTTL           time.Duration
	TemplatesSweepInterval time.Duration
}

// BindFlags registers flags on fs and returns the Config they populate.
func BindFlags(fs *flag.FlagSet) *Config {
	cfg := &Config{}

	fs.StringVar(&cfg.Listen, "listen", "netflow9://:2055",
		"Comma-separated listen URLs: scheme://host:port?count=N&workers=N&blocking=bool&queue_size=N")

	fs.StringVar(&cfg.MappingFile, "mapping", "", "YAML file mapping unknown field types to output key names")

	fs.StringVar(&cfg.PCAPFile, "pcap", "", "Replay datagrams from a PCAP file instead of listening (requires -tags pcap)")

	fs.StringVar(&cfg.LogLevel, "loglevel", "info", "Log level")
	fs.StringVar(&cfg.LogFmt, "logfmt", "normal", "Log formatter: normal or json")

	fs.StringVar(&cfg.Transport, "transport", "file", fmt.Sprintf("Output transport (available: %s)", strings.Join(transport.Names(), ", ")))

	fs.IntVar(&cfg.ErrCnt, "err.cnt", 10, "Maximum errors per batch before muting")
	fs.DurationVar(&cfg.ErrInt, "err.int", 10*time.Second, "Error muting reset interval")

	fs.StringVar(&cfg.Addr, "addr", ":8080", "HTTP server address (empty disables it)")
	fs.StringVar(&cfg.TemplatePath, "templates.path", "/templates", "HTTP path exposing the cached templates")

	fs.DurationVar(&cfg.TemplatesTTL, "templates.ttl", 0, "Evict templates not refreshed within this duration (0 disables eviction)")
	fs.DurationVar(&cfg.TemplatesSweepInterval, "templates.sweep", time.Minute, "How often to sweep for expired templates")

	return cfg
}
