//go:build !pcap

package ingest

import "errors"

// ErrPCAPNotCompiled is returned when PCAP replay is requested in a binary
// built without the pcap build tag (it requires cgo and libpcap).
var ErrPCAPNotCompiled = errors.New("ingest: built without -tags pcap")

// PCAPSource is a non-functional stand-in so callers can reference the type
// without a build tag; NewPCAPSource always fails in this configuration.
type PCAPSource struct{}

var _ Source = (*PCAPSource)(nil)

// NewPCAPSource reports ErrPCAPNotCompiled; build with -tags pcap for the
// real implementation.
func NewPCAPSource(path string) (*PCAPSource, error) {
	return nil, ErrPCAPNotCompiled
}

func (s *PCAPSource) Start(handler Handler) error { return ErrPCAPNotCompiled }
func (s *PCAPSource) Stop() error                 { return ErrPCAPNotCompiled }
func (s *PCAPSource) Errors() <-chan error        { return nil }
