// Package ingest provides PayloadSource implementations that hand raw UDP
// datagrams to a decode callback — live sockets and offline PCAP files
// behind one interface, kept outside decoders/netflow9 since the core
// decoder never owns ingestion (no core-owned live socket
// ingestion).
package ingest

import (
	"net/netip"
	"time"
)

// Payload is one received datagram, addressed by source/destination and
// timestamped at receipt.
type Payload struct {
	Src      netip.AddrPort
	Dst      netip.AddrPort
	Data     []byte
	Received time.Time
}

// Handler processes one received Payload. Implementations must not retain
// Payload.Data past the call — sources reuse buffers.
type Handler func(Payload)

// Source is a PayloadSource: something that produces datagrams and feeds
// them to a Handler until Stop is called.
type Source interface {
	Start(handler Handler) error
	Stop() error
	Errors() <-chan error
}
