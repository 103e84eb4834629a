//go:build pcap

package ingest

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// PCAPSource replays UDP payloads from an offline capture file. It is
// build-tagged: only compiled in with -tags pcap.
type PCAPSource struct {
	path  string
	errCh chan error
	quit  chan struct{}
}

var _ Source = (*PCAPSource)(nil)

// NewPCAPSource constructs a source that will replay path when started.
func NewPCAPSource(path string) (*PCAPSource, error) {
	return &PCAPSource{
		path:  path,
		errCh: make(chan error, 1),
		quit:  make(chan struct{}),
	}, nil
}

// Start opens the capture file and replays every UDP datagram to handler,
// returning once the file is exhausted or Stop is called.
func (s *PCAPSource) Start(handler Handler) error {
	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("ingest: opening pcap file: %w", err)
	}
	defer file.Close()

	handle, err := pcap.OpenOfflineFile(file)
	if err != nil {
		return fmt.Errorf("ingest: reading pcap file: %w", err)
	}

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	for {
		select {
		case <-s.quit:
			return nil
		default:
		}

		packet, err := source.NextPacket()
		if err != nil {
			return nil
		}

		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok {
			continue
		}
		netFlow := packet.NetworkLayer().NetworkFlow()

		src, err := netip.ParseAddrPort(netFlow.Src().String() + ":" + udp.SrcPort.String())
		if err != nil {
			continue
		}
		dst, err := netip.ParseAddrPort(netFlow.Dst().String() + ":" + strconv.Itoa(int(udp.DstPort)))
		if err != nil {
			continue
		}

		handler(Payload{
			Src:      src,
			Dst:      dst,
			Data:     udp.Payload,
			Received: time.Now(),
		})
	}
}

// Stop signals the replay loop to end before the file is exhausted.
func (s *PCAPSource) Stop() error {
	close(s.quit)
	return nil
}

// Errors returns capture-level failures; PCAPSource reports most failures
// as the Start return value instead, since replay is inherently synchronous.
func (s *PCAPSource) Errors() <-chan error {
	return s.errCh
}
