package ingest

import (
	"fmt"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	reuseport "github.com/libp2p/go-reuseport"
)

const maxDatagramSize = 9000

var packetPool = sync.Pool{
	New: func() any {
		return make([]byte, maxDatagramSize)
	},
}

// UDPSourceConfig configures a live UDP listener. Sockets controls how
// many SO_REUSEPORT listeners share the port (spreading kernel-level
// receive load); Workers controls the decode goroutine pool size.
// QueueSize sets the dispatch channel's buffer; Blocking controls what a
// receive loop does when that buffer is full: block (never drop a
// datagram, at the risk of stalling the kernel socket buffer) or drop
// the datagram and keep reading.
type UDPSourceConfig struct {
	Address   string
	Port      int
	Sockets   int
	Workers   int
	QueueSize int
	Blocking  bool
}

// UDPSource receives datagrams on one or more SO_REUSEPORT UDP sockets and
// dispatches them to a worker pool. A read failure ends that socket's
// receive loop and is signaled on Errors() unless its buffer is full.
type UDPSource struct {
	cfg UDPSourceConfig

	conns    []*net.UDPConn
	dispatch chan Payload
	errCh    chan error
	quit     chan struct{}
	wg       sync.WaitGroup
	dropped  atomic.Uint64
}

var _ Source = (*UDPSource)(nil)

// NewUDPSource constructs a source; call Start to begin listening.
func NewUDPSource(cfg UDPSourceConfig) *UDPSource {
	if cfg.Sockets <= 0 {
		cfg.Sockets = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = cfg.Sockets * 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1 << 16
	}
	return &UDPSource{
		cfg:      cfg,
		dispatch: make(chan Payload, cfg.QueueSize),
		errCh:    make(chan error, 16),
		quit:     make(chan struct{}),
	}
}

// Dropped returns the number of datagrams discarded because the dispatch
// queue was full and the source is configured non-blocking.
func (s *UDPSource) Dropped() uint64 {
	return s.dropped.Load()
}

// Start opens cfg.Sockets listeners and cfg.Workers decode goroutines,
// each invoking handler for every received datagram.
func (s *UDPSource) Start(handler Handler) error {
	for i := 0; i < s.cfg.Sockets; i++ {
		pconn, err := reuseport.ListenPacket("udp", fmt.Sprintf("%s:%d", s.cfg.Address, s.cfg.Port))
		if err != nil {
			s.Stop()
			return err
		}
		udpConn, ok := pconn.(*net.UDPConn)
		if !ok {
			s.Stop()
			return fmt.Errorf("ingest: reuseport did not return a *net.UDPConn")
		}
		s.conns = append(s.conns, udpConn)

		s.wg.Add(1)
		go s.receiveLoop(udpConn)
	}

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.decodeLoop(handler)
	}

	return nil
}

func (s *UDPSource) receiveLoop(conn *net.UDPConn) {
	defer s.wg.Done()

	localAddr, _ := netip.ParseAddrPort(conn.LocalAddr().String())

	for {
		buf := packetPool.Get().([]byte)
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			packetPool.Put(buf) //nolint:staticcheck // buf is unused past this point
			select {
			case <-s.quit:
				return
			default:
			}
			select {
			case s.errCh <- err:
			default:
			}
			return
		}
		if n == 0 {
			packetPool.Put(buf)
			continue
		}

		payload := Payload{
			Src:      src.AddrPort(),
			Dst:      localAddr,
			Data:     buf[:n],
			Received: time.Now(),
		}

		if s.cfg.Blocking {
			select {
			case s.dispatch <- payload:
			case <-s.quit:
				packetPool.Put(buf)
				return
			}
			continue
		}

		select {
		case s.dispatch <- payload:
		case <-s.quit:
			packetPool.Put(buf)
			return
		default:
			s.dropped.Add(1)
			packetPool.Put(buf)
		}
	}
}

func (s *UDPSource) decodeLoop(handler Handler) {
	defer s.wg.Done()
	for {
		select {
		case p, ok := <-s.dispatch:
			if !ok {
				return
			}
			handler(p)
			packetPool.Put(p.Data[:cap(p.Data)])
		case <-s.quit:
			return
		}
	}
}

// Stop closes all listeners and waits for in-flight goroutines to exit.
func (s *UDPSource) Stop() error {
	close(s.quit)
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.wg.Wait()
	close(s.dispatch)
	return nil
}

// Errors returns read/listen failures observed by the receive loops.
func (s *UDPSource) Errors() <-chan error {
	return s.errCh
}
