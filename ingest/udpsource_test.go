package ingest

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func getFreeUDPPort(t *testing.T) int {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	require.NoError(t, err)
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port
}

func TestUDPSourceReceivesDatagram(t *testing.T) {
	port := getFreeUDPPort(t)

	src := NewUDPSource(UDPSourceConfig{Address: "127.0.0.1", Port: port, Sockets: 1, Workers: 1})

	var mu sync.Mutex
	var received []byte
	done := make(chan struct{})

	err := src.Start(func(p Payload) {
		mu.Lock()
		received = append([]byte{}, p.Data...)
		mu.Unlock()
		close(done)
	})
	require.NoError(t, err)
	defer src.Stop()

	conn, err := net.Dial("udp", "127.0.0.1:"+strconv.Itoa(port))
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "hello", string(received))
}

func TestUDPSourceDefaultsQueueSize(t *testing.T) {
	src := NewUDPSource(UDPSourceConfig{Address: "127.0.0.1", Port: 0})
	require.Equal(t, 1<<16, cap(src.dispatch))
}

func TestUDPSourceNonBlockingDropsWhenQueueFull(t *testing.T) {
	port := getFreeUDPPort(t)

	block := make(chan struct{})
	src := NewUDPSource(UDPSourceConfig{
		Address:   "127.0.0.1",
		Port:      port,
		Sockets:   1,
		Workers:   1,
		QueueSize: 1,
		Blocking:  false,
	})

	err := src.Start(func(p Payload) {
		<-block
	})
	require.NoError(t, err)
	defer func() {
		close(block)
		src.Stop()
	}()

	conn, err := net.Dial("udp", "127.0.0.1:"+strconv.Itoa(port))
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 10; i++ {
		_, err = conn.Write([]byte("x"))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return src.Dropped() > 0
	}, 2*time.Second, 10*time.Millisecond)
}
