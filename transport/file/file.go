// Package file implements a file/stdout transport driver for decoded
// document output.
package file

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/flowforge/netflow9collector/transport"
)

// Driver writes formatted documents to stdout or a file, reopening the
// file on SIGHUP so external log rotation doesn't orphan the descriptor.
type Driver struct {
	destination   string
	lineSeparator string

	mu   sync.RWMutex
	w    io.Writer
	file *os.File
	quit chan struct{}
}

func (d *Driver) Prepare() error {
	flag.StringVar(&d.destination, "transport.file", "", "File output path (empty for stdout)")
	flag.StringVar(&d.lineSeparator, "transport.file.sep", "\n", "Line separator between documents")
	return nil
}

func (d *Driver) openFile() error {
	f, err := os.OpenFile(d.destination, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	d.file = f
	d.w = f
	return nil
}

func (d *Driver) Init() error {
	d.quit = make(chan struct{})

	if d.destination == "" {
		d.w = os.Stdout
		return nil
	}

	d.mu.Lock()
	err := d.openFile()
	d.mu.Unlock()
	if err != nil {
		return err
	}

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-reload:
				d.mu.Lock()
				_ = d.file.Close()
				if err := d.openFile(); err != nil {
					d.mu.Unlock()
					slog.Error("reopening transport.file destination", slog.String("error", err.Error()))
					return
				}
				d.mu.Unlock()
				slog.Info("reopened transport.file destination", slog.String("path", d.destination))
			case <-d.quit:
				return
			}
		}
	}()
	return nil
}

// Send writes one NetFlow v9 document followed by the line separator.
// Nothing is written, not even the separator, when data is zero-length.
// A marshaled document is never zero-length, so a document whose packet
// produced no flow records is still written.
func (d *Driver) Send(_, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	d.mu.RLock()
	w := d.w
	d.mu.RUnlock()

	if _, err := w.Write(data); err != nil {
		return err
	}
	if d.lineSeparator == "" {
		return nil
	}
	_, err := w.Write([]byte(d.lineSeparator))
	return err
}

func (d *Driver) Close() error {
	var closeErr error
	if d.destination != "" {
		d.mu.Lock()
		closeErr = d.file.Close()
		d.mu.Unlock()
		signal.Ignore(syscall.SIGHUP)
	}
	close(d.quit)
	return closeErr
}

func init() {
	transport.Register("file", &Driver{})
}
