// Package transport provides a registry of output sinks for decoded
// NetFlow v9 documents, so new sinks can be added without touching the
// collector.
package transport

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/flowforge/netflow9collector/metrics"
	outjson "github.com/flowforge/netflow9collector/output/json"
)

var (
	drivers = make(map[string]Driver)
	lock    sync.RWMutex

	// ErrTransport is the base error all driver failures wrap.
	ErrTransport = fmt.Errorf("transport error")
)

// DriverError wraps a driver-specific failure with its transport name.
type DriverError struct {
	Driver string
	Err    error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s for %s transport", e.Err.Error(), e.Driver)
}

func (e *DriverError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Driver is a transport plugin lifecycle: flag registration, connection
// setup, message delivery, and teardown.
type Driver interface {
	Prepare() error
	Init() error
	Close() error
	Send(key, data []byte) error
}

// Transport is a named, registered Driver.
type Transport struct {
	Driver
	name string
}

func (t *Transport) Close() error {
	if err := t.Driver.Close(); err != nil {
		return &DriverError{t.name, err}
	}
	return nil
}

func (t *Transport) Send(key, data []byte) error {
	if err := t.Driver.Send(key, data); err != nil {
		return &DriverError{t.name, err}
	}
	return nil
}

// SendDocument marshals doc and forwards it to the driver, keyed by the
// exporting device's source_id so a partitioned sink (e.g. Kafka) keeps
// one exporter's packets ordered relative to each other. Packet-less
// documents (nothing decoded) are sent with a nil key.
func (t *Transport) SendDocument(doc outjson.Document) error {
	body, err := outjson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("transport: marshaling document: %w", err)
	}

	var key []byte
	if len(doc.Packets) > 0 {
		key = []byte(strconv.FormatUint(uint64(doc.Packets[0].SourceID), 10))
	}

	if err := t.Send(key, body); err != nil {
		return err
	}
	metrics.DocumentBytesSent.WithLabelValues(t.name).Add(float64(len(body)))
	return nil
}

// Register adds a driver under name and runs its Prepare step (typically
// flag registration). Called from each driver package's init().
func Register(name string, d Driver) {
	lock.Lock()
	drivers[name] = d
	lock.Unlock()

	if err := d.Prepare(); err != nil {
		panic(err)
	}
}

// Find returns an initialized Transport by name.
func Find(name string) (*Transport, error) {
	lock.RLock()
	d, ok := drivers[name]
	lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", ErrTransport, name)
	}

	if err := d.Init(); err != nil {
		return nil, &DriverError{name, err}
	}
	return &Transport{d, name}, nil
}

// Names returns the registered driver names.
func Names() []string {
	lock.RLock()
	defer lock.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	return names
}
