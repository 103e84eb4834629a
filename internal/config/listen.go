package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ListenerConfig is one parsed entry from the -listen flag:
// scheme://host:port?count=N&workers=N&blocking=bool&queue_size=N. Only
// the netflow9 scheme is meaningful to this collector, but the grammar is
// shared with the rest of the URL so operators carrying over a
// multi-protocol listen string only need to drop the schemes this
// collector doesn't understand.
type ListenerConfig struct {
	Scheme     string
	Hostname   string
	Port       int
	NumSockets int
	NumWorkers int
	Blocking   bool
	QueueSize  int
}

// ParseListenAddresses parses a comma-separated list of listen URLs.
func ParseListenAddresses(spec string) ([]ListenerConfig, error) {
	var listeners []ListenerConfig
	for _, raw := range strings.Split(spec, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		lc, err := parseListenAddress(raw)
		if err != nil {
			return nil, err
		}
		listeners = append(listeners, lc)
	}
	return listeners, nil
}

func parseListenAddress(raw string) (ListenerConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ListenerConfig{}, fmt.Errorf("config: parsing listen address %q: %w", raw, err)
	}
	q := u.Query()

	numSockets, err := queryInt(q, "count", 1)
	if err != nil {
		return ListenerConfig{}, fmt.Errorf("config: listen address %q: %w", raw, err)
	}
	if numSockets <= 0 {
		numSockets = 1
	}

	numWorkers, err := queryInt(q, "workers", 0)
	if err != nil {
		return ListenerConfig{}, fmt.Errorf("config: listen address %q: %w", raw, err)
	}
	if numWorkers <= 0 {
		numWorkers = numSockets * 2
	}

	var blocking bool
	if q.Has("blocking") {
		blocking, err = strconv.ParseBool(q.Get("blocking"))
		if err != nil {
			return ListenerConfig{}, fmt.Errorf("config: listen address %q: parsing blocking: %w", raw, err)
		}
	}

	queueSize, err := queryInt(q, "queue_size", 0)
	if err != nil {
		return ListenerConfig{}, fmt.Errorf("config: listen address %q: %w", raw, err)
	}
	if queueSize == 0 && !blocking {
		queueSize = 1 << 16
	}

	port, err := strconv.ParseUint(u.Port(), 10, 16)
	if err != nil {
		return ListenerConfig{}, fmt.Errorf("config: listen address %q: invalid port %q: %w", raw, u.Port(), err)
	}

	return ListenerConfig{
		Scheme:     u.Scheme,
		Hostname:   u.Hostname(),
		Port:       int(port),
		NumSockets: numSockets,
		NumWorkers: numWorkers,
		Blocking:   blocking,
		QueueSize:  queueSize,
	}, nil
}

func queryInt(q url.Values, key string, def int) (int, error) {
	if !q.Has(key) {
		return def, nil
	}
	v, err := strconv.ParseUint(q.Get(key), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return int(v), nil
}
