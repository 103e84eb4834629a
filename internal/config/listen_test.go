package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListenAddressesDefaults(t *testing.T) {
	listeners, err := ParseListenAddresses("netflow9://:2055")
	require.NoError(t, err)
	require.Len(t, listeners, 1)

	l := listeners[0]
	assert.Equal(t, "netflow9", l.Scheme)
	assert.Equal(t, "", l.Hostname)
	assert.Equal(t, 2055, l.Port)
	assert.Equal(t, 1, l.NumSockets)
	assert.Equal(t, 2, l.NumWorkers)
	assert.False(t, l.Blocking)
	assert.Equal(t, 1<<16, l.QueueSize)
}

func TestParseListenAddressesAllParams(t *testing.T) {
	listeners, err := ParseListenAddresses("netflow9://0.0.0.0:2055?count=4&workers=16&blocking=true&queue_size=512")
	require.NoError(t, err)
	require.Len(t, listeners, 1)

	l := listeners[0]
	assert.Equal(t, "0.0.0.0", l.Hostname)
	assert.Equal(t, 4, l.NumSockets)
	assert.Equal(t, 16, l.NumWorkers)
	assert.True(t, l.Blocking)
	assert.Equal(t, 512, l.QueueSize)
}

func TestParseListenAddressesMultiple(t *testing.T) {
	listeners, err := ParseListenAddresses("netflow9://:2055,netflow9://:9995?count=2")
	require.NoError(t, err)
	require.Len(t, listeners, 2)
	assert.Equal(t, 2055, listeners[0].Port)
	assert.Equal(t, 9995, listeners[1].Port)
	assert.Equal(t, 2, listeners[1].NumSockets)
}

func TestParseListenAddressesBlankEntriesSkipped(t *testing.T) {
	listeners, err := ParseListenAddresses(" netflow9://:2055 , , ")
	require.NoError(t, err)
	require.Len(t, listeners, 1)
}

func TestParseListenAddressesInvalidPort(t *testing.T) {
	_, err := ParseListenAddresses("netflow9://:notaport")
	assert.Error(t, err)
}

func TestParseListenAddressesInvalidBlocking(t *testing.T) {
	_, err := ParseListenAddresses("netflow9://:2055?blocking=maybe")
	assert.Error(t, err)
}
