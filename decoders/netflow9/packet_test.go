package netflow9

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packetHeaderBytes(count uint16, sourceID uint32) []byte {
	return []byte{
		0x00, 0x09, // version 9
		byte(count >> 8), byte(count),
		0x00, 0x00, 0x00, 0x01, // sys uptime
		0x65, 0x00, 0x00, 0x00, // unix seconds
		0x00, 0x00, 0x00, 0x2A, // sequence number
		byte(sourceID >> 24), byte(sourceID >> 16), byte(sourceID >> 8), byte(sourceID),
	}
}

func TestIsV9(t *testing.T) {
	assert.True(t, IsV9(packetHeaderBytes(1, 1)))
	assert.False(t, IsV9([]byte{0x00, 0x05, 0, 0}))
	assert.False(t, IsV9([]byte{0x00}))
}

func TestDecodePacketTemplateThenData(t *testing.T) {
	cache := NewTemplateCache()
	buf := append([]byte{}, packetHeaderBytes(2, 7)...)
	buf = append(buf, templateFlowSetBytes()...)
	buf = append(buf, dataFlowSetBytes()...)

	records, diags, err := DecodePacket(buf, cache)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, records, 3)

	assert.Equal(t, RecordKindHeader, records[0].Kind)
	assert.Equal(t, uint32(7), records[0].Header.SourceID)
	assert.Equal(t, RecordKindTemplate, records[1].Kind)
	assert.Equal(t, RecordKindData, records[2].Kind)
}

func TestDecodePacketDataBeforeTemplateYieldsDiagnostic(t *testing.T) {
	cache := NewTemplateCache()
	buf := append([]byte{}, packetHeaderBytes(1, 7)...)
	buf = append(buf, dataFlowSetBytes()...)

	records, diags, err := DecodePacket(buf, cache)
	require.NoError(t, err)
	require.Len(t, records, 1, "only the header record, since the data flowset yields no records")
	require.Len(t, diags, 1)
	assert.Equal(t, ErrUnknownTemplate, diags[0].Kind)
}

func TestDecodePacketRejectsWrongVersion(t *testing.T) {
	cache := NewTemplateCache()
	buf := packetHeaderBytes(1, 1)
	buf[0], buf[1] = 0x00, 0x05 // version 5

	_, _, err := DecodePacket(buf, cache)
	require.Error(t, err)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, ErrInvalidHeader, decErr.Kind)
}

func TestDecodePacketRejectsZeroCount(t *testing.T) {
	cache := NewTemplateCache()
	buf := packetHeaderBytes(0, 1)

	_, _, err := DecodePacket(buf, cache)
	require.Error(t, err)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, ErrInvalidHeader, decErr.Kind)
}

func TestDecodePacketTooShortForHeader(t *testing.T) {
	cache := NewTemplateCache()
	_, _, err := DecodePacket([]byte{0x00, 0x09, 0x00, 0x01}, cache)
	require.Error(t, err)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, ErrTruncated, decErr.Kind)
}

func TestDecodePacketIgnoresAdvisoryCountMismatch(t *testing.T) {
	cache := NewTemplateCache()
	// header.Count claims 99 records, but only two FlowSets actually follow;
	// the decoder must walk by byte length, not stop early or demand more.
	buf := append([]byte{}, packetHeaderBytes(99, 7)...)
	buf = append(buf, templateFlowSetBytes()...)
	buf = append(buf, dataFlowSetBytes()...)

	records, diags, err := DecodePacket(buf, cache)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Len(t, records, 3)
}

func TestDecodePacketTrailingBytesTooShortForFlowSetHeader(t *testing.T) {
	cache := NewTemplateCache()
	buf := append([]byte{}, packetHeaderBytes(1, 7)...)
	buf = append(buf, 0x00, 0x01) // 2 stray bytes, short of a 4-byte flowset header

	records, diags, err := DecodePacket(buf, cache)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, diags, 1)
	assert.Equal(t, ErrTruncated, diags[0].Kind)
}

func TestDecodePacketStopsAfterTruncatedFlowSetButKeepsPriorRecords(t *testing.T) {
	cache := NewTemplateCache()
	buf := append([]byte{}, packetHeaderBytes(2, 7)...)
	buf = append(buf, templateFlowSetBytes()...)
	buf = append(buf, dataFlowSetBytes()...)
	// A second FlowSet header declaring far more length than actually
	// follows in the datagram: flowset id 260, declared length 32, only
	// 4 bytes of header remain.
	buf = append(buf, 0x01, 0x04, 0x00, 0x20)

	records, diags, err := DecodePacket(buf, cache)
	require.Error(t, err)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, ErrTruncated, decErr.Kind)
	assert.Empty(t, diags)

	require.Len(t, records, 3, "the header, template, and data records from before the truncated flowset must survive")
	assert.Equal(t, RecordKindHeader, records[0].Kind)
	assert.Equal(t, RecordKindTemplate, records[1].Kind)
	assert.Equal(t, RecordKindData, records[2].Kind)
}

func TestDecodePacketMultipleExportersDoNotShareTemplateNamespace(t *testing.T) {
	cache := NewTemplateCache()

	bufA := append([]byte{}, packetHeaderBytes(1, 1)...)
	bufA = append(bufA, templateFlowSetBytes()...)
	_, _, err := DecodePacket(bufA, cache)
	require.NoError(t, err)

	// Exporter 2 never sent this template; its data flowset must be unknown.
	bufB := append([]byte{}, packetHeaderBytes(1, 2)...)
	bufB = append(bufB, dataFlowSetBytes()...)
	records, diags, err := DecodePacket(bufB, cache)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, diags, 1)
	assert.Equal(t, ErrUnknownTemplate, diags[0].Kind)
}
