package json

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/netflow9collector/decoders/netflow9"
)

func TestBuildPacketGroupsHeaderTemplateAndData(t *testing.T) {
	cache := netflow9.NewTemplateCache()
	buf := []byte{
		0x00, 0x09, // version 9
		0x00, 0x02, // count
		0x00, 0x00, 0x00, 0x01,
		0x65, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x2A,
		0x00, 0x00, 0x00, 0x07, // source_id 7
		// Template FlowSet: id=260, fields (8,4) (12,4)
		0x00, 0x00, 0x00, 0x10,
		0x01, 0x04, 0x00, 0x02,
		0x00, 0x08, 0x00, 0x04,
		0x00, 0x0C, 0x00, 0x04,
		// Data FlowSet referencing 260
		0x01, 0x04, 0x00, 0x0C,
		10, 0, 0, 1,
		10, 0, 0, 2,
	}

	records, diags, err := netflow9.DecodePacket(buf, cache)
	require.NoError(t, err)
	assert.Empty(t, diags)

	pkt := BuildPacket(records)
	assert.Equal(t, uint16(9), pkt.Version)
	assert.Equal(t, uint32(7), pkt.SourceID)
	require.Len(t, pkt.FlowSets, 2)

	require.Len(t, pkt.FlowSets[0].Templates, 1)
	assert.Equal(t, uint16(260), pkt.FlowSets[0].Templates[0].TemplateID)

	require.Len(t, pkt.FlowSets[1].Records, 1)
	assert.Equal(t, "10.0.0.1", pkt.FlowSets[1].Records[0]["Src IP"])
	assert.Equal(t, "10.0.0.2", pkt.FlowSets[1].Records[0]["Dst IP"])
}

func TestBuildTemplatesKeyedBySourceAndTemplateID(t *testing.T) {
	cache := netflow9.NewTemplateCache()
	cache.Put(7, netflow9.TemplateRecord{TemplateID: 260})

	templates := BuildTemplates(cache.Snapshot())
	require.Contains(t, templates, "7")
	require.Contains(t, templates["7"], "260")
	assert.Equal(t, uint16(260), templates["7"]["260"].TemplateID)
}

func TestNewDocumentMarshalsExpectedShape(t *testing.T) {
	doc := NewDocument(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil, map[string]map[string]Template{})
	raw, err := Marshal(doc)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, float64(9), decoded["version"])
	assert.Contains(t, decoded, "exportTime")
	assert.Contains(t, decoded, "packets")
	assert.Contains(t, decoded, "templates")
}
