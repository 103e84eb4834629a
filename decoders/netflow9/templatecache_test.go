package netflow9

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateCachePutGet(t *testing.T) {
	c := NewTemplateCache()
	tmpl := newTemplateRecord(260, []TemplateField{{Type: 8, Length: 4}})
	c.Put(1, tmpl)

	got, ok := c.Get(1, 260)
	require.True(t, ok)
	assert.Equal(t, tmpl, got)
}

func TestTemplateCacheNamespacesBySourceID(t *testing.T) {
	c := NewTemplateCache()
	c.Put(1, newTemplateRecord(260, []TemplateField{{Type: 8, Length: 4}}))
	c.Put(2, newTemplateRecord(260, []TemplateField{{Type: 8, Length: 4}, {Type: 12, Length: 4}}))

	t1, ok := c.Get(1, 260)
	require.True(t, ok)
	t2, ok := c.Get(2, 260)
	require.True(t, ok)

	assert.NotEqual(t, t1.RecordLength, t2.RecordLength, "same template_id from different exporters must not collide")
}

func TestTemplateCacheGetMissing(t *testing.T) {
	c := NewTemplateCache()
	_, ok := c.Get(1, 999)
	assert.False(t, ok)
}

func TestTemplateCacheLateRedefinitionOverwrites(t *testing.T) {
	c := NewTemplateCache()
	c.Put(1, newTemplateRecord(260, []TemplateField{{Type: 8, Length: 4}}))
	c.Put(1, newTemplateRecord(260, []TemplateField{{Type: 8, Length: 4}, {Type: 12, Length: 4}}))

	got, ok := c.Get(1, 260)
	require.True(t, ok)
	assert.Equal(t, 8, got.RecordLength)
}

func TestTemplateCacheSnapshotDoesNotAliasInternalState(t *testing.T) {
	c := NewTemplateCache()
	c.Put(1, newTemplateRecord(260, []TemplateField{{Type: 8, Length: 4}}))

	snap := c.Snapshot()
	snap[1][260] = newTemplateRecord(260, nil)

	got, ok := c.Get(1, 260)
	require.True(t, ok)
	assert.Equal(t, 4, got.RecordLength, "mutating a snapshot must not affect the live cache")
}

func TestTemplateCacheClear(t *testing.T) {
	c := NewTemplateCache()
	c.Put(1, newTemplateRecord(260, []TemplateField{{Type: 8, Length: 4}}))
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestTemplateCacheConcurrentAccess(t *testing.T) {
	c := NewTemplateCache()
	done := make(chan struct{})
	for i := 0; i < 50; i++ {
		go func(i int) {
			c.Put(uint32(i), newTemplateRecord(uint16(260+i), []TemplateField{{Type: 8, Length: 4}}))
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 50; i++ {
		<-done
	}
	assert.Equal(t, 50, c.Len())
}
