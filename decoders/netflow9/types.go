package netflow9

import "time"

// PacketHeader is the fixed 20-byte NetFlow v9 packet header.
type PacketHeader struct {
	Version        uint16
	Count          uint16
	SysUptimeMs    uint32
	UnixSeconds    uint32
	SequenceNumber uint32
	SourceID       uint32
	Timestamp      time.Time
}

// FlowSetHeader is the 4-byte header shared by every FlowSet.
type FlowSetHeader struct {
	FlowSetID uint16
	Length    uint16
}

// TemplateField is one (type, length) pair inside a TemplateRecord.
type TemplateField struct {
	Type   uint16
	Length uint16
}

// TemplateRecord binds a template ID to an ordered field layout. RecordLength
// is the stride of one data record described by this template.
type TemplateRecord struct {
	TemplateID   uint16
	Fields       []TemplateField
	RecordLength int
}

func newTemplateRecord(templateID uint16, fields []TemplateField) TemplateRecord {
	sum := 0
	for _, f := range fields {
		sum += int(f.Length)
	}
	return TemplateRecord{
		TemplateID:   templateID,
		Fields:       fields,
		RecordLength: sum,
	}
}

// FieldValue is one decoded (key, value) pair, keeping the insertion order
// dictated by the owning template's field order.
type FieldValue struct {
	Key   string
	Value string
}

// DataRecord is one decoded flow record. Values preserves template field
// order; use Get for key lookup without building a map for small records.
type DataRecord struct {
	TemplateID uint16
	Values     []FieldValue
}

// Get returns the value for a key and whether it was present.
func (d DataRecord) Get(key string) (string, bool) {
	for _, v := range d.Values {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// RecordKind discriminates the arms of the polymorphic Record union: a
// tagged variant with three arms, rather than a marker-interface slice.
type RecordKind int

const (
	RecordKindHeader RecordKind = iota
	RecordKindTemplate
	RecordKindData
)

// Record is one element of a decoded packet's output sequence: exactly one
// Header record followed by the concatenation of Template/Data records
// from each FlowSet in wire order.
type Record struct {
	Kind     RecordKind
	Header   *PacketHeader
	Template *TemplateRecord
	Data     *DataRecord
}

func headerRecord(h PacketHeader) Record {
	return Record{Kind: RecordKindHeader, Header: &h}
}

func templateRecordEntry(t TemplateRecord) Record {
	return Record{Kind: RecordKindTemplate, Template: &t}
}

func dataRecordEntry(d DataRecord) Record {
	return Record{Kind: RecordKindData, Data: &d}
}
