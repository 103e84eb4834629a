// Package json renders decoded NetFlow v9 records into the JSON shape the
// external dashboard consumes. It is a
// thin presentation layer over decoders/netflow9: the core decoder never
// imports this package.
package json

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/flowforge/netflow9collector/decoders/netflow9"
)

// TemplateField mirrors one (Type, Length) pair for JSON rendering.
type TemplateField struct {
	Type   uint16 `json:"Type"`
	Length uint16 `json:"Length"`
}

// Template mirrors a cached template's shape in the templates map.
type Template struct {
	TemplateID uint16          `json:"TemplateId"`
	Fields     []TemplateField `json:"Fields"`
}

// FlowSet is one element of a packet's flowSets array: exactly one of
// Templates or Records is populated, mirroring which wire FlowSet produced
// the batch of Record values it was built from.
type FlowSet struct {
	Templates []Template          `json:"templates,omitempty"`
	Records   []map[string]string `json:"records,omitempty"`
}

// Packet mirrors one decoded datagram's header plus its FlowSet sequence.
type Packet struct {
	Version        uint16    `json:"version"`
	Count          uint16    `json:"count"`
	SysUptime      uint32    `json:"sysUpTime"`
	UnixSecs       uint32    `json:"unixSecs"`
	SequenceNumber uint32    `json:"sequenceNumber"`
	SourceID       uint32    `json:"sourceId"`
	FlowSets       []FlowSet `json:"flowSets"`
}

// Document is the top-level object the dashboard reads.
type Document struct {
	Version    int                            `json:"version"`
	ExportTime string                         `json:"exportTime"`
	Packets    []Packet                       `json:"packets"`
	Templates  map[string]map[string]Template `json:"templates"`
}

// BuildPacket converts one DecodePacket result into its JSON representation.
// records must start with a Header record, as DecodePacket always produces.
func BuildPacket(records []netflow9.Record) Packet {
	var pkt Packet
	if len(records) == 0 {
		return pkt
	}

	head := records[0]
	if head.Kind == netflow9.RecordKindHeader && head.Header != nil {
		pkt.Version = head.Header.Version
		pkt.Count = head.Header.Count
		pkt.SysUptime = head.Header.SysUptimeMs
		pkt.UnixSecs = head.Header.UnixSeconds
		pkt.SequenceNumber = head.Header.SequenceNumber
		pkt.SourceID = head.Header.SourceID
	}

	for _, rec := range records[1:] {
		switch rec.Kind {
		case netflow9.RecordKindTemplate:
			tmpl := toTemplate(*rec.Template)
			if n := len(pkt.FlowSets); n > 0 && pkt.FlowSets[n-1].Records == nil && pkt.FlowSets[n-1].Templates != nil {
				pkt.FlowSets[n-1].Templates = append(pkt.FlowSets[n-1].Templates, tmpl)
				continue
			}
			pkt.FlowSets = append(pkt.FlowSets, FlowSet{Templates: []Template{tmpl}})
		case netflow9.RecordKindData:
			rendered := toRecordMap(*rec.Data)
			if n := len(pkt.FlowSets); n > 0 && pkt.FlowSets[n-1].Templates == nil && pkt.FlowSets[n-1].Records != nil {
				pkt.FlowSets[n-1].Records = append(pkt.FlowSets[n-1].Records, rendered)
				continue
			}
			pkt.FlowSets = append(pkt.FlowSets, FlowSet{Records: []map[string]string{rendered}})
		}
	}

	return pkt
}

func toTemplate(t netflow9.TemplateRecord) Template {
	fields := make([]TemplateField, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = TemplateField{Type: f.Type, Length: f.Length}
	}
	return Template{TemplateID: t.TemplateID, Fields: fields}
}

func toRecordMap(d netflow9.DataRecord) map[string]string {
	out := make(map[string]string, len(d.Values))
	for _, v := range d.Values {
		out[v.Key] = v.Value
	}
	return out
}

// BuildTemplates converts a cache snapshot into the top-level templates map,
// keyed by string source_id and template_id to match JSON object semantics.
func BuildTemplates(snapshot map[uint32]map[uint16]netflow9.TemplateRecord) map[string]map[string]Template {
	out := make(map[string]map[string]Template, len(snapshot))
	for sourceID, bySource := range snapshot {
		key := strconv.FormatUint(uint64(sourceID), 10)
		inner := make(map[string]Template, len(bySource))
		for templateID, tmpl := range bySource {
			inner[strconv.FormatUint(uint64(templateID), 10)] = toTemplate(tmpl)
		}
		out[key] = inner
	}
	return out
}

// Marshal renders a Document to its wire JSON form.
func Marshal(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}

// NewDocument assembles a Document from already-decoded packets and the
// current template cache, stamping exportTime at the provided instant
// (callers pass the current time rather than this package calling the
// clock itself, keeping it pure and testable); it is rendered in UTC.
func NewDocument(exportTime time.Time, packets []Packet, templates map[string]map[string]Template) Document {
	return Document{
		Version:    9,
		ExportTime: exportTime.UTC().Format(time.RFC3339Nano),
		Packets:    packets,
		Templates:  templates,
	}
}
