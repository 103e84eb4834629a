package netflow9

// decodeFlowSetResult carries everything one FlowSet decode produced: the
// emitted records, any templates learned as a side effect, and non-fatal
// diagnostics. A non-nil err means the caller must stop the packet (only
// MalformedFlowSet/Truncated do this; everything else is carried in diags).
type decodeFlowSetResult struct {
	records []Record
	diags   []Diagnostic
}

// decodeFlowSet classifies and decodes the FlowSet starting at content[0]
// (the caller has already sliced content to exactly this FlowSet's bytes,
// header included). It installs learned templates into cache as a side
// effect. It dispatches on the FlowSet id into one of three arms:
// Template (0), skipped (Options-Template 1, reserved 2-255), and Data
// (>=256).
func decodeFlowSet(content []byte, sourceID uint32, cache Cache) (decodeFlowSetResult, error) {
	var res decodeFlowSetResult

	r := newReader(content)
	flowSetID, err := r.readU16()
	if err != nil {
		return res, newDecodeError(ErrMalformedFlowSet, sourceID, 0, 0, "reading flowset id: "+err.Error())
	}
	length, err := r.readU16()
	if err != nil {
		return res, newDecodeError(ErrMalformedFlowSet, sourceID, flowSetID, 2, "reading flowset length: "+err.Error())
	}
	if length < 4 {
		return res, newDecodeError(ErrMalformedFlowSet, sourceID, flowSetID, 2, "flowset length < 4")
	}
	if int(length) > len(content) {
		return res, newDecodeError(ErrTruncated, sourceID, flowSetID, 4, "flowset declared length exceeds available bytes")
	}

	body := content[4:length]

	switch {
	case flowSetID == 0:
		records, diags := decodeTemplateFlowSet(body, sourceID, cache)
		res.records = records
		res.diags = diags
	case flowSetID == 1:
		// Options-Template: recognized and skipped.
	case flowSetID >= 2 && flowSetID <= 255:
		// Reserved: skip without error.
	default:
		records, diags := decodeDataFlowSet(body, sourceID, flowSetID, cache)
		res.records = records
		res.diags = diags
	}

	return res, nil
}

// decodeTemplateFlowSet reads back-to-back TemplateRecords until fewer than
// 4 bytes remain or a partial trailing tuple is hit, installing each
// complete template into cache and emitting it.
func decodeTemplateFlowSet(body []byte, sourceID uint32, cache Cache) ([]Record, []Diagnostic) {
	var records []Record
	var diags []Diagnostic

	r := newReader(body)
	for r.remaining() >= 4 {
		templateID, err := r.readU16()
		if err != nil {
			break
		}
		fieldCount, err := r.readU16()
		if err != nil {
			break
		}

		needed := int(fieldCount) * 4
		if r.remaining() < needed {
			// Partial trailing tuple: end the FlowSet without error.
			diags = append(diags, Diagnostic{
				Kind:       ErrTruncated,
				SourceID:   sourceID,
				TemplateID: templateID,
				Offset:     r.off,
				Message:    "partial trailing template field tuple",
			})
			break
		}

		fields := make([]TemplateField, fieldCount)
		for i := 0; i < int(fieldCount); i++ {
			fieldType, _ := r.readU16()
			fieldLength, _ := r.readU16()
			fields[i] = TemplateField{Type: fieldType, Length: fieldLength}
		}

		tmpl := newTemplateRecord(templateID, fields)
		cache.Put(sourceID, tmpl)
		records = append(records, templateRecordEntry(tmpl))
	}

	return records, diags
}

// decodeDataFlowSet looks up the template for flowSetID (which doubles as
// the template ID for Data FlowSets) and decodes as many fixed-stride
// records as fit in body.
func decodeDataFlowSet(body []byte, sourceID uint32, flowSetID uint16, cache Cache) ([]Record, []Diagnostic) {
	tmpl, ok := cache.Get(sourceID, flowSetID)
	if !ok {
		return nil, []Diagnostic{{
			Kind:       ErrUnknownTemplate,
			SourceID:   sourceID,
			TemplateID: flowSetID,
			Message:    "data flowset references a template not yet seen",
		}}
	}
	if tmpl.RecordLength == 0 {
		return nil, []Diagnostic{{
			Kind:       ErrInvalidTemplate,
			SourceID:   sourceID,
			TemplateID: flowSetID,
			Message:    "cached template has zero record length",
		}}
	}

	var records []Record
	r := newReader(body)
	for r.remaining() >= tmpl.RecordLength {
		values := make([]FieldValue, 0, len(tmpl.Fields))
		for _, field := range tmpl.Fields {
			if field.Length == 0 {
				// Zero-width field: empty value, no bytes consumed.
				values = append(values, FieldValue{Key: fieldKey(field.Type), Value: ""})
				continue
			}
			raw, err := r.readBytes(int(field.Length))
			if err != nil {
				// Should not happen: tmpl.RecordLength already bounds this
				// loop. Defensive stop rather than a partial record.
				return records, nil
			}
			values = append(values, FieldValue{Key: fieldKey(field.Type), Value: formatFieldValue(field.Type, raw)})
		}
		records = append(records, dataRecordEntry(DataRecord{TemplateID: flowSetID, Values: values}))
	}
	// Remaining bytes smaller than one record's stride are padding, discarded silently.

	return records, nil
}
