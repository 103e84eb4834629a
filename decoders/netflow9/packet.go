package netflow9

import "time"

const packetHeaderLength = 20

// IsV9 is a cheap precheck for demultiplexing a UDP payload by version
// without committing to a full decode: true only if buf is long enough to
// hold a header and its first two bytes read as version 9.
func IsV9(buf []byte) bool {
	if len(buf) < packetHeaderLength {
		return false
	}
	return beU16(buf[0:2]) == 9
}

// DecodePacket decodes one NetFlow v9 UDP payload into its output sequence:
// exactly one Header record, followed by the Template/Data records produced
// by each FlowSet in wire order. cache is mutated in
// place as Template FlowSets are observed. Decoding always walks FlowSets
// by their declared byte length, never by header.Count, since Count is
// merely advisory metadata per the RFC.
func DecodePacket(buf []byte, cache Cache) ([]Record, []Diagnostic, error) {
	if len(buf) < packetHeaderLength {
		return nil, nil, newDecodeError(ErrTruncated, 0, 0, 0, "packet shorter than the 20-byte header")
	}

	r := newReader(buf)
	version, _ := r.readU16()
	if version != 9 {
		return nil, nil, newDecodeError(ErrInvalidHeader, 0, 0, 0, "unsupported version")
	}
	count, _ := r.readU16()
	if count == 0 {
		return nil, nil, newDecodeError(ErrInvalidHeader, 0, 0, 2, "count is zero")
	}
	sysUptime, _ := r.readU32()
	unixSeconds, _ := r.readU32()
	sequenceNumber, _ := r.readU32()
	sourceID, _ := r.readU32()

	header := PacketHeader{
		Version:        version,
		Count:          count,
		SysUptimeMs:    sysUptime,
		UnixSeconds:    unixSeconds,
		SequenceNumber: sequenceNumber,
		SourceID:       sourceID,
		Timestamp:      time.Unix(int64(unixSeconds), 0).UTC(),
	}

	records := []Record{headerRecord(header)}
	var diags []Diagnostic

	for r.remaining() > 0 {
		if r.remaining() < 4 {
			diags = append(diags, Diagnostic{
				Kind:     ErrTruncated,
				SourceID: sourceID,
				Offset:   r.off,
				Message:  "trailing bytes too short for a flowset header",
			})
			break
		}

		res, err := decodeFlowSet(buf[r.off:], sourceID, cache)
		if err != nil {
			return records, diags, err
		}

		records = append(records, res.records...)
		diags = append(diags, res.diags...)

		// decodeFlowSet re-reads the header itself; advance by its declared
		// length rather than duplicating that parse here.
		length := beU16(buf[r.off+2 : r.off+4])
		if _, err := r.readBytes(int(length)); err != nil {
			diags = append(diags, Diagnostic{
				Kind:     ErrTruncated,
				SourceID: sourceID,
				Offset:   r.off,
				Message:  "flowset length exceeds remaining packet bytes",
			})
			break
		}
	}

	return records, diags, nil
}
