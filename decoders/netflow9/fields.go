package netflow9

import (
	"fmt"
	"sync"
)

// fieldNameOverrides holds operator-supplied output-key overrides for
// field types not in fieldCatalog (or whose catalog name an operator
// wants replaced), loaded from a mapping file. It is consulted before
// the catalog and the "Field_<type>" fallback.
var (
	fieldNameOverridesMu sync.RWMutex
	fieldNameOverrides   map[uint16]string
)

// SetFieldNameOverrides replaces the active set of field-type -> output-key
// overrides. Passing nil clears all overrides.
func SetFieldNameOverrides(overrides map[uint16]string) {
	fieldNameOverridesMu.Lock()
	defer fieldNameOverridesMu.Unlock()
	fieldNameOverrides = overrides
}

// fieldSpec describes how to render a known NetFlow v9 field type: its
// canonical output key and its canonical wire width. Lengths that don't
// match the canonical width fall back to hex;
// this table never causes a decode error on its own.
type fieldSpec struct {
	key    string
	length int
}

// fieldCatalog is the mandatory field table from the wire-format section.
// IPv6 address-family types and anything outside this table are
// deliberately absent (Non-goal); unknown types fall back to "Field_<type>"
// with hex values.
var fieldCatalog = map[uint16]fieldSpec{
	1:   {"Bytes", 4},
	2:   {"Packets", 4},
	4:   {"Protocol", 1},
	5:   {"TOS", 1},
	6:   {"TCP Flags", 1},
	7:   {"Src Port", 2},
	8:   {"Src IP", 4},
	9:   {"Src Mask", 1},
	10:  {"Input IF", 4},
	11:  {"Dst Port", 2},
	12:  {"Dst IP", 4},
	13:  {"Dst Mask", 1},
	14:  {"Output IF", 4},
	15:  {"Next Hop", 4},
	21:  {"Src MAC", 6},
	22:  {"Dst MAC", 6},
	34:  {"Start Time", 4},
	35:  {"End Time", 4},
	56:  {"Flow Start SysUp", 4},
	57:  {"Flow End SysUp", 4},
	80:  {"Flow Start Unix", 8},
	81:  {"Flow End Unix", 8},
	225: {"Post-NAT Src IP", 4},
	226: {"Post-NAT Dst IP", 4},
	227: {"Post-NAT Src Port", 2},
	228: {"Post-NAT Dst Port", 2},
}

// fieldKey returns the output map key for a field type: an operator
// override if one is configured, else the catalog name, else
// "Field_<type>".
func fieldKey(fieldType uint16) string {
	fieldNameOverridesMu.RLock()
	override, overridden := fieldNameOverrides[fieldType]
	fieldNameOverridesMu.RUnlock()
	if overridden {
		return override
	}
	if spec, ok := fieldCatalog[fieldType]; ok {
		return spec.key
	}
	return fmt.Sprintf("Field_%d", fieldType)
}

// formatFieldValue renders a field's raw bytes: canonical decoding
// when the byte length matches the catalog width, hex fallback otherwise.
// It is total — it never returns an error, since the rule is that
// field-level issues are absorbed rather than propagated.
func formatFieldValue(fieldType uint16, raw []byte) string {
	spec, known := fieldCatalog[fieldType]
	if !known {
		return toHex(raw)
	}

	// Timestamp fields 80/81 canonically decode at 8 bytes (ms epoch ->
	// ISO-8601); some exporters send 4-byte seconds instead, which the
	// spec mandates falls back to hex rather than silent reinterpretation.
	if fieldType == 80 || fieldType == 81 {
		if len(raw) == 8 {
			ms := beU64(raw)
			return msEpochToISO8601(ms)
		}
		return toHex(raw)
	}

	if len(raw) != spec.length {
		return toHex(raw)
	}

	switch spec.length {
	case 1:
		return fmt.Sprintf("%d", raw[0])
	case 2:
		return fmt.Sprintf("%d", beU16(raw))
	case 4:
		switch fieldType {
		case 8, 12, 15, 225, 226:
			ip, err := toIPv4(raw)
			if err != nil {
				return toHex(raw)
			}
			return ip
		default:
			return fmt.Sprintf("%d", beU32(raw))
		}
	case 6:
		mac, err := toMAC(raw)
		if err != nil {
			return toHex(raw)
		}
		return mac
	default:
		return toHex(raw)
	}
}

func beU16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

func beU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func beU64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
