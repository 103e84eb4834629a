package netflow9

import "time"

// msEpochToISO8601 renders milliseconds-since-epoch as UTC ISO-8601, the
// canonical decoding for field types 80/81 per the field catalog.
func msEpochToISO8601(ms uint64) string {
	t := time.UnixMilli(int64(ms)).UTC()
	return t.Format(time.RFC3339Nano)
}
