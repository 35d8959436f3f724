package types

import "time"

// Timestamp is a host-supplied instant in whole seconds since the Unix epoch.
type Timestamp uint64

// FromTime converts t, truncating to the second. Times before the epoch map to 0.
func FromTime(t time.Time) Timestamp {
	s := t.Unix()
	if s < 0 {
		return 0
	}
	return Timestamp(s)
}

// Time returns the instant as a UTC time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

// Since returns the whole seconds from earlier to ts, or 0 if earlier is not before ts.
func (ts Timestamp) Since(earlier Timestamp) uint64 {
	if ts <= earlier {
		return 0
	}
	return uint64(ts - earlier)
}
