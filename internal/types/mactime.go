package types

import "time"

// macEpoch is 1904-01-01 00:00:00 UTC, the HFS+ epoch the device stores
// timestamps against.
var macEpoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

// MacTime converts device seconds to a time. Zero means unset.
func MacTime(seconds uint32) time.Time {
	if seconds == 0 {
		return time.Time{}
	}
	return macEpoch.Add(time.Duration(seconds) * time.Second).UTC()
}

// MacSeconds converts a time to device seconds. The zero time and times
// outside the representable range map to 0.
func MacSeconds(t time.Time) uint32 {
	if t.IsZero() || t.Before(macEpoch) {
		return 0
	}
	d := t.Sub(macEpoch) / time.Second
	if d > 0xFFFFFFFF {
		return 0
	}
	return uint32(d)
}
