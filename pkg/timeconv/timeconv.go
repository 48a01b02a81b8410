package timeconv

import (
	"errors"
	"fmt"
	"time"
)

// Deribit reports instants as microseconds since the Unix epoch (usOut).
const microsPerSecond = 1_000_000

// ErrNoTimestamp is returned when the upstream timestamp is absent or not a
// positive microsecond count. A missing JSON field decodes to zero, so zero
// is treated as absent.
var ErrNoTimestamp = errors.New("timestamp missing or not positive")

// ToEpochSeconds converts a microsecond epoch timestamp to whole seconds by
// integer division, truncating sub-second precision. It must be applied
// exactly once: feeding an already-seconds value through it divides again.
func ToEpochSeconds(us int64) (int64, error) {
	if us <= 0 {
		return 0, ErrNoTimestamp
	}
	return us / microsPerSecond, nil
}

// FixedZone returns the display zone for a whole-hour UTC offset.
func FixedZone(offsetHours int) *time.Location {
	if offsetHours == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
}

// InZone re-expresses an instant in the given zone without shifting it.
// Stored values stay UTC; this runs only at the read boundary.
func InZone(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
