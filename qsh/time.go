package qsh

import "time"

// epochOffsetMillis is the millisecond distance between 0001-01-01 UTC
// (the capture epoch) and the Unix epoch.
const epochOffsetMillis = 62135596800000

// MillisToUnix converts capture-epoch milliseconds to Unix milliseconds.
func MillisToUnix(ms int64) int64 { return ms - epochOffsetMillis }

// TicksToUnix converts 100-ns ticks since the capture epoch to Unix
// milliseconds.
func TicksToUnix(ticks int64) int64 { return ticks/10000 - epochOffsetMillis }

// UnixTime converts capture-epoch milliseconds to a UTC time.Time.
func UnixTime(ms int64) time.Time {
	return time.UnixMilli(MillisToUnix(ms)).UTC()
}
