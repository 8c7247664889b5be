package botquota

import "time"

// Clock supplies the current time to the policy engine. Counters roll over
// when the calendar day or month of Clock.Now changes; no timezone
// normalization is applied, so the process-local zone defines the boundaries.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// DayKey derives the store key for the calendar day containing t.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// MonthKey derives the store key for the calendar month containing t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// unixSeconds converts t to wall-clock seconds, the unit used for
// UsageRecord.LastActionTS.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
