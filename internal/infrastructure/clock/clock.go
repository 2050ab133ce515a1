package clock

import "time"

// System reads the wall clock and reports today's date in UTC.
type System struct{}

func (System) Today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fixed always reports the same day.
type Fixed struct{ Day time.Time }

func (f Fixed) Today() time.Time {
	y, m, d := f.Day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
