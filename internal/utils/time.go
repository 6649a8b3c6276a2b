package utils

import "time"

func Now() time.Time {
	return time.Now().UTC()
}

func NowPtr() *time.Time {
	now := Now()
	return &now
}

func TimePtr(t time.Time) *time.Time {
	return &t
}

// Epoch is the zero point stored in lock rows that are not held.
func Epoch() time.Time {
	return time.Unix(0, 0).UTC()
}
