// Package utils provides utility functions for the EMS application.
package utils //nolint:revive // utils is a common and acceptable package name

import "time"

// GetUTCString formats a time.Time to the ENTSO-E API format YYYYMMDDHHmm.
func GetUTCString(t time.Time) string {
	return t.UTC().Format("200601021504")
}

// SnapToGrid floors t to the nearest preceding multiple of step, measured
// from Go's zero time (time.Truncate), the way a scheduling grid aligns
// wall-clock windows to its own timestep.
func SnapToGrid(t time.Time, step time.Duration) time.Time {
	if step <= 0 {
		return t
	}
	return t.Truncate(step)
}
