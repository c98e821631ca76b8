package utils

import "fmt"

// FormatClock renders a second count as HH:MM:SS. Negative values
// render as 00:00:00.
func FormatClock(seconds int) string {

	if seconds < 0 {
		seconds = 0
	}

	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)

}
