package timeline

import (
	"fmt"
	"math"
)

// FormatTime renders a position in seconds as a clock string: MM:SS below one hour, H:MM:SS
// from one hour up. Negative and non-finite inputs render as 00:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "00:00"
	}

	total := int(math.Floor(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
