package ticktock

import (
	"fmt"
	"time"
)

// FormatElapsed renders d as HH:MM:SS.mmm. Hours are not bounded, so a
// stopwatch running past a day shows 24:00:00.000 and beyond. Negative
// durations render as zero.
func FormatElapsed(d time.Duration) string {
	ms := max(d.Milliseconds(), 0)

	return fmt.Sprintf("%02d:%02d:%02d.%03d",
		ms/3_600_000,
		ms%3_600_000/60_000,
		ms%60_000/1000,
		ms%1000,
	)
}

// FormatRemaining renders a countdown in whole seconds as MM:SS. Minutes
// are not bounded; zero or negative input renders as 00:00.
func FormatRemaining(seconds int) string {
	if seconds <= 0 {
		return "00:00"
	}

	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatSleepDuration renders d as whole hours and remaining minutes, for
// example "8h 0m".
func FormatSleepDuration(d time.Duration) string {
	minutes := int64(d / time.Minute)

	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
