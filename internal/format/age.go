package format

import (
	"fmt"
	"time"
)

// Age formats the time elapsed between then and now as a compact string:
// "now", "5m", "2h", "3d", "2w", "3mo". A zero then yields "-".
func Age(then, now time.Time) string {
	if then.IsZero() {
		return "-"
	}

	d := now.Sub(then)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}

	days := int(d.Hours() / 24)
	switch {
	case days < 7:
		return fmt.Sprintf("%dd", days)
	case days < 30:
		return fmt.Sprintf("%dw", days/7)
	default:
		return fmt.Sprintf("%dmo", days/30)
	}
}
