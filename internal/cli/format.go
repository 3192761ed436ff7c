// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatRupiah formats an amount as Indonesian Rupiah without decimals.
// e.g., 500000 -> "Rp 500.000", -2500 -> "-Rp 2.500"
func FormatRupiah(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "Rp -"
	}
	if math.Round(v) < 0 {
		return "-Rp " + humanize.FormatFloat("#.###,", -v)
	}
	return "Rp " + humanize.FormatFloat("#.###,", math.Abs(v))
}

// FormatAmount formats an amount with Indonesian grouping and no symbol.
// e.g., 1250000 -> "1.250.000"
func FormatAmount(v float64) string {
	return humanize.FormatFloat("#.###,", v)
}

// FormatVolume formats a quantity with up to two decimals, Indonesian style.
// e.g., 10 -> "10", 2.5 -> "2,5", 1234.567 -> "1.234,57"
func FormatVolume(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return humanize.FormatFloat("#.###,", v)
	}
	s := humanize.FormatFloat("#.###,##", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ",")
}

// FormatNumber adds Indonesian thousands separators to an integer.
// e.g., 1234567 -> "1.234.567"
func FormatNumber(n int64) string {
	return humanize.FormatInteger("#.###,", int(n))
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatElapsed formats a duration for status lines.
// e.g., 1500ms -> "1.5s", 75s -> "1m 15s"
func FormatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := int(d / time.Minute)
	secs := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%dm %ds", mins, secs)
}

// Share returns part/whole, or 0 when whole is 0.
func Share(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole
}
