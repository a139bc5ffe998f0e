// Package format holds the display formatting helpers shared by every
// block and observatory panel: byte sizes, relative times, cell-width
// aware truncation and padding, and token estimates for conversation
// views.
package format

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// Bytes renders a byte count in binary units (KiB, MiB).
func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// RelTime renders t relative to now ("3 hours ago", "2 days from now").
func RelTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// Clock renders a wall-clock time as HH:MM.
func Clock(t time.Time) string {
	return t.Format("15:04")
}

// DayKey renders a date as a stable grouping key (2006-01-02).
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Truncate fits s into width terminal cells, appending an ellipsis when
// text was cut. ANSI sequences are preserved, not counted.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return truncate.StringWithTail(s, uint(width), Ellipsis)
}

// Wrap word-wraps s to width terminal cells.
func Wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}

// Pad right-pads s with spaces to width terminal cells. Wide runes
// count as two cells.
func Pad(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	for gap > 0 {
		s += " "
		gap--
	}
	return s
}

// Percent renders a 0..1 fraction as a whole percentage, clamped.
func Percent(f float64) string {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return fmt.Sprintf("%d%%", int(f*100+0.5))
}

// CompactDuration renders a duration as the largest two units that
// matter ("1h05m", "2m30s", "850ms").
func CompactDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "0s"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		m := int(d.Minutes())
		s := int(d.Seconds()) - m*60
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		h := int(d.Hours())
		m := int(d.Minutes()) - h*60
		return fmt.Sprintf("%dh%02dm", h, m)
	}
}
