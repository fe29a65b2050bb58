package prayer

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"
)

// Display modes for the next prayer.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatProgress           = "progress"
	FormatFull               = "full"
)

// FormatData is the data passed to custom templates.
type FormatData struct {
	Name      string // Next prayer, e.g. "Asr"
	ShortName string // e.g. "A"
	Current   string // Prayer whose window we are in
	Time      string // e.g. "15:45" or "3:45 PM"
	Remaining string // e.g. "2h 45m"
	Hours     int
	Minutes   int
	Seconds   int
	Percent   int // Elapsed share of the current window, 0-100
}

// FormatOutput renders st according to mode. timeFormat is a Go layout,
// "15:04" or "3:04 PM". A mode containing "{{" is executed as a template
// against FormatData, e.g. "{{.Name}} in {{.Remaining}}".
func FormatOutput(st State, mode, timeFormat string, lang Language) string {
	remaining := FormatRemaining(st.Remaining)
	timeStr := st.NextAt.Format(timeFormat)
	name := st.Next.Key.Name(lang)
	short := st.Next.Key.Short()

	if strings.Contains(mode, "{{") {
		h, m, s := splitDuration(st.Remaining)
		return formatCustom(mode, FormatData{
			Name:      name,
			ShortName: short,
			Current:   st.Current.Key.Name(lang),
			Time:      timeStr,
			Remaining: remaining,
			Hours:     h,
			Minutes:   m,
			Seconds:   s,
			Percent:   percent(st.Progress),
		})
	}

	switch mode {
	case FormatTimeRemaining:
		return remaining
	case FormatNextPrayerTime:
		return timeStr
	case FormatNameAndRemaining:
		return fmt.Sprintf("%s %s", name, remaining)
	case FormatShortNameAndTime:
		return fmt.Sprintf("%s %s", short, timeStr)
	case FormatShortNameAndRemain:
		return fmt.Sprintf("%s %s", short, remaining)
	case FormatProgress:
		return fmt.Sprintf("%s %d%% %s %s", st.Current.Key.Name(lang), percent(st.Progress), name, remaining)
	case FormatFull:
		return fmt.Sprintf("%s %s (%s)", name, timeStr, remaining)
	default:
		return fmt.Sprintf("%s %s", name, timeStr)
	}
}

// FormatRemaining formats a duration as "Xh Ym", or "Ym" under an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h, m, _ := splitDuration(d)
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatClock formats a countdown as "HH:MM:SS".
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h, m, s := splitDuration(d)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatBar draws a progress bar of the given width, e.g. "[#####-----]".
func FormatBar(progress float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(clamp01(progress) * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func splitDuration(d time.Duration) (h, m, s int) {
	total := int(d / time.Second)
	return total / 3600, (total % 3600) / 60, total % 60
}

func percent(p float64) int {
	return int(math.Floor(clamp01(p) * 100))
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}
	return buf.String()
}
