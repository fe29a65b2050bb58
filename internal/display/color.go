// Package display renders terminal output with raw ANSI escape codes.
//
// Colors are disabled when NO_COLOR is set (https://no-color.org/) or when
// stdout is not a terminal. FORCE_COLOR turns them back on.
package display

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

const (
	reset   = "\033[0m"
	bold    = "\033[1m"
	dim     = "\033[2m"
	red     = "\033[31m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	cyan    = "\033[36m"
	fgGray  = "\033[90m"
	eraseLn = "\r\033[2K"
)

var enabled = shouldEnable()

func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	return isTerminal(os.Stdout)
}

// isTerminal reports whether f is a character device.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// SetEnabled overrides the detected color state.
func SetEnabled(b bool) {
	enabled = b
}

// Enabled reports whether color output is active.
func Enabled() bool {
	return enabled
}

func wrap(code, text string) string {
	if !enabled {
		return text
	}
	return code + text + reset
}

// Bold renders text in bold.
func Bold(text string) string { return wrap(bold, text) }

// Dim renders text faint.
func Dim(text string) string { return wrap(dim, text) }

// Red renders text red.
func Red(text string) string { return wrap(red, text) }

// Green renders text green.
func Green(text string) string { return wrap(green, text) }

// Yellow renders text yellow.
func Yellow(text string) string { return wrap(yellow, text) }

// Cyan renders text cyan.
func Cyan(text string) string { return wrap(cyan, text) }

// Gray renders text gray.
func Gray(text string) string { return wrap(fgGray, text) }

// Accent marks the next prayer (bold cyan).
func Accent(text string) string {
	return wrap(bold+cyan, text)
}

// Boldf formats and bolds a string.
func Boldf(format string, a ...any) string {
	return Bold(fmt.Sprintf(format, a...))
}

// ProgressBar draws a bar of width cells. With colors it uses solid blocks,
// green for elapsed and gray for the rest; without colors it falls back to
// "[####----]".
func ProgressBar(progress float64, width int) string {
	if !enabled || width <= 0 {
		return prayer.FormatBar(progress, width)
	}
	if math.IsNaN(progress) || progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(math.Round(progress * float64(width)))
	return Green(strings.Repeat("█", filled)) + Gray(strings.Repeat("░", width-filled))
}

// Redraw replaces the current terminal line with line. Without a terminal
// every call prints a new line instead.
func Redraw(w io.Writer, line string) {
	if enabled {
		fmt.Fprint(w, eraseLn+line)
		return
	}
	fmt.Fprintln(w, line)
}
