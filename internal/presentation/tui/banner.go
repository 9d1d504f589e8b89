package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the CLI banner with the version underneath.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"  ___ _   _ _ ____   _______   _", "#34d399"},
		{" / __| | | | '__\\ \\ / / _ \\ | | |", "#2dd4bf"},
		{" \\__ \\ |_| | |   \\ V /  __/ |_| |", "#22d3ee"},
		{" |___/\\__,_|_|    \\_/ \\___|\\__, |  flow", "#38bdf8"},
		{"                            |___/", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}

// Score formats a running score, highlighted when the terminal supports color.
func Score(total int) string {
	p := termenv.ColorProfile()
	return termenv.String(fmt.Sprintf("Score: %d", total)).Bold().Foreground(p.Color("#fbbf24")).String()
}
