package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Color definitions for consistent styling across the UI.
var (
	// Slot ids: cyan so they can be copied at a glance
	colorSlot = color.New(color.FgCyan)

	// Completed tasks: green
	colorDone = color.New(color.FgGreen)

	// Parking area: magenta
	colorParked = color.New(color.FgMagenta)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Warnings and prompts: yellow
	colorWarn = color.New(color.FgYellow)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

func formatSlot(s string) string {
	return colorSlot.Sprint(s)
}

func formatDone(s string) string {
	return colorDone.Sprint(s)
}

func formatParked(s string) string {
	return colorParked.Sprint(s)
}

func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

func formatWarn(s string) string {
	return colorWarn.Sprint(s)
}

func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
