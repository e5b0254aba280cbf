package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// placeOverlay draws box centered on top of base. base is padded or cut to
// width x height first, so the result always has that size.
func placeOverlay(base, box string, width, height int) string {
	if width <= 0 || height <= 0 {
		return base
	}
	lines := normalizeLines(base, width, height)
	if box == "" {
		return strings.Join(lines, "\n")
	}

	boxLines := strings.Split(strings.TrimRight(box, "\n"), "\n")
	boxW := 0
	for _, l := range boxLines {
		boxW = max(boxW, lipgloss.Width(l))
	}
	boxW = min(boxW, width)
	if len(boxLines) > height {
		boxLines = boxLines[:height]
	}

	top := (height - len(boxLines)) / 2
	left := (width - boxW) / 2
	for i, l := range boxLines {
		row := top + i
		if w := lipgloss.Width(l); w > boxW {
			l = ansi.Cut(l, 0, boxW)
		} else if w < boxW {
			l += strings.Repeat(" ", boxW-w)
		}
		lines[row] = ansi.Cut(lines[row], 0, left) + ansi.ResetStyle + l + ansi.ResetStyle + ansi.Cut(lines[row], left+boxW, width)
	}
	return strings.Join(lines, "\n")
}

// normalizeLines splits s into exactly height lines of exactly width cells.
func normalizeLines(s string, width, height int) []string {
	lines := strings.Split(s, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	lines = lines[:height]

	for i, line := range lines {
		w := lipgloss.Width(line)
		switch {
		case w > width:
			lines[i] = ansi.Cut(line, 0, width)
		case w < width:
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	return lines
}
