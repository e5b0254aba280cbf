// Package tui provides the terminal user interface for weekplan.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/weekplan/internal/tui/theme"
)

// Default column width - will be recalculated from the terminal width.
const defaultColWidth = 16

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	colorBg          lipgloss.Color
	colorBgHighlight lipgloss.Color
	colorBgSelection lipgloss.Color
	colorFg          lipgloss.Color
	colorFgMuted     lipgloss.Color
	colorAccent      lipgloss.Color
	colorWarning     lipgloss.Color

	TitleStyle     lipgloss.Style
	ModeStyle      lipgloss.Style
	DayHeaderStyle lipgloss.Style
	RowLabelStyle  lipgloss.Style

	// Cells
	TaskStyle       lipgloss.Style
	TaskAltStyle    lipgloss.Style // Alternate shade for odd positions
	DoneStyle       lipgloss.Style
	ParkedStyle     lipgloss.Style
	ParkedAltStyle  lipgloss.Style
	EmptyCellStyle  lipgloss.Style
	CursorStyle     lipgloss.Style
	MovingStyle     lipgloss.Style // The grabbed task in its original cell
	DropTargetStyle lipgloss.Style

	SeparatorStyle lipgloss.Style
	StatusStyle    lipgloss.Style
	HelpStyle      lipgloss.Style

	ModalStyle            lipgloss.Style
	ModalTitleStyle       lipgloss.Style
	ModalBodyStyle        lipgloss.Style
	ModalLabelStyle       lipgloss.Style
	ModalInputStyle       lipgloss.Style
	ModalInputFocusStyle  lipgloss.Style
	ModalInputTextStyle   lipgloss.Style
	ModalInputCursorStyle lipgloss.Style
	ModalPlaceholderStyle lipgloss.Style
	ModalErrorStyle       lipgloss.Style
	ModalHintStyle        lipgloss.Style

	AppStyle lipgloss.Style
}

// NewStyles creates a new Styles instance from a theme.
func NewStyles(t *theme.Theme) *Styles {
	s := &Styles{}
	palette := theme.NewPalette(t)

	s.colorBg = palette.Bg
	s.colorBgHighlight = palette.BgHighlight
	s.colorBgSelection = palette.BgSelection
	s.colorFg = palette.Fg
	s.colorFgMuted = palette.FgMuted
	s.colorAccent = palette.Accent
	s.colorWarning = palette.Warning

	s.TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.colorAccent).
		Background(s.colorBg)

	s.ModeStyle = lipgloss.NewStyle().
		Foreground(s.colorFgMuted).
		Background(s.colorBg)

	s.DayHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Foreground(s.colorFg).
		Background(s.colorBg).
		Width(defaultColWidth)

	s.RowLabelStyle = lipgloss.NewStyle().
		Foreground(s.colorAccent).
		Background(s.colorBg).
		Width(rowLabelWidth)

	cell := lipgloss.NewStyle().
		Width(defaultColWidth).
		Align(lipgloss.Left)

	s.TaskStyle = cell.
		Background(palette.TaskBg).
		Foreground(palette.TextOnTask).
		Bold(true)

	s.TaskAltStyle = cell.
		Background(palette.TaskBgAlt).
		Foreground(palette.TextOnTask).
		Bold(true)

	// Completed tasks keep readable text on a muted background
	s.DoneStyle = cell.
		Background(palette.DoneBg).
		Foreground(s.colorFgMuted).
		Strikethrough(true)

	s.ParkedStyle = cell.
		Background(palette.ParkedBg).
		Foreground(palette.TextOnParked)

	s.ParkedAltStyle = cell.
		Background(palette.ParkedBgAlt).
		Foreground(palette.TextOnParked)

	s.EmptyCellStyle = cell.
		Foreground(s.colorFgMuted).
		Background(s.colorBg)

	s.CursorStyle = cell.
		Background(s.colorBgSelection).
		Foreground(s.colorAccent).
		Bold(true)

	s.MovingStyle = cell.
		Background(s.colorBgHighlight).
		Foreground(s.colorFgMuted).
		Italic(true)

	s.DropTargetStyle = cell.
		Background(s.colorWarning).
		Foreground(palette.TextOnWarning).
		Bold(true)

	s.SeparatorStyle = lipgloss.NewStyle().
		Foreground(s.colorBgSelection).
		Background(s.colorBg)

	s.StatusStyle = lipgloss.NewStyle().
		Foreground(s.colorWarning).
		Background(s.colorBg).
		Bold(true)

	s.HelpStyle = lipgloss.NewStyle().
		Foreground(s.colorFgMuted).
		Background(s.colorBg)

	modal := palette.Modal

	s.ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(modal.Border).
		Background(modal.Bg).
		Foreground(modal.Text).
		Padding(1, 2).
		Width(modalWidth).
		Align(lipgloss.Left)

	s.ModalTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(modal.Text).
		Background(modal.Bg)

	s.ModalBodyStyle = lipgloss.NewStyle().
		Foreground(modal.Text).
		Background(modal.Bg)

	s.ModalLabelStyle = lipgloss.NewStyle().
		Foreground(modal.Text).
		Bold(true).
		Background(modal.Bg)

	s.ModalInputStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(modal.Muted).
		Background(modal.Bg).
		Foreground(modal.Text).
		Padding(0, 1).
		Width(modalWidth - 6)

	s.ModalInputFocusStyle = s.ModalInputStyle.
		BorderForeground(modal.Border).
		Background(modal.Panel)

	s.ModalInputTextStyle = lipgloss.NewStyle().
		Foreground(modal.Text)

	s.ModalInputCursorStyle = lipgloss.NewStyle().
		Foreground(modal.Bg).
		Background(modal.Border)

	s.ModalPlaceholderStyle = lipgloss.NewStyle().
		Foreground(modal.Muted)

	s.ModalErrorStyle = lipgloss.NewStyle().
		Foreground(s.colorWarning).
		Background(modal.Bg).
		Bold(true)

	s.ModalHintStyle = lipgloss.NewStyle().
		Foreground(modal.Muted).
		Background(modal.Bg)

	s.AppStyle = lipgloss.NewStyle().
		Background(s.colorBg).
		Padding(1, 2)

	return s
}
