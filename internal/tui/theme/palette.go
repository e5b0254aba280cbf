package theme

import (
	"fmt"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of lipgloss colors the week grid renders with.
type Palette struct {
	Bg          lipgloss.Color
	BgHighlight lipgloss.Color
	BgSelection lipgloss.Color
	Fg          lipgloss.Color
	FgMuted     lipgloss.Color
	Accent      lipgloss.Color
	Task        lipgloss.Color
	Parked      lipgloss.Color
	Done        lipgloss.Color
	Warning     lipgloss.Color

	// Cell backgrounds. Alt shades stripe adjacent positions of a slot.
	TaskBg      lipgloss.Color
	TaskBgAlt   lipgloss.Color
	ParkedBg    lipgloss.Color
	ParkedBgAlt lipgloss.Color
	DoneBg      lipgloss.Color

	TextOnAccent  lipgloss.Color
	TextOnWarning lipgloss.Color
	TextOnTask    lipgloss.Color
	TextOnParked  lipgloss.Color

	Modal ModalColors
}

// ModalColors are the colors of the task form and confirmation dialogs.
type ModalColors struct {
	Bg       lipgloss.Color
	Border   lipgloss.AdaptiveColor
	Text     lipgloss.AdaptiveColor
	Muted    lipgloss.AdaptiveColor
	Panel    lipgloss.AdaptiveColor
	Backdrop lipgloss.Color
}

// NewPalette derives cell shades and readable text colors from t.
// A nil theme uses DefaultName.
func NewPalette(t *Theme) *Palette {
	if t == nil {
		t, _ = Load(DefaultName)
	}
	tc := *t
	t = &tc
	t.fillModal()

	light := luminance(t.Bg) > 0.55
	taskBg := cellShade(t.Task, t.Bg, light)
	parkedBg := cellShade(t.Parked, t.Bg, light)
	text := func(bg string) lipgloss.Color {
		return lipgloss.Color(readableOn(bg, t.Bg, t.Fg))
	}
	same := func(hex string) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Dark: hex, Light: hex}
	}

	return &Palette{
		Bg:          lipgloss.Color(t.Bg),
		BgHighlight: lipgloss.Color(t.BgHighlight),
		BgSelection: lipgloss.Color(t.BgSelection),
		Fg:          lipgloss.Color(t.Fg),
		FgMuted:     lipgloss.Color(t.FgMuted),
		Accent:      lipgloss.Color(t.Accent),
		Task:        lipgloss.Color(t.Task),
		Parked:      lipgloss.Color(t.Parked),
		Done:        lipgloss.Color(t.Done),
		Warning:     lipgloss.Color(t.Warning),

		TaskBg:      lipgloss.Color(taskBg),
		TaskBgAlt:   lipgloss.Color(stripe(taskBg, light)),
		ParkedBg:    lipgloss.Color(parkedBg),
		ParkedBgAlt: lipgloss.Color(stripe(parkedBg, light)),
		DoneBg:      lipgloss.Color(doneShade(t.Done, t.Bg, light)),

		TextOnAccent:  text(t.Accent),
		TextOnWarning: text(t.Warning),
		TextOnTask:    text(taskBg),
		TextOnParked:  text(parkedBg),

		Modal: ModalColors{
			Bg:       lipgloss.Color(t.BaseBg),
			Border:   same(t.ModalBorder),
			Text:     same(t.TextPrimary),
			Muted:    same(t.TextMuted),
			Panel:    same(t.Highlight),
			Backdrop: lipgloss.Color(firstSet(t.BgSelection, t.BgHighlight, t.Bg)),
		},
	}
}

// rgb holds channels in [0, 255].
type rgb struct{ r, g, b float64 }

func parseRGB(hex string) (rgb, bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{float64(v >> 16), float64(v >> 8 & 0xff), float64(v & 0xff)}, true
}

func (c rgb) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", int(c.r), int(c.g), int(c.b))
}

// mix moves c toward o by ratio, clamped to [0, 1].
func (c rgb) mix(o rgb, ratio float64) rgb {
	ratio = min(max(ratio, 0), 1)
	at := func(a, b float64) float64 { return a*(1-ratio) + b*ratio }
	return rgb{at(c.r, o.r), at(c.g, o.g), at(c.b, o.b)}
}

// scale multiplies every channel by factor, never going below floor.
func (c rgb) scale(factor, floor float64) rgb {
	at := func(v float64) float64 { return max(math.Trunc(v*factor), floor) }
	return rgb{at(c.r), at(c.g), at(c.b)}
}

// luminance is the WCAG relative luminance.
func (c rgb) luminance() float64 {
	lin := func(v float64) float64 {
		v /= 255
		if v <= 0.04045 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(c.r) + 0.7152*lin(c.g) + 0.0722*lin(c.b)
}

// withRGB applies fn to a parsed color and returns the input unchanged when it
// is not a #rrggbb string.
func withRGB(hex string, fn func(rgb) rgb) string {
	c, ok := parseRGB(hex)
	if !ok {
		return hex
	}
	return fn(c).hex()
}

func mixHex(a, b string, ratio float64) string {
	other, ok := parseRGB(b)
	if !ok {
		return a
	}
	return withRGB(a, func(c rgb) rgb { return c.mix(other, ratio) })
}

func luminance(hex string) float64 {
	c, ok := parseRGB(hex)
	if !ok {
		return 0
	}
	return c.luminance()
}

// cellShade is the background of an open task: washed toward the page on
// light themes, darkened on dark ones.
func cellShade(accent, bg string, light bool) string {
	if light {
		return mixHex(accent, bg, 0.75)
	}
	return withRGB(accent, func(c rgb) rgb { return c.scale(0.50, 40) })
}

// doneShade fades a completed task further than cellShade.
func doneShade(accent, bg string, light bool) string {
	if light {
		return mixHex(accent, bg, 0.88)
	}
	return withRGB(accent, func(c rgb) rgb { return c.scale(0.30, 30) })
}

// stripe is the alternate shade for odd positions.
func stripe(hex string, light bool) string {
	if light {
		return mixHex(hex, "#000000", 0.10)
	}
	return mixHex(hex, "#ffffff", 0.30)
}

func contrast(a, b string) float64 {
	hi, lo := luminance(a), luminance(b)
	if hi < lo {
		hi, lo = lo, hi
	}
	return (hi + 0.05) / (lo + 0.05)
}

// readableOn picks whichever of the two text colors contrasts more with bg.
func readableOn(bg, first, second string) string {
	if contrast(bg, first) >= contrast(bg, second) {
		return first
	}
	return second
}
