// Package theme loads the week grid color themes embedded in the binary.
package theme

import (
	"embed"
	"fmt"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultName is used when no theme or an unknown theme is requested.
const DefaultName = "mocha"

//go:embed embedded/*.toml
var embeddedThemes embed.FS

var available = []string{"mocha", "macchiato", "frappe", "latte", "light"}

// Theme is the on-disk form of a palette. Every base color is #rrggbb.
type Theme struct {
	Name        string `toml:"name"`
	Bg          string `toml:"bg"`
	BgHighlight string `toml:"bg_highlight"`
	BgSelection string `toml:"bg_selection"` // cursor and drop target
	Fg          string `toml:"fg"`
	FgMuted     string `toml:"fg_muted"` // empty slots, notes, help
	Accent      string `toml:"accent"`
	Task        string `toml:"task"`    // week slots
	Parked      string `toml:"parked"`  // parking row
	Done        string `toml:"done"`    // completed tasks
	Warning     string `toml:"warning"` // errors and the task being moved

	// Optional modal colors. Empty values are derived from the base colors.
	BaseBg      string `toml:"base_bg"`
	ModalBorder string `toml:"modal_border"`
	TextPrimary string `toml:"text_primary"`
	TextMuted   string `toml:"text_muted"`
	Highlight   string `toml:"highlight"`
}

// Load reads a theme by name. Unknown names load DefaultName.
func Load(name string) (*Theme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !IsAvailable(name) {
		name = DefaultName
	}

	data, err := embeddedThemes.ReadFile("embedded/" + name + ".toml")
	if err != nil {
		return nil, fmt.Errorf("reading theme %q: %w", name, err)
	}

	t := &Theme{}
	if err := toml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("decoding theme %q: %w", name, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("theme %q: %w", name, err)
	}
	t.fillModal()
	return t, nil
}

type namedColor struct {
	key string
	hex string
}

func (t *Theme) baseColors() []namedColor {
	return []namedColor{
		{"bg", t.Bg},
		{"bg_highlight", t.BgHighlight},
		{"bg_selection", t.BgSelection},
		{"fg", t.Fg},
		{"fg_muted", t.FgMuted},
		{"accent", t.Accent},
		{"task", t.Task},
		{"parked", t.Parked},
		{"done", t.Done},
		{"warning", t.Warning},
	}
}

// Validate reports the first base color that is not a #rrggbb string.
func (t *Theme) Validate() error {
	for _, c := range t.baseColors() {
		if _, ok := parseRGB(c.hex); !ok {
			return fmt.Errorf("%s must be a #rrggbb color, got %q", c.key, c.hex)
		}
	}
	return nil
}

// fillModal derives any modal color the theme file left out.
func (t *Theme) fillModal() {
	t.BaseBg = firstSet(t.BaseBg, t.BgHighlight, t.Bg)
	t.ModalBorder = firstSet(t.ModalBorder, t.Accent)
	t.TextPrimary = firstSet(t.TextPrimary, t.Fg)
	t.TextMuted = firstSet(t.TextMuted, t.FgMuted)
	t.Highlight = firstSet(t.Highlight, t.BgSelection, t.Accent)
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Available lists the embedded theme names.
func Available() []string {
	return slices.Clone(available)
}

// IsAvailable reports whether name is an embedded theme, ignoring case.
func IsAvailable(name string) bool {
	return slices.Contains(available, strings.ToLower(name))
}
