// Package ui provides the visual styling for the prismdeck terminal
// board: the spectral color palette with light/dark mode support, the
// shared lipgloss styles, and the layout math for the block grid.
package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

// Color palette. The deck's identity is a prism splitting light, so
// the primaries sit on the violet/cyan axis and candidate lanes sweep
// the spectrum.
var (
	// Light Mode Colors
	LightBackground = lipgloss.Color("#f4f4f7") // near-white
	LightForeground = lipgloss.Color("#1d1832") // deep violet-navy
	LightPrimary    = lipgloss.Color("#5e35b1") // deep violet
	LightAccent     = lipgloss.Color("#00acc1") // cyan
	LightSecondary  = lipgloss.Color("#e6e4ef") // pale lavender
	LightMuted      = lipgloss.Color("#8e88a6") // grey violet
	LightBorder     = lipgloss.Color("#d8d5e6") // light border
	LightCard       = lipgloss.Color("#ffffff") // white

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#161226") // near-black violet
	DarkForeground = lipgloss.Color("#eceaf4") // off-white
	DarkPrimary    = lipgloss.Color("#9575cd") // light violet
	DarkAccent     = lipgloss.Color("#26c6da") // bright cyan
	DarkSecondary  = lipgloss.Color("#221c38") // darker violet
	DarkMuted      = lipgloss.Color("#6f6890") // muted violet
	DarkBorder     = lipgloss.Color("#332c52") // border violet
	DarkCard       = lipgloss.Color("#1d1733") // card violet

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#e53935") // red
	Success     = lipgloss.Color("#43a047") // green
	Warning     = lipgloss.Color("#ffc107") // amber
	Info        = lipgloss.Color("#2196f3") // blue
)

// Score gradient endpoints, low to high.
var (
	scoreLow, _  = colorful.Hex("#e53935") // red
	scoreMid, _  = colorful.Hex("#ffc107") // amber
	scoreHigh, _ = colorful.Hex("#43a047") // green
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Secondary:  LightSecondary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Secondary:  DarkSecondary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// DetectTheme picks light or dark from the terminal background.
// DECK_DARK_MODE=1 forces dark for terminals that misreport it.
func DetectTheme() Theme {
	if os.Getenv("DECK_DARK_MODE") == "1" {
		return DarkTheme()
	}
	if termenv.HasDarkBackground() {
		return DarkTheme()
	}
	return LightTheme()
}

// ThemeFromName resolves a configured theme name. "auto", the empty
// string and unknown names fall back to terminal detection.
func ThemeFromName(name string) Theme {
	switch strings.ToLower(name) {
	case "dark":
		return DarkTheme()
	case "light":
		return LightTheme()
	default:
		return DetectTheme()
	}
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	App     lipgloss.Style
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Deck
	Card        lipgloss.Style
	CardFocused lipgloss.Style
	CardTitle   lipgloss.Style
	CardMeta    lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Components
	Spinner  lipgloss.Style
	Divider  lipgloss.Style
	Badge    lipgloss.Style
	KeyHint  lipgloss.Style
	Selected lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		// Layout styles
		App: lipgloss.NewStyle().
			Background(theme.Background).
			Foreground(theme.Foreground),

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Content: lipgloss.NewStyle().
			Padding(1, 2),

		// Text styles
		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		// Deck styles
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		CardFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Accent).
			Padding(0, 1),

		CardTitle: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		CardMeta: lipgloss.NewStyle().
			Foreground(theme.Muted),

		// Status styles
		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		// Component styles
		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		KeyHint: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Selected: lipgloss.NewStyle().
			Background(theme.Secondary).
			Foreground(theme.Foreground).
			Bold(true),
	}
}

// DefaultStyles returns styles with the detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// ScoreColor maps a score on [0, scale] onto the red-amber-green ramp,
// blending in HCL so the midtones stay readable on both themes.
func ScoreColor(score, scale float64) lipgloss.Color {
	if scale <= 0 {
		scale = 1
	}
	t := score / scale
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	var c colorful.Color
	if t < 0.5 {
		c = scoreLow.BlendHcl(scoreMid, t*2)
	} else {
		c = scoreMid.BlendHcl(scoreHigh, (t-0.5)*2)
	}
	return lipgloss.Color(c.Clamped().Hex())
}

// SpectrumColor returns the lane color for candidate i of n. Hue
// sweeps red through violet so parallel candidates read as the beams
// of a fractured ray.
func SpectrumColor(i, n int) lipgloss.Color {
	if n <= 0 {
		n = 1
	}
	if i < 0 {
		i = -i
	}
	hue := 270.0 * float64(i%n) / float64(n)
	c := colorful.Hsv(hue, 0.65, 0.95)
	return lipgloss.Color(c.Hex())
}

// Logo returns the prismdeck ASCII wordmark
func Logo(s Styles) string {
	logo := `
  ___  ___  ___  ___  __  __   ___  ___  ___  _  __
 | _ \| _ \|_ _|/ __||  \/  | |   \| __|/ __|| |/ /
 |  _/|   / | | \__ \| |\/| | | |) | _| | (__| ' <
 |_|  |_|_\|___||___/|_|  |_| |___/|___| \___||_|\_\
`
	return s.Title.Foreground(s.Theme.Primary).Render(logo)
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
