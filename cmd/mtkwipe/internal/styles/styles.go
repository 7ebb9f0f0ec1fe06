// Package styles centralizes the lipgloss styling for the mtkwipe CLI.
package styles

import "github.com/charmbracelet/lipgloss"

// Terminal palette.
var (
	ColorFg      = lipgloss.Color("#24292f") // primary foreground
	ColorMuted   = lipgloss.Color("#656d76") // muted/dim text
	ColorAccent  = lipgloss.Color("#0969da") // accent blue
	ColorError   = lipgloss.Color("#cf222e") // error red
	ColorSuccess = lipgloss.Color("#1a7f37") // success green
	ColorWarning = lipgloss.Color("#9a6700") // warning amber
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorFg)
	DimStyle     = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle  = lipgloss.NewStyle().Foreground(ColorAccent)
	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)
	WarnStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorError)

	SpinnerStyle = lipgloss.NewStyle().Foreground(ColorAccent)

	// Output tail shown under the running step.
	TailStyle = lipgloss.NewStyle().Foreground(ColorMuted).PaddingLeft(4)

	// Error block shown when a step or the erase command fails.
	ErrorBlockStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(ColorError)
)

// Step status glyphs.
const (
	GlyphDone    = "✓"
	GlyphFailed  = "✗"
	GlyphSkipped = "–"
	GlyphPending = "·"
)
