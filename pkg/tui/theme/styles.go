package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Base16 palette with warm earth tones
var (
	// Base colors (backgrounds and text)
	ColorBase00 = lipgloss.Color("#1a1816") // Dark background
	ColorBase01 = lipgloss.Color("#282420") // Lighter background
	ColorBase02 = lipgloss.Color("#36302a") // Selection background
	ColorBase03 = lipgloss.Color("#5c5044") // Comments, invisibles
	ColorBase04 = lipgloss.Color("#83715f") // Dark foreground
	ColorBase05 = lipgloss.Color("#ab937b") // Default foreground
	ColorBase06 = lipgloss.Color("#d3b597") // Light foreground
	ColorBase07 = lipgloss.Color("#f5d7b9") // Lightest foreground

	// Accent colors (syntax highlighting)
	ColorRed    = lipgloss.Color("#d95f5f") // Errors, deletions
	ColorOrange = lipgloss.Color("#eb8755") // Integers, booleans
	ColorYellow = lipgloss.Color("#f5b761") // Warnings, strings
	ColorGreen  = lipgloss.Color("#93b56b") // Success, additions
	ColorCyan   = lipgloss.Color("#61afaf") // Support, regex
	ColorBlue   = lipgloss.Color("#6b93b5") // Functions, methods
	ColorPurple = lipgloss.Color("#976bb5") // Keywords, storage
	ColorBrown  = lipgloss.Color("#b57f6b") // Deprecated, special

	// UI specific colors
	ColorBorder    = ColorBase03
	ColorSelection = ColorBase02
	ColorFocus     = ColorOrange
	ColorSuccess   = ColorGreen
	ColorWarning   = ColorYellow
	ColorError     = ColorRed
	ColorInfo      = ColorCyan
	ColorMuted     = ColorBase03
	ColorHighlight = ColorYellow

	ColorMagenta = lipgloss.Color("#d33682") // Generated media
)

// Styles defines the Lipgloss styles for the terminal projection
type Styles struct {
	// Layout styles
	StatusBar lipgloss.Style
	Viewer    lipgloss.Style
	Input     lipgloss.Style

	// Transcript styles
	UserMessage       lipgloss.Style
	AssistantMessage  lipgloss.Style
	ContributorHeader lipgloss.Style
	LogBlock          lipgloss.Style
	InlineError       lipgloss.Style
	Summary           lipgloss.Style

	// Activity styles
	ToolRunning  lipgloss.Style
	ToolDone     lipgloss.Style
	SandboxLine  lipgloss.Style
	SandboxError lipgloss.Style
	Media        lipgloss.Style

	// Notice styles
	InfoNotice    lipgloss.Style
	SuccessNotice lipgloss.Style
	WarningNotice lipgloss.Style
	ErrorNotice   lipgloss.Style
}

// DefaultStyles returns the default Lipgloss styles
func DefaultStyles() *Styles {
	return &Styles{
		StatusBar: lipgloss.NewStyle().
			Background(ColorBase01).
			Foreground(ColorBase05).
			Padding(0, 1),

		Viewer: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorFocus).
			Padding(0, 1),

		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder),

		UserMessage: lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true),

		AssistantMessage: lipgloss.NewStyle().
			Foreground(ColorBase06),

		ContributorHeader: lipgloss.NewStyle().
			Foreground(ColorPurple).
			Bold(true),

		LogBlock: lipgloss.NewStyle().
			Foreground(ColorBase04).
			PaddingLeft(2),

		InlineError: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		Summary: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true),

		ToolRunning: lipgloss.NewStyle().
			Foreground(ColorYellow),

		ToolDone: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		SandboxLine: lipgloss.NewStyle().
			Foreground(ColorCyan),

		SandboxError: lipgloss.NewStyle().
			Foreground(ColorError),

		Media: lipgloss.NewStyle().
			Foreground(ColorMagenta),

		InfoNotice: lipgloss.NewStyle().
			Foreground(ColorInfo),

		SuccessNotice: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		WarningNotice: lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true),

		ErrorNotice: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
	}
}

// Plain returns styles that render text unchanged
func Plain() *Styles {
	p := lipgloss.NewStyle()
	return &Styles{
		StatusBar: p, Viewer: p, Input: p,
		UserMessage: p, AssistantMessage: p, ContributorHeader: p, LogBlock: p.PaddingLeft(2),
		InlineError: p, Summary: p,
		ToolRunning: p, ToolDone: p, SandboxLine: p, SandboxError: p, Media: p,
		InfoNotice: p, SuccessNotice: p, WarningNotice: p, ErrorNotice: p,
	}
}
