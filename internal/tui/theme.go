package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Review desk colors
var (
	// Core colors
	ColorBackground   = lipgloss.Color("#0f1020")
	ColorSurface      = lipgloss.Color("#171a2e")
	ColorSurfaceLight = lipgloss.Color("#1f2340")
	ColorBorder       = lipgloss.Color("#2e3357")
	ColorBorderFocus  = lipgloss.Color("#667eea")

	// Accent (indigo to purple)
	ColorAccent    = lipgloss.Color("#667eea")
	ColorAccentAlt = lipgloss.Color("#764ba2")

	// Semantic colors
	ColorSuccess = lipgloss.Color("#30d158")
	ColorWarning = lipgloss.Color("#ffd60a")
	ColorError   = lipgloss.Color("#ff453a")
	ColorInfo    = lipgloss.Color("#64d2ff")

	// Text colors
	ColorTextPrimary   = lipgloss.Color("#ffffff")
	ColorTextSecondary = lipgloss.Color("#d0d0e0")
	ColorTextMuted     = lipgloss.Color("#8088a8")
)

// Theme contains all styled components
type Theme struct {
	// Panes
	Pane      lipgloss.Style
	PaneFocus lipgloss.Style

	// Header styles
	HeaderContainer lipgloss.Style
	Logo            lipgloss.Style
	LogoDot         lipgloss.Style
	UserName        lipgloss.Style

	// Tab styles
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	// Footer styles
	FooterContainer lipgloss.Style

	// Content styles
	Title         lipgloss.Style
	Label         lipgloss.Style
	Value         lipgloss.Style
	ValueMuted    lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusInfo    lipgloss.Style

	// Chat styles
	BubbleUser lipgloss.Style
	BubbleBot  lipgloss.Style
	Source     lipgloss.Style
	Timestamp  lipgloss.Style
	Strategy   lipgloss.Style

	// Table styles
	TableHeader    lipgloss.Style
	ListItem       lipgloss.Style
	ListItemActive lipgloss.Style

	// Badges
	BadgeSuccess lipgloss.Style
	BadgeWarning lipgloss.Style
	BadgeError   lipgloss.Style
	BadgeInfo    lipgloss.Style

	// Input styles
	InputLabel      lipgloss.Style
	InputLabelFocus lipgloss.Style

	// Modal styles
	ModalContainer lipgloss.Style
	ModalTitle     lipgloss.Style

	// Misc
	Bar     lipgloss.Style
	Help    lipgloss.Style
	Spinner lipgloss.Style
}

// NewTheme creates the review desk styles
func NewTheme() *Theme {
	t := &Theme{}

	t.Pane = lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	t.PaneFocus = t.Pane.
		BorderForeground(ColorBorderFocus)

	// Header styles
	t.HeaderContainer = lipgloss.NewStyle().
		Background(ColorSurface).
		Padding(0, 2)

	t.Logo = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorTextPrimary)

	t.LogoDot = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)

	t.UserName = lipgloss.NewStyle().
		Foreground(ColorTextSecondary)

	// Tab styles
	t.TabActive = lipgloss.NewStyle().
		Background(ColorAccentAlt).
		Foreground(ColorTextPrimary).
		Bold(true).
		Padding(0, 2).
		MarginRight(1)

	t.TabInactive = lipgloss.NewStyle().
		Background(ColorSurfaceLight).
		Foreground(ColorTextSecondary).
		Padding(0, 2).
		MarginRight(1)

	t.FooterContainer = lipgloss.NewStyle().
		Background(ColorSurface).
		Padding(0, 1)

	// Content styles
	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorTextPrimary)

	t.Label = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	t.Value = lipgloss.NewStyle().
		Foreground(ColorTextPrimary)

	t.ValueMuted = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	t.StatusSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	t.StatusError = lipgloss.NewStyle().Foreground(ColorError)
	t.StatusWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	t.StatusInfo = lipgloss.NewStyle().Foreground(ColorInfo)

	// Chat styles
	t.BubbleUser = lipgloss.NewStyle().
		Background(ColorAccent).
		Foreground(ColorTextPrimary).
		Padding(0, 1)

	t.BubbleBot = lipgloss.NewStyle().
		Background(ColorSurfaceLight).
		Foreground(ColorTextPrimary).
		Padding(0, 1)

	t.Source = lipgloss.NewStyle().
		Foreground(ColorInfo).
		Italic(true)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	t.Strategy = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)

	// Table styles
	t.TableHeader = lipgloss.NewStyle().
		Foreground(ColorTextMuted).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorBorder)

	t.ListItem = lipgloss.NewStyle().
		Foreground(ColorTextSecondary)

	t.ListItemActive = lipgloss.NewStyle().
		Background(ColorSurfaceLight).
		Foreground(ColorTextPrimary).
		Bold(true)

	// Badges
	badge := lipgloss.NewStyle().Padding(0, 1).Foreground(ColorBackground)
	t.BadgeSuccess = badge.Background(ColorSuccess)
	t.BadgeWarning = badge.Background(ColorWarning)
	t.BadgeError = badge.Background(ColorError)
	t.BadgeInfo = badge.Background(ColorInfo)

	// Input styles
	t.InputLabel = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	t.InputLabelFocus = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)

	// Modal styles
	t.ModalContainer = lipgloss.NewStyle().
		Background(ColorSurface).
		Padding(1, 3).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccentAlt)

	t.ModalTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorTextPrimary)

	// Misc
	t.Bar = lipgloss.NewStyle().
		Foreground(ColorAccent)

	t.Help = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	t.Spinner = lipgloss.NewStyle().
		Foreground(ColorAccent)

	return t
}

// DefaultTheme is the default theme instance
var DefaultTheme = NewTheme()
