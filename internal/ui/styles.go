package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("99")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorStar      = lipgloss.Color("220") // Gold
)

// TitleStyle for the page heading.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// TitleAccent highlights "Movies" in the heading.
var TitleAccent = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// SectionHeader style for "Trending" and "All Movies".
var SectionHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	MarginTop(1).
	Padding(0, 1)

// SearchBox wraps the search input.
var SearchBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(0, 1)

// SearchBoxFocused is SearchBox while typing.
var SearchBoxFocused = SearchBox.
	BorderForeground(colorPrimary)

// SelectedItem style for the highlighted movie.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for other movies.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// ScoreStyle for vote averages.
var ScoreStyle = lipgloss.NewStyle().
	Foreground(colorStar)

// MetaStyle for release years and counts.
var MetaStyle = lipgloss.NewStyle().
	Foreground(colorSecondary)

// TrendingChip is one entry of the trending rail.
var TrendingChip = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

// TrendingChipSelected is the highlighted trending entry.
var TrendingChipSelected = TrendingChip.
	Bold(true).
	Background(colorPrimary)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// HelpStyle for hints and empty states.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(0, 1)

// InstallBanner is the "Install MovieFinder?" prompt.
var InstallBanner = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Bold(true).
	Padding(0, 2)

// Overlay is the movie detail box.
var Overlay = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// OverlayTitle is the movie title inside the detail box.
var OverlayTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	MarginBottom(1)
