package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/moviefinder/internal/catalog"
)

// View renders the application.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.selected != nil {
		return a.renderOverlay()
	}

	var top []string
	top = append(top, a.renderHeader())
	if len(a.trending) > 0 {
		top = append(top, a.renderTrending())
	}
	top = append(top, SectionHeader.Render("All Movies · "+a.sort.Label()))
	if a.errMsg != "" {
		top = append(top, ErrorStyle.Render(a.errMsg))
	}
	head := lipgloss.JoinVertical(lipgloss.Left, top...)

	var bottom []string
	if a.installer != nil {
		bottom = append(bottom, a.renderInstallBanner())
	}
	bottom = append(bottom, a.renderStatusBar())
	foot := lipgloss.JoinVertical(lipgloss.Left, bottom...)

	listHeight := a.height - lipgloss.Height(head) - lipgloss.Height(foot)
	list := a.renderList(max(listHeight, 1))

	return lipgloss.JoinVertical(lipgloss.Left, head, list, foot)
}

func (a App) renderHeader() string {
	title := TitleStyle.Render("Find " + TitleAccent.Render("Movies") + " You'll Enjoy Without the Hassle")
	box := SearchBox
	if a.focus == focusSearch {
		box = SearchBoxFocused
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, box.Width(max(a.width-2, 10)).Render(a.input.View()))
}

func (a App) renderTrending() string {
	var chips []string
	for i, t := range a.trending {
		label := fmt.Sprintf("%d %s ×%s", i+1, truncate(t.Term, 24), humanize.Comma(int64(t.Count)))
		if t.PosterURL != "" {
			label = "▣ " + label
		}
		style := TrendingChip
		if a.focus == focusTrending && i == a.trendCursor {
			style = TrendingChipSelected
		}
		chips = append(chips, style.Render(label))
	}

	// Wrap chips onto as many rows as the width allows.
	var rows []string
	var row []string
	rowWidth := 0
	for _, c := range chips {
		w := lipgloss.Width(c)
		if rowWidth > 0 && rowWidth+w > a.width-2 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, rowWidth = nil, 0
		}
		row = append(row, c)
		rowWidth += w
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	lines := []string{SectionHeader.Render("Trending Movies")}
	for _, r := range rows {
		lines = append(lines, " "+r)
	}
	if i := min(a.trendCursor, len(a.trending)-1); i >= 0 && a.trending[i].PosterURL != "" {
		lines = append(lines, MetaStyle.Render(" Poster: "+truncate(a.trending[i].PosterURL, max(a.width-10, 10))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (a App) renderList(height int) string {
	var lines []string

	switch {
	case len(a.movies) == 0 && a.loading:
		lines = append(lines, HelpStyle.Render(a.spin.View()+" Loading movies..."))
	case len(a.movies) == 0 && a.errMsg == "":
		lines = append(lines, HelpStyle.Render("No movies found."))
	case len(a.movies) > 0:
		rows := height
		if a.loading || a.hasMore {
			rows-- // footer line
		}
		rows = max(rows, 1)
		offset := calcScrollOffset(len(a.movies), a.cursor, rows)
		end := min(offset+rows, len(a.movies))
		for i := offset; i < end; i++ {
			lines = append(lines, a.renderMovie(a.movies[i], i == a.cursor && a.focus == focusResults))
		}
		if a.loading {
			lines = append(lines, HelpStyle.Render(a.spin.View()+" Loading more..."))
		} else if a.hasMore {
			lines = append(lines, HelpStyle.Render(fmt.Sprintf("See more (%s) · page %d", a.keys.More.Help().Key, a.page)))
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:min(len(lines), height)], "\n")
}

func (a App) renderMovie(m catalog.Movie, selected bool) string {
	score := fmt.Sprintf("%.1f", m.VoteAverage)
	year := "N/A"
	if len(m.ReleaseDate) >= 4 {
		year = m.ReleaseDate[:4]
	}

	prefix := fmt.Sprintf("★ %-4s %s  ", score, year)
	title := truncate(m.Title, max(a.width-runewidth.StringWidth(prefix)-4, 8))

	if selected {
		return SelectedItem.Render(prefix + title)
	}
	return NormalItem.Render(ScoreStyle.Render("★ "+fmt.Sprintf("%-4s", score)) + " " + MetaStyle.Render(year) + "  " + title)
}

func (a App) renderInstallBanner() string {
	text := "Install MovieFinder?  [I] install  [X] not now"
	if a.installing {
		text = "Installing MovieFinder..."
	}
	return InstallBanner.Width(a.width).Render(text)
}

func (a App) renderStatusBar() string {
	var left string
	switch a.focus {
	case focusSearch:
		left = "SEARCH"
	case focusTrending:
		left = "TRENDING"
	default:
		left = "MOVIES"
	}
	if len(a.movies) > 0 {
		left += fmt.Sprintf(" %d/%d", a.cursor+1, len(a.movies))
	}
	if a.notice != "" {
		left += " · " + a.notice
	}

	bindings := []key.Binding{a.keys.Focus, a.keys.Open, a.keys.More, a.keys.Sort, a.keys.Quit}
	if a.focus == focusSearch {
		bindings = []key.Binding{a.keys.Focus}
	}
	right := a.help.ShortHelpView(bindings)

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return StatusBar.Width(a.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (a App) renderOverlay() string {
	m := a.selected.movie
	released := m.ReleaseDate
	if released == "" {
		released = "Unknown"
	}
	score := fmt.Sprintf("%.1f", m.VoteAverage)

	width := min(max(a.width-8, 20), 80)
	overview := m.Overview
	if overview == "" {
		overview = "No description available."
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		OverlayTitle.Render(m.Title),
		ScoreStyle.Render("★ "+score)+"  "+MetaStyle.Render(released),
		"",
		lipgloss.NewStyle().Width(width).Render(overview),
		"",
		MetaStyle.Render("Poster: "+a.selected.poster),
		"",
		HelpStyle.Render("esc to close"),
	)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, Overlay.Render(body))
}

// calcScrollOffset keeps the cursor visible in a window of height rows.
func calcScrollOffset(n, cursor, height int) int {
	if n == 0 || cursor < 0 || height <= 0 {
		return 0
	}
	if cursor >= n {
		cursor = n - 1
	}
	if cursor >= height {
		return cursor - height + 1
	}
	return 0
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
