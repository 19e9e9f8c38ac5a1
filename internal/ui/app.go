package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/abelbrown/moviefinder/internal/catalog"
	"github.com/abelbrown/moviefinder/internal/install"
	"github.com/abelbrown/moviefinder/internal/popularity"
)

// genericError is shown when a fetch fails without a catalog message.
const genericError = "Error fetching Movies. Please try again later."

// Catalog is the subset of the catalog client the UI needs.
type Catalog interface {
	Fetch(ctx context.Context, query string, sort catalog.SortKey, page int) (*catalog.Page, error)
	Movie(ctx context.Context, id int) (*catalog.Movie, error)
	PosterURL(posterPath string) string
}

// Tracker records searches and reports the most searched terms.
// Both methods swallow store failures.
type Tracker interface {
	RecordSearch(ctx context.Context, term string, movie catalog.Movie)
	TopSearches(ctx context.Context, limit int) []popularity.SearchTerm
}

// DefaultDebounce is how long typing must pause before a search is sent.
const DefaultDebounce = 1100 * time.Millisecond

// Deps holds everything the App talks to. Tracker and Installer may be nil.
type Deps struct {
	Context       context.Context
	Catalog       Catalog
	Tracker       Tracker
	Installer     install.Prompter
	Debounce      time.Duration
	TrendingLimit int
	Sort          catalog.SortKey
	Logger        *log.Logger
}

type focus int

const (
	focusSearch focus = iota
	focusResults
	focusTrending
)

// detail is the movie shown in the overlay.
type detail struct {
	movie  catalog.Movie
	poster string
}

// App is the main Bubble Tea model.
type App struct {
	deps   Deps
	keys   keyMap
	input  textinput.Model
	spin   spinner.Model
	help   help.Model
	logger *log.Logger

	// search state
	inputSeq int
	query    string
	sort     catalog.SortKey
	page     int // last page whose response was displayed
	hasMore  bool
	movies   []catalog.Movie
	loading  bool
	errMsg   string

	// request tracking
	nextID uint64
	active request
	cancel context.CancelFunc

	trending []popularity.SearchTerm
	selected *detail

	installer  install.Prompter // set while an install offer is pending
	installing bool
	notice     string

	focus       focus
	cursor      int
	trendCursor int
	width       int
	height      int
	ready       bool

	initCmd tea.Cmd
}

// NewApp creates the application and queues the initial page-1 fetch.
func NewApp(deps Deps) App {
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.Sort == "" {
		deps.Sort = catalog.SortPopularity
	}
	if deps.TrendingLimit == 0 {
		deps.TrendingLimit = popularity.DefaultTrendingLimit
	}
	if deps.Debounce <= 0 {
		deps.Debounce = DefaultDebounce
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ti := textinput.New()
	ti.Placeholder = "Search through thousands of movies"
	ti.Prompt = "🔍 "
	ti.CharLimit = 120
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = TitleAccent

	a := App{
		deps:   deps,
		keys:   defaultKeys(),
		input:  ti,
		spin:   sp,
		help:   help.New(),
		logger: logger,
		sort:   deps.Sort,
		focus:  focusSearch,
	}
	a.initCmd = a.fetch(1)
	return a
}

// Init loads the first page, the trending list and the install offer.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.initCmd,
		a.loadTrending(),
		a.checkInstall(),
	)
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.input.Width = max(msg.Width-12, 10)
		a.help.Width = msg.Width
		return a, nil

	case inputSettled:
		if msg.Seq != a.inputSeq {
			return a, nil
		}
		query := strings.TrimSpace(msg.Value)
		if query == a.query {
			return a, nil
		}
		a.query = query
		cmd := a.fetch(1)
		return a, cmd

	case MoviesLoaded:
		return a.handleMovies(msg)

	case TrendingLoaded:
		a.trending = msg.Terms
		if a.trendCursor >= len(a.trending) {
			a.trendCursor = 0
		}
		return a, nil

	case SearchRecorded:
		a.logger.Debug("search recorded", "term", msg.Term)
		return a, nil

	case DetailLoaded:
		if a.selected == nil || a.selected.movie.ID != msg.ID {
			return a, nil
		}
		if msg.Err != nil {
			a.logger.Warn("movie lookup failed, showing stored summary", "id", msg.ID, "error", msg.Err)
			return a, nil
		}
		a.selected = &detail{movie: *msg.Movie, poster: a.posterURL(*msg.Movie, a.selected.poster)}
		return a, nil

	case InstallAvailable:
		a.installer = msg.Prompter
		return a, nil

	case InstallResolved:
		a.installing = false
		a.installer = nil
		if msg.Err != nil {
			a.logger.Error("install failed", "error", msg.Err)
			a.notice = "Install failed: " + msg.Err.Error()
			return a, nil
		}
		a.logger.Info("install prompt resolved", "outcome", msg.Outcome)
		if msg.Outcome == install.Installed {
			a.notice = "MovieFinder installed"
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	// Cursor blink and anything else the input cares about.
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.ForceQuit) {
		a.shutdown()
		return a, tea.Quit
	}

	// The overlay swallows everything but close.
	if a.selected != nil {
		if key.Matches(msg, a.keys.Close) {
			a.selected = nil
		}
		return a, nil
	}

	if a.focus == focusSearch {
		return a.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.shutdown()
		return a, tea.Quit

	case key.Matches(msg, a.keys.Search):
		cmd := a.setFocus(focusSearch)
		return a, cmd

	case key.Matches(msg, a.keys.Focus):
		cmd := a.setFocus(a.nextFocus())
		return a, cmd

	case key.Matches(msg, a.keys.Install):
		cmd := a.promptInstall()
		return a, cmd

	case key.Matches(msg, a.keys.Dismiss):
		if a.installer != nil && !a.installing {
			a.logger.Info("install prompt resolved", "outcome", install.Dismissed)
			a.installer = nil
		}
		return a, nil

	case key.Matches(msg, a.keys.Sort):
		a.sort = a.sort.Next()
		a.logger.Debug("sort changed", "sort", a.sort)
		cmd := a.fetch(1)
		return a, cmd

	case key.Matches(msg, a.keys.More):
		cmd := a.loadMore()
		return a, cmd
	}

	if a.focus == focusTrending {
		switch {
		case key.Matches(msg, a.keys.Left):
			if a.trendCursor > 0 {
				a.trendCursor--
			}
		case key.Matches(msg, a.keys.Right):
			if a.trendCursor < len(a.trending)-1 {
				a.trendCursor++
			}
		case key.Matches(msg, a.keys.Open):
			cmd := a.openTrending()
			return a, cmd
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(a.movies)-1 {
			a.cursor++
		}
	case key.Matches(msg, a.keys.Open):
		if a.cursor < len(a.movies) {
			m := a.movies[a.cursor]
			a.selected = &detail{movie: m, poster: a.posterURL(m, "")}
		}
	}
	return a, nil
}

func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter, tea.KeyTab, tea.KeyDown:
		cmd := a.setFocus(focusResults)
		return a, cmd
	}

	before := a.input.Value()
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	value := a.input.Value()
	if value == before {
		return a, cmd
	}

	a.inputSeq++
	seq := a.inputSeq
	settle := tea.Tick(a.deps.Debounce, func(time.Time) tea.Msg {
		return inputSettled{Seq: seq, Value: value}
	})
	return a, tea.Batch(cmd, settle)
}

func (a *App) setFocus(f focus) tea.Cmd {
	a.focus = f
	if f == focusSearch {
		return a.input.Focus()
	}
	a.input.Blur()
	return nil
}

func (a App) nextFocus() focus {
	switch a.focus {
	case focusResults:
		if len(a.trending) > 0 {
			return focusTrending
		}
		return focusSearch
	case focusTrending:
		return focusSearch
	default:
		return focusResults
	}
}

// fetch starts a request for the current query and sort. Any request still
// in flight is cancelled and its response will be ignored.
func (a *App) fetch(page int) tea.Cmd {
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithCancel(a.deps.Context)
	a.cancel = cancel

	a.nextID++
	req := request{id: a.nextID, query: a.query, sort: a.sort, page: page}
	a.active = req
	a.loading = true
	a.errMsg = ""

	a.logger.Debug("fetching movies", "query", req.query, "sort", req.sort, "page", req.page)

	c := a.deps.Catalog
	load := func() tea.Msg {
		defer cancel()
		p, err := c.Fetch(ctx, req.query, req.sort, req.page)
		return MoviesLoaded{req: req, Page: p, Err: err}
	}
	return tea.Batch(a.spin.Tick, load)
}

func (a *App) loadMore() tea.Cmd {
	if a.loading {
		return nil
	}
	if a.page > 0 && !a.hasMore {
		return nil
	}
	return a.fetch(a.page + 1)
}

func (a App) handleMovies(msg MoviesLoaded) (tea.Model, tea.Cmd) {
	if msg.req.id != a.active.id {
		a.logger.Debug("discarding stale response", "query", msg.req.query, "page", msg.req.page)
		return a, nil
	}
	a.loading = false
	a.cancel = nil

	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			return a, nil
		}
		a.logger.Error("fetch failed", "query", msg.req.query, "page", msg.req.page, "error", msg.Err)
		a.errMsg = errorText(msg.Err)
		if msg.req.page == 1 {
			a.movies = nil
			a.page = 0
			a.hasMore = false
			a.cursor = 0
		}
		return a, nil
	}

	results := msg.Page.Results
	if msg.req.page == 1 {
		a.movies = append([]catalog.Movie(nil), results...)
		a.cursor = 0
	} else {
		a.movies = append(a.movies, results...)
	}
	a.page = msg.req.page
	a.hasMore = msg.Page.HasMore()
	a.errMsg = ""

	if msg.req.query != "" && msg.req.page == 1 && len(results) > 0 {
		return a, a.recordSearch(msg.req.query, results[0])
	}
	return a, nil
}

func errorText(err error) string {
	var fe *catalog.FetchError
	if errors.As(err, &fe) && fe.Payload {
		return fe.Message
	}
	return genericError
}

func (a App) recordSearch(term string, movie catalog.Movie) tea.Cmd {
	t := a.deps.Tracker
	if t == nil {
		return nil
	}
	ctx := a.deps.Context
	return func() tea.Msg {
		t.RecordSearch(ctx, term, movie)
		return SearchRecorded{Term: term}
	}
}

func (a App) loadTrending() tea.Cmd {
	t := a.deps.Tracker
	if t == nil || a.deps.TrendingLimit < 0 {
		return nil
	}
	ctx, limit := a.deps.Context, a.deps.TrendingLimit
	return func() tea.Msg {
		return TrendingLoaded{Terms: t.TopSearches(ctx, limit)}
	}
}

func (a *App) openTrending() tea.Cmd {
	if a.trendCursor >= len(a.trending) {
		return nil
	}
	term := a.trending[a.trendCursor]
	a.selected = &detail{
		movie:  catalog.Movie{ID: term.MovieID, Title: term.Term},
		poster: term.PosterURL,
	}
	c, ctx, id := a.deps.Catalog, a.deps.Context, term.MovieID
	return func() tea.Msg {
		m, err := c.Movie(ctx, id)
		return DetailLoaded{ID: id, Movie: m, Err: err}
	}
}

func (a App) checkInstall() tea.Cmd {
	p := a.deps.Installer
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		if !p.Available() {
			return nil
		}
		return InstallAvailable{Prompter: p}
	}
}

func (a *App) promptInstall() tea.Cmd {
	if a.installer == nil || a.installing {
		return nil
	}
	a.installing = true
	p, ctx := a.installer, a.deps.Context
	return func() tea.Msg {
		outcome, err := p.Prompt(ctx)
		return InstallResolved{Outcome: outcome, Err: err}
	}
}

func (a App) posterURL(m catalog.Movie, fallback string) string {
	if m.PosterPath == "" && fallback != "" {
		return fallback
	}
	return a.deps.Catalog.PosterURL(m.PosterPath)
}

func (a *App) shutdown() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// Movies returns the displayed list (for testing).
func (a App) Movies() []catalog.Movie { return a.movies }

// Query returns the debounced query (for testing).
func (a App) Query() string { return a.query }

// Page returns the last displayed page number (for testing).
func (a App) Page() int { return a.page }

// Sort returns the current sort key (for testing).
func (a App) Sort() catalog.SortKey { return a.sort }

// Loading reports whether a fetch is in flight (for testing).
func (a App) Loading() bool { return a.loading }

// Error returns the visible error message (for testing).
func (a App) Error() string { return a.errMsg }

// Trending returns the trending terms (for testing).
func (a App) Trending() []popularity.SearchTerm { return a.trending }

// Selected returns the movie shown in the overlay, if any (for testing).
func (a App) Selected() (catalog.Movie, string, bool) {
	if a.selected == nil {
		return catalog.Movie{}, "", false
	}
	return a.selected.movie, a.selected.poster, true
}

// InstallPending reports whether an install offer is waiting (for testing).
func (a App) InstallPending() bool { return a.installer != nil }
