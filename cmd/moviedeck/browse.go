package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
	"github.com/vadimtrunov/MovieDeck/internal/discover"
	"github.com/vadimtrunov/MovieDeck/internal/store"
)

// newBrowseCmd returns the "browse" subcommand for the interactive browser.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse movies interactively",
		Long: "Open the interactive movie browser.\n" +
			"Tab switches lists, Enter opens details, / searches, q quits.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBrowse()
		},
	}
}

// runBrowse wires the catalog into a store and starts the Bubble Tea browser.
func runBrowse() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, closeLog := newFileLogger(cfg)
	defer closeLog()

	client := newCatalog(cfg, logger)
	ctrl := discover.New(client, store.New(), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := tea.NewProgram(newBrowseModel(ctx, ctrl, client, cfg.App.URL), tea.WithAltScreen())

	// Bridge OS signal cancellation into the Bubble Tea event loop.
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}

// imageResolver turns image paths into absolute URLs.
type imageResolver interface {
	ResolveImageURL(path *string, kind catalog.ImageKind, size catalog.ImageSize) string
}

type tabKind int

const (
	tabCategory tabKind = iota
	tabSearch
	tabFavorites
	tabWatchlist
)

// browseTab is one list the browser can show.
type browseTab struct {
	title string
	kind  tabKind
	name  store.CollectionName // collection for category and search tabs
	cat   catalog.Category
}

func browseTabs() []browseTab {
	var tabs []browseTab
	for _, c := range catalog.Categories() {
		name, _ := store.ForCategory(c)
		tabs = append(tabs, browseTab{title: c.Title(), kind: tabCategory, name: name, cat: c})
	}
	return append(tabs,
		browseTab{title: "Search", kind: tabSearch, name: store.Search},
		browseTab{title: "Favorites", kind: tabFavorites},
		browseTab{title: "Watchlist", kind: tabWatchlist},
	)
}

type browseMode int

const (
	modeList browseMode = iota
	modeDetail
	modeSearch
)

// browseLoadedMsg reports a finished load. detail is set for movie loads.
type browseLoadedMsg struct {
	detail *catalog.MovieDetails
	err    error
}

// browseModel is the Bubble Tea model for the movie browser. All movie data
// lives in the controller's store; the model keeps only navigation state.
type browseModel struct {
	ctx     context.Context
	ctrl    *discover.Controller
	store   *store.Store
	library *store.Library
	images  imageResolver
	appURL  string

	tabs     []browseTab
	active   int
	pagerTab int // tab whose load n/p pages through
	cursor   int
	mode     browseMode
	detail   *catalog.MovieDetails
	opening  int // movie id whose details were requested from the list

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	pending  int
	width    int
	height   int
	ready    bool
}

// newBrowseModel creates the browser; the first tab loads on Init.
func newBrowseModel(ctx context.Context, ctrl *discover.Controller, images imageResolver, appURL string) browseModel {
	ti := textinput.New()
	ti.Placeholder = "Search titles..."
	ti.CharLimit = 200

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	return browseModel{
		ctx:     ctx,
		ctrl:    ctrl,
		store:   ctrl.Store(),
		library: store.NewLibrary(),
		images:  images,
		appURL:  appURL,
		tabs:    browseTabs(),
		input:   ti,
		spinner: s,
		pending: 1,
	}
}

// searchTab is the index of the tab search and genre results land in.
func (m browseModel) searchTab() int {
	for i, t := range m.tabs {
		if t.kind == tabSearch {
			return i
		}
	}
	return 0
}

// Init loads the first tab.
func (m browseModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd(m.tabLoader(0)))
}

// Update handles incoming messages and user input.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		return m, cmd

	case browseLoadedMsg:
		m.handleLoaded(msg)
		return m, nil

	case spinner.TickMsg:
		if m.pending > 0 {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.mode == modeSearch {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleResize adjusts the detail viewport and input on terminal resize.
func (m *browseModel) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	vpHeight := max(m.height-5, 1) // title, tabs, blank, status, help
	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.input.Width = m.width - 4
	m.refreshDetail()
}

// handleKey dispatches key events by mode.
func (m *browseModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeDetail:
		return m.handleDetailKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

func (m *browseModel) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "esc":
		if m.tabs[m.active].kind == tabSearch {
			// Blank queries clear the search state without a request.
			_ = m.ctrl.Search(m.ctx, "", 1)
			m.cursor = 0
		}
	case "tab", "right", "l":
		return m.switchTab(1)
	case "shift+tab", "left", "h":
		return m.switchTab(-1)
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.movies())-1 {
			m.cursor++
		}
	case "n":
		if m.active == m.pagerTab && m.ctrl.HasNextPage() {
			m.cursor = 0
			return m.startLoad(pageLoader(m.ctrl.NextPage))
		}
	case "p":
		if m.active == m.pagerTab && m.ctrl.HasPrevPage() {
			m.cursor = 0
			return m.startLoad(pageLoader(m.ctrl.PrevPage))
		}
	case "enter":
		if sel, ok := m.selected(); ok {
			m.opening = sel.ID
			return m.startLoad(m.movieLoader(sel.ID))
		}
	case "/":
		m.mode = modeSearch
		m.input.SetValue(m.store.View().SearchQuery)
		m.input.CursorEnd()
		m.input.Focus()
		return textinput.Blink
	case "g":
		m.active = m.searchTab()
		m.pagerTab = m.active
		m.cursor = 0
		return m.startLoad(m.nextGenreLoader())
	case "f":
		if sel, ok := m.selected(); ok {
			m.library.ToggleFavorite(sel.ID)
		}
	case "w":
		if sel, ok := m.selected(); ok {
			m.library.ToggleWatchlist(sel.ID)
		}
	}
	return nil
}

func (m *browseModel) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "backspace", "q":
		m.mode = modeList
		m.detail = nil
		return nil
	case "f":
		m.library.ToggleFavorite(m.detail.ID)
		m.refreshDetail()
		return nil
	case "w":
		m.library.ToggleWatchlist(m.detail.ID)
		m.refreshDetail()
		return nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

func (m *browseModel) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input.Blur()
		return nil
	case "enter":
		query := m.input.Value()
		m.mode = modeList
		m.input.Blur()
		m.active = m.searchTab()
		m.pagerTab = m.active
		m.cursor = 0
		ctrl := m.ctrl
		return m.startLoad(func(ctx context.Context) (*catalog.MovieDetails, error) {
			return nil, ctrl.Search(ctx, query, 1)
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// handleLoaded applies a finished load. Errors are already in the store.
func (m *browseModel) handleLoaded(msg browseLoadedMsg) {
	m.pending = max(m.pending-1, 0)
	if msg.err != nil {
		return
	}
	if msg.detail != nil && m.mode == modeList && msg.detail.ID == m.opening {
		m.detail = msg.detail
		m.mode = modeDetail
		m.opening = 0
		m.refreshDetail()
		m.viewport.GotoTop()
	}
	m.cursor = min(m.cursor, max(len(m.movies())-1, 0))
}

// switchTab moves to a neighboring tab and reloads it from page 1.
func (m *browseModel) switchTab(delta int) tea.Cmd {
	m.active = (m.active + delta + len(m.tabs)) % len(m.tabs)
	m.cursor = 0
	if load := m.tabLoader(m.active); load != nil {
		m.pagerTab = m.active
		return m.startLoad(load)
	}
	return nil
}

// tabLoader returns the load for a category tab. Other tabs show what is
// already in the store or library and return nil.
func (m browseModel) tabLoader(i int) func(ctx context.Context) (*catalog.MovieDetails, error) {
	if m.tabs[i].kind != tabCategory {
		return nil
	}
	cat := m.tabs[i].cat
	ctrl := m.ctrl
	return func(ctx context.Context) (*catalog.MovieDetails, error) {
		return nil, ctrl.LoadCategory(ctx, cat, 1)
	}
}

func (m browseModel) movieLoader(id int) func(ctx context.Context) (*catalog.MovieDetails, error) {
	ctrl := m.ctrl
	return func(ctx context.Context) (*catalog.MovieDetails, error) {
		return ctrl.LoadMovie(ctx, id)
	}
}

// nextGenreLoader browses the genre after the selected one, fetching the
// genre list first if needed.
func (m browseModel) nextGenreLoader() func(ctx context.Context) (*catalog.MovieDetails, error) {
	ctrl, st := m.ctrl, m.store
	return func(ctx context.Context) (*catalog.MovieDetails, error) {
		if len(st.Genres()) == 0 {
			if err := ctrl.LoadGenres(ctx); err != nil {
				return nil, err
			}
		}
		genres := st.Genres()
		if len(genres) == 0 {
			return nil, nil
		}
		next := 0
		if sel := st.View().SelectedGenre; sel != nil {
			for i, g := range genres {
				if g.ID == *sel {
					next = (i + 1) % len(genres)
					break
				}
			}
		}
		return nil, ctrl.BrowseGenre(ctx, genres[next].ID, 1)
	}
}

func pageLoader(turn func(ctx context.Context) error) func(ctx context.Context) (*catalog.MovieDetails, error) {
	return func(ctx context.Context) (*catalog.MovieDetails, error) {
		return nil, turn(ctx)
	}
}

// startLoad counts a pending load and starts the spinner if it was idle.
func (m *browseModel) startLoad(load func(ctx context.Context) (*catalog.MovieDetails, error)) tea.Cmd {
	m.pending++
	if m.pending == 1 {
		return tea.Batch(m.loadCmd(load), m.spinner.Tick)
	}
	return m.loadCmd(load)
}

func (m browseModel) loadCmd(load func(ctx context.Context) (*catalog.MovieDetails, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if load == nil {
			return browseLoadedMsg{}
		}
		d, err := load(ctx)
		return browseLoadedMsg{detail: d, err: err}
	}
}

func (m browseModel) movies() []catalog.Movie {
	switch tab := m.tabs[m.active]; tab.kind {
	case tabFavorites:
		return m.libraryMovies(m.library.Favorites())
	case tabWatchlist:
		return m.libraryMovies(m.library.Watchlist())
	default:
		return m.store.Collection(tab.name)
	}
}

// libraryMovies resolves library ids to movies from the detail cache or any
// loaded collection. Ids seen nowhere get a placeholder title.
func (m browseModel) libraryMovies(ids []int) []catalog.Movie {
	known := make(map[int]catalog.Movie)
	for _, name := range store.Collections() {
		for _, mv := range m.store.Collection(name) {
			known[mv.ID] = mv
		}
	}
	out := make([]catalog.Movie, 0, len(ids))
	for _, id := range ids {
		switch d, ok := m.store.Detail(id); {
		case ok:
			out = append(out, d.Movie)
		case known[id].ID != 0:
			out = append(out, known[id])
		default:
			out = append(out, catalog.Movie{ID: id, Title: fmt.Sprintf("#%d", id)})
		}
	}
	return out
}

// pageView is the page counter for the active tab; lists that were not the
// last paged load show a single page.
func (m browseModel) pageView() store.ViewState {
	v := m.store.View()
	if m.active != m.pagerTab {
		v.CurrentPage, v.TotalPages = 1, 1
	}
	return v
}

func (m browseModel) selected() (catalog.Movie, bool) {
	movies := m.movies()
	if m.cursor < 0 || m.cursor >= len(movies) {
		return catalog.Movie{}, false
	}
	return movies[m.cursor], true
}

// refreshDetail re-renders the open detail page into the viewport.
func (m *browseModel) refreshDetail() {
	if m.detail == nil || !m.ready {
		return
	}
	var art artwork
	if m.images != nil {
		art = resolveArtwork(m.images, m.detail)
	}
	similar := m.store.Collection(store.Similar)
	m.viewport.SetContent(renderMovieDetail(m.detail, similar, m.library, art, m.appURL))
}

// heading names the active list.
func (m browseModel) heading() string {
	tab := m.tabs[m.active]
	if tab.kind != tabSearch {
		return tab.title
	}
	v := m.store.View()
	switch {
	case v.SearchQuery != "":
		return fmt.Sprintf("Results for %q", v.SearchQuery)
	case v.SelectedGenre != nil:
		if name := m.store.GenreName(*v.SelectedGenre); name != "" {
			return name
		}
	}
	return "Search"
}

// View renders tabs, the list or detail page, and the status line.
func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("5")).
		Render("MovieDeck")

	var body string
	if m.mode == modeDetail {
		body = m.viewport.View()
	} else {
		body = renderMovieList(m.heading(), m.movies(), m.pageView(), m.cursor, m.library)
	}

	return title + "\n" +
		m.renderTabs() + "\n\n" +
		body + "\n" +
		m.statusLine() + "\n" +
		styleDim.Render(m.helpLine())
}

func (m browseModel) renderTabs() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")).Underline(true)
	parts := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		if i == m.active {
			parts[i] = active.Render(t.title)
		} else {
			parts[i] = styleDim.Render(t.title)
		}
	}
	return strings.Join(parts, styleDim.Render(" │ "))
}

func (m browseModel) statusLine() string {
	switch {
	case m.mode == modeSearch:
		return m.input.View()
	case m.pending > 0:
		return m.spinner.View() + styleDim.Render(" Loading...")
	}
	if v := m.store.View(); v.Error != nil {
		return styleError.Render("Error: " + *v.Error)
	}
	return ""
}

func (m browseModel) helpLine() string {
	switch m.mode {
	case modeSearch:
		return "enter search • esc cancel"
	case modeDetail:
		return "esc back • ↑/↓ scroll • f favorite • w watchlist"
	default:
		return "←/→ lists • ↑/↓ move • enter details • n/p page • / search • g genre • f/w library • q quit"
	}
}
