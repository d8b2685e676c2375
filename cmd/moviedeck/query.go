package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
	"github.com/vadimtrunov/MovieDeck/internal/discover"
	"github.com/vadimtrunov/MovieDeck/internal/store"
)

// taskEnv is what a one-shot command loads and renders with.
type taskEnv struct {
	ctrl   *discover.Controller
	images imageResolver
	appURL string
}

// task loads something through the controller and renders the result.
type task func(ctx context.Context, env taskEnv) (string, error)

func newListCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "list [category]",
		Short: "Show a curated movie list",
		Long:  "Show one page of popular, top-rated, now-playing or upcoming movies.",
		Example: `  moviedeck list
  moviedeck list top-rated --page 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cat := catalog.CategoryPopular
			if len(args) == 1 {
				var err error
				if cat, err = catalog.ParseCategory(args[0]); err != nil {
					return err
				}
			}
			return runTask("Loading "+cat.Title()+"...", listTask(cat, page))
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:     "search [title]",
		Short:   "Search movies by title",
		Example: `  moviedeck search blade runner`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runTask("Searching...", searchTask(query, page))
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func newMovieCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "movie [id]",
		Short:   "Show movie details",
		Example: `  moviedeck movie 603`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runTask("Loading movie...", movieTask(id))
		},
	}
}

func newGenresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List movie genres",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTask("Loading genres...", genresTask())
		},
	}
}

func newGenreCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:     "genre [id]",
		Short:   "Show the most popular movies of a genre",
		Example: `  moviedeck genre 878`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runTask("Loading genre...", genreTask(id, page))
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q: must be a positive number", s)
	}
	return id, nil
}

func listTask(cat catalog.Category, page int) task {
	return func(ctx context.Context, env taskEnv) (string, error) {
		if err := env.ctrl.LoadCategory(ctx, cat, page); err != nil {
			return "", err
		}
		name, _ := store.ForCategory(cat)
		st := env.ctrl.Store()
		return renderMovieList(cat.Title(), st.Collection(name), st.View(), -1, nil), nil
	}
}

func searchTask(query string, page int) task {
	return func(ctx context.Context, env taskEnv) (string, error) {
		if err := env.ctrl.Search(ctx, query, page); err != nil {
			return "", err
		}
		st := env.ctrl.Store()
		heading := fmt.Sprintf("Results for %q", st.View().SearchQuery)
		return renderMovieList(heading, st.Collection(store.Search), st.View(), -1, nil), nil
	}
}

func movieTask(id int) task {
	return func(ctx context.Context, env taskEnv) (string, error) {
		d, err := env.ctrl.LoadMovie(ctx, id)
		if err != nil {
			return "", err
		}
		similar := env.ctrl.Store().Collection(store.Similar)
		return renderMovieDetail(d, similar, nil, resolveArtwork(env.images, d), env.appURL), nil
	}
}

func genresTask() task {
	return func(ctx context.Context, env taskEnv) (string, error) {
		if err := env.ctrl.LoadGenres(ctx); err != nil {
			return "", err
		}
		return renderGenres(env.ctrl.Store().Genres()), nil
	}
}

func genreTask(id, page int) task {
	return func(ctx context.Context, env taskEnv) (string, error) {
		// Names are cosmetic; a failure here still lists the genre.
		_ = env.ctrl.LoadGenres(ctx)
		if err := env.ctrl.BrowseGenre(ctx, id, page); err != nil {
			return "", err
		}
		st := env.ctrl.Store()
		heading := st.GenreName(id)
		if heading == "" {
			heading = fmt.Sprintf("Genre %d", id)
		}
		return renderMovieList(heading, st.Collection(store.Search), st.View(), -1, nil), nil
	}
}

// runTask runs t behind a spinner and prints its output.
func runTask(label string, t task) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, closeLog := newFileLogger(cfg)
	defer closeLog()

	client := newCatalog(cfg, logger)
	env := taskEnv{
		ctrl:   discover.New(client, store.New(), logger),
		images: client,
		appURL: cfg.App.URL,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := tea.NewProgram(newTaskModel(ctx, env, label, t), tea.WithOutput(os.Stderr))
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("run %s: %w", strings.TrimSuffix(strings.ToLower(label), "..."), err)
	}

	tm, ok := m.(taskModel)
	if !ok {
		return fmt.Errorf("unexpected model type from tea program")
	}
	if tm.err != nil {
		return userError(env.ctrl.Store(), tm.err)
	}
	fmt.Print(tm.output)
	return nil
}

// userError prefers the message the controller stored for display.
func userError(st *store.Store, err error) error {
	if v := st.View(); v.Error != nil {
		return fmt.Errorf("%s", *v.Error)
	}
	return err
}

// taskDoneMsg carries the rendered output back to the TUI.
type taskDoneMsg struct {
	output string
	err    error
}

type taskModel struct {
	ctx     context.Context
	env     taskEnv
	label   string
	run     task
	spinner spinner.Model
	output  string
	err     error
	done    bool
}

func newTaskModel(ctx context.Context, env taskEnv, label string, t task) taskModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo
	return taskModel{
		ctx:     ctx,
		env:     env,
		label:   label,
		run:     t,
		spinner: s,
	}
}

func (m taskModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

func (m taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = context.Canceled
			return m, tea.Quit
		}
	case taskDoneMsg:
		m.output = msg.output
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View draws only the spinner; the result is printed after the program exits
// so it lands on stdout.
func (m taskModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + styleDim.Render(" "+m.label) + "\n"
}

func (m taskModel) start() tea.Cmd {
	return func() tea.Msg {
		out, err := m.run(m.ctx, m.env)
		return taskDoneMsg{output: out, err: err}
	}
}
