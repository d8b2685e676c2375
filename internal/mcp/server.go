package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
	"github.com/vadimtrunov/MovieDeck/internal/discover"
	"github.com/vadimtrunov/MovieDeck/internal/store"
)

// ImageResolver turns image paths into absolute URLs.
type ImageResolver interface {
	ResolveImageURL(path *string, kind catalog.ImageKind, size catalog.ImageSize) string
}

// Deps holds the dependencies for MCP tool handlers.
type Deps struct {
	Catalog discover.Catalog
	Images  ImageResolver  // optional; image URLs are omitted when nil
	Library *store.Library // optional; a fresh library is used when nil
	AppURL  string         // base for share links; omitted when empty
	Version string
}

// Server wraps an MCP SDK server with MovieDeck tool handlers.
type Server struct {
	server  *mcpsdk.Server
	deps    Deps
	store   *store.Store
	ctrl    *discover.Controller
	library *store.Library
	logger  *slog.Logger

	// mu serializes tool calls so each one reads back the store state it wrote.
	mu sync.Mutex
}

// NewServer creates an MCP server with all MovieDeck tools registered.
func NewServer(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "moviedeck",
			Version: deps.Version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, deps: deps, logger: logger, library: deps.Library}
	if srv.library == nil {
		srv.library = store.NewLibrary()
	}
	if deps.Catalog != nil {
		srv.store = store.New()
		srv.ctrl = discover.New(deps.Catalog, srv.store, logger)
	}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.server.AddTool(listMoviesTool(), s.handleListMovies)
	s.server.AddTool(searchMoviesTool(), s.handleSearchMovies)
	s.server.AddTool(getMovieDetailsTool(), s.handleGetMovieDetails)
	s.server.AddTool(similarMoviesTool(), s.handleSimilarMovies)
	s.server.AddTool(recommendedMoviesTool(), s.handleRecommendedMovies)
	s.server.AddTool(listGenresTool(), s.handleListGenres)
	s.server.AddTool(discoverByGenreTool(), s.handleDiscoverByGenre)
	s.server.AddTool(toggleFavoriteTool(), s.handleToggleFavorite)
	s.server.AddTool(toggleWatchlistTool(), s.handleToggleWatchlist)
	s.server.AddTool(listLibraryTool(), s.handleListLibrary)
}

// Tool definitions.

func listMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "list_movies",
		Description: "List one page of a curated movie list: popular, top_rated, now_playing or upcoming.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{
					"type":        "string",
					"enum":        []any{"popular", "top_rated", "now_playing", "upcoming"},
					"description": "Which list to fetch",
				},
				"page": pageProperty(),
			},
			"required": []any{"category"},
		},
	}
}

func searchMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "search_movies",
		Description: "Search movies by title. Adult titles are never returned.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The movie title to search for",
				},
				"page": pageProperty(),
			},
			"required": []any{"query"},
		},
	}
}

func getMovieDetailsTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_movie_details",
		Description: "Get detailed information about a movie by its TMDb ID: runtime, genres, tagline, budget, revenue and similar titles.",
		InputSchema: tmdbIDSchema("The TMDb ID of the movie", false),
	}
}

func similarMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "similar_movies",
		Description: "List movies similar to the given one.",
		InputSchema: tmdbIDSchema("The TMDb ID of the movie", true),
	}
}

func recommendedMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "recommended_movies",
		Description: "List recommendations based on the given movie.",
		InputSchema: tmdbIDSchema("The TMDb ID of the movie to get recommendations for", true),
	}
}

func listGenresTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "list_genres",
		Description: "List all movie genres with their IDs.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func discoverByGenreTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "discover_by_genre",
		Description: "List movies in a genre, most popular first. Use list_genres to find genre IDs.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"genre_id": map[string]any{
					"type":        "integer",
					"description": "The genre ID",
				},
				"page": pageProperty(),
			},
			"required": []any{"genre_id"},
		},
	}
}

func toggleFavoriteTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "toggle_favorite",
		Description: "Add a movie to favorites, or remove it if it is already there.",
		InputSchema: tmdbIDSchema("The TMDb ID of the movie", false),
	}
}

func toggleWatchlistTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "toggle_watchlist",
		Description: "Add a movie to the watchlist, or remove it if it is already there.",
		InputSchema: tmdbIDSchema("The TMDb ID of the movie", false),
	}
}

func listLibraryTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "list_library",
		Description: "List the TMDb IDs on the favorites list and the watchlist for this session.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func pageProperty() map[string]any {
	return map[string]any{
		"type":        "integer",
		"minimum":     1,
		"description": "1-based result page (default 1)",
	}
}

func tmdbIDSchema(desc string, paged bool) map[string]any {
	props := map[string]any{
		"tmdb_id": map[string]any{
			"type":        "integer",
			"description": desc,
		},
	}
	if paged {
		props["page"] = pageProperty()
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []any{"tmdb_id"},
	}
}

// Result shapes.

type movieSummary struct {
	ID          int     `json:"tmdb_id"`
	Title       string  `json:"title"`
	Year        int     `json:"year,omitempty"`
	Rating      float64 `json:"rating"`
	VoteCount   int     `json:"vote_count"`
	Overview    string  `json:"overview,omitempty"`
	PosterURL   string  `json:"poster_url,omitempty"`
	Favorite    bool    `json:"favorite"`
	InWatchlist bool    `json:"in_watchlist"`
}

type pageResult struct {
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Query      string         `json:"query,omitempty"`
	GenreID    *int           `json:"genre_id,omitempty"`
	GenreName  string         `json:"genre_name,omitempty"`
	Results    []movieSummary `json:"results"`
}

type movieDetail struct {
	movieSummary
	Tagline     string         `json:"tagline,omitempty"`
	Runtime     string         `json:"runtime"`
	Genres      []string       `json:"genres"`
	Budget      string         `json:"budget"`
	Revenue     string         `json:"revenue"`
	Status      string         `json:"status,omitempty"`
	IMDbID      string         `json:"imdb_id,omitempty"`
	Homepage    string         `json:"homepage,omitempty"`
	Companies   string         `json:"production_companies,omitempty"`
	BackdropURL string         `json:"backdrop_url,omitempty"`
	ShareURL    string         `json:"share_url,omitempty"`
	Similar     []movieSummary `json:"similar"`
}

// Tool handlers. Each parses arguments, loads through the controller and
// answers from the store.

func (s *Server) handleListMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.ctrl == nil {
		return toolError("catalog client not configured"), nil
	}
	raw, err := extractStringFromArgs(req.Params.Arguments, "category")
	if err != nil {
		return toolError(err.Error()), nil
	}
	cat, err := catalog.ParseCategory(raw)
	if err != nil {
		return toolError(err.Error()), nil
	}
	page := extractPage(req.Params.Arguments)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctrl.LoadCategory(ctx, cat, page); err != nil {
		return s.loadError(err), nil
	}
	name, _ := store.ForCategory(cat)
	return toolJSON(s.pageFrom(name))
}

func (s *Server) handleSearchMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.ctrl == nil {
		return toolError("catalog client not configured"), nil
	}
	query, err := extractStringFromArgs(req.Params.Arguments, "query")
	if err != nil {
		return toolError(err.Error()), nil
	}
	page := extractPage(req.Params.Arguments)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctrl.Search(ctx, query, page); err != nil {
		return s.loadError(err), nil
	}
	return toolJSON(s.pageFrom(store.Search))
}

func (s *Server) handleGetMovieDetails(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.ctrl == nil {
		return toolError("catalog client not configured"), nil
	}
	id, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.ctrl.LoadMovie(ctx, id)
	if err != nil {
		return s.loadError(err), nil
	}
	return toolJSON(s.detail(d))
}

func (s *Server) handleSimilarMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.ctrl == nil {
		return toolError("catalog client not configured"), nil
	}
	id, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}
	page := extractPage(req.Params.Arguments)

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.ctrl.LoadSimilar(ctx, id, page)
	if err != nil {
		return s.loadError(err), nil
	}
	return toolJSON(pageResult{
		Page:       res.Page,
		TotalPages: res.TotalPages,
		Results:    s.summaries(s.store.Collection(store.Similar)),
	})
}

func (s *Server) handleRecommendedMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.ctrl == nil {
		return toolError("catalog client not configured"), nil
	}
	id, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}
	page := extractPage(req.Params.Arguments)

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.ctrl.LoadRecommended(ctx, id, page)
	if err != nil {
		return s.loadError(err), nil
	}
	return toolJSON(pageResult{
		Page:       res.Page,
		TotalPages: res.TotalPages,
		Results:    s.summaries(s.store.Collection(store.Recommended)),
	})
}

func (s *Server) handleListGenres(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.ctrl == nil {
		return toolError("catalog client not configured"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctrl.LoadGenres(ctx); err != nil {
		return s.loadError(err), nil
	}
	return toolJSON(s.store.Genres())
}

func (s *Server) handleDiscoverByGenre(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.ctrl == nil {
		return toolError("catalog client not configured"), nil
	}
	genreID, err := extractIntFromArgs(req.Params.Arguments, "genre_id")
	if err != nil {
		return toolError(err.Error()), nil
	}
	page := extractPage(req.Params.Arguments)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctrl.BrowseGenre(ctx, genreID, page); err != nil {
		return s.loadError(err), nil
	}
	return toolJSON(s.pageFrom(store.Search))
}

func (s *Server) handleToggleFavorite(_ context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	id, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}
	return toolJSON(map[string]any{
		"tmdb_id":  id,
		"favorite": s.library.ToggleFavorite(id),
	})
}

func (s *Server) handleToggleWatchlist(_ context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	id, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}
	return toolJSON(map[string]any{
		"tmdb_id":      id,
		"in_watchlist": s.library.ToggleWatchlist(id),
	})
}

func (s *Server) handleListLibrary(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	return toolJSON(map[string]any{
		"favorites": s.library.Favorites(),
		"watchlist": s.library.Watchlist(),
	})
}

// Helper functions.

// loadError turns a controller failure into a tool error carrying the
// message the store recorded.
func (s *Server) loadError(err error) *mcpsdk.CallToolResult {
	if v := s.store.View(); v.Error != nil {
		return toolError(*v.Error)
	}
	if errors.Is(err, discover.ErrSuperseded) {
		return toolError("request superseded, try again")
	}
	return toolError(discover.Message(err, discover.MsgLoadFailed))
}

func (s *Server) pageFrom(name store.CollectionName) pageResult {
	v := s.store.View()
	res := pageResult{
		Page:       v.CurrentPage,
		TotalPages: v.TotalPages,
		Query:      v.SearchQuery,
		GenreID:    v.SelectedGenre,
		Results:    s.summaries(s.store.Collection(name)),
	}
	if name == store.Search && v.SelectedGenre != nil {
		res.GenreName = s.store.GenreName(*v.SelectedGenre)
	}
	return res
}

func (s *Server) summaries(movies []catalog.Movie) []movieSummary {
	out := make([]movieSummary, len(movies))
	for i, m := range movies {
		out[i] = s.summary(m)
	}
	return out
}

func (s *Server) summary(m catalog.Movie) movieSummary {
	sum := movieSummary{
		ID:          m.ID,
		Title:       m.Title,
		Year:        m.ReleaseDate.Year(),
		Rating:      m.VoteAverage,
		VoteCount:   m.VoteCount,
		Overview:    m.Overview,
		Favorite:    s.library.IsFavorite(m.ID),
		InWatchlist: s.library.IsInWatchlist(m.ID),
	}
	if s.deps.Images != nil {
		sum.PosterURL = s.deps.Images.ResolveImageURL(m.PosterPath, catalog.KindPoster, catalog.SizeMedium)
	}
	return sum
}

func (s *Server) detail(d *catalog.MovieDetails) movieDetail {
	out := movieDetail{
		movieSummary: s.summary(d.Movie),
		Tagline:      d.Tagline,
		Runtime:      discover.FormatRuntime(d.Runtime),
		Genres:       make([]string, len(d.Genres)),
		Budget:       discover.FormatMoney(d.Budget),
		Revenue:      discover.FormatMoney(d.Revenue),
		Status:       d.Status,
		IMDbID:       d.IMDbID,
		Homepage:     d.Homepage,
		Companies:    discover.CompanyNames(d.ProductionCompanies),
		Similar:      s.summaries(s.store.Collection(store.Similar)),
	}
	for i, g := range d.Genres {
		out.Genres[i] = g.Name
	}
	if s.deps.Images != nil {
		out.BackdropURL = s.deps.Images.ResolveImageURL(d.BackdropPath, catalog.KindBackdrop, catalog.SizeLarge)
	}
	if s.deps.AppURL != "" {
		out.ShareURL = discover.ShareURL(s.deps.AppURL, d.ID)
	}
	return out
}

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}

// extractPage reads the optional "page" argument; anything missing or
// invalid is page 1.
func extractPage(raw json.RawMessage) int {
	page, err := extractIntFromArgs(raw, "page")
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// extractIntFromArgs extracts an integer argument from raw JSON arguments.
func extractIntFromArgs(raw json.RawMessage, key string) (int, error) {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return 0, fmt.Errorf("invalid arguments: %w", err)
	}

	val, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}

	switch v := val.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, val)
	}
}

// extractStringFromArgs extracts a string argument from raw JSON arguments.
func extractStringFromArgs(raw json.RawMessage, key string) (string, error) {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	val, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}

	s, ok := val.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
	return s, nil
}
