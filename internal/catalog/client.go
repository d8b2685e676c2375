package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vadimtrunov/MovieDeck/internal/httpclient"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org/3"
	defaultImageBaseURL = "https://image.tmdb.org/t/p"

	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 64 << 10
)

// Options configures a Client.
type Options struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Language     string // e.g. "en-US"; empty leaves the upstream default
	HTTP         httpclient.Config
}

// DefaultOptions returns options pointing at the public TMDb v3 API.
func DefaultOptions(apiKey string) Options {
	return Options{
		APIKey:       apiKey,
		BaseURL:      defaultBaseURL,
		ImageBaseURL: defaultImageBaseURL,
		HTTP:         httpclient.DefaultConfig(),
	}
}

// Client is a stateless TMDb v3 catalog client. It holds no domain data;
// every operation issues one request and returns typed results.
type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	language     string
	http         *httpclient.Client
	logger       *slog.Logger
}

// New creates a catalog client.
func New(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = defaultImageBaseURL
	}
	return &Client{
		baseURL:      opts.BaseURL,
		imageBaseURL: opts.ImageBaseURL,
		apiKey:       opts.APIKey,
		language:     opts.Language,
		http:         httpclient.New(opts.HTTP, logger),
		logger:       logger,
	}
}

// NewForTest creates a client against a custom base URL with a fixed key.
// Exported because it is used by cross-package tests (e.g. internal/discover).
func NewForTest(baseURL string, logger *slog.Logger) *Client {
	opts := DefaultOptions("test-key")
	opts.BaseURL = baseURL
	return New(opts, logger)
}

// ImageBaseURL returns the image host the client resolves artwork against.
func (c *Client) ImageBaseURL() string {
	return c.imageBaseURL
}

// ListPopular returns the current popular movies.
func (c *Client) ListPopular(ctx context.Context, page int) (*Page[Movie], error) {
	return c.List(ctx, CategoryPopular, page)
}

// ListTopRated returns the top rated movies.
func (c *Client) ListTopRated(ctx context.Context, page int) (*Page[Movie], error) {
	return c.List(ctx, CategoryTopRated, page)
}

// ListNowPlaying returns movies currently in theaters.
func (c *Client) ListNowPlaying(ctx context.Context, page int) (*Page[Movie], error) {
	return c.List(ctx, CategoryNowPlaying, page)
}

// ListUpcoming returns upcoming releases.
func (c *Client) ListUpcoming(ctx context.Context, page int) (*Page[Movie], error) {
	return c.List(ctx, CategoryUpcoming, page)
}

// List returns one page of a curated category.
func (c *Client) List(ctx context.Context, cat Category, page int) (*Page[Movie], error) {
	if !cat.Valid() {
		return nil, fmt.Errorf("unknown category %q", cat)
	}
	return c.listMovies(ctx, "list "+string(cat), "/movie/"+string(cat), pageParams(page))
}

// Search runs a full-text title search. The query is sent as given; callers
// are expected to skip blank queries. Adult titles are always excluded.
func (c *Client) Search(ctx context.Context, query string, page int) (*Page[Movie], error) {
	params := pageParams(page)
	params.Set("query", query)
	params.Set("include_adult", "false")

	res, err := c.listMovies(ctx, "search", "/search/movie", params)
	if err != nil {
		return nil, err
	}
	res.Results = withoutAdult(res.Results)
	return res, nil
}

// GetDetail returns the full record for one movie.
func (c *Client) GetDetail(ctx context.Context, id int) (*MovieDetails, error) {
	op := fmt.Sprintf("get movie %d", id)
	var details MovieDetails
	if err := c.get(ctx, op, "/movie/"+strconv.Itoa(id), nil, &details); err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) && ue.IsNotFound() {
			return nil, &NotFoundError{ID: id}
		}
		return nil, err
	}
	return &details, nil
}

// ListByGenre discovers movies in a genre, most popular first.
func (c *Client) ListByGenre(ctx context.Context, genreID, page int) (*Page[Movie], error) {
	params := pageParams(page)
	params.Set("with_genres", strconv.Itoa(genreID))
	params.Set("sort_by", "popularity.desc")
	return c.listMovies(ctx, fmt.Sprintf("discover genre %d", genreID), "/discover/movie", params)
}

// ListGenres returns the movie genre list in upstream order.
func (c *Client) ListGenres(ctx context.Context) ([]Genre, error) {
	var resp genresResponse
	if err := c.get(ctx, "list genres", "/genre/movie/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Genres, nil
}

// ListSimilar returns movies similar to the given one.
func (c *Client) ListSimilar(ctx context.Context, id, page int) (*Page[Movie], error) {
	path := fmt.Sprintf("/movie/%d/similar", id)
	return c.listMovies(ctx, fmt.Sprintf("similar to %d", id), path, pageParams(page))
}

// ListRecommended returns recommendations based on the given movie.
func (c *Client) ListRecommended(ctx context.Context, id, page int) (*Page[Movie], error) {
	path := fmt.Sprintf("/movie/%d/recommendations", id)
	return c.listMovies(ctx, fmt.Sprintf("recommendations for %d", id), path, pageParams(page))
}

func (c *Client) listMovies(ctx context.Context, op, path string, params url.Values) (*Page[Movie], error) {
	var res Page[Movie]
	if err := c.get(ctx, op, path, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// pageParams returns query params for a 1-based page; values below 1 become 1.
func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

// withoutAdult drops adult items while keeping the upstream order.
func withoutAdult(movies []Movie) []Movie {
	out := make([]Movie, 0, len(movies))
	for _, m := range movies {
		if !m.Adult {
			out = append(out, m)
		}
	}
	return out
}

// get performs an authenticated GET request and decodes the JSON response
// into result. Non-2xx and transport failures are *UpstreamError, bad bodies
// are *SchemaError.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, result any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("%s: invalid URL: %w", op, err)
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	if c.language != "" {
		q.Set("language", c.language)
	}
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("catalog request failed",
			slog.String("op", op),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog request",
		slog.String("op", op),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return upstreamErrorFrom(op, resp)
	}
	return decodeBody(op, resp.Body, result)
}

// upstreamErrorFrom builds an UpstreamError from a failed response, using the
// TMDb status_message when the body carries one.
func upstreamErrorFrom(op string, resp *http.Response) *UpstreamError {
	ue := &UpstreamError{Op: op, StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var er errorResponse
	if json.Unmarshal(body, &er) == nil && er.StatusMessage != "" {
		ue.Code = er.StatusCode
		ue.Message = er.StatusMessage
		return ue
	}
	ue.Message = http.StatusText(resp.StatusCode)
	return ue
}
