// Package discover drives catalog fetches into a store the way every view
// needs them: loading and error flags, page counters and stale-result dropping.
package discover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
	"github.com/vadimtrunov/MovieDeck/internal/store"
)

// Messages stored in the view error flag.
const (
	MsgNotFound    = "Movie not found"
	MsgLoadFailed  = "Failed to load movies"
	MsgGenreFailed = "Failed to load genres"
)

// ErrSuperseded is returned when a newer request for the same operation
// started before this one finished. The store is left untouched.
var ErrSuperseded = errors.New("superseded by a newer request")

// Catalog is the subset of the catalog client the controller uses.
type Catalog interface {
	List(ctx context.Context, cat catalog.Category, page int) (*catalog.Page[catalog.Movie], error)
	Search(ctx context.Context, query string, page int) (*catalog.Page[catalog.Movie], error)
	GetDetail(ctx context.Context, id int) (*catalog.MovieDetails, error)
	ListByGenre(ctx context.Context, genreID, page int) (*catalog.Page[catalog.Movie], error)
	ListGenres(ctx context.Context) ([]catalog.Genre, error)
	ListSimilar(ctx context.Context, id, page int) (*catalog.Page[catalog.Movie], error)
	ListRecommended(ctx context.Context, id, page int) (*catalog.Page[catalog.Movie], error)
}

// Operation keys for sequencing. Search and genre browsing share one key
// because both write the search collection.
const (
	opSearch      = "search"
	opMovie       = "movie"
	opSimilar     = "similar"
	opRecommended = "recommended"
	opGenres      = "genres"

	// opPaging orders every paged load, whatever its collection, because
	// they all share the view's page counters.
	opPaging = "paging"
)

// Controller loads catalog data into a store.
type Controller struct {
	catalog Catalog
	store   *store.Store
	seq     *store.Sequencer
	logger  *slog.Logger

	mu    sync.Mutex
	pager func(ctx context.Context, page int) error
}

// New creates a controller writing into st.
func New(c Catalog, st *store.Store, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		catalog: c,
		store:   st,
		seq:     store.NewSequencer(),
		logger:  logger,
	}
}

// Store returns the store the controller writes into.
func (c *Controller) Store() *store.Store {
	return c.store
}

// LoadCategory fetches one page of a curated list into its collection.
func (c *Controller) LoadCategory(ctx context.Context, cat catalog.Category, page int) error {
	name, ok := store.ForCategory(cat)
	if !ok {
		return fmt.Errorf("unknown category %q", cat)
	}
	paging := c.beginPaging(func(ctx context.Context, p int) error { return c.LoadCategory(ctx, cat, p) })

	var res *catalog.Page[catalog.Movie]
	return c.load(ctx, "list:"+string(cat), MsgLoadFailed,
		func(ctx context.Context) (err error) {
			res, err = c.catalog.List(ctx, cat, page)
			return err
		},
		func() {
			_ = c.store.SetCollection(name, res.Results)
			c.setPaging(paging, res)
		})
}

// Search runs a title search into the search collection. A blank query
// clears the search state instead and issues no request.
func (c *Controller) Search(ctx context.Context, query string, page int) error {
	query = strings.TrimSpace(query)
	if query == "" {
		c.seq.Begin(opSearch)
		c.store.ClearSearch()
		return nil
	}
	c.store.SetSearchQuery(query)
	c.store.SetSelectedGenre(nil)
	paging := c.beginPaging(func(ctx context.Context, p int) error { return c.Search(ctx, query, p) })

	var res *catalog.Page[catalog.Movie]
	return c.load(ctx, opSearch, MsgLoadFailed,
		func(ctx context.Context) (err error) {
			res, err = c.catalog.Search(ctx, query, page)
			return err
		},
		func() {
			c.store.SetSearchResults(res.Results)
			c.setPaging(paging, res)
		})
}

// BrowseGenre lists a genre, most popular first, into the search collection.
func (c *Controller) BrowseGenre(ctx context.Context, genreID, page int) error {
	c.store.SetSelectedGenre(&genreID)
	c.store.SetSearchQuery("")
	paging := c.beginPaging(func(ctx context.Context, p int) error { return c.BrowseGenre(ctx, genreID, p) })

	var res *catalog.Page[catalog.Movie]
	return c.load(ctx, opSearch, MsgLoadFailed,
		func(ctx context.Context) (err error) {
			res, err = c.catalog.ListByGenre(ctx, genreID, page)
			return err
		},
		func() {
			c.store.SetSearchResults(res.Results)
			c.setPaging(paging, res)
		})
}

// LoadGenres fetches the genre list.
func (c *Controller) LoadGenres(ctx context.Context) error {
	var genres []catalog.Genre
	return c.load(ctx, opGenres, MsgGenreFailed,
		func(ctx context.Context) (err error) {
			genres, err = c.catalog.ListGenres(ctx)
			return err
		},
		func() { c.store.SetGenres(genres) })
}

// LoadMovie fetches a movie's detail and its similar titles concurrently,
// caches the detail and replaces the similar collection. Only the detail
// decides success: when the similar list fails the collection is emptied.
func (c *Controller) LoadMovie(ctx context.Context, id int) (*catalog.MovieDetails, error) {
	var (
		details *catalog.MovieDetails
		similar *catalog.Page[catalog.Movie]
	)
	err := c.load(ctx, opMovie, MsgLoadFailed,
		func(ctx context.Context) error {
			var detailErr, similarErr error
			// Neither fetch cancels the other.
			var g errgroup.Group
			g.Go(func() error {
				details, detailErr = c.catalog.GetDetail(ctx, id)
				return detailErr
			})
			g.Go(func() error {
				similar, similarErr = c.catalog.ListSimilar(ctx, id, 1)
				return similarErr
			})
			_ = g.Wait()
			if similarErr != nil && detailErr == nil {
				c.logger.Warn("similar movies unavailable",
					slog.Int("id", id),
					slog.String("error", similarErr.Error()),
				)
				similar = nil
			}
			return detailErr
		},
		func() {
			c.store.SetDetail(id, *details)
			if similar != nil {
				c.store.SetSimilar(similar.Results)
			} else {
				c.store.SetSimilar(nil)
			}
		})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// LoadSimilar fetches one page of titles similar to a movie into the similar
// collection and returns the page with its counters.
func (c *Controller) LoadSimilar(ctx context.Context, id, page int) (*catalog.Page[catalog.Movie], error) {
	return c.loadRelated(ctx, opSimilar, id, page, c.catalog.ListSimilar, c.store.SetSimilar)
}

// LoadRecommended fetches one page of recommendations for a movie.
func (c *Controller) LoadRecommended(ctx context.Context, id, page int) (*catalog.Page[catalog.Movie], error) {
	return c.loadRelated(ctx, opRecommended, id, page, c.catalog.ListRecommended, c.store.SetRecommended)
}

func (c *Controller) loadRelated(ctx context.Context, op string, id, page int,
	fetch func(ctx context.Context, id, page int) (*catalog.Page[catalog.Movie], error),
	set func([]catalog.Movie),
) (*catalog.Page[catalog.Movie], error) {
	var res *catalog.Page[catalog.Movie]
	err := c.load(ctx, op, MsgLoadFailed,
		func(ctx context.Context) (err error) {
			res, err = fetch(ctx, id, page)
			return err
		},
		func() { set(res.Results) })
	if err != nil {
		return nil, err
	}
	return res, nil
}

// HasNextPage reports whether the last paged load has a following page.
func (c *Controller) HasNextPage() bool {
	v := c.store.View()
	return c.currentPager() != nil && v.CurrentPage < v.TotalPages
}

// HasPrevPage reports whether the last paged load has a preceding page.
func (c *Controller) HasPrevPage() bool {
	return c.currentPager() != nil && c.store.View().CurrentPage > 1
}

// NextPage reloads the last paged list one page further. It is a no-op on
// the last page.
func (c *Controller) NextPage(ctx context.Context) error {
	if !c.HasNextPage() {
		return nil
	}
	return c.currentPager()(ctx, c.store.View().CurrentPage+1)
}

// PrevPage reloads the last paged list one page back. It is a no-op on page 1.
func (c *Controller) PrevPage(ctx context.Context) error {
	if !c.HasPrevPage() {
		return nil
	}
	return c.currentPager()(ctx, c.store.View().CurrentPage-1)
}

// load runs one fetch with the loading and error flags managed around it.
// apply runs only when the fetch succeeded and no newer request for op started.
func (c *Controller) load(ctx context.Context, op, fallback string,
	fetch func(context.Context) error, apply func(),
) error {
	ticket := c.seq.Begin(op)
	c.store.SetLoading(true)
	c.store.SetError(nil)
	defer c.store.SetLoading(false)

	err := fetch(ctx)
	if !c.seq.Current(ticket) {
		c.logger.Debug("dropping superseded result", slog.String("op", op))
		return ErrSuperseded
	}
	if err != nil {
		c.logger.Warn("catalog load failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		c.store.SetErrorMessage(Message(err, fallback))
		return err
	}
	apply()
	return nil
}

// beginPaging makes fn the target of NextPage and PrevPage and returns the
// ticket that owns the page counters until a newer paged load starts.
func (c *Controller) beginPaging(fn func(ctx context.Context, page int) error) store.Ticket {
	c.setPager(fn)
	return c.seq.Begin(opPaging)
}

// setPaging records res's counters unless a newer paged load started since.
func (c *Controller) setPaging(t store.Ticket, res *catalog.Page[catalog.Movie]) {
	if !c.seq.Current(t) {
		return
	}
	c.store.SetPage(res.Page)
	c.store.SetTotalPages(max(res.TotalPages, 1))
}

func (c *Controller) setPager(fn func(ctx context.Context, page int) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pager = fn
}

func (c *Controller) currentPager() func(ctx context.Context, page int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pager
}

// Message turns a load failure into the text shown to users.
func Message(err error, fallback string) string {
	if errors.Is(err, catalog.ErrNotFound) {
		return MsgNotFound
	}
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
