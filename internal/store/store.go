// Package store holds the latest fetched catalog data and view flags.
// Setters are synchronous and replace one field at a time; fetching lives in callers.
package store

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
)

// CollectionName identifies one tracked list of movies.
type CollectionName string

// Tracked collections.
const (
	Popular     CollectionName = "popular"
	TopRated    CollectionName = "top_rated"
	NowPlaying  CollectionName = "now_playing"
	Upcoming    CollectionName = "upcoming"
	Search      CollectionName = "search"
	Similar     CollectionName = "similar"
	Recommended CollectionName = "recommended"
)

// Collections returns every tracked collection name.
func Collections() []CollectionName {
	return []CollectionName{Popular, TopRated, NowPlaying, Upcoming, Search, Similar, Recommended}
}

// ForCategory maps a curated catalog list onto its collection.
func ForCategory(c catalog.Category) (CollectionName, bool) {
	switch c {
	case catalog.CategoryPopular:
		return Popular, true
	case catalog.CategoryTopRated:
		return TopRated, true
	case catalog.CategoryNowPlaying:
		return NowPlaying, true
	case catalog.CategoryUpcoming:
		return Upcoming, true
	}
	return "", false
}

// ViewState is the flat set of UI flags. Fields are independent of each other.
type ViewState struct {
	Loading       bool
	Error         *string
	SearchQuery   string
	SelectedGenre *int
	CurrentPage   int
	TotalPages    int
}

// Snapshot is a deep copy of everything the store holds.
type Snapshot struct {
	Collections map[CollectionName][]catalog.Movie
	Details     map[int]catalog.MovieDetails
	Genres      []catalog.Genre
	View        ViewState
}

// Store is an isolated, mutex-guarded state container.
type Store struct {
	mu          sync.RWMutex
	collections map[CollectionName][]catalog.Movie
	details     map[int]catalog.MovieDetails
	genres      []catalog.Genre
	view        ViewState

	listenerMu sync.Mutex
	listeners  []func()
}

// New returns a store in its initial state.
func New() *Store {
	s := &Store{
		collections: make(map[CollectionName][]catalog.Movie, len(Collections())),
		details:     make(map[int]catalog.MovieDetails),
	}
	for _, name := range Collections() {
		s.collections[name] = []catalog.Movie{}
	}
	s.view = initialView()
	return s
}

func initialView() ViewState {
	return ViewState{CurrentPage: 1, TotalPages: 1}
}

// OnChange registers fn to be called after every mutation. fn runs outside
// the store lock and may read from the store.
func (s *Store) OnChange(fn func()) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	s.listenerMu.Lock()
	fns := slices.Clone(s.listeners)
	s.listenerMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// update runs fn under the write lock, then notifies listeners.
func (s *Store) update(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.notify()
}

// SetCollection replaces a collection wholesale. The slice is copied.
func (s *Store) SetCollection(name CollectionName, items []catalog.Movie) error {
	if _, ok := s.lookup(name); !ok {
		return fmt.Errorf("unknown collection %q", name)
	}
	cp := slices.Clone(items)
	if cp == nil {
		cp = []catalog.Movie{}
	}
	s.update(func() { s.collections[name] = cp })
	return nil
}

func (s *Store) lookup(name CollectionName) ([]catalog.Movie, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, ok := s.collections[name]
	return items, ok
}

// SetPopular replaces the popular list.
func (s *Store) SetPopular(items []catalog.Movie) {
	_ = s.SetCollection(Popular, items)
}

// SetTopRated replaces the top rated list.
func (s *Store) SetTopRated(items []catalog.Movie) {
	_ = s.SetCollection(TopRated, items)
}

// SetNowPlaying replaces the now playing list.
func (s *Store) SetNowPlaying(items []catalog.Movie) {
	_ = s.SetCollection(NowPlaying, items)
}

// SetUpcoming replaces the upcoming list.
func (s *Store) SetUpcoming(items []catalog.Movie) {
	_ = s.SetCollection(Upcoming, items)
}

// SetSearchResults replaces the search results.
func (s *Store) SetSearchResults(items []catalog.Movie) {
	_ = s.SetCollection(Search, items)
}

// SetSimilar replaces the similar titles.
func (s *Store) SetSimilar(items []catalog.Movie) {
	_ = s.SetCollection(Similar, items)
}

// SetRecommended replaces the recommendations.
func (s *Store) SetRecommended(items []catalog.Movie) {
	_ = s.SetCollection(Recommended, items)
}

// SetDetail inserts or overwrites the detail for id. Entries are never evicted.
func (s *Store) SetDetail(id int, d catalog.MovieDetails) {
	s.update(func() { s.details[id] = d })
}

// SetGenres replaces the genre list.
func (s *Store) SetGenres(genres []catalog.Genre) {
	cp := slices.Clone(genres)
	s.update(func() { s.genres = cp })
}

// SetLoading sets the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.update(func() { s.view.Loading = loading })
}

// SetError sets the error message; nil clears it.
func (s *Store) SetError(msg *string) {
	s.update(func() { s.view.Error = clonePtr(msg) })
}

// SetErrorMessage is SetError for a non-nil message.
func (s *Store) SetErrorMessage(msg string) {
	s.SetError(&msg)
}

// ClearError resets the error message to nil.
func (s *Store) ClearError() {
	s.SetError(nil)
}

// SetSearchQuery sets the current search query.
func (s *Store) SetSearchQuery(q string) {
	s.update(func() { s.view.SearchQuery = q })
}

// SetSelectedGenre sets the genre filter; nil clears it.
func (s *Store) SetSelectedGenre(id *int) {
	s.update(func() { s.view.SelectedGenre = clonePtr(id) })
}

// SetPage sets the current page counter.
func (s *Store) SetPage(n int) {
	s.update(func() { s.view.CurrentPage = n })
}

// SetTotalPages sets the total page counter.
func (s *Store) SetTotalPages(n int) {
	s.update(func() { s.view.TotalPages = n })
}

// ClearSearch resets search results, query, genre filter and page in one update.
func (s *Store) ClearSearch() {
	s.update(func() {
		s.collections[Search] = []catalog.Movie{}
		s.view.SearchQuery = ""
		s.view.SelectedGenre = nil
		s.view.CurrentPage = 1
	})
}

// Collection returns a copy of the named collection, or nil for unknown names.
func (s *Store) Collection(name CollectionName) []catalog.Movie {
	items, ok := s.lookup(name)
	if !ok {
		return nil
	}
	return slices.Clone(items)
}

// Detail returns the cached detail for id.
func (s *Store) Detail(id int) (catalog.MovieDetails, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.details[id]
	return d, ok
}

// Genres returns a copy of the loaded genre list.
func (s *Store) Genres() []catalog.Genre {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.genres)
}

// GenreName returns the name of a loaded genre, or "" if unknown.
func (s *Store) GenreName(id int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.genres {
		if g.ID == id {
			return g.Name
		}
	}
	return ""
}

// View returns a copy of the UI flags.
func (s *Store) View() ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.clone()
}

// Snapshot returns a deep copy of everything the store holds.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cols := make(map[CollectionName][]catalog.Movie, len(s.collections))
	for name, items := range s.collections {
		cols[name] = slices.Clone(items)
	}
	return Snapshot{
		Collections: cols,
		Details:     maps.Clone(s.details),
		Genres:      slices.Clone(s.genres),
		View:        s.view.clone(),
	}
}

func (v ViewState) clone() ViewState {
	v.Error = clonePtr(v.Error)
	v.SelectedGenre = clonePtr(v.SelectedGenre)
	return v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
