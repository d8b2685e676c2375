package store

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
)

func movies(ids ...int) []catalog.Movie {
	out := make([]catalog.Movie, len(ids))
	for i, id := range ids {
		out[i] = catalog.Movie{ID: id}
	}
	return out
}

func ids(ms []catalog.Movie) []int {
	out := make([]int, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew_InitialState(t *testing.T) {
	s := New()
	v := s.View()
	if v.Loading || v.Error != nil || v.SearchQuery != "" || v.SelectedGenre != nil {
		t.Errorf("unexpected initial flags: %+v", v)
	}
	if v.CurrentPage != 1 || v.TotalPages != 1 {
		t.Errorf("expected page 1 of 1, got %d of %d", v.CurrentPage, v.TotalPages)
	}
	for _, name := range Collections() {
		items := s.Collection(name)
		if items == nil || len(items) != 0 {
			t.Errorf("%s: expected empty non-nil collection, got %v", name, items)
		}
	}
	if len(s.Genres()) != 0 {
		t.Error("expected no genres")
	}
}

func TestNew_Isolated(t *testing.T) {
	a, b := New(), New()
	a.SetPopular(movies(1, 2))
	if len(b.Collection(Popular)) != 0 {
		t.Error("stores share state")
	}
}

func TestSetCollection_ReplacesWholesale(t *testing.T) {
	s := New()
	s.SetPopular(movies(1, 2, 3))
	s.SetPopular(movies(4))

	if got := ids(s.Collection(Popular)); !equalInts(got, []int{4}) {
		t.Errorf("expected [4], got %v", got)
	}
}

func TestSetCollection_CopiesInput(t *testing.T) {
	s := New()
	in := movies(1, 2)
	s.SetTopRated(in)
	in[0].ID = 99

	if got := ids(s.Collection(TopRated)); !equalInts(got, []int{1, 2}) {
		t.Errorf("store aliased caller slice: %v", got)
	}

	out := s.Collection(TopRated)
	out[1].ID = 77
	if got := ids(s.Collection(TopRated)); !equalInts(got, []int{1, 2}) {
		t.Errorf("store aliased returned slice: %v", got)
	}
}

func TestSetCollection_Unknown(t *testing.T) {
	s := New()
	if err := s.SetCollection("trending", movies(1)); err == nil {
		t.Fatal("expected error for unknown collection")
	}
	if s.Collection("trending") != nil {
		t.Error("expected nil for unknown collection")
	}
}

func TestTypedSetters(t *testing.T) {
	s := New()
	setters := map[CollectionName]func([]catalog.Movie){
		Popular:     s.SetPopular,
		TopRated:    s.SetTopRated,
		NowPlaying:  s.SetNowPlaying,
		Upcoming:    s.SetUpcoming,
		Search:      s.SetSearchResults,
		Similar:     s.SetSimilar,
		Recommended: s.SetRecommended,
	}
	for i, name := range Collections() {
		setters[name](movies(i + 1))
	}
	for i, name := range Collections() {
		if got := ids(s.Collection(name)); !equalInts(got, []int{i + 1}) {
			t.Errorf("%s: expected [%d], got %v", name, i+1, got)
		}
	}
}

func TestSetDetail_OverwritesNotMerges(t *testing.T) {
	s := New()
	d1 := catalog.MovieDetails{Movie: catalog.Movie{ID: 550, Title: "Fight Club"}, Runtime: 139, Tagline: "Mischief."}
	d2 := catalog.MovieDetails{Movie: catalog.Movie{ID: 550, Title: "Fight Club"}}

	s.SetDetail(550, d1)
	s.SetDetail(550, d2)

	got, ok := s.Detail(550)
	if !ok {
		t.Fatal("detail missing")
	}
	if got.Runtime != 0 || got.Tagline != "" {
		t.Errorf("expected second value only, got %+v", got)
	}
	if n := len(s.Snapshot().Details); n != 1 {
		t.Errorf("expected exactly one entry, got %d", n)
	}
}

func TestDetail_Missing(t *testing.T) {
	if _, ok := New().Detail(1); ok {
		t.Error("expected miss")
	}
}

func TestClearSearch(t *testing.T) {
	s := New()
	genre := 28
	s.SetPopular(movies(1, 2))
	s.SetSearchResults(movies(3, 4))
	s.SetSearchQuery("alien")
	s.SetSelectedGenre(&genre)
	s.SetPage(4)
	s.SetTotalPages(9)
	s.SetErrorMessage("boom")

	s.ClearSearch()

	v := s.View()
	if len(s.Collection(Search)) != 0 {
		t.Error("search results not cleared")
	}
	if v.SearchQuery != "" || v.SelectedGenre != nil || v.CurrentPage != 1 {
		t.Errorf("search flags not reset: %+v", v)
	}
	if got := ids(s.Collection(Popular)); !equalInts(got, []int{1, 2}) {
		t.Errorf("popular changed: %v", got)
	}
	if v.TotalPages != 9 {
		t.Errorf("total pages changed: %d", v.TotalPages)
	}
	if v.Error == nil || *v.Error != "boom" {
		t.Errorf("error changed: %v", v.Error)
	}
}

func TestSetError(t *testing.T) {
	s := New()
	msg := "Failed to load movies"
	s.SetError(&msg)
	msg = "mutated"

	v := s.View()
	if v.Error == nil || *v.Error != "Failed to load movies" {
		t.Fatalf("unexpected error: %v", v.Error)
	}

	s.ClearError()
	if s.View().Error != nil {
		t.Error("error not cleared")
	}
}

func TestPartialUpdates(t *testing.T) {
	s := New()
	s.SetLoading(true)
	s.SetSearchQuery("dune")
	s.SetPage(2)

	v := s.View()
	if !v.Loading || v.SearchQuery != "dune" || v.CurrentPage != 2 || v.TotalPages != 1 {
		t.Errorf("unexpected state: %+v", v)
	}

	s.SetLoading(false)
	v = s.View()
	if v.Loading || v.SearchQuery != "dune" || v.CurrentPage != 2 {
		t.Errorf("SetLoading touched other fields: %+v", v)
	}
}

func TestGenres(t *testing.T) {
	s := New()
	s.SetGenres([]catalog.Genre{{ID: 28, Name: "Action"}, {ID: 18, Name: "Drama"}})

	if got := s.GenreName(18); got != "Drama" {
		t.Errorf("expected Drama, got %q", got)
	}
	if got := s.GenreName(1); got != "" {
		t.Errorf("expected empty name, got %q", got)
	}
	if n := len(s.Genres()); n != 2 {
		t.Errorf("expected 2 genres, got %d", n)
	}
}

func TestViewIsCopy(t *testing.T) {
	s := New()
	g := 12
	s.SetSelectedGenre(&g)
	v := s.View()
	*v.SelectedGenre = 99

	if got := *s.View().SelectedGenre; got != 12 {
		t.Errorf("view aliased store: %d", got)
	}
}

func TestOnChange(t *testing.T) {
	s := New()
	var calls atomic.Int32
	s.OnChange(func() {
		calls.Add(1)
		_ = s.View()
	})

	s.SetLoading(true)
	s.SetPopular(movies(1))
	s.ClearSearch()

	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 notifications, got %d", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetPopular(movies(i))
			s.SetDetail(i, catalog.MovieDetails{Movie: catalog.Movie{ID: i}})
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
			_ = s.Collection(Popular)
		}()
	}
	wg.Wait()

	if n := len(s.Snapshot().Details); n != 50 {
		t.Errorf("expected 50 details, got %d", n)
	}
}
