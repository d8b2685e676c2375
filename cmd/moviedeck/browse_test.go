package main

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
	"github.com/vadimtrunov/MovieDeck/internal/store"
)

func newTestBrowser(t *testing.T) browseModel {
	t.Helper()
	env := newTestEnv(t)
	m := newBrowseModel(context.Background(), env.ctrl, env.images, env.appURL)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(browseModel)
}

// drain runs cmd and any batched commands, returning the produced messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// settle feeds every message cmd produces back into the model.
func settle(t *testing.T, m browseModel, cmd tea.Cmd) browseModel {
	t.Helper()
	for _, msg := range drain(cmd) {
		if _, ok := msg.(browseLoadedMsg); !ok {
			continue
		}
		updated, _ := m.Update(msg)
		m = updated.(browseModel)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m browseModel, s string) (browseModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(key(s))
	return updated.(browseModel), cmd
}

func TestBrowseModel_InitialState(t *testing.T) {
	env := newTestEnv(t)
	m := newBrowseModel(context.Background(), env.ctrl, env.images, env.appURL)

	if m.ready {
		t.Error("should not be ready before WindowSizeMsg")
	}
	if m.View() != "Initializing..." {
		t.Errorf("view = %q", m.View())
	}
	if len(m.tabs) != 7 || m.tabs[0].cat != catalog.CategoryPopular || m.tabs[m.searchTab()].name != store.Search {
		t.Errorf("tabs = %+v", m.tabs)
	}
	if m.pending != 1 {
		t.Errorf("pending = %d, want 1 for the initial load", m.pending)
	}
}

func TestBrowseModel_InitLoadsFirstTab(t *testing.T) {
	m := newTestBrowser(t)

	m = settle(t, m, m.Init())

	if m.pending != 0 {
		t.Errorf("pending = %d, want 0", m.pending)
	}
	if got := m.movies(); len(got) != 1 || got[0].Title != "Dune" {
		t.Errorf("movies = %+v", got)
	}
	view := m.View()
	for _, want := range []string{"MovieDeck", "Popular", "Dune", "Page 1 of 3"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestBrowseModel_SwitchTab(t *testing.T) {
	m := newTestBrowser(t)
	m = settle(t, m, m.Init())

	m, cmd := press(t, m, "tab")
	if m.active != 1 {
		t.Fatalf("active = %d, want 1", m.active)
	}
	if m.pending != 1 {
		t.Errorf("pending = %d", m.pending)
	}
	m = settle(t, m, cmd)
	if got := m.store.Collection(store.TopRated); len(got) != 1 {
		t.Errorf("top rated = %+v", got)
	}

	// Wraps around backwards.
	m.active = 0
	m, _ = press(t, m, "h")
	if m.active != len(m.tabs)-1 {
		t.Errorf("active = %d, want last tab", m.active)
	}
}

func TestBrowseModel_Paging(t *testing.T) {
	m := newTestBrowser(t)
	m = settle(t, m, m.Init())

	m, cmd := press(t, m, "n")
	m = settle(t, m, cmd)
	if v := m.store.View(); v.CurrentPage != 2 {
		t.Errorf("page = %d, want 2", v.CurrentPage)
	}

	m, cmd = press(t, m, "p")
	m = settle(t, m, cmd)
	if v := m.store.View(); v.CurrentPage != 1 {
		t.Errorf("page = %d, want 1", v.CurrentPage)
	}

	// No previous page on page 1.
	if _, cmd := press(t, m, "p"); cmd != nil {
		t.Error("p on page 1 should do nothing")
	}
}

func TestBrowseModel_Search(t *testing.T) {
	m := newTestBrowser(t)
	m = settle(t, m, m.Init())

	m, _ = press(t, m, "/")
	if m.mode != modeSearch {
		t.Fatalf("mode = %v, want search", m.mode)
	}
	m.input.SetValue("blade runner")
	m, cmd := press(t, m, "enter")
	if m.mode != modeList || m.active != m.searchTab() {
		t.Fatalf("mode = %v active = %d", m.mode, m.active)
	}
	m = settle(t, m, cmd)

	if !strings.Contains(m.View(), `Results for "blade runner"`) {
		t.Error("expected search heading")
	}
	if got := m.movies(); len(got) != 1 || got[0].ID != 78 {
		t.Errorf("results = %+v", got)
	}

	m, _ = press(t, m, "/")
	m, _ = press(t, m, "esc")
	if m.mode != modeList {
		t.Error("esc should leave search input")
	}
}

func TestBrowseModel_DetailAndBack(t *testing.T) {
	m := newTestBrowser(t)

	// Put The Matrix on the search tab.
	m.active = m.searchTab()
	if err := m.ctrl.BrowseGenre(context.Background(), 878, 1); err != nil {
		t.Fatal(err)
	}
	m.pending = 0

	m, cmd := press(t, m, "enter")
	if m.opening != 603 {
		t.Fatalf("opening = %d, want 603", m.opening)
	}
	m = settle(t, m, cmd)
	if m.mode != modeDetail || m.detail == nil || m.detail.ID != 603 {
		t.Fatalf("mode = %v detail = %+v", m.mode, m.detail)
	}
	if !strings.Contains(m.View(), "Welcome to the Real World.") {
		t.Error("detail view should show the tagline")
	}

	m, _ = press(t, m, "f")
	if !m.library.IsFavorite(603) {
		t.Error("f should favorite the open movie")
	}

	m, _ = press(t, m, "esc")
	if m.mode != modeList || m.detail != nil {
		t.Error("esc should return to the list")
	}
}

func TestBrowseModel_StaleDetailIgnored(t *testing.T) {
	m := newTestBrowser(t)
	m.opening = 1
	m.pending = 1

	updated, _ := m.Update(browseLoadedMsg{detail: &catalog.MovieDetails{Movie: catalog.Movie{ID: 2}}})
	m = updated.(browseModel)
	if m.mode != modeList {
		t.Error("a detail the user no longer waits for should not open")
	}
	if m.pending != 0 {
		t.Errorf("pending = %d", m.pending)
	}
}

func TestBrowseModel_ErrorShown(t *testing.T) {
	m := newTestBrowser(t)
	m.pending = 0
	m.store.SetErrorMessage("Failed to load movies")

	if !strings.Contains(m.View(), "Error: Failed to load movies") {
		t.Error("store error should be shown in the status line")
	}
}

func TestBrowseModel_LibraryToggleFromList(t *testing.T) {
	m := newTestBrowser(t)
	m = settle(t, m, m.Init())

	m, _ = press(t, m, "w")
	id := m.movies()[0].ID
	if !m.library.IsInWatchlist(id) {
		t.Error("w should add the selected movie to the watchlist")
	}
	m, _ = press(t, m, "w")
	if m.library.IsInWatchlist(id) {
		t.Error("second w should remove it")
	}
}

func TestBrowseModel_CursorBounds(t *testing.T) {
	m := newTestBrowser(t)
	m = settle(t, m, m.Init())

	m, _ = press(t, m, "down")
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 with a single movie", m.cursor)
	}
	m, _ = press(t, m, "k")
	if m.cursor != 0 {
		t.Errorf("cursor = %d", m.cursor)
	}
}

func TestBrowseModel_Quit(t *testing.T) {
	m := newTestBrowser(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}

func TestBrowseModel_GenreCycle(t *testing.T) {
	m := newTestBrowser(t)
	m = settle(t, m, m.Init())

	m, cmd := press(t, m, "g")
	if m.active != m.searchTab() {
		t.Fatalf("active = %d, want search tab", m.active)
	}
	m = settle(t, m, cmd)
	if v := m.store.View(); v.SelectedGenre == nil || *v.SelectedGenre != 28 {
		t.Fatalf("selected genre = %v, want 28", v.SelectedGenre)
	}
	if !strings.Contains(m.View(), "Action") {
		t.Error("heading should name the genre")
	}

	m, cmd = press(t, m, "g")
	m = settle(t, m, cmd)
	if v := m.store.View(); v.SelectedGenre == nil || *v.SelectedGenre != 878 {
		t.Errorf("selected genre = %v, want 878", v.SelectedGenre)
	}

	m, cmd = press(t, m, "g")
	m = settle(t, m, cmd)
	if v := m.store.View(); *v.SelectedGenre != 28 {
		t.Errorf("genre cycle should wrap, got %d", *v.SelectedGenre)
	}
}

func TestBrowseModel_EscClearsSearch(t *testing.T) {
	m := newTestBrowser(t)
	m.active = m.searchTab()
	if err := m.ctrl.Search(context.Background(), "blade runner", 1); err != nil {
		t.Fatal(err)
	}

	m, _ = press(t, m, "esc")

	v := m.store.View()
	if v.SearchQuery != "" || len(m.movies()) != 0 || v.CurrentPage != 1 {
		t.Errorf("search not cleared: %+v, %d movies", v, len(m.movies()))
	}
}

func TestBrowseModel_FavoritesTab(t *testing.T) {
	m := newTestBrowser(t)
	m = settle(t, m, m.Init())

	m, _ = press(t, m, "f")
	m.library.ToggleFavorite(999)

	for m.tabs[m.active].kind != tabFavorites {
		m, _ = press(t, m, "tab")
	}
	got := m.movies()
	if len(got) != 2 {
		t.Fatalf("favorites = %+v", got)
	}
	if got[0].Title != "#999" && got[1].Title != "#999" {
		t.Errorf("unknown id should get a placeholder title: %+v", got)
	}
	if !strings.Contains(m.View(), "Dune") {
		t.Error("favorites tab should list loaded titles")
	}
	if _, cmd := press(t, m, "n"); cmd != nil {
		t.Error("library tabs do not page")
	}
}
