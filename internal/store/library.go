package store

import (
	"slices"
	"sync"
)

// Library tracks favorite and watchlist membership for one session.
// Nothing is persisted.
type Library struct {
	mu        sync.RWMutex
	favorites map[int]struct{}
	watchlist map[int]struct{}
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{
		favorites: make(map[int]struct{}),
		watchlist: make(map[int]struct{}),
	}
}

// IsFavorite reports whether id is a favorite.
func (l *Library) IsFavorite(id int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.favorites[id]
	return ok
}

// IsInWatchlist reports whether id is on the watchlist.
func (l *Library) IsInWatchlist(id int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.watchlist[id]
	return ok
}

// ToggleFavorite flips membership and reports whether id is now a favorite.
func (l *Library) ToggleFavorite(id int) bool {
	return l.toggle(l.favorites, id)
}

// ToggleWatchlist flips membership and reports whether id is now on the watchlist.
func (l *Library) ToggleWatchlist(id int) bool {
	return l.toggle(l.watchlist, id)
}

func (l *Library) toggle(set map[int]struct{}, id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := set[id]; ok {
		delete(set, id)
		return false
	}
	set[id] = struct{}{}
	return true
}

// Favorites returns favorite ids in ascending order.
func (l *Library) Favorites() []int {
	return l.sorted(l.favorites)
}

// Watchlist returns watchlist ids in ascending order.
func (l *Library) Watchlist() []int {
	return l.sorted(l.watchlist)
}

func (l *Library) sorted(set map[int]struct{}) []int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clear empties both lists.
func (l *Library) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.favorites)
	clear(l.watchlist)
}
