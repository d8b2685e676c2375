package catalog

import (
	"fmt"
	"strings"
)

// Category is one of the curated movie lists.
type Category string

// Curated lists; the values are the upstream path segments.
const (
	CategoryPopular    Category = "popular"
	CategoryTopRated   Category = "top_rated"
	CategoryNowPlaying Category = "now_playing"
	CategoryUpcoming   Category = "upcoming"
)

// Categories returns the curated lists in display order.
func Categories() []Category {
	return []Category{CategoryPopular, CategoryTopRated, CategoryNowPlaying, CategoryUpcoming}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryPopular, CategoryTopRated, CategoryNowPlaying, CategoryUpcoming:
		return true
	}
	return false
}

// Title is the human-readable name of the list.
func (c Category) Title() string {
	switch c {
	case CategoryPopular:
		return "Popular"
	case CategoryTopRated:
		return "Top Rated"
	case CategoryNowPlaying:
		return "Now Playing"
	case CategoryUpcoming:
		return "Upcoming"
	}
	return string(c)
}

// ParseCategory accepts "top-rated", "top_rated", "Top Rated" and similar.
func ParseCategory(s string) (Category, error) {
	norm := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	c := Category(norm)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q (want popular, top-rated, now-playing or upcoming)", s)
	}
	return c, nil
}
