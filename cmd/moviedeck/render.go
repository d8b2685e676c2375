package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
	"github.com/vadimtrunov/MovieDeck/internal/discover"
	"github.com/vadimtrunov/MovieDeck/internal/store"
)

const (
	overviewWidth = 72
	ratingWidth   = 20
)

// renderMovieList formats one page of movies. cursor < 0 highlights nothing.
func renderMovieList(heading string, movies []catalog.Movie, view store.ViewState, cursor int, lib *store.Library) string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render(heading))
	sb.WriteString("\n")

	if len(movies) == 0 {
		sb.WriteString(styleDim.Render("No movies found."))
		sb.WriteString("\n")
		return sb.String()
	}

	label := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selected := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	for i, m := range movies {
		prefix := "  "
		title := styleTitle.Render(m.Title)
		if i == cursor {
			prefix = selected.Render("> ")
			title = selected.Render(m.Title)
		}
		fmt.Fprintf(&sb, "%s%s %s %s  %s%s\n",
			prefix,
			label.Render(fmt.Sprintf("%2d.", i+1)),
			title,
			styleDim.Render("("+discover.FormatYear(m.ReleaseDate)+")"),
			styleRating.Render("★ "+discover.FormatRating(m.VoteAverage)),
			libraryMarks(m.ID, lib),
		)
	}
	sb.WriteString("\n")
	sb.WriteString(styleDim.Render(fmt.Sprintf("Page %d of %d", view.CurrentPage, view.TotalPages)))
	sb.WriteString("\n")
	return sb.String()
}

func libraryMarks(id int, lib *store.Library) string {
	if lib == nil {
		return ""
	}
	var marks string
	if lib.IsFavorite(id) {
		marks += " ♥"
	}
	if lib.IsInWatchlist(id) {
		marks += " ⏲"
	}
	return styleSuccess.Render(marks)
}

// artwork holds resolved image URLs for a detail page.
type artwork struct {
	poster   string
	backdrop string
}

func resolveArtwork(images imageResolver, d *catalog.MovieDetails) artwork {
	return artwork{
		poster:   images.ResolveImageURL(d.PosterPath, catalog.KindPoster, catalog.SizeLarge),
		backdrop: images.ResolveImageURL(d.BackdropPath, catalog.KindBackdrop, catalog.SizeLarge),
	}
}

// renderMovieDetail formats the detail page. Placeholder artwork and an
// empty appURL leave out the corresponding lines.
func renderMovieDetail(d *catalog.MovieDetails, similar []catalog.Movie, lib *store.Library, art artwork, appURL string) string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render(fmt.Sprintf("%s (%s)", d.Title, discover.FormatYear(d.ReleaseDate))))
	sb.WriteString("\n")
	if d.Tagline != "" {
		sb.WriteString(lipgloss.NewStyle().Italic(true).Render(d.Tagline))
		sb.WriteString("\n\n")
	}

	label := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(10)
	field := func(name, value string) {
		if value == "" {
			return
		}
		sb.WriteString(label.Render(name))
		sb.WriteString(value)
		sb.WriteString("\n")
	}
	field("Rating", ratingBar(d.VoteAverage, ratingWidth)+styleDim.Render(fmt.Sprintf(" (%d votes)", d.VoteCount)))
	field("Runtime", discover.FormatRuntime(d.Runtime))
	field("Genres", discover.GenreNames(d.Genres))
	field("Budget", discover.FormatMoney(d.Budget))
	field("Revenue", discover.FormatMoney(d.Revenue))
	field("Studios", discover.CompanyNames(d.ProductionCompanies))
	field("Status", d.Status)
	field("Library", strings.TrimSpace(libraryMarks(d.ID, lib)))
	for _, img := range []struct{ name, url string }{{"Poster", art.poster}, {"Backdrop", art.backdrop}} {
		if img.url != "" && img.url != catalog.PlaceholderImage {
			field(img.name, styleDim.Render(img.url))
		}
	}
	if appURL != "" {
		field("Share", styleInfo.Render(discover.ShareURL(appURL, d.ID)))
	}

	if d.Overview != "" {
		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Width(overviewWidth).Render(d.Overview))
		sb.WriteString("\n")
	}

	if len(similar) > 0 {
		sb.WriteString("\n")
		sb.WriteString(styleTitle.Render("Similar"))
		sb.WriteString("\n")
		for _, m := range similar[:min(len(similar), 5)] {
			fmt.Fprintf(&sb, "  %s %s %s\n",
				m.Title,
				styleDim.Render("("+discover.FormatYear(m.ReleaseDate)+")"),
				styleDim.Render(fmt.Sprintf("#%d", m.ID)),
			)
		}
	}
	return sb.String()
}

// renderGenres lists genres with the ids "genre" accepts.
func renderGenres(genres []catalog.Genre) string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render("Genres"))
	sb.WriteString("\n")
	for _, g := range genres {
		fmt.Fprintf(&sb, "%s %s\n", styleDim.Render(fmt.Sprintf("%6d", g.ID)), g.Name)
	}
	return sb.String()
}

func ratingBar(avg float64, width int) string {
	filled := int(avg / 10 * float64(width))
	filled = min(max(filled, 0), width)
	bar := styleRating.Render(strings.Repeat("█", filled)) +
		styleDim.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %s", bar, styleRating.Render(discover.FormatRating(avg)))
}
