package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
	"github.com/vadimtrunov/MovieDeck/internal/discover"
	"github.com/vadimtrunov/MovieDeck/internal/store"
)

// mdV2Replacer escapes special characters for Telegram MarkdownV2.
var mdV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMdV2 escapes a string for safe use in Telegram MarkdownV2.
func EscapeMdV2(s string) string {
	return mdV2Replacer.Replace(s)
}

// FormatBold returns MarkdownV2 bold text.
func FormatBold(s string) string {
	return "*" + EscapeMdV2(s) + "*"
}

// FormatItalic returns MarkdownV2 italic text.
func FormatItalic(s string) string {
	return "_" + EscapeMdV2(s) + "_"
}

// RatingBar draws a 0-10 score as a bar of width cells.
func RatingBar(avg float64, width int) string {
	if width < 1 {
		width = 10
	}
	filled := int(avg / 10 * float64(width))
	filled = min(max(filled, 0), width)
	return fmt.Sprintf("%s%s %s",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		discover.FormatRating(avg),
	)
}

// style renders the same message as MarkdownV2 or as plain text, so a
// rejected markdown message can be resent without formatting.
type style struct {
	bold   func(string) string
	italic func(string) string
	text   func(string) string
}

var (
	mdStyle    = style{bold: FormatBold, italic: FormatItalic, text: EscapeMdV2}
	plainStyle = style{bold: identity, italic: identity, text: identity}
)

func identity(s string) string { return s }

// movieLine is one numbered row of a list.
func movieLine(st style, n int, m catalog.Movie, lib *store.Library) string {
	var marks string
	if lib != nil && lib.IsFavorite(m.ID) {
		marks += " ★"
	}
	if lib != nil && lib.IsInWatchlist(m.ID) {
		marks += " 👁"
	}
	return fmt.Sprintf("%s %s %s%s",
		st.text(strconv.Itoa(n)+"."),
		st.bold(m.Title),
		st.text(fmt.Sprintf("(%s) - %s", discover.FormatYear(m.ReleaseDate), discover.FormatRating(m.VoteAverage))),
		st.text(marks),
	)
}

// formatMovieList renders a heading, numbered movies and the page counter.
func formatMovieList(st style, heading string, movies []catalog.Movie, view store.ViewState, lib *store.Library) string {
	var sb strings.Builder
	sb.WriteString(st.bold(heading))
	sb.WriteString("\n\n")
	if len(movies) == 0 {
		sb.WriteString(st.italic("No movies found."))
		return sb.String()
	}
	for i, m := range movies {
		sb.WriteString(movieLine(st, i+1, m, lib))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(st.italic(fmt.Sprintf("Page %d of %d", view.CurrentPage, view.TotalPages)))
	return sb.String()
}

// formatMovieDetail renders the detail card.
func formatMovieDetail(st style, d *catalog.MovieDetails, appURL string) string {
	var sb strings.Builder
	sb.WriteString(st.bold(fmt.Sprintf("%s (%s)", d.Title, discover.FormatYear(d.ReleaseDate))))
	sb.WriteString("\n")
	if d.Tagline != "" {
		sb.WriteString(st.italic(d.Tagline))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		sb.WriteString(st.bold(label + ":"))
		sb.WriteString(" ")
		sb.WriteString(st.text(value))
		sb.WriteString("\n")
	}
	field("Rating", fmt.Sprintf("%s (%d votes)", RatingBar(d.VoteAverage, 10), d.VoteCount))
	field("Runtime", discover.FormatRuntime(d.Runtime))
	field("Genres", discover.GenreNames(d.Genres))
	field("Budget", discover.FormatMoney(d.Budget))
	field("Revenue", discover.FormatMoney(d.Revenue))
	field("Studios", discover.CompanyNames(d.ProductionCompanies))
	field("Status", d.Status)

	if d.Overview != "" {
		sb.WriteString("\n")
		sb.WriteString(st.text(d.Overview))
		sb.WriteString("\n")
	}
	if appURL != "" {
		sb.WriteString("\n")
		sb.WriteString(st.text(discover.ShareURL(appURL, d.ID)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatGenres renders the genre list with ids for /genre.
func formatGenres(st style, genres []catalog.Genre) string {
	var sb strings.Builder
	sb.WriteString(st.bold("Genres"))
	sb.WriteString("\n\n")
	for _, g := range genres {
		sb.WriteString(st.text(fmt.Sprintf("%d - %s", g.ID, g.Name)))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatLibrary renders a favorites or watchlist listing. Titles come from
// the session's detail cache; uncached ids are shown as "#id".
func formatLibrary(st style, heading string, ids []int, cache *store.Store) string {
	var sb strings.Builder
	sb.WriteString(st.bold(heading))
	sb.WriteString("\n\n")
	if len(ids) == 0 {
		sb.WriteString(st.italic("Nothing here yet."))
		return sb.String()
	}
	for i, id := range ids {
		title := "#" + strconv.Itoa(id)
		if d, ok := cache.Detail(id); ok {
			title = d.Title
		}
		sb.WriteString(st.text(fmt.Sprintf("%d. %s (/movie %d)", i+1, title, id)))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
