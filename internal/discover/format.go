package discover

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatRuntime renders minutes as "2h 19m". Zero or negative is "Unknown".
func FormatRuntime(minutes int) string {
	if minutes <= 0 {
		return "Unknown"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// FormatMoney renders a whole-dollar amount as "$63,000,000". Zero means the
// upstream does not know it.
func FormatMoney(amount int64) string {
	if amount <= 0 {
		return "Unknown"
	}
	return usd.Sprintf("$%d", amount)
}

// FormatRating renders a 0-10 score with one decimal.
func FormatRating(avg float64) string {
	return strconv.FormatFloat(avg, 'f', 1, 64)
}

// FormatYear returns the release year or "N/A".
func FormatYear(d catalog.Date) string {
	if y := d.Year(); y > 0 {
		return strconv.Itoa(y)
	}
	return "N/A"
}

// GenreNames joins detail genres with ", ".
func GenreNames(genres []catalog.Genre) string {
	names := make([]string, len(genres))
	for i, g := range genres {
		names[i] = g.Name
	}
	return strings.Join(names, ", ")
}

// CompanyNames joins production company names with ", ".
func CompanyNames(companies []catalog.ProductionCompany) string {
	names := make([]string, len(companies))
	for i, c := range companies {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

// ShareURL is the public link to a movie page under appURL.
func ShareURL(appURL string, id int) string {
	return strings.TrimSuffix(appURL, "/") + "/movie/" + strconv.Itoa(id)
}

// Truncate shortens s to at most n runes, ending with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
