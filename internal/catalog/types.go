package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// dateLayout is the calendar date format TMDb uses for release dates.
const dateLayout = "2006-01-02"

// Date is a calendar date without a time component.
// The zero value means the upstream did not supply a date.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// UnmarshalJSON accepts "YYYY-MM-DD", an empty string or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("release date: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("release date %q: %w", s, err)
	}
	*d = Date{t}
	return nil
}

// MarshalJSON writes the date back in the upstream format.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// String returns "YYYY-MM-DD" or an empty string for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Year returns the release year, or 0 when unknown.
func (d Date) Year() int {
	if d.IsZero() {
		return 0
	}
	return d.Time.Year()
}

// Movie is a catalog item as returned by the listing endpoints.
type Movie struct {
	ID               int     `json:"id" validate:"gte=1"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	ReleaseDate      Date    `json:"release_date"`
	VoteAverage      float64 `json:"vote_average" validate:"gte=0,lte=10"`
	VoteCount        int     `json:"vote_count" validate:"gte=0"`
	GenreIDs         []int   `json:"genre_ids"`
	Popularity       float64 `json:"popularity" validate:"gte=0"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`
}

// MovieDetails is the extended record returned by a by-id lookup.
type MovieDetails struct {
	Movie

	Genres              []Genre             `json:"genres" validate:"dive"`
	Runtime             int                 `json:"runtime" validate:"gte=0"`
	Budget              int64               `json:"budget" validate:"gte=0"`
	Revenue             int64               `json:"revenue" validate:"gte=0"`
	Status              string              `json:"status"`
	Tagline             string              `json:"tagline"`
	IMDbID              string              `json:"imdb_id"`
	Homepage            string              `json:"homepage"`
	ProductionCompanies []ProductionCompany `json:"production_companies"`
	ProductionCountries []ProductionCountry `json:"production_countries"`
	SpokenLanguages     []SpokenLanguage    `json:"spoken_languages"`
}

// Genre is a movie genre.
type Genre struct {
	ID   int    `json:"id" validate:"gte=1"`
	Name string `json:"name" validate:"required"`
}

// ProductionCompany is a studio credited on a movie.
type ProductionCompany struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	LogoPath      *string `json:"logo_path"`
	OriginCountry string  `json:"origin_country"`
}

// ProductionCountry is a country of production.
type ProductionCountry struct {
	ISO3166_1 string `json:"iso_3166_1"`
	Name      string `json:"name"`
}

// SpokenLanguage is a language spoken in a movie.
type SpokenLanguage struct {
	EnglishName string `json:"english_name"`
	ISO639_1    string `json:"iso_639_1"`
	Name        string `json:"name"`
}

// Page is one upstream-paginated slice of a result set.
// Results keep the order the upstream returned them in.
type Page[T any] struct {
	Page         int `json:"page" validate:"gte=1"`
	Results      []T `json:"results" validate:"required,dive"`
	TotalPages   int `json:"total_pages" validate:"gte=0"`
	TotalResults int `json:"total_results" validate:"gte=0"`
}

// genresResponse wraps the genre list endpoint response.
type genresResponse struct {
	Genres []Genre `json:"genres" validate:"required,dive"`
}

// errorResponse is the TMDb error body.
type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}
