package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
	"github.com/vadimtrunov/MovieDeck/internal/discover"
	"github.com/vadimtrunov/MovieDeck/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const matrixJSON = `{
	"id": 603, "title": "The Matrix", "release_date": "1999-03-31",
	"vote_average": 8.2, "vote_count": 25000, "poster_path": "/matrix.jpg",
	"overview": "A hacker learns the truth.", "tagline": "Welcome to the Real World.",
	"runtime": 136, "budget": 63000000, "revenue": 467000000, "status": "Released",
	"genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}],
	"production_companies": [{"id": 79, "name": "Village Roadshow Pictures", "logo_path": null, "origin_country": "US"}]
}`

// pageJSON returns a one-movie page out of three.
func pageJSON(page, id int, title string) string {
	b, _ := json.Marshal(map[string]any{
		"page":          page,
		"total_pages":   3,
		"total_results": 3,
		"results": []map[string]any{{
			"id": id, "title": title, "release_date": "2021-10-22", "vote_average": 7.8,
		}},
	})
	return string(b)
}

// newTMDbServer fakes the handful of TMDb endpoints the commands use.
func newTMDbServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		page := r.URL.Query().Get("page")
		if page == "" {
			page = "1"
		}
		pageNum := int(page[0] - '0')
		switch {
		case r.URL.Path == "/movie/popular", r.URL.Path == "/movie/top_rated",
			r.URL.Path == "/movie/now_playing", r.URL.Path == "/movie/upcoming":
			_, _ = io.WriteString(w, pageJSON(pageNum, 438630+pageNum, "Dune"))
		case r.URL.Path == "/search/movie":
			_, _ = io.WriteString(w, pageJSON(pageNum, 78, "Blade Runner"))
		case r.URL.Path == "/discover/movie":
			_, _ = io.WriteString(w, pageJSON(pageNum, 603, "The Matrix"))
		case r.URL.Path == "/genre/movie/list":
			_, _ = io.WriteString(w, `{"genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}]}`)
		case r.URL.Path == "/movie/603":
			_, _ = io.WriteString(w, matrixJSON)
		case r.URL.Path == "/movie/603/similar":
			_, _ = io.WriteString(w, pageJSON(1, 604, "The Matrix Reloaded"))
		case strings.HasPrefix(r.URL.Path, "/movie/"):
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"status_code":34,"status_message":"The resource you requested could not be found."}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newTestEnv wires a controller to the fake server.
func newTestEnv(t *testing.T) taskEnv {
	t.Helper()
	srv := newTMDbServer(t)
	client := catalog.NewForTest(srv.URL, testLogger())
	return taskEnv{
		ctrl:   discover.New(client, store.New(), testLogger()),
		images: client,
		appURL: "https://deck.example",
	}
}
