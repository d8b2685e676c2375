package catalog

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{`"1999-10-15"`, NewDate(1999, time.October, 15), false},
		{`""`, Date{}, false},
		{`null`, Date{}, false},
		{`"15/10/1999"`, Date{}, true},
		{`1999`, Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.in), &d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !d.Equal(tt.want.Time) {
				t.Errorf("got %v, want %v", d, tt.want)
			}
		})
	}
}

func TestDate_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{NewDate(2024, time.March, 1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `{"d":"2024-03-01"}` {
		t.Errorf("unexpected json: %s", b)
	}

	if s := (Date{}).String(); s != "" {
		t.Errorf("zero date String() = %q", s)
	}
	if y := (Date{}).Year(); y != 0 {
		t.Errorf("zero date Year() = %d", y)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"popular", CategoryPopular, false},
		{"top-rated", CategoryTopRated, false},
		{"Top Rated", CategoryTopRated, false},
		{"now_playing", CategoryNowPlaying, false},
		{" UPCOMING ", CategoryUpcoming, false},
		{"trending", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCategoryTitles(t *testing.T) {
	want := []string{"Popular", "Top Rated", "Now Playing", "Upcoming"}
	for i, c := range Categories() {
		if c.Title() != want[i] {
			t.Errorf("%s: title %q, want %q", c, c.Title(), want[i])
		}
	}
}
