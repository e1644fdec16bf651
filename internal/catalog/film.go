package catalog

import (
	"fmt"
	"math"
	"strings"

	"flickbox/internal/tmdb"
)

const (
	placeholderPoster   = "https://via.placeholder.com/300x450?text=No+Poster"
	placeholderBackdrop = "https://via.placeholder.com/1920x1080?text=No+Image"
	fallbackOverview    = "No description available."
	unknownDirector     = "Unknown"
	noDuration          = "N/A"
)

// Film is the normalized record every UI surface consumes. It is built
// fresh on each fetch and never persisted; lists and favorites keep only
// a Ref.
type Film struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Year           int      `json:"year"` // 0 = unknown
	PosterURL      string   `json:"poster"`
	BackdropURL    string   `json:"backdrop,omitempty"`
	Rating         float64  `json:"rating"` // 0.0-5.0, one decimal
	Genres         []string `json:"genres"`
	Cast           []string `json:"cast,omitempty"`
	Director       string   `json:"director"`
	RuntimeMinutes int      `json:"runtime,omitempty"`
	Duration       string   `json:"duration"`
	Overview       string   `json:"overview"`
	TrailerKey     string   `json:"trailer,omitempty"`
}

// normalizeRating halves the source's 0-10 scale and keeps one decimal.
func normalizeRating(voteAverage float64) float64 {
	return math.Round(voteAverage/2*10) / 10
}

func durationLabel(runtimeMinutes int) string {
	if runtimeMinutes <= 0 {
		return noDuration
	}
	return fmt.Sprintf("%dh %dm", runtimeMinutes/60, runtimeMinutes%60)
}

func (f *Fetcher) posterURL(path string) string {
	if strings.TrimSpace(path) == "" {
		return placeholderPoster
	}
	return f.imageBase + path
}

func (f *Fetcher) backdropURL(path string) string {
	if strings.TrimSpace(path) == "" {
		return placeholderBackdrop
	}
	return f.backdropBase + path
}

func overviewOrFallback(overview string) string {
	if strings.TrimSpace(overview) == "" {
		return fallbackOverview
	}
	return overview
}

// filmFromItem builds a Film from a list row alone, used when the detail
// lookup for that row failed. Detail-only fields get safe defaults.
func (f *Fetcher) filmFromItem(item tmdb.ListItem, genres map[int]string) Film {
	names := make([]string, 0, len(item.GenreIDs))
	for _, id := range item.GenreIDs {
		if name, ok := genres[id]; ok {
			names = append(names, name)
		} else {
			names = append(names, "Unknown")
		}
	}
	return Film{
		ID:          item.ID,
		Title:       item.Title,
		Year:        tmdb.ParseYear(item.ReleaseDate),
		PosterURL:   f.posterURL(item.PosterPath),
		BackdropURL: f.backdropURL(item.BackdropPath),
		Rating:      normalizeRating(item.VoteAverage),
		Genres:      names,
		Director:    unknownDirector,
		Duration:    noDuration,
		Overview:    overviewOrFallback(item.Overview),
	}
}

func (f *Fetcher) filmFromDetail(detail *tmdb.Detail) Film {
	director := strings.TrimSpace(detail.Director)
	if director == "" {
		director = unknownDirector
	}
	return Film{
		ID:             detail.ID,
		Title:          detail.Title,
		Year:           tmdb.ParseYear(detail.ReleaseDate),
		PosterURL:      f.posterURL(detail.PosterPath),
		BackdropURL:    f.backdropURL(detail.BackdropPath),
		Rating:         normalizeRating(detail.VoteAverage),
		Genres:         detail.Genres,
		Cast:           detail.Cast,
		Director:       director,
		RuntimeMinutes: detail.Runtime,
		Duration:       durationLabel(detail.Runtime),
		Overview:       overviewOrFallback(detail.Overview),
		TrailerKey:     detail.TrailerKey,
	}
}
