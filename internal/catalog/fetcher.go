// Package catalog turns paged metadata-API listings into normalized,
// policy-screened film records.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"flickbox/internal/logger"
	"flickbox/internal/policy"
	"flickbox/internal/tmdb"
)

// ErrFiltered marks a film the content policy refuses to show.
var ErrFiltered = errors.New("film rejected by content policy")

// Source is the slice of the metadata client the fetcher needs.
type Source interface {
	FetchGenres(ctx context.Context) ([]tmdb.Genre, error)
	DiscoverPage(ctx context.Context, page, yearFloor int) (tmdb.Page, error)
	SearchPage(ctx context.Context, query string, page int) (tmdb.Page, error)
	UpcomingPage(ctx context.Context, page int) (tmdb.Page, error)
	SimilarPage(ctx context.Context, id int64, page int) (tmdb.Page, error)
	FetchDetails(ctx context.Context, id int64) (*tmdb.Detail, error)
}

type Mode string

const (
	ModeDiscover Mode = "discover"
	ModeSearch   Mode = "search"
	ModeUpcoming Mode = "upcoming"
)

// Query describes one page fetch. Text is only meaningful in search
// mode; an empty trimmed Text there yields an empty result with no
// upstream call.
type Query struct {
	Mode Mode
	Page int
	Text string
}

type Result struct {
	Films        []Film `json:"films"`
	Page         int    `json:"page"`
	TotalPages   int    `json:"total_pages"`
	TotalResults int    `json:"total_results"`
}

type Fetcher struct {
	src          Source
	filter       *policy.Filter
	imageBase    string
	backdropBase string
	workers      int

	genreMu        sync.RWMutex
	genreMap       map[int]string
	genreList      []tmdb.Genre
	genreFetchedAt time.Time
}

type Config struct {
	Source       Source
	Filter       *policy.Filter
	ImageBase    string
	BackdropBase string
	// DetailWorkers bounds the per-item detail fan-out.
	DetailWorkers int
}

func New(cfg Config) (*Fetcher, error) {
	if cfg.Source == nil {
		return nil, errors.New("source is required")
	}
	if cfg.Filter == nil {
		return nil, errors.New("filter is required")
	}
	workers := cfg.DetailWorkers
	if workers < 1 {
		workers = 1
	}
	return &Fetcher{
		src:          cfg.Source,
		filter:       cfg.Filter,
		imageBase:    cfg.ImageBase,
		backdropBase: cfg.BackdropBase,
		workers:      workers,
	}, nil
}

// FetchPage runs one list call plus a per-item detail fan-out and
// returns the surviving films in their original list order. A failed
// list call aborts the whole fetch; a failed detail call only downgrades
// that one item to list-payload data with safe defaults.
func (f *Fetcher) FetchPage(ctx context.Context, q Query) (Result, error) {
	if q.Page < 1 {
		q.Page = 1
	}

	var (
		page tmdb.Page
		err  error
	)
	switch q.Mode {
	case ModeSearch:
		text := strings.TrimSpace(q.Text)
		if text == "" {
			return Result{Films: []Film{}, Page: q.Page}, nil
		}
		page, err = f.src.SearchPage(ctx, text, q.Page)
	case ModeUpcoming:
		page, err = f.src.UpcomingPage(ctx, q.Page)
	case ModeDiscover, "":
		page, err = f.src.DiscoverPage(ctx, q.Page, f.filter.YearFloor())
	default:
		return Result{}, fmt.Errorf("unknown catalog mode %q", q.Mode)
	}
	if err != nil {
		return Result{}, fmt.Errorf("catalog list fetch: %w", err)
	}

	films := f.enrich(ctx, page.Results)
	return Result{
		Films:        films,
		Page:         q.Page,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
	}, nil
}

// Similar lists films related to one film, through the same screening
// and enrichment pipeline as FetchPage.
func (f *Fetcher) Similar(ctx context.Context, id int64, pageNum int) (Result, error) {
	if pageNum < 1 {
		pageNum = 1
	}
	page, err := f.src.SimilarPage(ctx, id, pageNum)
	if err != nil {
		return Result{}, fmt.Errorf("catalog similar fetch: %w", err)
	}
	films := f.enrich(ctx, page.Results)
	return Result{
		Films:        films,
		Page:         pageNum,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
	}, nil
}

// FilmByID fetches one fully enriched film. Films the policy rejects
// come back as ErrFiltered, the same as not existing from the caller's
// point of view.
func (f *Fetcher) FilmByID(ctx context.Context, id int64) (Film, error) {
	detail, err := f.src.FetchDetails(ctx, id)
	if err != nil {
		return Film{}, fmt.Errorf("catalog detail fetch: %w", err)
	}
	year := tmdb.ParseYear(detail.ReleaseDate)
	if !f.filter.Allow(detail.Title, detail.Overview, year) {
		return Film{}, ErrFiltered
	}
	return f.filmFromDetail(detail), nil
}

// Genres returns the upstream genre list, cached for a day.
func (f *Fetcher) Genres(ctx context.Context) ([]tmdb.Genre, error) {
	const cacheTTL = 24 * time.Hour

	f.genreMu.RLock()
	if f.genreList != nil && time.Since(f.genreFetchedAt) < cacheTTL {
		cached := append([]tmdb.Genre(nil), f.genreList...)
		f.genreMu.RUnlock()
		return cached, nil
	}
	f.genreMu.RUnlock()

	genres, err := f.src.FetchGenres(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]string, len(genres))
	for _, g := range genres {
		if strings.TrimSpace(g.Name) == "" {
			continue
		}
		byID[g.ID] = g.Name
	}

	f.genreMu.Lock()
	f.genreList = append([]tmdb.Genre(nil), genres...)
	f.genreMap = byID
	f.genreFetchedAt = time.Now()
	f.genreMu.Unlock()

	return genres, nil
}

func (f *Fetcher) genreNames(ctx context.Context) map[int]string {
	const cacheTTL = 24 * time.Hour

	f.genreMu.RLock()
	if f.genreMap != nil && time.Since(f.genreFetchedAt) < cacheTTL {
		cached := f.genreMap
		f.genreMu.RUnlock()
		return cached
	}
	f.genreMu.RUnlock()

	if _, err := f.Genres(ctx); err != nil {
		slog.Warn("genre list fetch failed", logger.Error(err))
		return nil
	}

	f.genreMu.RLock()
	defer f.genreMu.RUnlock()
	return f.genreMap
}

// enrich screens the list rows, then fans out one detail call per
// survivor with bounded concurrency. Output order matches list order.
func (f *Fetcher) enrich(ctx context.Context, items []tmdb.ListItem) []Film {
	genres := f.genreNames(ctx)

	kept := make([]tmdb.ListItem, 0, len(items))
	for _, item := range items {
		if f.filter.Allow(item.Title, item.Overview, tmdb.ParseYear(item.ReleaseDate)) {
			kept = append(kept, item)
		}
	}

	type slot struct {
		film Film
		drop bool
	}
	slots := make([]slot, len(kept))

	var wg sync.WaitGroup
	sem := make(chan struct{}, f.workers)
	for i, item := range kept {
		wg.Add(1)
		go func(i int, item tmdb.ListItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			detail, err := f.src.FetchDetails(ctx, item.ID)
			if err != nil {
				slog.Warn("film detail fetch failed, using list data",
					slog.Int64("id", item.ID), logger.Error(err))
				slots[i] = slot{film: f.filmFromItem(item, genres)}
				return
			}
			// The detail payload can carry a longer overview than the
			// list row, so the policy runs again here.
			if !f.filter.AllowText(detail.Overview) {
				slots[i] = slot{drop: true}
				return
			}
			slots[i] = slot{film: f.filmFromDetail(detail)}
		}(i, item)
	}
	wg.Wait()

	films := make([]Film, 0, len(slots))
	for _, s := range slots {
		if !s.drop {
			films = append(films, s.film)
		}
	}
	return films
}
