package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"flickbox/internal/policy"
	"flickbox/internal/tmdb"
)

type fakeSource struct {
	page        tmdb.Page
	listErr     error
	genres      []tmdb.Genre
	details     map[int64]*tmdb.Detail
	detailErrs  map[int64]error
	searchCalls atomic.Int32
	listCalls   atomic.Int32
}

func (f *fakeSource) FetchGenres(context.Context) ([]tmdb.Genre, error) {
	return f.genres, nil
}

func (f *fakeSource) DiscoverPage(_ context.Context, _, _ int) (tmdb.Page, error) {
	f.listCalls.Add(1)
	return f.page, f.listErr
}

func (f *fakeSource) SearchPage(_ context.Context, _ string, _ int) (tmdb.Page, error) {
	f.searchCalls.Add(1)
	return f.page, f.listErr
}

func (f *fakeSource) UpcomingPage(_ context.Context, _ int) (tmdb.Page, error) {
	f.listCalls.Add(1)
	return f.page, f.listErr
}

func (f *fakeSource) SimilarPage(_ context.Context, _ int64, _ int) (tmdb.Page, error) {
	f.listCalls.Add(1)
	return f.page, f.listErr
}

func (f *fakeSource) FetchDetails(_ context.Context, id int64) (*tmdb.Detail, error) {
	if err, ok := f.detailErrs[id]; ok {
		return nil, err
	}
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("no detail for %d", id)
}

func newTestFetcher(t *testing.T, src Source) *Fetcher {
	t.Helper()
	f, err := New(Config{
		Source:        src,
		Filter:        policy.New([]string{"explicit"}, 2000),
		ImageBase:     "https://img.example/w500",
		BackdropBase:  "https://img.example/original",
		DetailWorkers: 4,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return f
}

func item(id int64, title, date string, vote float64) tmdb.ListItem {
	return tmdb.ListItem{
		ID:          id,
		Title:       title,
		ReleaseDate: date,
		Overview:    "A film.",
		VoteAverage: vote,
	}
}

func detailFor(it tmdb.ListItem) *tmdb.Detail {
	return &tmdb.Detail{
		ID:          it.ID,
		Title:       it.Title,
		ReleaseDate: it.ReleaseDate,
		Overview:    it.Overview,
		VoteAverage: it.VoteAverage,
		Runtime:     114,
		Genres:      []string{"Drama"},
		Director:    "Jane Doe",
		Cast:        []string{"A", "B", "C"},
	}
}

func TestFetchPageAppliesYearFloorAndNormalizes(t *testing.T) {
	old := item(1, "Old Film", "1998-05-01", 9.0)
	kept := item(2, "New Film", "2012-03-01", 8.4)
	src := &fakeSource{
		page:    tmdb.Page{Results: []tmdb.ListItem{old, kept}, Page: 1, TotalPages: 3, TotalResults: 42},
		details: map[int64]*tmdb.Detail{2: detailFor(kept)},
	}

	result, err := newTestFetcher(t, src).FetchPage(context.Background(), Query{Mode: ModeDiscover, Page: 1})
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(result.Films) != 1 {
		t.Fatalf("expected exactly one surviving film, got %d", len(result.Films))
	}

	film := result.Films[0]
	if film.ID != 2 {
		t.Errorf("expected the 2012 item, got id %d", film.ID)
	}
	if film.Rating != 4.2 {
		t.Errorf("expected vote_average halved to 4.2, got %v", film.Rating)
	}
	if film.Duration != "1h 54m" {
		t.Errorf("expected formatted duration, got %q", film.Duration)
	}
	if film.Director != "Jane Doe" {
		t.Errorf("unexpected director %q", film.Director)
	}
	if result.TotalResults != 42 {
		t.Errorf("expected upstream totals to pass through, got %d", result.TotalResults)
	}
}

func TestFetchPagePreservesListOrder(t *testing.T) {
	var items []tmdb.ListItem
	details := map[int64]*tmdb.Detail{}
	for i := int64(1); i <= 12; i++ {
		it := item(i, fmt.Sprintf("Film %d", i), "2015-01-01", 7.0)
		items = append(items, it)
		details[i] = detailFor(it)
	}
	src := &fakeSource{page: tmdb.Page{Results: items}, details: details}

	result, err := newTestFetcher(t, src).FetchPage(context.Background(), Query{Mode: ModeDiscover})
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(result.Films) != len(items) {
		t.Fatalf("expected %d films, got %d", len(items), len(result.Films))
	}
	for i, film := range result.Films {
		if film.ID != int64(i+1) {
			t.Fatalf("order broken at index %d: got id %d", i, film.ID)
		}
	}
}

func TestFetchPageIsolatesDetailFailures(t *testing.T) {
	good := item(1, "Good", "2011-01-01", 6.0)
	broken := item(2, "Broken", "2013-01-01", 7.0)
	src := &fakeSource{
		page:       tmdb.Page{Results: []tmdb.ListItem{good, broken}},
		details:    map[int64]*tmdb.Detail{1: detailFor(good)},
		detailErrs: map[int64]error{2: errors.New("upstream 500")},
	}

	result, err := newTestFetcher(t, src).FetchPage(context.Background(), Query{Mode: ModeDiscover})
	if err != nil {
		t.Fatalf("a single detail failure must not abort the fetch: %v", err)
	}
	if len(result.Films) != 2 {
		t.Fatalf("expected both films, got %d", len(result.Films))
	}

	downgraded := result.Films[1]
	if downgraded.Director != "Unknown" {
		t.Errorf("expected default director, got %q", downgraded.Director)
	}
	if downgraded.Duration != "N/A" {
		t.Errorf("expected default duration, got %q", downgraded.Duration)
	}
	if len(downgraded.Cast) != 0 {
		t.Errorf("expected no cast, got %v", downgraded.Cast)
	}
}

func TestFetchPageRescreensAfterEnrichment(t *testing.T) {
	// Clean in the list payload, dirty in the longer detail overview.
	sneaky := item(3, "Sneaky", "2016-01-01", 5.0)
	detail := detailFor(sneaky)
	detail.Overview = "The full synopsis turns out to be explicit."
	src := &fakeSource{
		page:    tmdb.Page{Results: []tmdb.ListItem{sneaky}},
		details: map[int64]*tmdb.Detail{3: detail},
	}

	result, err := newTestFetcher(t, src).FetchPage(context.Background(), Query{Mode: ModeDiscover})
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(result.Films) != 0 {
		t.Fatalf("expected the film dropped after detail re-screen, got %d", len(result.Films))
	}
}

func TestSearchShortCircuitsOnEmptyQuery(t *testing.T) {
	src := &fakeSource{}
	result, err := newTestFetcher(t, src).FetchPage(context.Background(), Query{Mode: ModeSearch, Text: "   "})
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(result.Films) != 0 {
		t.Errorf("expected empty result, got %d films", len(result.Films))
	}
	if src.searchCalls.Load() != 0 {
		t.Error("blank query must not hit the upstream service")
	}
}

func TestListFailureAbortsFetch(t *testing.T) {
	src := &fakeSource{listErr: errors.New("connection refused")}
	_, err := newTestFetcher(t, src).FetchPage(context.Background(), Query{Mode: ModeDiscover})
	if err == nil {
		t.Fatal("expected the list failure to abort the fetch")
	}
}

func TestFilmByIDHonorsPolicy(t *testing.T) {
	banned := &tmdb.Detail{ID: 9, Title: "Explicit Tapes", ReleaseDate: "2014-01-01", Runtime: 90}
	src := &fakeSource{details: map[int64]*tmdb.Detail{9: banned}}

	_, err := newTestFetcher(t, src).FilmByID(context.Background(), 9)
	if !errors.Is(err, ErrFiltered) {
		t.Fatalf("expected ErrFiltered, got %v", err)
	}
}

func TestDetailFallbackResolvesGenreNames(t *testing.T) {
	it := item(4, "No Detail", "2017-01-01", 6.2)
	it.GenreIDs = []int{28, 999}
	src := &fakeSource{
		page:       tmdb.Page{Results: []tmdb.ListItem{it}},
		genres:     []tmdb.Genre{{ID: 28, Name: "Action"}},
		detailErrs: map[int64]error{4: errors.New("timeout")},
	}

	result, err := newTestFetcher(t, src).FetchPage(context.Background(), Query{Mode: ModeDiscover})
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(result.Films) != 1 {
		t.Fatalf("expected one film, got %d", len(result.Films))
	}
	genres := result.Films[0].Genres
	if len(genres) != 2 || genres[0] != "Action" || genres[1] != "Unknown" {
		t.Errorf("unexpected genre resolution: %v", genres)
	}
}
