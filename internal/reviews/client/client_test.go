package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"flickbox/internal/reviews"
)

// fakeAPI is a minimal in-memory stand-in for the review endpoints.
type fakeAPI struct {
	rows   []reviews.WireReview
	nextID int64
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/reviews", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(f.rows)
		case http.MethodPost:
			var row reviews.WireReview
			if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.nextID++
			row.ID = f.nextID
			f.rows = append(f.rows, row)
		case http.MethodPut:
			var body struct {
				ID    *int64  `json:"id"`
				Title *string `json:"title"`
				Likes *int    `json:"likes"`
			}
			raw := json.NewDecoder(r.Body)
			if err := raw.Decode(&body); err != nil || body.ID == nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			for i := range f.rows {
				if f.rows[i].ID != *body.ID {
					continue
				}
				if body.Title == nil {
					f.rows[i].Likes = *body.Likes
				} else {
					f.rows[i].Title = *body.Title
				}
				return
			}
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		}
	})
	mux.HandleFunc("/api/reviews/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/reviews/"), 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for i := range f.rows {
			if f.rows[i].ID == id {
				f.rows = append(f.rows[:i], f.rows[i+1:]...)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	})
	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return New(srv.URL), api
}

func TestListPartitionsByOwnership(t *testing.T) {
	c, api := newTestClient(t)
	api.rows = []reviews.WireReview{
		{ID: 1, Title: "Dune", IsMine: true},
		{ID: 2, Title: "Heat", IsMine: false, Likes: 5},
		{ID: 3, Title: "Ran", IsMine: true},
	}
	api.nextID = 3

	listing, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listing.Mine) != 2 || len(listing.Community) != 1 {
		t.Fatalf("bad partition: %d mine, %d community", len(listing.Mine), len(listing.Community))
	}
	if listing.Community[0].Title != "Heat" || !listing.Mine[1].IsMine {
		t.Errorf("unexpected partition contents: %+v", listing)
	}
}

func TestCreateForcesOwnership(t *testing.T) {
	c, api := newTestClient(t)

	err := c.Create(context.Background(), reviews.Review{
		Title:  "Dune",
		Quote:  "Loved it.",
		Rating: 4,
		IsMine: false,
		Likes:  99,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(api.rows) != 1 {
		t.Fatalf("expected one stored row, got %d", len(api.rows))
	}
	row := api.rows[0]
	if !row.IsMine {
		t.Error("created reviews must be marked as mine")
	}
	if row.Likes != 0 {
		t.Errorf("created reviews start with zero likes, got %d", row.Likes)
	}
}

func TestLikeIncrementsCurrentCount(t *testing.T) {
	c, api := newTestClient(t)
	api.rows = []reviews.WireReview{{ID: 2, Title: "Heat", Likes: 5}}
	api.nextID = 2

	if err := c.Like(context.Background(), 2); err != nil {
		t.Fatalf("Like failed: %v", err)
	}
	if api.rows[0].Likes != 6 {
		t.Errorf("expected likes 6, got %d", api.rows[0].Likes)
	}
	if api.rows[0].Title != "Heat" {
		t.Errorf("like must not touch other fields: %+v", api.rows[0])
	}

	if err := c.Like(context.Background(), 999); !errors.Is(err, ErrReviewNotFound) {
		t.Errorf("expected ErrReviewNotFound, got %v", err)
	}
}

func TestUpdateRequiresID(t *testing.T) {
	c, _ := newTestClient(t)
	if err := c.Update(context.Background(), reviews.Review{Title: "No ID"}); err == nil {
		t.Fatal("expected an error for a missing id")
	}
}

func TestDelete(t *testing.T) {
	c, api := newTestClient(t)
	api.rows = []reviews.WireReview{{ID: 1, Title: "Dune"}}
	api.nextID = 1

	if err := c.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(api.rows) != 0 {
		t.Fatalf("expected the row deleted, got %+v", api.rows)
	}

	err := c.Delete(context.Background(), 1)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork for a missing row, got %v", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected the server's error message surfaced, got %q", err)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		_, err := New(srv.URL).List(context.Background())
		if !errors.Is(err, ErrNetwork) {
			t.Fatalf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"not": "a list"}`))
		}))
		t.Cleanup(srv.Close)

		_, err := New(srv.URL).List(context.Background())
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("expected ErrDecode, got %v", err)
		}
	})
}
