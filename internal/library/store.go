// Package library keeps user-curated film lists and favorites in durable
// local key-value storage, with no server round-trip.
package library

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Storage keys. Each holds one JSON array, read in full and rewritten in
// full on every mutation.
const (
	listsKey     = "flickbox_lists"
	favoritesKey = "flickbox_favorites"
)

// ErrNotFound is returned when an operation references a missing list.
var ErrNotFound = errors.New("list not found")

// ValidationError blocks a mutation over bad user input and must be
// surfaced to the user synchronously.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// FilmRef is the lightweight film reference stored inside lists and
// favorites. Full records are re-fetched from the catalog when needed.
type FilmRef struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Year   int     `json:"year"`
	Poster string  `json:"poster"`
	Rating float64 `json:"rating"`
}

// List is a user-curated, ordered collection of film references. A film
// id appears at most once per list.
type List struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Films       []FilmRef `json:"films"`
	CreatedAt   string    `json:"created"`
}

type Store struct {
	kv KV

	// now is swappable so tests control timestamp-derived ids.
	now func() time.Time
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

func (s *Store) Lists() ([]List, error) {
	return s.readLists()
}

func (s *Store) GetList(id int64) (List, error) {
	lists, err := s.readLists()
	if err != nil {
		return List{}, err
	}
	for _, l := range lists {
		if l.ID == id {
			return l, nil
		}
	}
	return List{}, ErrNotFound
}

// CreateList makes a new list and prepends it to the collection. The id
// is the current Unix millisecond timestamp; collision under rapid calls
// is a known, accepted risk. Duplicate film ids in the initial set are
// dropped, keeping first occurrence order.
func (s *Store) CreateList(name, description string, films []FilmRef) (List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return List{}, &ValidationError{Reason: "list name cannot be empty"}
	}

	lists, err := s.readLists()
	if err != nil {
		return List{}, err
	}

	list := List{
		ID:          s.now().UnixMilli(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Films:       dedupeFilms(films),
		CreatedAt:   s.now().UTC().Format(time.RFC3339),
	}

	lists = append([]List{list}, lists...)
	if err := s.writeLists(lists); err != nil {
		return List{}, err
	}
	return list, nil
}

// UpdateList replaces the three mutable fields of a list, preserving its
// id and creation time.
func (s *Store) UpdateList(id int64, name, description string, films []FilmRef) (List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return List{}, &ValidationError{Reason: "list name cannot be empty"}
	}

	lists, err := s.readLists()
	if err != nil {
		return List{}, err
	}
	for i := range lists {
		if lists[i].ID != id {
			continue
		}
		lists[i].Name = name
		lists[i].Description = strings.TrimSpace(description)
		lists[i].Films = dedupeFilms(films)
		if err := s.writeLists(lists); err != nil {
			return List{}, err
		}
		return lists[i], nil
	}
	return List{}, ErrNotFound
}

// DeleteList removes a list. Deleting an absent id is a no-op, not an
// error.
func (s *Store) DeleteList(id int64) error {
	lists, err := s.readLists()
	if err != nil {
		return err
	}
	kept := lists[:0]
	for _, l := range lists {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	return s.writeLists(kept)
}

// AddFilmToList appends a film to a list. Adding a film id already
// present is a no-op, so the call is idempotent.
func (s *Store) AddFilmToList(listID int64, film FilmRef) (List, error) {
	lists, err := s.readLists()
	if err != nil {
		return List{}, err
	}
	for i := range lists {
		if lists[i].ID != listID {
			continue
		}
		for _, f := range lists[i].Films {
			if f.ID == film.ID {
				return lists[i], nil
			}
		}
		lists[i].Films = append(lists[i].Films, film)
		if err := s.writeLists(lists); err != nil {
			return List{}, err
		}
		return lists[i], nil
	}
	return List{}, ErrNotFound
}

// RemoveFilmFromList removes a film from a list; absent film ids are a
// no-op.
func (s *Store) RemoveFilmFromList(listID, filmID int64) (List, error) {
	lists, err := s.readLists()
	if err != nil {
		return List{}, err
	}
	for i := range lists {
		if lists[i].ID != listID {
			continue
		}
		kept := lists[i].Films[:0]
		for _, f := range lists[i].Films {
			if f.ID != filmID {
				kept = append(kept, f)
			}
		}
		lists[i].Films = kept
		if err := s.writeLists(lists); err != nil {
			return List{}, err
		}
		return lists[i], nil
	}
	return List{}, ErrNotFound
}

func (s *Store) Favorites() ([]FilmRef, error) {
	return s.readFavorites()
}

// ToggleFavorite adds the film if absent and removes it if present.
// Calling it twice with the same film restores the original membership.
func (s *Store) ToggleFavorite(film FilmRef) (added bool, err error) {
	favorites, err := s.readFavorites()
	if err != nil {
		return false, err
	}

	kept := favorites[:0]
	removed := false
	for _, f := range favorites {
		if f.ID == film.ID {
			removed = true
			continue
		}
		kept = append(kept, f)
	}
	if !removed {
		kept = append(kept, film)
	}
	if err := s.writeFavorites(kept); err != nil {
		return false, err
	}
	return !removed, nil
}

func (s *Store) readLists() ([]List, error) {
	raw, err := s.kv.Get(listsKey)
	if errors.Is(err, ErrKeyNotFound) {
		return []List{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lists: %w", err)
	}
	var lists []List
	if err := json.Unmarshal(raw, &lists); err != nil {
		return nil, fmt.Errorf("decode lists: %w", err)
	}
	return lists, nil
}

func (s *Store) writeLists(lists []List) error {
	raw, err := json.Marshal(lists)
	if err != nil {
		return fmt.Errorf("encode lists: %w", err)
	}
	if err := s.kv.Set(listsKey, raw); err != nil {
		return fmt.Errorf("write lists: %w", err)
	}
	return nil
}

func (s *Store) readFavorites() ([]FilmRef, error) {
	raw, err := s.kv.Get(favoritesKey)
	if errors.Is(err, ErrKeyNotFound) {
		return []FilmRef{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}
	var favorites []FilmRef
	if err := json.Unmarshal(raw, &favorites); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	return favorites, nil
}

func (s *Store) writeFavorites(favorites []FilmRef) error {
	raw, err := json.Marshal(favorites)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	if err := s.kv.Set(favoritesKey, raw); err != nil {
		return fmt.Errorf("write favorites: %w", err)
	}
	return nil
}

func dedupeFilms(films []FilmRef) []FilmRef {
	out := make([]FilmRef, 0, len(films))
	seen := make(map[int64]struct{}, len(films))
	for _, f := range films {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	return out
}
