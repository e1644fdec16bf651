// Package handlers wires HTTP routing and API handlers.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"flickbox/internal/catalog"
	"flickbox/internal/library"
	"flickbox/internal/logger"
	"flickbox/internal/reviews"
)

type Handler struct {
	catalog *catalog.Fetcher
	library *library.Store
	reviews *reviews.Store
}

type Config struct {
	Catalog *catalog.Fetcher
	Library *library.Store
	Reviews *reviews.Store
}

func New(cfg *Config) (*Handler, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("catalog fetcher is required")
	}
	if cfg.Library == nil {
		return nil, errors.New("library store is required")
	}
	if cfg.Reviews == nil {
		return nil, errors.New("reviews store is required")
	}
	return &Handler{
		catalog: cfg.Catalog,
		library: cfg.Library,
		reviews: cfg.Reviews,
	}, nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/genres", Adapt(h.getGenres))

		r.Route("/films", func(r chi.Router) {
			r.Method(http.MethodGet, "/", Adapt(h.getFilms))
			r.Method(http.MethodGet, "/upcoming", Adapt(h.getUpcoming))
			r.Method(http.MethodGet, "/{id:[0-9]+}", Adapt(h.getFilm))
			r.Method(http.MethodGet, "/{id:[0-9]+}/similar", Adapt(h.getSimilar))
		})

		r.Route("/lists", func(r chi.Router) {
			r.Method(http.MethodGet, "/", Adapt(h.getLists))
			r.Method(http.MethodPost, "/", Adapt(h.postList))

			r.Route("/{id:[0-9]+}", func(r chi.Router) {
				r.Method(http.MethodGet, "/", Adapt(h.getList))
				r.Method(http.MethodPut, "/", Adapt(h.putList))
				r.Method(http.MethodDelete, "/", Adapt(h.deleteList))

				r.Method(http.MethodPost, "/films", Adapt(h.postListFilm))
				r.Method(http.MethodDelete, "/films/{filmID:[0-9]+}", Adapt(h.deleteListFilm))
			})
		})

		r.Method(http.MethodGet, "/favorites", Adapt(h.getFavorites))
		r.Method(http.MethodPost, "/favorites/toggle", Adapt(h.postFavoriteToggle))

		r.Route("/reviews", func(r chi.Router) {
			r.Method(http.MethodGet, "/", Adapt(h.getReviews))
			r.Method(http.MethodPost, "/", Adapt(h.postReview))
			r.Method(http.MethodPut, "/", Adapt(h.putReview))
			r.Method(http.MethodDelete, "/{id:[0-9]+}", Adapt(h.deleteReview))
		})

		r.Method(http.MethodGet, "/dashboard", Adapt(h.getDashboard))
	})
}

// getFilms serves discover mode, or search mode when q is present.
func (h *Handler) getFilms(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	q := catalog.Query{
		Mode: catalog.ModeDiscover,
		Page: pageParam(r),
	}
	if text := strings.TrimSpace(r.URL.Query().Get("q")); text != "" {
		q.Mode = catalog.ModeSearch
		q.Text = text
	}

	result, err := h.catalog.FetchPage(ctx, q)
	if err != nil {
		slog.Warn("film fetch failed", logger.Error(err))
		return badGateway(err)
	}
	writeJSON(w, http.StatusOK, result)
	return nil
}

func (h *Handler) getUpcoming(w http.ResponseWriter, r *http.Request) error {
	result, err := h.catalog.FetchPage(r.Context(), catalog.Query{
		Mode: catalog.ModeUpcoming,
		Page: pageParam(r),
	})
	if err != nil {
		slog.Warn("upcoming fetch failed", logger.Error(err))
		return badGateway(err)
	}
	writeJSON(w, http.StatusOK, result)
	return nil
}

func (h *Handler) getFilm(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "id")
	if err != nil {
		return notFound("not found")
	}

	film, err := h.catalog.FilmByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrFiltered) {
			return notFound("not found")
		}
		slog.Warn("film detail failed", slog.Int64("id", id), logger.Error(err))
		return badGateway(err)
	}
	writeJSON(w, http.StatusOK, film)
	return nil
}

func (h *Handler) getSimilar(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "id")
	if err != nil {
		return notFound("not found")
	}

	result, err := h.catalog.Similar(r.Context(), id, pageParam(r))
	if err != nil {
		slog.Warn("similar fetch failed", slog.Int64("id", id), logger.Error(err))
		return badGateway(err)
	}
	writeJSON(w, http.StatusOK, result)
	return nil
}

func (h *Handler) getGenres(w http.ResponseWriter, r *http.Request) error {
	genres, err := h.catalog.Genres(r.Context())
	if err != nil {
		slog.Warn("genre fetch failed", logger.Error(err))
		return badGateway(err)
	}
	writeJSON(w, http.StatusOK, genres)
	return nil
}

type listRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Films       []library.FilmRef `json:"films"`
}

func (h *Handler) getLists(w http.ResponseWriter, _ *http.Request) error {
	lists, err := h.library.Lists()
	if err != nil {
		return internal(err)
	}
	writeJSON(w, http.StatusOK, lists)
	return nil
}

func (h *Handler) postList(w http.ResponseWriter, r *http.Request) error {
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}

	list, err := h.library.CreateList(req.Name, req.Description, req.Films)
	if err != nil {
		return mapLibraryErr(err)
	}
	writeJSON(w, http.StatusCreated, list)
	return nil
}

func (h *Handler) getList(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "id")
	if err != nil {
		return notFound("not found")
	}

	list, err := h.library.GetList(id)
	if err != nil {
		return mapLibraryErr(err)
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

func (h *Handler) putList(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "id")
	if err != nil {
		return notFound("not found")
	}

	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}

	list, err := h.library.UpdateList(id, req.Name, req.Description, req.Films)
	if err != nil {
		return mapLibraryErr(err)
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

func (h *Handler) deleteList(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "id")
	if err != nil {
		return notFound("not found")
	}

	if err := h.library.DeleteList(id); err != nil {
		return internal(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) postListFilm(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "id")
	if err != nil {
		return notFound("not found")
	}

	var film library.FilmRef
	if err := decodeJSON(r, &film); err != nil {
		return badRequest("bad request")
	}
	if film.ID == 0 {
		return badRequest("film id required")
	}

	list, err := h.library.AddFilmToList(id, film)
	if err != nil {
		return mapLibraryErr(err)
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

func (h *Handler) deleteListFilm(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "id")
	if err != nil {
		return notFound("not found")
	}
	filmID, err := idParam(r, "filmID")
	if err != nil {
		return notFound("not found")
	}

	list, err := h.library.RemoveFilmFromList(id, filmID)
	if err != nil {
		return mapLibraryErr(err)
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

func (h *Handler) getFavorites(w http.ResponseWriter, _ *http.Request) error {
	favorites, err := h.library.Favorites()
	if err != nil {
		return internal(err)
	}
	writeJSON(w, http.StatusOK, favorites)
	return nil
}

func (h *Handler) postFavoriteToggle(w http.ResponseWriter, r *http.Request) error {
	var film library.FilmRef
	if err := decodeJSON(r, &film); err != nil {
		return badRequest("bad request")
	}
	if film.ID == 0 {
		return badRequest("film id required")
	}

	added, err := h.library.ToggleFavorite(film)
	if err != nil {
		return internal(err)
	}
	writeJSON(w, http.StatusOK, struct {
		Favorited bool `json:"favorited"`
	}{Favorited: added})
	return nil
}

func (h *Handler) getReviews(w http.ResponseWriter, r *http.Request) error {
	rows, err := h.reviews.List(r.Context())
	if err != nil {
		slog.Warn("list reviews failed", logger.Error(err))
		return internal(err)
	}

	out := make([]reviews.WireReview, 0, len(rows))
	for _, row := range rows {
		out = append(out, reviews.ToWire(row))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (h *Handler) postReview(w http.ResponseWriter, r *http.Request) error {
	var wire reviews.WireReview
	if err := decodeJSON(r, &wire); err != nil {
		return badRequest("bad request")
	}
	if strings.TrimSpace(wire.Title) == "" {
		return badRequest("title required")
	}
	if wire.Rating < 1 || wire.Rating > 5 {
		return badRequest("rating must be 1-5")
	}

	review := reviews.FromWire(wire)
	if _, err := h.reviews.Insert(r.Context(), &review); err != nil {
		slog.Warn("insert review failed", logger.Error(err))
		return internal(err)
	}
	writeJSON(w, http.StatusOK, &MessageResponse{Message: "Review added successfully"})
	return nil
}

// reviewPut distinguishes the two PUT payloads the API has always
// accepted: a like-count update carries only id and likes; anything with
// a title is a full update.
type reviewPut struct {
	ID       *int64  `json:"id"`
	Title    *string `json:"title"`
	Reviewer *string `json:"reviewer"`
	Avatar   *string `json:"avatar"`
	Quote    *string `json:"quote"`
	Rating   *int    `json:"rating"`
	Date     *string `json:"date"`
	Poster   *string `json:"poster"`
	Mood     *string `json:"mood"`
	IsMine   *bool   `json:"is_mine"`
	Likes    *int    `json:"likes"`
}

func (h *Handler) putReview(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req reviewPut
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}
	if req.ID == nil || *req.ID <= 0 {
		return badRequest("id required")
	}

	if req.Title == nil {
		if req.Likes == nil || *req.Likes < 0 {
			return badRequest("likes required")
		}
		if err := h.reviews.UpdateLikes(ctx, *req.ID, *req.Likes); err != nil {
			if isNoRows(err) {
				return notFound("not found")
			}
			slog.Warn("update likes failed", logger.Error(err))
			return internal(err)
		}
		writeJSON(w, http.StatusOK, &MessageResponse{Message: "Like updated successfully"})
		return nil
	}

	review := reviews.Review{
		ID:       *req.ID,
		Title:    *req.Title,
		Reviewer: deref(req.Reviewer),
		Avatar:   deref(req.Avatar),
		Quote:    deref(req.Quote),
		Rating:   deref(req.Rating),
		Date:     deref(req.Date),
		Poster:   deref(req.Poster),
		Mood:     deref(req.Mood),
		IsMine:   deref(req.IsMine),
		Likes:    deref(req.Likes),
	}
	if err := h.reviews.Update(ctx, &review); err != nil {
		if isNoRows(err) {
			return notFound("not found")
		}
		slog.Warn("update review failed", logger.Error(err))
		return internal(err)
	}
	writeJSON(w, http.StatusOK, &MessageResponse{Message: "Review updated successfully"})
	return nil
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "id")
	if err != nil {
		return notFound("not found")
	}

	if err := h.reviews.Delete(r.Context(), id); err != nil {
		if isNoRows(err) {
			return notFound("not found")
		}
		return internal(err)
	}
	writeJSON(w, http.StatusOK, &MessageResponse{Message: "Review deleted successfully"})
	return nil
}

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) error {
	stats, err := h.reviews.Stats(r.Context())
	if err != nil {
		return internal(err)
	}
	writeJSON(w, http.StatusOK, stats)
	return nil
}

func mapLibraryErr(err error) error {
	var validationErr *library.ValidationError
	if errors.As(err, &validationErr) {
		return badRequest(validationErr.Reason)
	}
	if errors.Is(err, library.ErrNotFound) {
		return notFound("not found")
	}
	return internal(err)
}

func deref[T any](val *T) T {
	if val == nil {
		var zero T
		return zero
	}
	return *val
}
