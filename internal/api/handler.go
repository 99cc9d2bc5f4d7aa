// Package api - HTTP-интерфейс сервиса комментариев к поездкам.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/UkralStul/trip-comments-service/internal/dataloader"
	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/UkralStul/trip-comments-service/internal/realtime"
	"github.com/UkralStul/trip-comments-service/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Comments - операции сервиса, которые использует HTTP-слой.
type Comments interface {
	CreateTrip(ctx context.Context, author *domain.Author, title string) (*domain.Trip, error)
	ListTrips(ctx context.Context, limit, offset int) ([]*domain.Trip, error)
	GetTrip(ctx context.Context, tripID string) (*domain.Trip, error)
	SetCommentsEnabled(ctx context.Context, tripID, userID string, enabled bool) (*domain.Trip, error)
	SubmitComment(ctx context.Context, tripID string, author *domain.Author, content string) (*domain.TopLevelComment, error)
	SubmitReply(ctx context.Context, tripID, parentID string, author *domain.Author, content string) (*domain.Reply, error)
	SetLike(ctx context.Context, commentID, userID string, liked bool) (*domain.LikeState, error)
	Thread(ctx context.Context, tripID, viewerID string, args storage.PaginationArgs) (*domain.Thread, error)
}

// Deps - зависимости роутера.
type Deps struct {
	Comments Comments
	Store    storage.Storage
	Hub      *realtime.Hub
	Tokens   TokenValidator
}

type Handler struct {
	comments Comments
	hub      *realtime.Hub
}

// NewRouter собирает chi-роутер со всеми маршрутами.
func NewRouter(d Deps) http.Handler {
	h := &Handler{comments: d.Comments, hub: d.Hub}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	required := Authenticate(d.Tokens, true)
	optional := Authenticate(d.Tokens, false)
	loaders := func(next http.Handler) http.Handler { return dataloader.Middleware(d.Store, next) }

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", h.listTrips)
		r.With(required).Post("/", h.createTrip)

		r.Route("/{tripId}", func(r chi.Router) {
			r.Get("/", h.getTrip)
			r.With(required).Patch("/comments-enabled", h.setCommentsEnabled)

			r.With(optional, loaders).Get("/comments", h.thread)
			r.With(required).Post("/comments", h.submitComment)
			r.With(required).Post("/comments/{parentId}/replies", h.submitReply)
			r.Get("/comments/ws", h.stream)
		})
	})
	r.With(required).Patch("/comments/{commentId}/like", h.setLike)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) createTrip(w http.ResponseWriter, r *http.Request) {
	var req CreateTripRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	trip, err := h.comments.CreateTrip(r.Context(), AuthorFrom(r.Context()), req.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

func (h *Handler) listTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	trips, err := h.comments.ListTrips(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

func (h *Handler) getTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := h.comments.GetTrip(r.Context(), chi.URLParam(r, "tripId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (h *Handler) setCommentsEnabled(w http.ResponseWriter, r *http.Request) {
	var req CommentsEnabledRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	author := AuthorFrom(r.Context())
	trip, err := h.comments.SetCommentsEnabled(r.Context(), chi.URLParam(r, "tripId"), author.ID, *req.Enabled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (h *Handler) thread(w http.ResponseWriter, r *http.Request) {
	args, err := paginationFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var viewerID string
	if a := AuthorFrom(r.Context()); a != nil {
		viewerID = a.ID
	}
	thread, err := h.comments.Thread(r.Context(), chi.URLParam(r, "tripId"), viewerID, args)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

func (h *Handler) submitComment(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.comments.SubmitComment(r.Context(), chi.URLParam(r, "tripId"), AuthorFrom(r.Context()), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) submitReply(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reply, err := h.comments.SubmitReply(r.Context(), chi.URLParam(r, "tripId"), chi.URLParam(r, "parentId"), AuthorFrom(r.Context()), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (h *Handler) setLike(w http.ResponseWriter, r *http.Request) {
	var req LikeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := h.comments.SetLike(r.Context(), chi.URLParam(r, "commentId"), AuthorFrom(r.Context()).ID, *req.Liked)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func paginationFrom(r *http.Request) (storage.PaginationArgs, error) {
	var args storage.PaginationArgs
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return args, &domain.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}
		}
		args.Limit = limit
	}
	if cursor := q.Get("cursor"); cursor != "" {
		args.Cursor = &cursor
	}
	return args, nil
}
