package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"storefront/internal/app"
	"storefront/internal/domain"
)

// BackendHandlers serve the review endpoints the transport client talks to.
type BackendHandlers struct {
	Repo domain.ReviewRepository
	Now  func() time.Time
}

func (s *Server) MountBackend(prefix string, h *BackendHandlers) {
	if h.Now == nil {
		h.Now = time.Now
	}
	s.mux.Route(prefix, func(r chi.Router) {
		r.Get("/products/{id}/reviews", h.listReviews)
		r.Post("/reviews", h.createReview)
		r.Put("/reviews/{id}", h.updateReview)
		r.Delete("/reviews/{id}", h.deleteReview)
		r.Post("/reviews/{id}/like", h.toggleLike)
	})
}

func (h *BackendHandlers) listReviews(w http.ResponseWriter, r *http.Request) {
	rs, err := h.Repo.ListByProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		log.Error().Err(err).Msg("list reviews failed")
		writeError(w, err)
		return
	}
	writeCached(w, r, rs)
}

func (h *BackendHandlers) createReview(w http.ResponseWriter, r *http.Request) {
	var in domain.NewReview
	if err := decodeJSON(w, r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if err := app.ValidateNewReview(in); err != nil {
		writeError(w, err)
		return
	}
	if in.AuthorID == "" {
		in.AuthorID = strings.TrimSpace(r.Header.Get("X-User-ID"))
	}

	rv := domain.Review{
		ID:         uuid.NewString(),
		ProductID:  in.ProductID,
		AuthorName: in.AuthorName,
		AuthorID:   in.AuthorID,
		Rating:     in.Rating,
		Title:      in.Title,
		Comment:    in.Comment,
		Pros:       in.Pros,
		Cons:       in.Cons,
		CreatedAt:  h.Now().UTC(),
	}
	if err := h.Repo.Create(r.Context(), rv); err != nil {
		log.Error().Err(err).Str("product_id", rv.ProductID).Msg("create review failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *BackendHandlers) updateReview(w http.ResponseWriter, r *http.Request) {
	var f domain.ReviewFields
	if err := decodeJSON(w, r, &f); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if err := app.ValidateFields(f); err != nil {
		writeError(w, err)
		return
	}
	rv, err := h.Repo.Update(r.Context(), chi.URLParam(r, "id"), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *BackendHandlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// toggleLike needs a liker identity; it comes from X-User-ID.
func (h *BackendHandlers) toggleLike(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if user == "" {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "X-User-ID is required to like a review")
		return
	}
	rv, err := h.Repo.ToggleLike(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}
