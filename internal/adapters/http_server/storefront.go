package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"storefront/internal/app"
	"storefront/internal/domain"
)

// Handlers is the consumer-facing API. Each viewer session owns one
// aggregator; handlers only translate HTTP into its operations.
type Handlers struct{ Sessions *app.Sessions }

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Route("/{sid}", func(r chi.Router) {
			r.Get("/", h.getState)
			r.Delete("/", h.deleteSession)
			r.Post("/fetch", h.fetch)
			r.Get("/view", h.view)
			r.Get("/results/{class}", h.takeResult)
			r.Delete("/errors/{class}", h.clearError)

			r.Group(func(r chi.Router) {
				r.Use(RequireBearer)
				r.Post("/reviews", h.createReview)
				r.Patch("/reviews/{rid}", h.updateReview)
				r.Delete("/reviews/{rid}", h.deleteReview)
				r.Post("/reviews/{rid}/like", h.likeReview)
			})
		})
	})
}

type resultBody struct {
	app.Result
	Error     string                  `json:"error,omitempty"`
	ErrorKind string                  `json:"errorKind,omitempty"`
	Stats     domain.RatingStatistics `json:"stats"`
}

// opContext detaches the operation from the request: once dispatched an
// operation always resolves, even if the consumer goes away.
func opContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	sess, ok := h.Sessions.Get(chi.URLParam(r, "sid"))
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "session not found or expired")
		return nil, false
	}
	return sess, true
}

func (h *Handlers) writeResult(w http.ResponseWriter, sess *app.Session, res app.Result, okStatus int) {
	body := resultBody{Result: res, Stats: sess.Core.Stats()}
	status := okStatus
	if res.Err != nil {
		body.Error = res.Err.Error()
		body.ErrorKind = domain.ErrorKind(res.Err)
	}
	if !res.OK() {
		status, _ = statusFor(res.Err)
	}
	writeJSON(w, status, body)
}

func (h *Handlers) createSession(w http.ResponseWriter, r *http.Request) {
	sess := h.Sessions.New()
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": sess.ID})
}

func (h *Handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Delete(chi.URLParam(r, "sid"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) getState(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeCached(w, r, sess.Core.Snapshot())
}

func (h *Handlers) fetch(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var in struct {
		ProductID string `json:"productId"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	h.writeResult(w, sess, sess.Core.Fetch(opContext(r), in.ProductID), http.StatusOK)
}

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var in domain.NewReview
	if err := decodeJSON(w, r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if in.ProductID == "" {
		in.ProductID = sess.Core.ProductID()
	}
	h.writeResult(w, sess, sess.Core.Create(opContext(r), in), http.StatusCreated)
}

func (h *Handlers) updateReview(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var f domain.ReviewFields
	if err := decodeJSON(w, r, &f); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	h.writeResult(w, sess, sess.Core.Update(opContext(r), chi.URLParam(r, "rid"), f), http.StatusOK)
}

func (h *Handlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeResult(w, sess, sess.Core.Delete(opContext(r), chi.URLParam(r, "rid")), http.StatusOK)
}

func (h *Handlers) likeReview(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeResult(w, sess, sess.Core.ToggleLike(opContext(r), chi.URLParam(r, "rid")), http.StatusOK)
}

// view updates the session's view state from the query and reprojects the
// held collection. It never reaches the transport.
func (h *Handlers) view(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	vs := sess.Projector.State()
	q := r.URL.Query()
	if rs := q.Get("rating"); rs != "" {
		n, err := strconv.Atoi(rs)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid rating", "rating must be an integer between 0 and 5")
			return
		}
		vs.FilterRating = n
	}
	if q.Has("sort") {
		k, err := domain.ParseSortKey(q.Get("sort"))
		if err != nil {
			writeError(w, err)
			return
		}
		vs.SortKey = k
	}
	if err := sess.Projector.SetState(vs); err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, sess.Projector.View())
}

func (h *Handlers) takeResult(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	class, ok := domain.ParseOpClass(strings.ToLower(chi.URLParam(r, "class")))
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid class", "class must be one of fetch, create, update, delete, like")
		return
	}
	res, ok := sess.Core.TakeResult(class)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	body := resultBody{Result: res, Stats: sess.Core.Stats()}
	if res.Err != nil {
		body.Error = res.Err.Error()
		body.ErrorKind = domain.ErrorKind(res.Err)
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) clearError(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	class, ok := domain.ParseOpClass(strings.ToLower(chi.URLParam(r, "class")))
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid class", "class must be one of fetch, create, update, delete, like")
		return
	}
	sess.Core.ClearError(class)
	w.WriteHeader(http.StatusNoContent)
}
