package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/openapparel/facility-registry/pkg/ctxutil"
)

// adminTokenHeader carries the contributor's admin credential, minted at
// registration.
const adminTokenHeader = "X-Admin-Token"

// resolveContributor turns the admin token into the acting contributor and
// stores its ID in the request context. Requests without the header pass
// through anonymously; endpoints that need a contributor reject them via the
// service layer.
func (h *Handler) resolveContributor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(adminTokenHeader)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		adminID, err := uuid.Parse(token)
		if err != nil {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
			return
		}

		contributor, err := h.contributor.GetByAdminID(r.Context(), adminID)
		if err != nil {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
			return
		}

		ctx := ctxutil.WithContributorID(r.Context(), contributor.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one line per request with status and duration.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
