package builtins

import (
	"errors"
	"net/http"
	"time"

	"github.com/Ryan-Har/commonground/api"
	"github.com/Ryan-Har/commonground/internal/filestore"
	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/pkg/check"
	"github.com/Ryan-Har/commonground/pkg/guard"
	"github.com/Ryan-Har/commonground/pkg/models"
)

// handleFilePut stores the raw request body under the id in the path.
// Only verified, unbanned members may upload.
func (h *Handler) handleFilePut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		p, err := guard.MustPrincipal(r.Context())
		if err != nil {
			api.ReturnError(w, h.log, api.Unauthenticated)
			return
		}
		if err := check.All(
			check.Options{Status: http.StatusForbidden, Message: "uploads need a verified account in good standing"},
			check.If(p.Account.Verified).Message("verify your email address before uploading"),
			check.If(!p.Account.Banned),
		); err != nil {
			api.WriteError(w, h.log, err)
			return
		}

		id := r.PathValue("id")
		n, err := h.files.Put(id, r.Body)
		if err != nil {
			var tooLarge *filestore.TooLargeError
			if errors.As(err, &tooLarge) {
				api.WriteError(w, h.log, api.PayloadTooLarge(tooLarge.Limit).WithCause(err))
				return
			}
			api.WriteError(w, h.log, err)
			return
		}

		h.log.Info("file stored", "id", id, "size", n, "account_id", p.Account.ID)
		api.RespondJSONAndLog(w, h.log, http.StatusCreated, api.FileResponse{ID: id, Size: n})
	}
}

func (h *Handler) handleFileGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		id := r.PathValue("id")
		f, err := h.files.Get(id)
		if err != nil {
			api.WriteError(w, h.log, err)
			return
		}
		defer f.Close()

		modTime := time.Time{}
		if info, err := f.Stat(); err == nil {
			modTime = info.ModTime()
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeContent(w, r, id, modTime, f)
	}
}

func (h *Handler) handleFileDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		id := r.PathValue("id")
		if err := h.files.Delete(id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				api.WriteError(w, h.log, api.NotFound("file not found").WithCause(err))
				return
			}
			api.WriteError(w, h.log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
