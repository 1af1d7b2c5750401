package builtins

import (
	"net/http"

	"github.com/Ryan-Har/commonground/api"
	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/pkg/guard"
	"github.com/Ryan-Har/commonground/pkg/models"
)

// handleCapabilities runs in optional mode: guests get a response with every
// flag false rather than a 401.
func (h *Handler) handleCapabilities() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		p, ok := guard.OptionalPrincipal(r.Context())
		if !ok {
			api.RespondJSONAndLog(w, h.log, http.StatusOK, api.CapabilitiesResponse{Role: models.RoleGuest})
			return
		}

		acc := &p.Account
		canPost := acc.CanPost()
		api.RespondJSONAndLog(w, h.log, http.StatusOK, api.CapabilitiesResponse{
			Authenticated: true,
			Role:          acc.Role,
			CanPost:       canPost,
			CanModerate:   p.HasRole(models.RoleModerator) && !acc.Banned,
			CanPublish:    p.HasRole(models.RoleAuthor) && canPost,
			Account:       &api.AccountInfo{ID: acc.ID.String(), DisplayName: acc.DisplayName},
		})
	}
}
