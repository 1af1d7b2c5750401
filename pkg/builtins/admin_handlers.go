package builtins

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/Ryan-Har/commonground/api"
	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/pkg/check"
	"github.com/Ryan-Har/commonground/pkg/guard"
	"github.com/Ryan-Har/commonground/pkg/models"
)

// handleAdminListAccounts serves one page of accounts. Query parameters:
// page, limit and an optional role filter.
func (h *Handler) handleAdminListAccounts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		q := r.URL.Query()
		params := models.ListAccountsParams{}
		params.Page, _ = strconv.Atoi(q.Get("page"))
		params.Limit, _ = strconv.Atoi(q.Get("limit"))
		if raw := q.Get("role"); raw != "" {
			var role models.Role
			if err := role.UnmarshalText([]byte(raw)); err != nil {
				api.WriteError(w, h.log, api.BadRequestValidation(err.Error()))
				return
			}
			params.Role = &role
		}

		accounts, meta, err := h.accounts.ListAccounts(r.Context(), params)
		if err != nil && len(accounts) == 0 {
			api.WriteError(w, h.log, err)
			return
		}
		if err != nil {
			h.log.Warn("some accounts could not be listed", "err", err)
		}

		resp := api.GetAccountsResponse{Accounts: make([]models.Account, 0, len(accounts)), Meta: meta}
		for _, acc := range accounts {
			resp.Accounts = append(resp.Accounts, *acc)
		}
		api.RespondJSONAndLog(w, h.log, http.StatusOK, resp)
	}
}

// handleAdminSetBanned bans or unbans the account in the path. A ban revokes
// every session of the account. Admins cannot ban themselves.
func (h *Handler) handleAdminSetBanned(banned bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		p, err := guard.MustPrincipal(r.Context())
		if err != nil {
			api.ReturnError(w, h.log, api.Unauthenticated)
			return
		}

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			api.WriteError(w, h.log, api.BadRequestValidation("invalid account id"))
			return
		}
		if err := check.All(check.Options{},
			check.If(!banned || id != p.Account.ID).Message("you cannot ban your own account"),
		); err != nil {
			api.WriteError(w, h.log, err)
			return
		}

		acc, err := h.accounts.SetBanned(r.Context(), id, banned)
		if err != nil {
			api.WriteError(w, h.log, err)
			return
		}

		var revoked int64
		if banned {
			if revoked, err = h.sessions.RevokeAllForAccount(r.Context(), id); err != nil {
				err = logutil.LogAndWrapErr(h.log, "account banned but its sessions were not revoked", err, "account_id", id, "by", p.Account.ID)
				api.WriteError(w, h.log, api.NewError(http.StatusInternalServerError, api.ErrInternal,
					"account banned but revoking its sessions failed; retry the ban").WithCause(err))
				return
			}
		}

		h.log.Info("account ban updated", "account_id", id, "banned", banned, "by", p.Account.ID, "revoked_sessions", revoked)
		api.RespondJSONAndLog(w, h.log, http.StatusOK, api.BanResponse{Account: *acc, RevokedSessions: revoked})
	}
}
