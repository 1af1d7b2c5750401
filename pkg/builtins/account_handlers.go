package builtins

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Ryan-Har/commonground/api"
	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/pkg/guard"
	"github.com/Ryan-Har/commonground/pkg/models"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// sendVerification issues a token for acc and hands it to the notifier.
// Failures are logged and otherwise ignored.
func (h *Handler) sendVerification(r *http.Request, acc *models.Account) {
	token, expiresAt, err := h.tokens.IssueVerification(acc)
	if err != nil {
		h.log.Warn("unable to issue verification token", "account_id", acc.ID, "err", err)
		return
	}
	if err := h.notifier.SendVerification(r.Context(), acc, token, expiresAt); err != nil {
		h.log.Warn("unable to send verification token", "account_id", acc.ID, "err", err)
	}
}

func (h *Handler) handleRequestVerification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		p, err := guard.MustPrincipal(r.Context())
		if err != nil {
			api.ReturnError(w, h.log, api.Unauthenticated)
			return
		}
		if p.Account.Verified {
			api.WriteError(w, h.log, api.ResourceConflict("account is already verified"))
			return
		}

		token, expiresAt, err := h.tokens.IssueVerification(&p.Account)
		if err != nil {
			api.WriteError(w, h.log, err)
			return
		}
		if err := h.notifier.SendVerification(r.Context(), &p.Account, token, expiresAt); err != nil {
			api.WriteError(w, h.log, logutil.LogAndWrapErr(h.log, "unable to send verification token", err, "account_id", p.Account.ID))
			return
		}

		api.RespondJSONAndLog(w, h.log, http.StatusAccepted, api.VerificationResponse{ExpiresAt: expiresAt})
	}
}

// handleVerify marks the account named by the token as verified. The token
// only counts while the account still has the address it was sent to.
func (h *Handler) handleVerify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		var req api.VerifyRequest
		if err := h.decodeJSON(w, r, &req); err != nil {
			api.WriteError(w, h.log, err)
			return
		}

		claims, err := h.tokens.ParseVerification(req.Token)
		if err != nil {
			api.WriteError(w, h.log, api.UnauthorizedInvalidToken().WithCause(err))
			return
		}
		id, err := claims.AccountID()
		if err != nil {
			api.WriteError(w, h.log, api.UnauthorizedInvalidToken().WithCause(err))
			return
		}

		acc, err := h.accounts.GetAccountByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				api.WriteError(w, h.log, api.UnauthorizedInvalidToken().WithCause(err))
				return
			}
			api.WriteError(w, h.log, err)
			return
		}
		if acc.Email != claims.Email {
			api.ReturnError(w, h.log, api.UnauthorizedInvalidToken)
			return
		}

		if !acc.Verified {
			if acc, err = h.accounts.MarkVerified(r.Context(), id); err != nil {
				api.WriteError(w, h.log, err)
				return
			}
		}

		api.RespondJSONAndLog(w, h.log, http.StatusOK, api.AccountResponse{Account: *acc})
	}
}
