package builtins

import (
	"errors"
	"net/http"

	"github.com/Ryan-Har/commonground/api"
	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/internal/metrics"
	"github.com/Ryan-Har/commonground/pkg/enforcer"
	"github.com/Ryan-Har/commonground/pkg/guard"
	"github.com/Ryan-Har/commonground/pkg/models"
)

// handleRegister creates a member account and signs it in. The verification
// token is sent on a best effort basis; registration succeeds without it.
func (h *Handler) handleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		var req api.RegisterRequest
		if err := h.decodeJSON(w, r, &req); err != nil {
			api.WriteError(w, h.log, err)
			return
		}
		req.Normalize()
		req.Role = models.RoleMember

		exists, err := h.accounts.CheckEmailExists(r.Context(), req.Email)
		if err != nil {
			api.WriteError(w, h.log, err)
			return
		}
		if exists {
			api.WriteError(w, h.log, api.ResourceConflict("an account with this email already exists"))
			return
		}

		hash, err := h.hasher.Hash(req.Password)
		if err != nil {
			api.WriteError(w, h.log, api.BadRequestValidation(err.Error()))
			return
		}

		acc, err := h.accounts.CreateAccount(r.Context(), req, hash)
		if err != nil {
			// lost a race with a concurrent registration
			if errors.Is(err, models.ErrConflict) {
				api.WriteError(w, h.log, api.ResourceConflict("an account with this email already exists").WithCause(err))
				return
			}
			api.WriteError(w, h.log, err)
			return
		}

		sess, err := h.sessions.Create(r.Context(), models.CreateSessionParams{
			AccountID: acc.ID,
			IpAddress: optionalString(h.clientIP(r)),
			UserAgent: optionalString(r.UserAgent()),
		})
		if err != nil {
			api.WriteError(w, h.log, err)
			return
		}
		h.sessions.SetCookie(w, sess)

		if h.tokens != nil {
			h.sendVerification(r, acc)
		}

		api.RespondJSONAndLog(w, h.log, http.StatusCreated, api.LoginResponse{Account: *acc, ExpiresAt: sess.ExpiresAt})
	}
}

// handleLogin checks the credentials and starts a session. Unknown e-mails
// still pay for a bcrypt comparison. A banned account is only reported once
// the password has been proven.
func (h *Handler) handleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		var req api.LoginRequest
		if err := h.decodeJSON(w, r, &req); err != nil {
			api.WriteError(w, h.log, err)
			return
		}
		req.Email = normalizeEmail(req.Email)

		acc, err := h.accounts.GetAccountByEmail(r.Context(), req.Email)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			metrics.LoginAttempts.WithLabelValues("error").Inc()
			api.WriteError(w, h.log, err)
			return
		}

		var storedHash *string
		if acc != nil {
			storedHash = acc.PasswordHash
		}
		if !h.hasher.Authenticate(req.Password, storedHash) {
			metrics.LoginAttempts.WithLabelValues("invalid").Inc()
			api.ReturnError(w, h.log, api.UnauthorizedInvalidCredentials)
			return
		}

		if acc.Banned {
			metrics.LoginAttempts.WithLabelValues("banned").Inc()
			api.ReturnError(w, h.log, api.ForbiddenAccountBanned)
			return
		}

		sess, err := h.sessions.Create(r.Context(), models.CreateSessionParams{
			AccountID: acc.ID,
			IpAddress: optionalString(h.clientIP(r)),
			UserAgent: optionalString(r.UserAgent()),
		})
		if err != nil {
			metrics.LoginAttempts.WithLabelValues("error").Inc()
			api.WriteError(w, h.log, err)
			return
		}
		metrics.LoginAttempts.WithLabelValues("ok").Inc()
		h.sessions.SetCookie(w, sess)

		api.RespondJSONAndLog(w, h.log, http.StatusOK, api.LoginResponse{Account: *acc, ExpiresAt: sess.ExpiresAt})
	}
}

// handleLogout revokes the current session, if any, and clears the cookie.
// A session store failure during resolution is a 500 and leaves the cookie.
func (h *Handler) handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		if p, ok := guard.OptionalPrincipal(r.Context()); ok {
			if err := h.sessions.Revoke(r.Context(), p.SessionID); err != nil {
				api.WriteError(w, h.log, err)
				return
			}
		} else if err := enforcer.AuthError(r.Context()); guard.KindOf(err) == guard.KindStoreFailure {
			// the session may still be live, so do not report a logout
			api.WriteError(w, h.log, api.InternalServerError().WithCause(err))
			return
		}
		h.sessions.ExpireCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) handleLogoutAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		p, err := guard.MustPrincipal(r.Context())
		if err != nil {
			api.ReturnError(w, h.log, api.Unauthenticated)
			return
		}

		n, err := h.sessions.RevokeAllForAccount(r.Context(), p.Account.ID)
		if err != nil {
			api.WriteError(w, h.log, err)
			return
		}
		h.sessions.ExpireCookie(w)

		api.RespondJSONAndLog(w, h.log, http.StatusOK, api.LogoutAllResponse{Revoked: n})
	}
}

func (h *Handler) handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		p, err := guard.MustPrincipal(r.Context())
		if err != nil {
			api.ReturnError(w, h.log, api.Unauthenticated)
			return
		}
		api.RespondJSONAndLog(w, h.log, http.StatusOK, api.AccountResponse{Account: p.Account})
	}
}
