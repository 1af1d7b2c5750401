package builtins

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Ryan-Har/commonground/api"
	"github.com/Ryan-Har/commonground/internal/accountstore"
	"github.com/Ryan-Har/commonground/internal/filestore"
	"github.com/Ryan-Har/commonground/internal/ratelimit"
	"github.com/Ryan-Har/commonground/internal/sessionstore"
	"github.com/Ryan-Har/commonground/internal/tokenstore"
	"github.com/Ryan-Har/commonground/internal/validate"
	"github.com/Ryan-Har/commonground/pkg/models"
	"github.com/Ryan-Har/commonground/pkg/models/passwd"
)

const maxJSONBody = 1 << 20

// Notifier delivers verification tokens to account holders. Sending e-mail
// is left to the application.
type Notifier interface {
	SendVerification(ctx context.Context, acc *models.Account, token string, expiresAt time.Time) error
}

// LogNotifier writes verification tokens to the log instead of sending them.
// Meant for development only.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) SendVerification(ctx context.Context, acc *models.Account, token string, expiresAt time.Time) error {
	n.Log.Info("verification token issued", "account_id", acc.ID, "email", acc.Email, "token", token, "expires_at", expiresAt)
	return nil
}

// Deps are the collaborators of the builtin handlers. Files, Tokens and
// LoginLimiter are optional; routes that need a missing one are not loaded.
type Deps struct {
	Accounts     accountstore.Store
	Sessions     sessionstore.Store
	Files        *filestore.Store
	Tokens       *tokenstore.TokenStore
	Hasher       *passwd.Hasher
	Notifier     Notifier
	LoginLimiter *ratelimit.Limiter
	Health       func(ctx context.Context) map[string]error
}

type Handler struct {
	log       *slog.Logger
	accounts  accountstore.Store
	sessions  sessionstore.Store
	files     *filestore.Store
	tokens    *tokenstore.TokenStore
	hasher    *passwd.Hasher
	notifier  Notifier
	limiter   *ratelimit.Limiter
	health    func(ctx context.Context) map[string]error
	validator *validate.Validator
}

func newHandler(logger *slog.Logger, d Deps) *Handler {
	h := &Handler{
		log:       logger,
		accounts:  d.Accounts,
		sessions:  d.Sessions,
		files:     d.Files,
		tokens:    d.Tokens,
		hasher:    d.Hasher,
		notifier:  d.Notifier,
		limiter:   d.LoginLimiter,
		health:    d.Health,
		validator: validate.New(),
	}
	if h.notifier == nil {
		h.notifier = LogNotifier{Log: logger}
	}
	return h
}

// decodeJSON reads a JSON body into dst and validates it.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return api.PayloadTooLarge(tooLarge.Limit).WithCause(err)
		}
		return api.BadRequestInvalidJSON().WithCause(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return api.BadRequestInvalidJSON()
	}
	return h.validator.Struct(dst)
}

// clientIP is the address recorded on new sessions.
func (h *Handler) clientIP(r *http.Request) string {
	if h.limiter != nil {
		return h.limiter.ClientIP(r)
	}
	return r.RemoteAddr
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
