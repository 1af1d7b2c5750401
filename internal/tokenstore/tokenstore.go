package tokenstore

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/pkg/models"
)

const (
	issuer             = "commonground"
	purposeVerifyEmail = "verify_email"
	minSecretLength    = 32
)

// ErrInvalidToken covers every reason a verification token is rejected.
var ErrInvalidToken = errors.New("invalid verification token")

// VerificationClaims binds a token to one account and the e-mail address it
// was sent to, so changing the address invalidates outstanding tokens.
type VerificationClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// AccountID returns the subject as a uuid.
func (c *VerificationClaims) AccountID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenStore issues and checks stateless e-mail verification tokens.
type TokenStore struct {
	log           *slog.Logger
	jwtSecret     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

func New(logger *slog.Logger, signingSecret string, tokenDuration time.Duration) (*TokenStore, error) {
	if len(signingSecret) < minSecretLength {
		return nil, fmt.Errorf("verification secret must be at least %d bytes", minSecretLength)
	}
	if tokenDuration <= 0 {
		return nil, errors.New("verification token duration must be positive")
	}
	return &TokenStore{
		log:           logger,
		jwtSecret:     []byte(signingSecret),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}, nil
}

// IssueVerification generates a signed token for the account's current e-mail.
func (t *TokenStore) IssueVerification(acc *models.Account) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.tokenDuration)
	claims := VerificationClaims{
		Email:   acc.Email,
		Purpose: purposeVerifyEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   acc.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.jwtSecret)
	if err != nil {
		return "", time.Time{}, logutil.LogAndWrapErr(t.log, "failed to sign verification token", err)
	}
	return signed, expires, nil
}

// ParseVerification validates signature, expiry, issuer and purpose.
// Any failure wraps ErrInvalidToken.
func (t *TokenStore) ParseVerification(tokenStr string) (*VerificationClaims, error) {
	claims := &VerificationClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(token *jwt.Token) (interface{}, error) {
			return t.jwtSecret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, logutil.DebugAndWrapErr(t.log, "rejected verification token",
			fmt.Errorf("%w: %v", ErrInvalidToken, err))
	}
	if !token.Valid || claims.Purpose != purposeVerifyEmail {
		return nil, fmt.Errorf("%w: wrong purpose", ErrInvalidToken)
	}
	if _, err := claims.AccountID(); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return claims, nil
}
