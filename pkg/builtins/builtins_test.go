package builtins

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ryan-Har/commonground/api"
	"github.com/Ryan-Har/commonground/internal/filestore"
	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/internal/ratelimit"
	"github.com/Ryan-Har/commonground/internal/sessionstore"
	"github.com/Ryan-Har/commonground/internal/tokenstore"
	"github.com/Ryan-Har/commonground/pkg/enforcer"
	"github.com/Ryan-Har/commonground/pkg/guard"
	"github.com/Ryan-Har/commonground/pkg/models"
	"github.com/Ryan-Har/commonground/pkg/models/passwd"
	"github.com/Ryan-Har/commonground/pkg/store"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// recordingNotifier keeps the last token it was asked to send.
type recordingNotifier struct {
	mu    sync.Mutex
	token string
	sent  int
	err   error
}

func (n *recordingNotifier) SendVerification(ctx context.Context, acc *models.Account, token string, expiresAt time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.token = token
	n.sent++
	return nil
}

// flakySessions wraps a session store and fails the operations switched on.
type flakySessions struct {
	sessionstore.Store
	mu            sync.Mutex
	failGet       bool
	failRevokeAll bool
}

var errSessionsDown = errors.New("session store unavailable")

func (f *flakySessions) set(get, revokeAll bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet, f.failRevokeAll = get, revokeAll
}

func (f *flakySessions) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, errSessionsDown
	}
	return f.Store.Get(ctx, sessionID)
}

func (f *flakySessions) RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	f.mu.Lock()
	fail := f.failRevokeAll
	f.mu.Unlock()
	if fail {
		return 0, errSessionsDown
	}
	return f.Store.RevokeAllForAccount(ctx, accountID)
}

type testServer struct {
	mux      *http.ServeMux
	store    *store.Store
	sessions *flakySessions
	notifier *recordingNotifier
	limiter  *ratelimit.Limiter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logutil.Discard()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "builtins.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := tokenstore.New(log, testSecret, time.Hour)
	require.NoError(t, err)

	s, err := store.New(context.Background(), log, store.Params{
		SQLite:         db,
		SessionBackend: store.SessionsInMemory,
		Files:          filestore.New(afero.NewMemMapFs(), log, 64),
		Tokens:         tokens,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	hasher, err := passwd.NewHasher(4)
	require.NoError(t, err)

	limiter := ratelimit.New(log, 1, 3, false)
	t.Cleanup(limiter.Stop)

	sessions := &flakySessions{Store: s.Sessions}
	mux := http.NewServeMux()
	resolver := guard.NewResolver(log, sessions, s.Accounts)
	e := enforcer.NewEnforcer(log, mux, resolver, sessions, &enforcer.Config{CookieName: sessions.CookieName()})

	notifier := &recordingNotifier{}
	b := New(log, e, Deps{
		Accounts:     s.Accounts,
		Sessions:     sessions,
		Files:        s.Files,
		Tokens:       s.Tokens,
		Hasher:       hasher,
		Notifier:     notifier,
		LoginLimiter: limiter,
		Health:       s.Health,
	})
	b.LoadAllPolicies()
	require.NoError(t, b.LoadAllRoutes())

	return &testServer{mux: mux, store: s, sessions: sessions, notifier: notifier, limiter: limiter}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// register creates an account and returns it with its session cookie.
func (ts *testServer) register(t *testing.T, name, email string) (*models.Account, *http.Cookie) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"displayName": name, "email": email, "password": "correct horse",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp api.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return &resp.Account, sessionCookie(t, rec)
}

// promote sets fields the API cannot. Existing sessions see the change on
// their next request.
func (ts *testServer) promote(t *testing.T, acc *models.Account, role models.Role, verified bool) {
	t.Helper()
	ctx := context.Background()
	_, err := ts.store.Accounts.UpdateRole(ctx, acc.ID, role)
	require.NoError(t, err)
	if verified {
		_, err = ts.store.Accounts.MarkVerified(ctx, acc.ID)
		require.NoError(t, err)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

//
// ---------- auth ----------
//

func TestRegister(t *testing.T) {
	ts := newTestServer(t)
	acc, cookie := ts.register(t, " Ada ", "Ada@Example.com")

	assert.Equal(t, "Ada", acc.DisplayName)
	assert.Equal(t, "ada@example.com", acc.Email)
	assert.Equal(t, models.RoleMember, acc.Role)
	assert.False(t, acc.Verified)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 1, ts.notifier.sent)

	rec := ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), acc.ID.String())
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegister_Errors(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "ada", "ada@example.com")

	tests := []struct {
		name     string
		body     any
		wantCode int
	}{
		{"DuplicateEmail", map[string]string{"displayName": "ada2", "email": "ADA@example.com", "password": "correct horse"}, http.StatusConflict},
		{"ShortPassword", map[string]string{"displayName": "bob", "email": "bob@example.com", "password": "short"}, http.StatusBadRequest},
		{"BadEmail", map[string]string{"displayName": "bob", "email": "bob", "password": "correct horse"}, http.StatusBadRequest},
		{"InvalidJSON", "{", http.StatusBadRequest},
		{"UnknownField", map[string]string{"displayName": "bob", "email": "bob@example.com", "password": "correct horse", "role": "admin"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", tt.body, nil)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, rec).StatusCode)
		})
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	acc, _ := ts.register(t, "ada", "ada@example.com")

	tests := []struct {
		name     string
		email    string
		password string
		wantCode int
	}{
		{"WrongPassword", "ada@example.com", "wrong password", http.StatusUnauthorized},
		{"UnknownEmail", "nobody@example.com", "correct horse", http.StatusUnauthorized},
		{"Success", "ADA@example.com", "correct horse", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": tt.email, "password": tt.password}, nil)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode == http.StatusOK {
				cookie := sessionCookie(t, rec)
				me := ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
				assert.Contains(t, me.Body.String(), acc.ID.String())
			}
		})
	}
}

func TestLogin_SameResponseForUnknownAndWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "ada", "ada@example.com")

	wrong := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ada@example.com", "password": "wrong password"}, nil)
	unknown := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "eve@example.com", "password": "wrong password"}, nil)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
}

func TestLogin_RateLimited(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]string{"email": "nobody@example.com", "password": "whatever1"}

	var last int
	for i := 0; i < 5; i++ {
		last = ts.do(t, http.MethodPost, "/api/v1/auth/login", body, nil).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.register(t, "ada", "ada@example.com")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// logging out as a guest still succeeds
	rec = ts.do(t, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLogout_StoreFailureKeepsCookie(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.register(t, "ada", "ada@example.com")

	ts.sessions.set(true, false)
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "cookie must not be cleared")
	assert.NotContains(t, rec.Body.String(), errSessionsDown.Error())

	// the session survived and logout works once the store is back
	ts.sessions.set(false, false)
	rec = ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLogoutAll(t *testing.T) {
	ts := newTestServer(t)
	_, first := ts.register(t, "ada", "ada@example.com")
	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ada@example.com", "password": "correct horse"}, nil)
	second := sessionCookie(t, login)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/logout-all", nil, second)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.LogoutAllResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Revoked)

	for _, c := range []*http.Cookie{first, second} {
		assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, c).Code)
	}
}

func TestMe_RequiresSession(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decodeError(t, rec).Message)

	rec = ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, &http.Cookie{Name: "session_id", Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

//
// ---------- account verification ----------
//

func TestVerification(t *testing.T) {
	ts := newTestServer(t)
	acc, cookie := ts.register(t, "ada", "ada@example.com")

	rec := ts.do(t, http.MethodPost, "/api/v1/account/verification", nil, cookie)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 2, ts.notifier.sent)

	rec = ts.do(t, http.MethodPost, "/api/v1/account/verify", api.VerifyRequest{Token: "not-a-token"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/account/verify", api.VerifyRequest{Token: ts.notifier.token}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp api.AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, acc.ID, resp.Account.ID)
	assert.True(t, resp.Account.Verified)

	rec = ts.do(t, http.MethodPost, "/api/v1/account/verification", nil, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestVerification_NotifierFailure(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.register(t, "ada", "ada@example.com")
	ts.notifier.err = errors.New("smtp down")

	rec := ts.do(t, http.MethodPost, "/api/v1/account/verification", nil, cookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "smtp")
}

//
// ---------- forum ----------
//

func TestCapabilities(t *testing.T) {
	ts := newTestServer(t)
	_, memberCookie := ts.register(t, "ada", "ada@example.com")
	author, authorCookie := ts.register(t, "grace", "grace@example.com")
	ts.promote(t, author, models.RoleAuthor, true)

	get := func(c *http.Cookie) api.CapabilitiesResponse {
		rec := ts.do(t, http.MethodGet, "/api/v1/forum/capabilities", nil, c)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.CapabilitiesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	guest := get(nil)
	assert.Equal(t, api.CapabilitiesResponse{Role: models.RoleGuest}, guest)

	// an invalid cookie is treated as a guest, not rejected
	assert.False(t, get(&http.Cookie{Name: "session_id", Value: "stale"}).Authenticated)

	m := get(memberCookie)
	assert.True(t, m.Authenticated)
	assert.False(t, m.CanPost, "unverified members cannot post")
	assert.False(t, m.CanModerate)

	a := get(authorCookie)
	assert.True(t, a.CanPost)
	assert.True(t, a.CanPublish)
	assert.False(t, a.CanModerate)
	require.NotNil(t, a.Account)
	assert.Equal(t, "grace", a.Account.DisplayName)
}

//
// ---------- files ----------
//

func TestFiles(t *testing.T) {
	ts := newTestServer(t)
	acc, cookie := ts.register(t, "ada", "ada@example.com")

	rec := ts.do(t, http.MethodPut, "/api/v1/files/notes.txt", "hello", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/files/notes.txt", "hello", cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "verify your email address before uploading", decodeError(t, rec).Message)

	ts.promote(t, acc, models.RoleMember, true)

	rec = ts.do(t, http.MethodPut, "/api/v1/files/notes.txt", "hello", cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp api.FileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, api.FileResponse{ID: "notes.txt", Size: 5}, resp)

	rec = ts.do(t, http.MethodPut, "/api/v1/files/notes.txt", "again", cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/files/big.bin", strings.Repeat("x", 65), cookie)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/files/notes.txt", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/v1/files/missing.txt", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/files/.hidden", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// deleting needs a moderator
	rec = ts.do(t, http.MethodDelete, "/api/v1/files/notes.txt", nil, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ts.promote(t, acc, models.RoleModerator, false)
	rec = ts.do(t, http.MethodDelete, "/api/v1/files/notes.txt", nil, cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/v1/files/notes.txt", nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

//
// ---------- admin ----------
//

func TestAdmin_BanRevokesSessionsAndBlocksLogin(t *testing.T) {
	ts := newTestServer(t)
	admin, adminCookie := ts.register(t, "root", "root@example.com")
	ts.promote(t, admin, models.RoleAdmin, true)
	member, memberCookie := ts.register(t, "ada", "ada@example.com")

	rec := ts.do(t, http.MethodPost, "/api/v1/admin/accounts/"+member.ID.String()+"/ban", nil, memberCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/admin/accounts/"+member.ID.String()+"/ban", nil, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ban api.BanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ban))
	assert.True(t, ban.Account.Banned)
	assert.Equal(t, int64(1), ban.RevokedSessions)

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, memberCookie).Code)

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ada@example.com", "password": "correct horse"}, nil)
	assert.Equal(t, http.StatusForbidden, login.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/admin/accounts/"+member.ID.String()+"/unban", nil, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	login = ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ada@example.com", "password": "correct horse"}, nil)
	assert.Equal(t, http.StatusOK, login.Code)
}

func TestAdmin_BanErrors(t *testing.T) {
	ts := newTestServer(t)
	admin, adminCookie := ts.register(t, "root", "root@example.com")
	ts.promote(t, admin, models.RoleAdmin, true)

	rec := ts.do(t, http.MethodPost, "/api/v1/admin/accounts/"+admin.ID.String()+"/ban", nil, adminCookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "you cannot ban your own account", decodeError(t, rec).Message)

	rec = ts.do(t, http.MethodPost, "/api/v1/admin/accounts/not-a-uuid/ban", nil, adminCookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/admin/accounts/00000000-0000-0000-0000-000000000001/ban", nil, adminCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_BanRevokeFailureIsReported(t *testing.T) {
	ts := newTestServer(t)
	admin, adminCookie := ts.register(t, "root", "root@example.com")
	ts.promote(t, admin, models.RoleAdmin, true)
	target, _ := ts.register(t, "mallory", "mallory@example.com")

	ts.sessions.set(false, true)
	rec := ts.do(t, http.MethodPost, "/api/v1/admin/accounts/"+target.ID.String()+"/ban", nil, adminCookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "account banned")

	acc, err := ts.store.Accounts.GetAccountByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.True(t, acc.Banned)

	// retrying the ban revokes the sessions
	ts.sessions.set(false, false)
	rec = ts.do(t, http.MethodPost, "/api/v1/admin/accounts/"+target.ID.String()+"/ban", nil, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp api.BanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.RevokedSessions)
}

func TestAdmin_ListAccounts(t *testing.T) {
	ts := newTestServer(t)
	admin, adminCookie := ts.register(t, "root", "root@example.com")
	ts.promote(t, admin, models.RoleAdmin, true)
	ts.register(t, "ada", "ada@example.com")
	ts.register(t, "grace", "grace@example.com")

	rec := ts.do(t, http.MethodGet, "/api/v1/admin/accounts?limit=2", nil, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp api.GetAccountsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Accounts, 2)
	assert.Equal(t, 3, resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)

	rec = ts.do(t, http.MethodGet, "/api/v1/admin/accounts?role=admin", nil, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, admin.ID, resp.Accounts[0].ID)

	rec = ts.do(t, http.MethodGet, "/api/v1/admin/accounts?role=emperor", nil, adminCookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

//
// ---------- health ----------
//

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.Equal(t, "ok", resp.Checks["files"])
}

func TestHealth_Degraded(t *testing.T) {
	log := logutil.Discard()
	h := newHandler(log, Deps{Health: func(ctx context.Context) map[string]error {
		return map[string]error{"database": nil, "redis": errors.New("connection refused")}
	}})

	rec := httptest.NewRecorder()
	h.handleHealth()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refused")

	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unavailable", resp.Checks["redis"])
}

func TestLoadRoutes_OptionalStores(t *testing.T) {
	mux := http.NewServeMux()
	e := enforcer.NewEnforcer(logutil.Discard(), mux, nil, nil, nil)
	b := New(logutil.Discard(), e, Deps{})
	require.NoError(t, b.LoadAllRoutes())

	_, pattern := mux.Handler(httptest.NewRequest(http.MethodGet, "/api/v1/files/a.txt", nil))
	assert.Empty(t, pattern, "file routes need a file store")
	_, pattern = mux.Handler(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "/healthz", pattern)

	// loading twice reports every duplicate
	err := b.LoadAllRoutes()
	require.Error(t, err)
	assert.ErrorIs(t, err, enforcer.ErrDuplicatePathAndMethod)
}
