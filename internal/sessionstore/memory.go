package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/Ryan-Har/commonground/pkg/models"
	"github.com/google/uuid"
)

type memoryEntry struct {
	session   models.Session
	revokedAt time.Time
}

type inMemorySessionStore struct {
	*baseSessionStore
	sessions map[string]*memoryEntry // sessionID -> entry
	mutex    *sync.Mutex
}

func (s *inMemorySessionStore) Create(ctx context.Context, args models.CreateSessionParams) (*models.Session, error) {
	s.log.Debug("creating session", "account_id", args.AccountID)

	if err := s.ctxDone(ctx, "session creation"); err != nil {
		return nil, err
	}

	sess, err := s.newSession(args)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	s.sessions[sess.ID] = &memoryEntry{session: *sess}
	s.mutex.Unlock()

	s.record("created", 1)
	out := *sess
	return &out, nil
}

func (s *inMemorySessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	if err := s.ctxDone(ctx, "session get"); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, sessionNotFound(sessionID)
	}
	out := entry.session
	return &out, nil
}

func (s *inMemorySessionStore) Revoke(ctx context.Context, sessionID string) error {
	if err := s.ctxDone(ctx, "session revoke"); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entry, ok := s.sessions[sessionID]; ok && !entry.session.Revoked {
		entry.session.Revoked = true
		entry.revokedAt = s.now()
		s.record("revoked", 1)
	}
	return nil
}

func (s *inMemorySessionStore) RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	s.log.Debug("revoking sessions for account", "account_id", accountID)

	if err := s.ctxDone(ctx, "session revoke"); err != nil {
		return 0, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	var n int64
	for _, entry := range s.sessions {
		if entry.session.AccountID == accountID && !entry.session.Revoked {
			entry.session.Revoked = true
			entry.revokedAt = now
			n++
		}
	}
	s.record("revoked", n)
	return n, nil
}

func (s *inMemorySessionStore) CleanupExpired(ctx context.Context) (int64, error) {
	if err := s.ctxDone(ctx, "session cleanup"); err != nil {
		return 0, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := s.purgeBefore()
	var n int64
	for k, entry := range s.sessions {
		stale := entry.session.ExpiresAt.Before(cutoff) ||
			(entry.session.Revoked && entry.revokedAt.Before(cutoff))
		if stale {
			delete(s.sessions, k)
			n++
		}
	}
	s.record("purged", n)
	return n, nil
}
