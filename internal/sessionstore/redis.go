package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/pkg/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisSessionStore keeps one JSON record per session with a TTL of
// lifetime plus retention, so Redis does the purging itself. A set per
// account indexes its session ids for RevokeAllForAccount.
type redisSessionStore struct {
	*baseSessionStore
	client redis.UniversalClient
	prefix string
}

type redisRecord struct {
	ID        string     `json:"id"`
	AccountID uuid.UUID  `json:"accountId"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Revoked   bool       `json:"revoked"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	IpAddress *string    `json:"ipAddress,omitempty"`
	UserAgent *string    `json:"userAgent,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (r *redisRecord) toModel() *models.Session {
	return &models.Session{
		ID:        r.ID,
		AccountID: r.AccountID,
		ExpiresAt: r.ExpiresAt,
		Revoked:   r.Revoked,
		IpAddress: r.IpAddress,
		UserAgent: r.UserAgent,
		CreatedAt: r.CreatedAt,
	}
}

func (s *redisSessionStore) sessionKey(id string) string {
	return s.prefix + "session:" + id
}

func (s *redisSessionStore) accountKey(id uuid.UUID) string {
	return s.prefix + "account:" + id.String() + ":sessions"
}

func (s *redisSessionStore) Create(ctx context.Context, args models.CreateSessionParams) (*models.Session, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed redis command", "method", "create session")()

	sess, err := s.newSession(args)
	if err != nil {
		return nil, err
	}

	rec := redisRecord{
		ID:        sess.ID,
		AccountID: sess.AccountID,
		ExpiresAt: sess.ExpiresAt,
		IpAddress: sess.IpAddress,
		UserAgent: sess.UserAgent,
		CreatedAt: sess.CreatedAt,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, logutil.LogAndWrapErr(s.log, "failed to create session",
			models.NewTransformationError(err.Error()))
	}

	ttl := s.tokenDuration + s.retention
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(sess.ID), data, ttl)
		pipe.SAdd(ctx, s.accountKey(sess.AccountID), sess.ID)
		pipe.Expire(ctx, s.accountKey(sess.AccountID), ttl)
		return nil
	})
	if err != nil {
		return nil, logutil.LogAndWrapErr(s.log, "failed to create session",
			models.NewDatabaseError(err))
	}

	s.record("created", 1)
	return sess, nil
}

func (s *redisSessionStore) load(ctx context.Context, sessionID string) (*redisRecord, error) {
	data, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sessionNotFound(sessionID)
		}
		return nil, models.NewDatabaseError(err)
	}

	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, models.NewTransformationError(fmt.Sprintf("decoding session record: %v", err))
	}
	return &rec, nil
}

func (s *redisSessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed redis command", "method", "get session", "session id", redact(sessionID))()

	rec, err := s.load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, logutil.DebugAndWrapErr(s.log, "failed to get session", err, "session id", redact(sessionID))
	}
	return rec.toModel(), nil
}

// revoke marks one record revoked and shortens its TTL to the retention
// window. It reports whether anything changed.
func (s *redisSessionStore) revoke(ctx context.Context, sessionID string) (bool, error) {
	rec, err := s.load(ctx, sessionID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if rec.Revoked {
		return false, nil
	}

	now := s.now().UTC()
	rec.Revoked = true
	rec.RevokedAt = &now

	key := s.sessionKey(sessionID)
	ttl := s.retention
	if remaining, err := s.client.PTTL(ctx, key).Result(); err == nil && remaining > 0 && remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return true, s.client.Del(ctx, key).Err()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return false, models.NewTransformationError(err.Error())
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return false, models.NewDatabaseError(err)
	}
	return true, nil
}

func (s *redisSessionStore) Revoke(ctx context.Context, sessionID string) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed redis command", "method", "revoke session", "session id", redact(sessionID))()

	changed, err := s.revoke(ctx, sessionID)
	if err != nil {
		return logutil.DebugAndWrapErr(s.log, "failed to revoke session", err, "session id", redact(sessionID))
	}
	if changed {
		s.record("revoked", 1)
	}
	return nil
}

func (s *redisSessionStore) RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed redis command", "method", "revoke account sessions", "account id", accountID)()

	ids, err := s.client.SMembers(ctx, s.accountKey(accountID)).Result()
	if err != nil {
		return 0, logutil.LogAndWrapErr(s.log, "failed to revoke account sessions", models.NewDatabaseError(err))
	}

	var n int64
	for _, id := range ids {
		changed, err := s.revoke(ctx, id)
		if err != nil {
			return n, logutil.LogAndWrapErr(s.log, "failed to revoke account sessions", err)
		}
		if changed {
			n++
		}
	}

	s.record("revoked", n)
	return n, nil
}

// CleanupExpired prunes account index entries whose session record Redis
// has already expired. It returns the number of entries removed.
func (s *redisSessionStore) CleanupExpired(ctx context.Context) (int64, error) {
	var pruned int64
	iter := s.client.Scan(ctx, 0, s.prefix+"account:*:sessions", 100).Iterator()
	for iter.Next(ctx) {
		setKey := iter.Val()
		ids, err := s.client.SMembers(ctx, setKey).Result()
		if err != nil {
			return pruned, models.NewDatabaseError(err)
		}
		for _, id := range ids {
			exists, err := s.client.Exists(ctx, s.sessionKey(id)).Result()
			if err != nil {
				return pruned, models.NewDatabaseError(err)
			}
			if exists == 0 {
				if err := s.client.SRem(ctx, setKey, id).Err(); err != nil {
					return pruned, models.NewDatabaseError(err)
				}
				pruned++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return pruned, models.NewDatabaseError(err)
	}

	s.record("purged", pruned)
	return pruned, nil
}
