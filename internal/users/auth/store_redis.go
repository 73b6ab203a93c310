// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shelfmark/shelfmark/internal/platform/apperr"
	"github.com/shelfmark/shelfmark/internal/platform/constants"
)

// RedisSessionRepository stores refresh sessions in Redis.
//
// # Layout
//
//	auth:session:<tokenHash>      → JSON session, TTL = refresh lifetime
//	auth:session:user:<userID>    → set of the user's token hashes
//
// The per-user set enables global sign-out without scanning the keyspace.
// Set members may outlive their session keys; RevokeAll tolerates that.
type RedisSessionRepository struct {
	client *redis.Client
}

func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

func sessionKey(tokenHash string) string {
	return constants.RedisPrefixSession + tokenHash
}

func userSessionsKey(userID string) string {
	return constants.RedisPrefixSession + "user:" + userID
}

func (repository *RedisSessionRepository) Create(context context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return apperr.Internal(err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return apperr.ValidationError("Session expiry must be in the future")
	}

	pipe := repository.client.TxPipeline()
	pipe.Set(context, sessionKey(session.TokenHash), payload, ttl)
	pipe.SAdd(context, userSessionsKey(session.UserID), session.TokenHash)
	pipe.Expire(context, userSessionsKey(session.UserID), ttl)

	if _, err := pipe.Exec(context); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (repository *RedisSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	payload, err := repository.client.Get(context, sessionKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Session")
		}
		return nil, apperr.Internal(err)
	}

	session := &Session{}
	if err := json.Unmarshal(payload, session); err != nil {
		return nil, apperr.Internal(err)
	}

	session.TokenHash = tokenHash
	return session, nil
}

func (repository *RedisSessionRepository) Revoke(context context.Context, tokenHash string) error {
	session, err := repository.FindByTokenHash(context, tokenHash)
	if err != nil {
		// Already gone: revocation is idempotent.
		if apperr.Code(err) == apperr.CodeNotFound {
			return nil
		}
		return err
	}

	pipe := repository.client.TxPipeline()
	pipe.Del(context, sessionKey(tokenHash))
	pipe.SRem(context, userSessionsKey(session.UserID), tokenHash)

	if _, err := pipe.Exec(context); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (repository *RedisSessionRepository) RevokeAll(context context.Context, userID string) error {
	hashes, err := repository.client.SMembers(context, userSessionsKey(userID)).Result()
	if err != nil {
		return apperr.Internal(err)
	}

	pipe := repository.client.TxPipeline()
	for _, hash := range hashes {
		pipe.Del(context, sessionKey(hash))
	}
	pipe.Del(context, userSessionsKey(userID))

	if _, err := pipe.Exec(context); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
