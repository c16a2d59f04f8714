// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mattermost/mattermost-issuetracker/model"
)

const (
	redisSessionPrefix  = "issuetracker:session:"
	redisRequestTimeout = 5 * time.Second
)

// RedisSessionStore keeps sessions in Redis. Keys expire together with the
// session so DeleteExpired has nothing to do.
type RedisSessionStore struct {
	client redis.UniversalClient
}

func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) key(token string) string {
	return redisSessionPrefix + token
}

func (s *RedisSessionStore) Save(session *model.Session) (*model.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisRequestTimeout)
	defer cancel()

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil, fmt.Errorf("could not save session: user=%v, session already expired", session.UserID)
	}

	b, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}

	if err := s.client.Set(ctx, s.key(session.Token), b, ttl).Err(); err != nil {
		return nil, fmt.Errorf("could not save session: user=%v, err=%w", session.UserID, err)
	}
	return session, nil
}

func (s *RedisSessionStore) Get(token string) (*model.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisRequestTimeout)
	defer cancel()

	b, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("could not get session: err=%w", err)
	}

	var session model.Session
	if err := json.Unmarshal(b, &session); err != nil {
		return nil, fmt.Errorf("could not decode session: err=%w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisRequestTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("could not delete session: err=%w", err)
	}
	return nil
}

func (s *RedisSessionStore) DeleteExpired(time.Time) (int64, error) {
	return 0, nil
}

// Ping checks the connection to the Redis server.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
