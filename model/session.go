// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Session struct {
	Token     string    `db:"Token" json:"token"`
	UserID    int64     `db:"UserId" json:"user_id"`
	CreatedAt time.Time `db:"CreatedAt" json:"created_at"`
	ExpiresAt time.Time `db:"ExpiresAt" json:"expires_at"`
}

// NewSession creates a session for the user valid for the given duration.
func NewSession(userID int64, length time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		Token:     NewToken(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(length),
	}
}

func (s *Session) IsExpired() bool {
	return !time.Now().Before(s.ExpiresAt)
}

// NewToken returns a random 32 character token.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
