// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"context"
	"time"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

const (
	cleanupLockKey = "session-cleanup"
	lockTimeout    = 30 * time.Second

	// limiterIdleTime is how long a client address is remembered after its
	// last login attempt.
	limiterIdleTime = time.Hour
)

func (s *Server) startCron() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.Config.SessionCleanupSchedule, s.CleanupSessions); err != nil {
		return errors.Wrap(err, "failed adding CleanupSessions cron")
	}
	s.cron.Start()
	return nil
}

// CleanupSessions purges expired sessions and forgets idle login limiter
// entries. Only one instance does the database work at a time.
func (s *Server) CleanupSessions() {
	start := time.Now()
	defer func() {
		s.Metrics.ObserveCronTaskDuration("cleanup_sessions", time.Since(start).Seconds())
	}()

	pruned := s.loginLimiter.Prune(limiterIdleTime)

	deleted, err := s.cleanupExpiredSessions()
	if err != nil {
		s.Metrics.IncreaseCronTaskErrors("cleanup_sessions")
		mlog.Error("Failed to clean up sessions", mlog.Err(err))
		return
	}
	mlog.Info("Cleaned up sessions", mlog.Int64("deleted", deleted), mlog.Int("limiter_entries_pruned", pruned))
}

func (s *Server) cleanupExpiredSessions() (int64, error) {
	mutex, err := s.Store.Mutex(cleanupLockKey)
	if err != nil {
		return 0, errors.Wrap(err, "could not create cleanup lock")
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	if err = mutex.Lock(ctx); err != nil {
		return 0, errors.Wrap(err, "could not take cleanup lock")
	}
	defer func() {
		if uerr := mutex.Unlock(); uerr != nil {
			mlog.Warn("Failed to release cleanup lock", mlog.Err(uerr))
		}
	}()

	return s.Sessions.DeleteExpired(time.Now().UTC())
}
