// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
)

const (
	lockTableName = "DBLocks"

	// mysqlDuplicateEntry is returned when the lock row already exists.
	mysqlDuplicateEntry = 1062

	minWaitInterval    = 1 * time.Second
	maxWaitInterval    = 5 * time.Minute
	pollWaitInterval   = 1 * time.Second
	jitterWaitInterval = minWaitInterval / 2

	// lockTTL is the interval after which a held lock expires unless refreshed.
	lockTTL         = 15 * time.Second
	refreshInterval = lockTTL / 2
)

// nextWaitInterval backs off exponentially on errors and polls otherwise,
// with jitter so competing instances do not retry in lockstep.
func nextWaitInterval(last time.Duration, err error) time.Duration {
	next := last
	if next <= 0 {
		next = minWaitInterval
	}

	if err != nil {
		next *= 2
		if next > maxWaitInterval {
			next = maxWaitInterval
		}
	} else {
		next = pollWaitInterval
	}

	return next + time.Duration(rand.Int63n(int64(jitterWaitInterval))-int64(jitterWaitInterval)/2) //nolint: gosec
}

// Mutex is a lock held in the database, shared by every tracker instance
// that uses it. It is used to run scheduled jobs on a single instance.
//
// A Mutex must not be copied after first use.
type Mutex struct {
	noCopy
	key string
	db  *sql.DB

	// lock guards the refresh task state, not the database row.
	lock        sync.Mutex
	stopRefresh chan struct{}
	refreshDone chan struct{}
	conn        *sql.Conn
}

// NewMutexStore creates the lock table when needed and returns a mutex
// for the given key.
func NewMutexStore(key string, db *sql.DB) (*Mutex, error) {
	if key == "" {
		return nil, errors.New("mutex key must not be empty")
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (Id varchar(64) NOT NULL, ExpireAt bigint(20) NOT NULL, PRIMARY KEY (Id)) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4", lockTableName)
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("could not create lock table: %w", err)
	}

	return &Mutex{key: key, db: db}, nil
}

// tryLock makes a single attempt to take the lock. An expired lock left by
// a crashed holder is taken over.
func (m *Mutex) tryLock(ctx context.Context) (bool, error) {
	now := time.Now()
	tx, err := m.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer m.finalizeTx(tx)

	query := fmt.Sprintf("INSERT INTO %s (Id, ExpireAt) VALUES (?, ?)", lockTableName)
	if _, err = tx.ExecContext(ctx, query, m.key, now.Add(lockTTL).Unix()); err != nil {
		if isDuplicateEntry(err) {
			mlog.Debug("Lock is held, checking whether it expired", mlog.String("key", m.key))
		}
		m.finalizeTx(tx)

		if takeErr := m.takeExpired(ctx, now); takeErr == nil {
			return true, nil
		}
		return false, fmt.Errorf("failed to lock mutex: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Mutex) takeExpired(ctx context.Context, now time.Time) error {
	tx, err := m.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer m.finalizeTx(tx)

	expireAt, err := m.getExpireAt(ctx, tx)
	if err != nil {
		return err
	}
	if now.Unix() < expireAt {
		return errors.New("lock is still held")
	}

	if err = m.setExpireAt(ctx, tx, now.Add(lockTTL).Unix()); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("unable to take over expired lock: %w", err)
	}
	return nil
}

func (m *Mutex) getExpireAt(ctx context.Context, tx *sql.Tx) (int64, error) {
	var expireAt int64
	query := fmt.Sprintf("SELECT ExpireAt FROM %s WHERE Id = ? FOR UPDATE", lockTableName)
	if err := tx.QueryRowContext(ctx, query, m.key).Scan(&expireAt); err != nil {
		return -1, fmt.Errorf("failed to fetch lock: %w", err)
	}
	return expireAt, nil
}

func (m *Mutex) setExpireAt(ctx context.Context, tx *sql.Tx, expireAt int64) error {
	query := fmt.Sprintf("UPDATE %s SET ExpireAt = ? WHERE Id = ?", lockTableName)
	_, err := tx.ExecContext(ctx, query, expireAt, m.key)
	return err
}

func (m *Mutex) refreshLock(ctx context.Context) error {
	tx, err := m.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer m.finalizeTx(tx)

	if err = m.setExpireAt(ctx, tx, time.Now().Add(lockTTL).Unix()); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("unable to refresh lock: %w", err)
	}
	return nil
}

// Lock blocks until the lock is taken or the context is canceled. While held
// the lock is refreshed in the background.
func (m *Mutex) Lock(ctx context.Context) error {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return err
	}
	m.conn = conn

	var waitInterval time.Duration
	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return ctx.Err()
		case <-time.After(waitInterval):
		}

		ok, err := m.tryLock(ctx)
		if err == nil && ok {
			break
		}
		waitInterval = nextWaitInterval(waitInterval, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(refreshInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if err := m.refreshLock(context.Background()); err != nil {
					mlog.Warn("Failed to refresh lock", mlog.String("key", m.key), mlog.Err(err))
					return
				}
			case <-stop:
				return
			}
		}
	}()

	m.lock.Lock()
	m.stopRefresh = stop
	m.refreshDone = done
	m.lock.Unlock()

	return nil
}

// Unlock releases the lock. It panics when the lock is not held.
func (m *Mutex) Unlock() error {
	m.lock.Lock()
	if m.stopRefresh == nil {
		m.lock.Unlock()
		panic("mutex has not been acquired")
	}

	close(m.stopRefresh)
	m.stopRefresh = nil
	<-m.refreshDone
	m.lock.Unlock()

	defer m.conn.Close()

	// A failed delete still expires after lockTTL.
	query := fmt.Sprintf("DELETE FROM %s WHERE Id = ?", lockTableName)
	_, err := m.conn.ExecContext(context.Background(), query, m.key)
	return err
}

func (m *Mutex) finalizeTx(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		mlog.Debug("failed to rollback transaction", mlog.Err(err))
	}
}

// noCopy may be embedded into structs which must not be copied
// after the first use.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock() {}
