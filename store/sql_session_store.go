// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mattermost/mattermost-issuetracker/model"
)

type SQLSessionStore struct {
	*SQLStore
}

func NewSQLSessionStore(sqlStore *SQLStore) SessionStore {
	return &SQLSessionStore{sqlStore}
}

func (s SQLSessionStore) Save(session *model.Session) (*model.Session, error) {
	if _, err := s.dbx.NamedExec(
		`INSERT INTO Sessions (Token, UserId, CreatedAt, ExpiresAt)
		VALUES (:Token, :UserId, :CreatedAt, :ExpiresAt)`, session); err != nil {
		return nil, fmt.Errorf("could not insert session: user=%v, err=%w", session.UserID, err)
	}
	return session, nil
}

func (s SQLSessionStore) Get(token string) (*model.Session, error) {
	var session model.Session
	if err := s.dbx.Get(&session, `SELECT * FROM Sessions WHERE Token = ?`, token); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("could not get session: err=%w", err)
		}
		return nil, nil // row not found.
	}
	return &session, nil
}

func (s SQLSessionStore) Delete(token string) error {
	if _, err := s.dbx.Exec(`DELETE FROM Sessions WHERE Token = ?`, token); err != nil {
		return fmt.Errorf("could not delete session: err=%w", err)
	}
	return nil
}

func (s SQLSessionStore) DeleteExpired(now time.Time) (int64, error) {
	res, err := s.dbx.Exec(`DELETE FROM Sessions WHERE ExpiresAt <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("could not delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
