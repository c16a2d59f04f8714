// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"database/sql"
	"fmt"

	"github.com/mattermost/mattermost-issuetracker/model"
)

type SQLUserStore struct {
	*SQLStore
}

func NewSQLUserStore(sqlStore *SQLStore) UserStore {
	return &SQLUserStore{sqlStore}
}

func (s SQLUserStore) Save(user *model.User) (*model.User, error) {
	user.PreSave()
	if appErr := user.IsValid(); appErr != nil {
		return nil, appErr
	}

	res, err := s.dbx.NamedExec(
		`INSERT INTO Users
			(Username, Email, Password, Role, IsActive, IsSuperuser, DateJoined, LastLogin)
		VALUES
			(:Username, :Email, :Password, :Role, :IsActive, :IsSuperuser, :DateJoined, :LastLogin)`, user)
	if isDuplicateEntry(err) {
		return nil, fmt.Errorf("could not insert user: username=%v: %w", user.Username, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("could not insert user: username=%v, err=%w", user.Username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not read user id: username=%v, err=%w", user.Username, err)
	}
	user.ID = id
	return user, nil
}

func (s SQLUserStore) Update(user *model.User) (*model.User, error) {
	if user.IsSuperuser {
		user.Role = model.RoleAdmin
	}
	if appErr := user.IsValid(); appErr != nil {
		return nil, appErr
	}

	if _, err := s.dbx.NamedExec(
		`UPDATE Users
		 SET Username = :Username, Email = :Email, Password = :Password, Role = :Role,
			 IsActive = :IsActive, IsSuperuser = :IsSuperuser, LastLogin = :LastLogin
		 WHERE Id = :Id`, user); err != nil {
		return nil, fmt.Errorf("could not update user: id=%v, err=%w", user.ID, err)
	}
	return user, nil
}

func (s SQLUserStore) Get(id int64) (*model.User, error) {
	var user model.User
	if err := s.dbx.Get(&user, `SELECT * FROM Users WHERE Id = ?`, id); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("could not get user: id=%v, err=%w", id, err)
		}
		return nil, nil // row not found.
	}
	return &user, nil
}

func (s SQLUserStore) GetByUsername(username string) (*model.User, error) {
	var user model.User
	if err := s.dbx.Get(&user, `SELECT * FROM Users WHERE Username = ?`, username); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("could not get user: username=%v, err=%w", username, err)
		}
		return nil, nil // row not found.
	}
	return &user, nil
}

func (s SQLUserStore) List() ([]*model.User, error) {
	var users []*model.User
	if err := s.dbx.Select(&users, `SELECT * FROM Users ORDER BY Username`); err != nil {
		return nil, fmt.Errorf("could not list users: %w", err)
	}
	return users, nil
}

func (s SQLUserStore) ListByRole(role model.Role) ([]*model.User, error) {
	var users []*model.User
	if err := s.dbx.Select(&users,
		`SELECT
				*
			FROM
				Users
			WHERE
				Role = ?
				AND IsActive = 1
			ORDER BY Username`, role); err != nil {
		return nil, fmt.Errorf("could not list users: role=%v, err=%w", role, err)
	}
	return users, nil
}

func (s SQLUserStore) ListAssigneeLoads() ([]*model.AssigneeLoad, error) {
	var loads []*model.AssigneeLoad
	if err := s.dbx.Select(&loads,
		`SELECT
				u.*, COUNT(i.Id) AS NumIssues
			FROM
				Users u
				LEFT JOIN Issues i ON i.AssigneeId = u.Id
			WHERE
				u.Role = ?
				AND u.IsActive = 1
			GROUP BY u.Id
			ORDER BY NumIssues, u.Id`, model.RoleAssignee); err != nil {
		return nil, fmt.Errorf("could not list assignee loads: %w", err)
	}
	return loads, nil
}
