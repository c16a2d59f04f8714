// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"database/sql"
	"fmt"

	"github.com/mattermost/mattermost-issuetracker/model"
)

type SQLProjectStore struct {
	*SQLStore
}

func NewSQLProjectStore(sqlStore *SQLStore) ProjectStore {
	return &SQLProjectStore{sqlStore}
}

func (s SQLProjectStore) Save(project *model.Project) (*model.Project, error) {
	project.PreSave()
	if appErr := project.IsValid(); appErr != nil {
		return nil, appErr
	}

	res, err := s.dbx.NamedExec(
		`INSERT INTO Projects (Name, Description, CreatedAt)
		VALUES (:Name, :Description, :CreatedAt)`, project)
	if err != nil {
		return nil, fmt.Errorf("could not insert project: name=%v, err=%w", project.Name, err)
	}

	if project.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("could not read project id: name=%v, err=%w", project.Name, err)
	}
	return project, nil
}

func (s SQLProjectStore) Get(id int64) (*model.Project, error) {
	var project model.Project
	if err := s.dbx.Get(&project, `SELECT * FROM Projects WHERE Id = ?`, id); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("could not get project: id=%v, err=%w", id, err)
		}
		return nil, nil // row not found.
	}
	return &project, nil
}

func (s SQLProjectStore) List() ([]*model.Project, error) {
	var projects []*model.Project
	if err := s.dbx.Select(&projects, `SELECT * FROM Projects ORDER BY CreatedAt DESC, Id DESC`); err != nil {
		return nil, fmt.Errorf("could not list projects: %w", err)
	}
	return projects, nil
}

func (s SQLProjectStore) Delete(id int64) error {
	if _, err := s.dbx.Exec(`DELETE FROM Projects WHERE Id = ?`, id); err != nil {
		return fmt.Errorf("could not delete project: id=%v, err=%w", id, err)
	}
	return nil
}
