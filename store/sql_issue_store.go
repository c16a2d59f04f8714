// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mattermost/mattermost-issuetracker/model"
)

const issueSelect = `SELECT
		i.*,
		p.Name AS ProjectName,
		au.Username AS AuthorUsername,
		asg.Username AS AssigneeUsername
	FROM
		Issues i
		INNER JOIN Projects p ON p.Id = i.ProjectId
		LEFT JOIN Users au ON au.Id = i.AuthorId
		LEFT JOIN Users asg ON asg.Id = i.AssigneeId`

type SQLIssueStore struct {
	*SQLStore
}

func NewSQLIssueStore(sqlStore *SQLStore) IssueStore {
	return &SQLIssueStore{sqlStore}
}

func (s SQLIssueStore) Save(issue *model.Issue) (*model.Issue, error) {
	issue.PreSave()
	if appErr := issue.IsValid(); appErr != nil {
		return nil, appErr
	}

	res, err := s.dbx.NamedExec(
		`INSERT INTO Issues
			(ProjectId, Title, Description, Status, AssigneeId, AuthorId, ExternalRef, CreatedAt, UpdatedAt)
		VALUES
			(:ProjectId, :Title, :Description, :Status, :AssigneeId, :AuthorId, :ExternalRef, :CreatedAt, :UpdatedAt)`, issue)
	if err != nil {
		return nil, fmt.Errorf("could not insert issue: project=%v, title=%v, err=%w", issue.ProjectID, issue.Title, err)
	}

	if issue.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("could not read issue id: project=%v, err=%w", issue.ProjectID, err)
	}
	return issue, nil
}

func (s SQLIssueStore) Get(id int64) (*model.Issue, error) {
	var issue model.Issue
	if err := s.dbx.Get(&issue, issueSelect+` WHERE i.Id = ?`, id); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("could not get issue: id=%v, err=%w", id, err)
		}
		return nil, nil // row not found.
	}
	return &issue, nil
}

func (s SQLIssueStore) GetByExternalRef(projectID int64, ref string) (*model.Issue, error) {
	var issue model.Issue
	if err := s.dbx.Get(&issue, issueSelect+` WHERE i.ProjectId = ? AND i.ExternalRef = ?`, projectID, ref); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("could not get issue: project=%v, ref=%v, err=%w", projectID, ref, err)
		}
		return nil, nil // row not found.
	}
	return &issue, nil
}

func (s SQLIssueStore) UpdateStatus(id int64, status model.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid issue status %q", status)
	}
	if _, err := s.dbx.Exec(`UPDATE Issues SET Status = ?, UpdatedAt = ? WHERE Id = ?`, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("could not update issue status: id=%v, status=%v, err=%w", id, status, err)
	}
	return nil
}

func (s SQLIssueStore) ListByProject(projectID int64) ([]*model.Issue, error) {
	var issues []*model.Issue
	if err := s.dbx.Select(&issues, issueSelect+` WHERE i.ProjectId = ? ORDER BY i.Id`, projectID); err != nil {
		return nil, fmt.Errorf("could not list issues: project=%v, err=%w", projectID, err)
	}
	return issues, nil
}

func (s SQLIssueStore) List() ([]*model.Issue, error) {
	var issues []*model.Issue
	if err := s.dbx.Select(&issues, issueSelect+` ORDER BY i.CreatedAt DESC, i.Id DESC`); err != nil {
		return nil, fmt.Errorf("could not list issues: %w", err)
	}
	return issues, nil
}

func (s SQLIssueStore) Delete(id int64) error {
	if _, err := s.dbx.Exec(`DELETE FROM Issues WHERE Id = ?`, id); err != nil {
		return fmt.Errorf("could not delete issue: id=%v, err=%w", id, err)
	}
	return nil
}
