// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"fmt"

	"github.com/mattermost/mattermost-issuetracker/model"
)

type SQLCommentStore struct {
	*SQLStore
}

func NewSQLCommentStore(sqlStore *SQLStore) CommentStore {
	return &SQLCommentStore{sqlStore}
}

func (s SQLCommentStore) Save(comment *model.Comment) (*model.Comment, error) {
	comment.PreSave()
	if appErr := comment.IsValid(); appErr != nil {
		return nil, appErr
	}

	res, err := s.dbx.NamedExec(
		`INSERT INTO Comments (IssueId, AuthorId, Text, CreatedAt)
		VALUES (:IssueId, :AuthorId, :Text, :CreatedAt)`, comment)
	if err != nil {
		return nil, fmt.Errorf("could not insert comment: issue=%v, err=%w", comment.IssueID, err)
	}

	if comment.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("could not read comment id: issue=%v, err=%w", comment.IssueID, err)
	}
	return comment, nil
}

func (s SQLCommentStore) ListByIssue(issueID int64) ([]*model.Comment, error) {
	var comments []*model.Comment
	if err := s.dbx.Select(&comments,
		`SELECT
				c.*, u.Username AS AuthorUsername, i.Title AS IssueTitle
			FROM
				Comments c
				INNER JOIN Users u ON u.Id = c.AuthorId
				INNER JOIN Issues i ON i.Id = c.IssueId
			WHERE
				c.IssueId = ?
			ORDER BY c.Id`, issueID); err != nil {
		return nil, fmt.Errorf("could not list comments: issue=%v, err=%w", issueID, err)
	}
	return comments, nil
}

func (s SQLCommentStore) CountByIssue(issueID int64) (int64, error) {
	var count int64
	if err := s.dbx.Get(&count, `SELECT COUNT(*) FROM Comments WHERE IssueId = ?`, issueID); err != nil {
		return 0, fmt.Errorf("could not count comments: issue=%v, err=%w", issueID, err)
	}
	return count, nil
}
