// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package model

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Comment struct {
	ID        int64     `db:"Id"`
	IssueID   int64     `db:"IssueId"`
	AuthorID  int64     `db:"AuthorId"`
	Text      string    `db:"Text"`
	CreatedAt time.Time `db:"CreatedAt"`

	AuthorUsername string `db:"AuthorUsername"`
	IssueTitle     string `db:"IssueTitle"`
}

func (c *Comment) PreSave() {
	c.Text = strings.TrimSpace(c.Text)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
}

func (c *Comment) IsValid() *AppError {
	if c.Text == "" {
		return NewAppError("Comment.IsValid", "model.comment.is_valid.text.required", map[string]interface{}{"Field": "text"}, "", http.StatusBadRequest)
	}
	if c.IssueID == 0 || c.AuthorID == 0 {
		return NewAppError("Comment.IsValid", "model.comment.is_valid.relations.app_error", nil, fmt.Sprintf("issue=%d author=%d", c.IssueID, c.AuthorID), http.StatusBadRequest)
	}
	return nil
}

func (c *Comment) String() string {
	return fmt.Sprintf("Comment by %s on %s", c.AuthorUsername, c.IssueTitle)
}
