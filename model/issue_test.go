// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueString(t *testing.T) {
	issue := &Issue{Title: "Test Issue", Status: StatusTodo}
	assert.Equal(t, "[To Do] Test Issue", issue.String())

	issue.Status = StatusInProgress
	assert.Equal(t, "[In Progress] Test Issue", issue.String())
}

func TestStatusChoices(t *testing.T) {
	require.Equal(t, []StatusChoice{
		{StatusTodo, "To Do"},
		{StatusInProgress, "In Progress"},
		{StatusDone, "Done"},
	}, StatusChoices)

	assert.True(t, Status("done").IsValid())
	assert.False(t, Status("closed").IsValid())
	assert.Equal(t, "closed", Status("closed").Label())
}

func TestIssuePreSave(t *testing.T) {
	issue := &Issue{Title: "  padded  ", Description: " body "}
	issue.PreSave()

	assert.Equal(t, "padded", issue.Title)
	assert.Equal(t, "body", issue.Description)
	assert.Equal(t, StatusTodo, issue.Status)
	assert.False(t, issue.CreatedAt.IsZero())
	assert.Equal(t, issue.CreatedAt, issue.UpdatedAt)
}

func TestIssueIsValid(t *testing.T) {
	valid := func() *Issue {
		return &Issue{ProjectID: 1, Title: "title", Description: "description", Status: StatusTodo}
	}

	t.Run("valid", func(t *testing.T) {
		require.Nil(t, valid().IsValid())
	})

	t.Run("missing title", func(t *testing.T) {
		issue := valid()
		issue.Title = ""
		appErr := issue.IsValid()
		require.NotNil(t, appErr)
		assert.Equal(t, "title", appErr.Params["Field"])
	})

	t.Run("title too long", func(t *testing.T) {
		issue := valid()
		issue.Title = strings.Repeat("a", IssueTitleMaxLength+1)
		appErr := issue.IsValid()
		require.NotNil(t, appErr)
		assert.Equal(t, "model.issue.is_valid.title.too_long", appErr.ID)
	})

	t.Run("missing description", func(t *testing.T) {
		issue := valid()
		issue.Description = ""
		appErr := issue.IsValid()
		require.NotNil(t, appErr)
		assert.Equal(t, "description", appErr.Params["Field"])
	})

	t.Run("unknown status", func(t *testing.T) {
		issue := valid()
		issue.Status = "closed"
		require.NotNil(t, issue.IsValid())
	})

	t.Run("every invalid field", func(t *testing.T) {
		issue := &Issue{ProjectID: 1, Status: StatusTodo}
		errs := issue.Validate()
		require.Len(t, errs, 2)
		assert.Equal(t, "title", errs[0].Params["Field"])
		assert.Equal(t, "description", errs[1].Params["Field"])
		assert.Equal(t, errs[0], issue.IsValid())
	})
}

func TestCommentString(t *testing.T) {
	c := &Comment{AuthorUsername: "testuser", IssueTitle: "Test Issue"}
	assert.Equal(t, "Comment by testuser on Test Issue", c.String())
}

func TestCommentIsValid(t *testing.T) {
	c := &Comment{IssueID: 1, AuthorID: 2, Text: "   "}
	c.PreSave()
	require.NotNil(t, c.IsValid())

	c.Text = "hello"
	require.Nil(t, c.IsValid())
}

func TestProjectIsValid(t *testing.T) {
	p := &Project{Name: "Test Project", Description: "Test Description"}
	p.PreSave()
	require.Nil(t, p.IsValid())
	assert.Equal(t, "Test Project", p.String())

	p.Name = strings.Repeat("x", ProjectNameMaxLength+1)
	require.NotNil(t, p.IsValid())
}
