// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-issuetracker/model"
)

func TestAddComment(t *testing.T) {
	issue := &model.Issue{ID: 5, ProjectID: 1, Title: "Crash", Description: "d", Status: model.StatusTodo}
	existing := &model.Comment{ID: 1, IssueID: 5, AuthorID: 4, Text: "First!", AuthorUsername: "ann", CreatedAt: time.Now()}

	t.Run("reporter is forbidden", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().Get(int64(5)).Return(issue, nil)

		req := newFormRequest(http.MethodPost, "/issues/5/comments/add/", url.Values{"text": {"hi"}})
		ts.signIn(t, req, testUser(3, "rep", model.RoleReporter))
		w := ts.serve(req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Only assignees and admins can comment.")
	})

	t.Run("anonymous is sent to login", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.serve(newFormRequest(http.MethodPost, "/issues/5/comments/add/", url.Values{"text": {"hi"}}))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/accounts/login/?next=%2Fissues%2F5%2Fcomments%2Fadd%2F", w.Header().Get("Location"))
	})

	t.Run("unknown issue", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().Get(int64(8)).Return(nil, nil)

		req := newFormRequest(http.MethodPost, "/issues/8/comments/add/", url.Values{"text": {"hi"}})
		ts.signIn(t, req, testUser(4, "ann", model.RoleAssignee))
		w := ts.serve(req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("without htmx redirects to the project", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().Get(int64(5)).Return(issue, nil)
		ts.comments.EXPECT().Save(gomock.Any()).DoAndReturn(func(c *model.Comment) (*model.Comment, error) {
			assert.Equal(t, int64(5), c.IssueID)
			assert.Equal(t, int64(4), c.AuthorID)
			assert.Equal(t, "Working on it", c.Text)
			c.ID = 2
			return c, nil
		})

		req := newFormRequest(http.MethodPost, "/issues/5/comments/add/", url.Values{"text": {"  Working on it  "}})
		ts.signIn(t, req, testUser(4, "ann", model.RoleAssignee))
		w := ts.serve(req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/projects/1/", w.Header().Get("Location"))
	})

	t.Run("legacy content field", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().Get(int64(5)).Return(issue, nil)
		ts.comments.EXPECT().Save(gomock.Any()).DoAndReturn(func(c *model.Comment) (*model.Comment, error) {
			assert.Equal(t, "Old form", c.Text)
			return c, nil
		})

		req := newFormRequest(http.MethodPost, "/issues/5/comments/add/", url.Values{"content": {"Old form"}})
		ts.signIn(t, req, testUser(1, "boss", model.RoleAdmin))
		w := ts.serve(req)
		assert.Equal(t, http.StatusFound, w.Code)
	})

	t.Run("htmx returns the updated section", func(t *testing.T) {
		ts := newTestServer(t)
		added := &model.Comment{ID: 2, IssueID: 5, AuthorID: 4, Text: "Working on it", AuthorUsername: "ann", CreatedAt: time.Now()}
		ts.issues.EXPECT().Get(int64(5)).Return(issue, nil)
		ts.comments.EXPECT().Save(gomock.Any()).Return(added, nil)
		ts.comments.EXPECT().ListByIssue(int64(5)).Return([]*model.Comment{existing, added}, nil)

		req := htmx(newFormRequest(http.MethodPost, "/issues/5/comments/add/", url.Values{"text": {"Working on it"}}))
		ts.signIn(t, req, testUser(4, "ann", model.RoleAssignee))
		w := ts.serve(req)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.NotContains(t, body, "<html")
		assert.Contains(t, body, `id="comments-section-5"`)
		assert.Equal(t, 2, strings.Count(body, `data-testid="comment-item"`))
		assert.Contains(t, body, "2 comments")
		assert.Contains(t, body, `id="issue-comment-count-5" hx-swap-oob="true"`)
		assert.NotContains(t, body, `data-testid="comment-error"`)
	})

	t.Run("htmx empty comment shows an error", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().Get(int64(5)).Return(issue, nil)
		ts.comments.EXPECT().ListByIssue(int64(5)).Return([]*model.Comment{existing}, nil)

		req := htmx(newFormRequest(http.MethodPost, "/issues/5/comments/add/", url.Values{"text": {"   "}}))
		ts.signIn(t, req, testUser(4, "ann", model.RoleAssignee))
		w := ts.serve(req)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `data-testid="comment-error"`)
		assert.Contains(t, body, "This field is required.")
		assert.NotContains(t, body, "hx-swap-oob")
	})

	t.Run("empty comment without htmx redirects", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().Get(int64(5)).Return(issue, nil)

		req := newFormRequest(http.MethodPost, "/issues/5/comments/add/", url.Values{"text": {""}})
		ts.signIn(t, req, testUser(4, "ann", model.RoleAssignee))
		w := ts.serve(req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/projects/1/", w.Header().Get("Location"))
	})
}
