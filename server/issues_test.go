// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-issuetracker/model"
)

func assigneeLoad(id int64, username string, numIssues int) *model.AssigneeLoad {
	return &model.AssigneeLoad{User: *testUser(id, username, model.RoleAssignee), NumIssues: numIssues}
}

// stubRandIntn makes the random assignee pick deterministic.
func stubRandIntn(t *testing.T, pick int) {
	old := randIntn
	randIntn = func(n int) int {
		require.Less(t, pick, n)
		return pick
	}
	t.Cleanup(func() { randIntn = old })
}

func TestCreateIssue(t *testing.T) {
	validForm := url.Values{"title": {" Login broken "}, "description": {"Cannot log in"}}

	t.Run("anonymous is sent to login", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.serve(newFormRequest(http.MethodPost, "/projects/1/issues/create/", validForm))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/accounts/login/?next="))
	})

	t.Run("GET redirects to the project", func(t *testing.T) {
		ts := newTestServer(t)
		ts.projects.EXPECT().Get(int64(1)).Return(testProject(1, "alpha"), nil)

		req := httptest.NewRequest(http.MethodGet, "/projects/1/issues/create/", nil)
		ts.signIn(t, req, testUser(3, "rep", model.RoleReporter))
		w := ts.serve(req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/projects/1/", w.Header().Get("Location"))
	})

	t.Run("unknown project", func(t *testing.T) {
		ts := newTestServer(t)
		ts.projects.EXPECT().Get(int64(42)).Return(nil, nil)

		req := newFormRequest(http.MethodPost, "/projects/42/issues/create/", validForm)
		ts.signIn(t, req, testUser(3, "rep", model.RoleReporter))
		w := ts.serve(req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("reporter gets a least loaded assignee", func(t *testing.T) {
		ts := newTestServer(t)
		stubRandIntn(t, 1)
		ts.projects.EXPECT().Get(int64(1)).Return(testProject(1, "alpha"), nil)
		ts.users.EXPECT().ListAssigneeLoads().Return([]*model.AssigneeLoad{
			assigneeLoad(4, "ann", 1),
			assigneeLoad(5, "bob", 1),
			assigneeLoad(6, "cid", 3),
		}, nil)
		ts.issues.EXPECT().Save(gomock.Any()).DoAndReturn(func(issue *model.Issue) (*model.Issue, error) {
			assert.Equal(t, "Login broken", issue.Title)
			assert.Equal(t, "Cannot log in", issue.Description)
			assert.Equal(t, model.StatusTodo, issue.Status)
			assert.Equal(t, int64(1), issue.ProjectID)
			require.NotNil(t, issue.AuthorID)
			assert.Equal(t, int64(3), *issue.AuthorID)
			require.NotNil(t, issue.AssigneeID)
			assert.Equal(t, int64(5), *issue.AssigneeID)
			issue.ID = 10
			return issue, nil
		})

		req := newFormRequest(http.MethodPost, "/projects/1/issues/create/", validForm)
		ts.signIn(t, req, testUser(3, "rep", model.RoleReporter))
		w := ts.serve(req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/projects/1/", w.Header().Get("Location"))
	})

	t.Run("admin picks the assignee", func(t *testing.T) {
		ts := newTestServer(t)
		ts.projects.EXPECT().Get(int64(1)).Return(testProject(1, "alpha"), nil)
		ts.users.EXPECT().Get(int64(6)).Return(testUser(6, "cid", model.RoleAssignee), nil)
		ts.issues.EXPECT().Save(gomock.Any()).DoAndReturn(func(issue *model.Issue) (*model.Issue, error) {
			require.NotNil(t, issue.AssigneeID)
			assert.Equal(t, int64(6), *issue.AssigneeID)
			issue.ID = 11
			return issue, nil
		})

		form := url.Values{"title": {"Pick me"}, "description": {"d"}, "assignee": {"6"}}
		req := newFormRequest(http.MethodPost, "/projects/1/issues/create/", form)
		ts.signIn(t, req, testUser(1, "boss", model.RoleAdmin))
		w := ts.serve(req)
		assert.Equal(t, http.StatusFound, w.Code)
	})

	t.Run("no assignees leaves the issue unassigned", func(t *testing.T) {
		ts := newTestServer(t)
		ts.projects.EXPECT().Get(int64(1)).Return(testProject(1, "alpha"), nil)
		ts.users.EXPECT().ListAssigneeLoads().Return(nil, nil)
		ts.issues.EXPECT().Save(gomock.Any()).DoAndReturn(func(issue *model.Issue) (*model.Issue, error) {
			assert.Nil(t, issue.AssigneeID)
			issue.ID = 12
			return issue, nil
		})

		req := newFormRequest(http.MethodPost, "/projects/1/issues/create/", validForm)
		ts.signIn(t, req, testUser(3, "rep", model.RoleReporter))
		w := ts.serve(req)
		assert.Equal(t, http.StatusFound, w.Code)
	})

	t.Run("htmx success returns a clean form", func(t *testing.T) {
		ts := newTestServer(t)
		ts.projects.EXPECT().Get(int64(1)).Return(testProject(1, "alpha"), nil)
		ts.users.EXPECT().ListAssigneeLoads().Return([]*model.AssigneeLoad{assigneeLoad(4, "ann", 0)}, nil)
		ts.issues.EXPECT().Save(gomock.Any()).DoAndReturn(func(issue *model.Issue) (*model.Issue, error) {
			issue.ID = 13
			return issue, nil
		})

		req := htmx(newFormRequest(http.MethodPost, "/projects/1/issues/create/", validForm))
		ts.signIn(t, req, testUser(3, "rep", model.RoleReporter))
		w := ts.serve(req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "issueCreated", w.Header().Get("HX-Trigger"))
		body := w.Body.String()
		assert.NotContains(t, body, "<html")
		assert.Contains(t, body, `id="issue-form-container"`)
		assert.NotContains(t, body, "Login broken")
		assert.NotContains(t, body, "issue-title-error")
	})

	t.Run("htmx validation errors", func(t *testing.T) {
		ts := newTestServer(t)
		ts.projects.EXPECT().Get(int64(1)).Return(testProject(1, "alpha"), nil)

		form := url.Values{"title": {strings.Repeat("x", model.IssueTitleMaxLength+1)}, "description": {"  "}}
		req := htmx(newFormRequest(http.MethodPost, "/projects/1/issues/create/", form))
		ts.signIn(t, req, testUser(3, "rep", model.RoleReporter))
		w := ts.serve(req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("HX-Trigger"))
		body := w.Body.String()
		assert.Contains(t, body, `data-testid="issue-title-error"`)
		assert.Contains(t, body, "Ensure this value has at most 200 characters.")
		assert.Contains(t, body, `data-testid="issue-description-error"`)
	})

	t.Run("validation errors without htmx render the project page", func(t *testing.T) {
		ts := newTestServer(t)
		ts.projects.EXPECT().Get(int64(1)).Return(testProject(1, "alpha"), nil)
		ts.issues.EXPECT().ListByProject(int64(1)).Return(nil, nil)

		req := newFormRequest(http.MethodPost, "/projects/1/issues/create/", url.Values{"description": {"only"}})
		ts.signIn(t, req, testUser(3, "rep", model.RoleReporter))
		w := ts.serve(req)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "<html")
		assert.Contains(t, body, `data-testid="issue-title-error"`)
		assert.Contains(t, body, "only")
	})
}

func TestIssueList(t *testing.T) {
	issues := []*model.Issue{
		{ID: 2, ProjectID: 1, ProjectName: "alpha", Title: "Newest", Description: "d", Status: model.StatusInProgress},
		{ID: 1, ProjectID: 1, ProjectName: "alpha", Title: "Oldest", Description: "d", Status: model.StatusTodo},
	}

	t.Run("page", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().List().Return(issues, nil)

		w := ts.serve(httptest.NewRequest(http.MethodGet, "/issues/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "<html")
		assert.Equal(t, 2, strings.Count(body, `data-testid="issue-item"`))
		assert.Less(t, strings.Index(body, "Newest"), strings.Index(body, "Oldest"))
		assert.Contains(t, body, `href="/projects/1/"`)
	})

	t.Run("htmx partial", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().List().Return(nil, nil)

		w := ts.serve(htmx(httptest.NewRequest(http.MethodGet, "/issues/", nil)))
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "<html")
		assert.Contains(t, w.Body.String(), `data-testid="no-issues"`)
	})
}

func TestIssueDetail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		ts := newTestServer(t)
		author := "rep"
		ts.issues.EXPECT().Get(int64(5)).Return(&model.Issue{
			ID: 5, ProjectID: 1, ProjectName: "alpha", Title: "Crash", Description: "On start",
			Status: model.StatusDone, AuthorUsername: &author,
		}, nil)
		ts.comments.EXPECT().ListByIssue(int64(5)).Return(nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/issues/5/", nil)
		ts.signIn(t, req, testUser(4, "ann", model.RoleAssignee))
		w := ts.serve(req)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `data-testid="issue-container"`)
		assert.Contains(t, body, "Crash")
		assert.Contains(t, body, "Unassigned")
		assert.Contains(t, body, `data-testid="status-form"`)
		assert.Contains(t, body, `data-testid="comment-form"`)
	})

	t.Run("not found", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().Get(int64(5)).Return(nil, nil)

		w := ts.serve(httptest.NewRequest(http.MethodGet, "/issues/5/", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestChangeStatus(t *testing.T) {
	newIssue := func() *model.Issue {
		return &model.Issue{ID: 5, ProjectID: 1, Title: "Crash", Description: "d", Status: model.StatusTodo}
	}

	t.Run("reporter is forbidden", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().Get(int64(5)).Return(newIssue(), nil)

		req := htmx(newFormRequest(http.MethodPost, "/issues/5/change-status/", url.Values{"status": {"done"}}))
		ts.signIn(t, req, testUser(3, "rep", model.RoleReporter))
		w := ts.serve(req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Only assignees and admins can change status.", w.Body.String())
	})

	t.Run("htmx returns the new badge", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().Get(int64(5)).Return(newIssue(), nil)
		ts.issues.EXPECT().UpdateStatus(int64(5), model.StatusInProgress).Return(nil)

		req := htmx(newFormRequest(http.MethodPost, "/issues/5/change-status/", url.Values{"status": {"in_progress"}}))
		ts.signIn(t, req, testUser(4, "ann", model.RoleAssignee))
		w := ts.serve(req)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `id="status-badge-5"`)
		assert.Contains(t, body, `data-status="in_progress"`)
		assert.Contains(t, body, "In Progress")
	})

	t.Run("invalid status is ignored", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().Get(int64(5)).Return(newIssue(), nil)

		req := htmx(newFormRequest(http.MethodPost, "/issues/5/change-status/", url.Values{"status": {"closed"}}))
		ts.signIn(t, req, testUser(1, "boss", model.RoleAdmin))
		w := ts.serve(req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `data-status="todo"`)
	})

	t.Run("without htmx redirects to the issue", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().Get(int64(5)).Return(newIssue(), nil)
		ts.issues.EXPECT().UpdateStatus(int64(5), model.StatusDone).Return(nil)

		req := newFormRequest(http.MethodPost, "/issues/5/change-status/", url.Values{"status": {"done"}})
		ts.signIn(t, req, testUser(1, "boss", model.RoleAdmin))
		w := ts.serve(req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/issues/5/", w.Header().Get("Location"))
	})

	t.Run("GET redirects to the issue", func(t *testing.T) {
		ts := newTestServer(t)
		ts.issues.EXPECT().Get(int64(5)).Return(newIssue(), nil)

		req := httptest.NewRequest(http.MethodGet, "/issues/5/change-status/", nil)
		ts.signIn(t, req, testUser(1, "boss", model.RoleAdmin))
		w := ts.serve(req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/issues/5/", w.Header().Get("Location"))
	})
}
