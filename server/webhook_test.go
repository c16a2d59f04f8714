// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-issuetracker/model"
)

func TestSendToWebhook(t *testing.T) {
	s := &Server{}

	var received Payload
	mattermost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
	}))
	defer mattermost.Close()

	err := s.sendToWebhook(context.Background(), mattermost.URL, &Payload{Username: "issuetracker", Text: "test"})
	require.NoError(t, err)
	assert.Equal(t, Payload{Username: "issuetracker", Text: "test"}, received)
}

func TestSendToWebhookValidation(t *testing.T) {
	s := &Server{}

	for name, tc := range map[string]struct {
		url     string
		payload *Payload
		field   string
	}{
		"username not set":    {"http://example.com/hooks/1", &Payload{Text: "test"}, "username"},
		"text not set":        {"http://example.com/hooks/1", &Payload{Username: "issuetracker"}, "text"},
		"webhook URL not set": {"", &Payload{Username: "issuetracker", Text: "test"}, "webhook URL"},
	} {
		t.Run(name, func(t *testing.T) {
			err := s.sendToWebhook(context.Background(), tc.url, tc.payload)
			var whError *WebhookValidationError
			require.True(t, errors.As(err, &whError))
			assert.Equal(t, tc.field, whError.field)
		})
	}
}

func TestSendToWebhookErrorStatus(t *testing.T) {
	s := &Server{}

	mattermost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer mattermost.Close()

	err := s.sendToWebhook(context.Background(), mattermost.URL, &Payload{Username: "issuetracker", Text: "test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestIssueCreatedNotification(t *testing.T) {
	const hookURL = "https://chat.example.com/hooks/abc"

	ts := newTestServer(t)
	ts.Config.MattermostWebhookURL = hookURL
	ts.Config.MattermostWebhookFooter = "_sent by the tracker_"

	httpmock.ActivateNonDefault(ts.httpClient)
	defer httpmock.DeactivateAndReset()

	var payload Payload
	httpmock.RegisterResponder(http.MethodPost, hookURL, func(req *http.Request) (*http.Response, error) {
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
		}
		return httpmock.NewStringResponse(http.StatusOK, ""), nil
	})

	ts.projects.EXPECT().Get(int64(1)).Return(testProject(1, "alpha"), nil)
	ts.users.EXPECT().ListAssigneeLoads().Return([]*model.AssigneeLoad{assigneeLoad(4, "ann", 0)}, nil)
	ts.issues.EXPECT().Save(gomock.Any()).DoAndReturn(func(issue *model.Issue) (*model.Issue, error) {
		issue.ID = 10
		return issue, nil
	})

	form := url.Values{"title": {"Login broken"}, "description": {"Cannot log in"}}
	req := newFormRequest(http.MethodPost, "/projects/1/issues/create/", form)
	ts.signIn(t, req, testUser(3, "rep", model.RoleReporter))
	w := ts.serve(req)
	require.Equal(t, http.StatusFound, w.Code)

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
	assert.Equal(t, "issuetracker", payload.Username)
	assert.Contains(t, payload.Text, "[Login broken](http://example.com/issues/10/)")
	assert.Contains(t, payload.Text, "reported by @rep, assigned to @ann")
	assert.Contains(t, payload.Text, "_sent by the tracker_")
}

func TestStatusChangedNotificationFailureIsLogged(t *testing.T) {
	const hookURL = "https://chat.example.com/hooks/abc"

	ts := newTestServer(t)
	ts.Config.MattermostWebhookURL = hookURL

	httpmock.ActivateNonDefault(ts.httpClient)
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder(http.MethodPost, hookURL, httpmock.NewStringResponder(http.StatusInternalServerError, ""))

	ts.issues.EXPECT().Get(int64(5)).Return(&model.Issue{ID: 5, ProjectID: 1, Title: "Crash", Description: "d", Status: model.StatusTodo}, nil)
	ts.issues.EXPECT().UpdateStatus(int64(5), model.StatusDone).Return(nil)

	req := newFormRequest(http.MethodPost, "/issues/5/change-status/", url.Values{"status": {"done"}})
	ts.signIn(t, req, testUser(4, "ann", model.RoleAssignee))
	w := ts.serve(req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}
