// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-issuetracker/model"
)

var csrfFieldPattern = regexp.MustCompile(`name="` + CSRFFieldName + `" value="([^"]+)"`)

func TestCSRFProtection(t *testing.T) {
	t.Run("post without a token is rejected", func(t *testing.T) {
		ts := newTestServer(t)

		form := url.Values{"username": {"ann"}, "password": {"correct horse"}}
		w := httptest.NewRecorder()
		ts.Handler().ServeHTTP(w, newFormRequest(http.MethodPost, "/accounts/login/", form))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `data-testid="error-page"`)
		assert.Contains(t, w.Body.String(), "CSRF verification failed.")
	})

	t.Run("htmx post without a token gets plain text", func(t *testing.T) {
		ts := newTestServer(t)

		req := htmx(newFormRequest(http.MethodPost, "/issues/5/comments/add/", url.Values{"text": {"hi"}}))
		ts.signIn(t, req, testUser(4, "ann", model.RoleAssignee))
		w := httptest.NewRecorder()
		ts.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NotContains(t, w.Body.String(), "<html")
		assert.Contains(t, w.Body.String(), "CSRF verification failed.")
	})

	t.Run("token from another cookie is rejected", func(t *testing.T) {
		ts := newTestServer(t)

		req := newFormRequest(http.MethodPost, "/accounts/login/", url.Values{"username": {"ann"}})
		ts.withCSRFToken(req)
		req.Header.Set(CSRFHeaderName, "bm90LXRoZS1yaWdodC10b2tlbg==")
		w := httptest.NewRecorder()
		ts.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("rendered form field is accepted", func(t *testing.T) {
		ts := newTestServer(t)

		page := httptest.NewRecorder()
		ts.Handler().ServeHTTP(page, httptest.NewRequest(http.MethodGet, "/accounts/login/", nil))
		require.Equal(t, http.StatusOK, page.Code)
		match := csrfFieldPattern.FindStringSubmatch(page.Body.String())
		require.Len(t, match, 2)

		ts.users.EXPECT().GetByUsername("ghost").Return(nil, nil)
		form := url.Values{"username": {"ghost"}, "password": {"x"}, CSRFFieldName: {match[1]}}
		req := newFormRequest(http.MethodPost, "/accounts/login/", form)
		for _, c := range page.Result().Cookies() {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		ts.Handler().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `data-testid="login-error"`)
	})

	t.Run("safe methods need no token", func(t *testing.T) {
		ts := newTestServer(t)
		ts.projects.EXPECT().List().Return(nil, nil)

		w := httptest.NewRecorder()
		ts.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
