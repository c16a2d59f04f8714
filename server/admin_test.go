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

func TestAdminUsers(t *testing.T) {
	t.Run("non admin is forbidden", func(t *testing.T) {
		ts := newTestServer(t)

		req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
		ts.signIn(t, req, testUser(4, "ann", model.RoleAssignee))
		w := ts.serve(req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Only admins can manage users.")
	})

	t.Run("lists users", func(t *testing.T) {
		ts := newTestServer(t)
		admin := testUser(1, "boss", model.RoleAdmin)
		ts.users.EXPECT().List().Return([]*model.User{admin, testUser(4, "ann", model.RoleAssignee)}, nil)

		req := httptest.NewRequest(http.MethodGet, "/admin/?saved=ann", nil)
		ts.signIn(t, req, admin)
		w := ts.serve(req)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Equal(t, 2, strings.Count(body, `data-testid="admin-user-row"`))
		assert.Contains(t, body, "User ann updated.")
		assert.Contains(t, body, `data-testid="nav-admin"`)
	})

	t.Run("changes role and active flag", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.EXPECT().Get(int64(3)).Return(testUser(3, "rep", model.RoleReporter), nil)
		ts.users.EXPECT().Update(gomock.Any()).DoAndReturn(func(u *model.User) (*model.User, error) {
			assert.Equal(t, model.RoleAssignee, u.Role)
			assert.False(t, u.IsActive)
			return u, nil
		})

		form := url.Values{"user_id": {"3"}, "role": {"assignee"}}
		req := newFormRequest(http.MethodPost, "/admin/", form)
		ts.signIn(t, req, testUser(1, "boss", model.RoleAdmin))
		w := ts.serve(req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/admin/?saved=rep", w.Header().Get("Location"))
	})

	t.Run("superuser stays admin", func(t *testing.T) {
		ts := newTestServer(t)
		root := testUser(2, "root", model.RoleAdmin)
		root.IsSuperuser = true
		ts.users.EXPECT().Get(int64(2)).Return(root, nil)
		ts.users.EXPECT().Update(gomock.Any()).DoAndReturn(func(u *model.User) (*model.User, error) {
			assert.Equal(t, model.RoleAdmin, u.Role)
			assert.True(t, u.IsActive)
			return u, nil
		})

		form := url.Values{"user_id": {"2"}, "role": {"reporter"}, "is_active": {"on"}}
		req := newFormRequest(http.MethodPost, "/admin/", form)
		ts.signIn(t, req, testUser(1, "boss", model.RoleAdmin))
		w := ts.serve(req)
		assert.Equal(t, http.StatusFound, w.Code)
	})

	t.Run("invalid role", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.EXPECT().Get(int64(3)).Return(testUser(3, "rep", model.RoleReporter), nil)

		form := url.Values{"user_id": {"3"}, "role": {"owner"}}
		req := newFormRequest(http.MethodPost, "/admin/", form)
		ts.signIn(t, req, testUser(1, "boss", model.RoleAdmin))
		w := ts.serve(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.EXPECT().Get(int64(30)).Return(nil, nil)

		form := url.Values{"user_id": {"30"}, "role": {"reporter"}}
		req := newFormRequest(http.MethodPost, "/admin/", form)
		ts.signIn(t, req, testUser(1, "boss", model.RoleAdmin))
		w := ts.serve(req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
