// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"

	"github.com/mattermost/mattermost-issuetracker/model"
)

type adminView struct {
	*view
	Users []*model.User
	Saved string
}

// adminUsers lets administrators change the role and the active flag of
// every account.
func (s *Server) adminUsers(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if !user.IsAdmin() {
		s.renderError(w, r, http.StatusForbidden, "permission_admin")
		return
	}

	if r.Method == http.MethodPost {
		s.updateUser(w, r, user)
		return
	}

	users, err := s.Store.User().List()
	if err != nil {
		s.renderInternalError(w, r, "adminUsers", err)
		return
	}

	s.renderPage(w, http.StatusOK, "admin_users", &adminView{
		view:  s.newView(r),
		Users: users,
		Saved: r.URL.Query().Get("saved"),
	})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, admin *model.User) {
	id, err := strconv.ParseInt(r.PostFormValue("user_id"), 10, 64)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "error_bad_request")
		return
	}

	target, err := s.Store.User().Get(id)
	if err != nil {
		s.renderInternalError(w, r, "updateUser", err)
		return
	}
	if target == nil {
		s.renderError(w, r, http.StatusNotFound, "error_not_found")
		return
	}

	role := model.Role(r.PostFormValue("role"))
	if !role.IsValid() {
		s.renderError(w, r, http.StatusBadRequest, "model.user.is_valid.role.app_error")
		return
	}
	active := r.PostFormValue("is_active") != ""

	// Superusers stay administrators; Update enforces the same.
	if target.IsSuperuser {
		role = model.RoleAdmin
	}
	target.Role = role
	target.IsActive = active

	if _, err = s.Store.User().Update(target); err != nil {
		s.renderInternalError(w, r, "updateUser", err)
		return
	}
	mlog.Info("User updated by admin",
		mlog.String("admin", admin.Username),
		mlog.String("username", target.Username),
		mlog.String("role", string(target.Role)),
		mlog.Bool("active", target.IsActive),
	)

	http.Redirect(w, r, "/admin/?saved="+url.QueryEscape(target.Username), http.StatusFound)
}
