// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"

	"github.com/mattermost/mattermost-issuetracker/model"
	"github.com/mattermost/mattermost-issuetracker/store"
)

type loginView struct {
	*view
	Username string
	Next     string
	Error    string
}

type registerView struct {
	*view
	Username string
	Email    string
	Errors   map[string]string
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	v := &loginView{view: s.newView(r), Next: safeRedirect(r.FormValue("next"), "")}
	if r.Method != http.MethodPost {
		s.renderPage(w, http.StatusOK, "login", v)
		return
	}

	if !s.loginLimiter.Allow(clientIP(r, s.Config.TrustProxyHeaders)) {
		s.Metrics.IncreaseLoginFailures("throttled")
		v.Error = v.L.T("login_throttled")
		s.renderPage(w, http.StatusTooManyRequests, "login", v)
		return
	}

	v.Username = strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	user, err := s.Store.User().GetByUsername(v.Username)
	if err != nil {
		s.renderInternalError(w, r, "login", err)
		return
	}
	if user == nil || !user.IsActive || !user.CheckPassword(password) {
		s.Metrics.IncreaseLoginFailures("invalid_credentials")
		mlog.Info("Failed login attempt", mlog.String("username", v.Username))
		v.Error = v.L.T("login_invalid")
		s.renderPage(w, http.StatusOK, "login", v)
		return
	}

	// A fresh session on every login so an old cookie cannot be reused.
	s.endSession(w, sessionFromContext(r.Context()))
	if _, err = s.startSession(w, user); err != nil {
		s.renderInternalError(w, r, "login", err)
		return
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if _, err = s.Store.User().Update(user); err != nil {
		mlog.Warn("Failed to record last login", mlog.String("username", user.Username), mlog.Err(err))
	}
	mlog.Info("User logged in", mlog.String("username", user.Username))

	http.Redirect(w, r, safeRedirect(v.Next, "/"), http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if user := userFromContext(r.Context()); user != nil {
		mlog.Info("User logged out", mlog.String("username", user.Username))
	}
	s.endSession(w, sessionFromContext(r.Context()))
	http.Redirect(w, r, "/", http.StatusFound)
}

// register creates a reporter account. Roles are only granted by admins.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	v := &registerView{view: s.newView(r)}
	if r.Method != http.MethodPost {
		s.renderPage(w, http.StatusOK, "register", v)
		return
	}

	user := &model.User{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Role:     model.RoleReporter,
		IsActive: true,
	}
	user.PreSave()
	v.Username, v.Email = user.Username, user.Email

	password1 := r.PostFormValue("password1")
	password2 := r.PostFormValue("password2")

	errs, err := s.validateRegistration(v, user, password1, password2)
	if err != nil {
		s.renderInternalError(w, r, "register", err)
		return
	}
	if len(errs) > 0 {
		v.Errors = errs
		s.renderPage(w, http.StatusOK, "register", v)
		return
	}

	if err = user.SetPassword(password1); err != nil {
		s.renderInternalError(w, r, "register", err)
		return
	}
	if _, err = s.Store.User().Save(user); err != nil {
		// Lost a race with another registration for the same name.
		if errors.Is(err, store.ErrConflict) {
			v.Errors = map[string]string{"username": v.L.T("register_username_taken")}
			s.renderPage(w, http.StatusOK, "register", v)
			return
		}
		s.renderInternalError(w, r, "register", err)
		return
	}
	mlog.Info("User registered", mlog.String("username", user.Username))

	http.Redirect(w, r, "/accounts/login/", http.StatusFound)
}

func (s *Server) validateRegistration(v *registerView, user *model.User, password1, password2 string) (map[string]string, error) {
	errs := make(map[string]string)
	required := v.L.T("field_required")

	switch {
	case user.Username == "":
		errs["username"] = required
	case utf8.RuneCountInString(user.Username) > model.UsernameMaxLength:
		errs["username"] = v.L.T("field_too_long", map[string]interface{}{"Max": model.UsernameMaxLength})
	case !model.IsValidUsername(user.Username):
		errs["username"] = v.L.T("model.user.is_valid.username.app_error")
	}

	if user.Email != "" && !model.IsValidEmail(user.Email) {
		errs["email"] = v.L.T("model.user.is_valid.email.app_error")
	}

	switch {
	case password1 == "":
		errs["password1"] = required
	case utf8.RuneCountInString(password1) < model.PasswordMinLength:
		errs["password1"] = v.L.T("register_password_short", map[string]interface{}{"Min": model.PasswordMinLength})
	}
	if password2 == "" {
		errs["password2"] = required
	} else if password1 != password2 {
		errs["password2"] = v.L.T("register_password_mismatch")
	}

	if _, ok := errs["username"]; !ok {
		existing, err := s.Store.User().GetByUsername(user.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			errs["username"] = v.L.T("register_username_taken")
		}
	}

	return errs, nil
}
