// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
)

const (
	CSRFCookieName = "csrftoken"
	CSRFFieldName  = "csrfmiddlewaretoken"
	CSRFHeaderName = "X-CSRFToken"
)

// csrfProtection rejects unsafe requests that do not echo the token from
// the csrf cookie in a form field or header. Forms get the field through
// view.CSRFField.
func (s *Server) csrfProtection() func(http.Handler) http.Handler {
	authKey := sha256.Sum256([]byte("issuetracker.csrf:" + s.Config.SecretKey))

	return csrf.Protect(authKey[:],
		csrf.CookieName(CSRFCookieName),
		csrf.FieldName(CSRFFieldName),
		csrf.RequestHeader(CSRFHeaderName),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.Secure(!s.Config.Debug),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(s.csrfFailure)),
	)
}

func (s *Server) csrfFailure(w http.ResponseWriter, r *http.Request) {
	mlog.Warn("CSRF verification failed",
		mlog.String("method", r.Method),
		mlog.String("path", r.URL.Path),
		mlog.Err(csrf.FailureReason(r)),
	)
	s.renderError(w, r, http.StatusForbidden, "error_csrf")
}
