// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"context"
	"net/http"

	"github.com/mattermost/mattermost-issuetracker/i18n"
	"github.com/mattermost/mattermost-issuetracker/model"
)

type contextKey int

const (
	userContextKey contextKey = iota
	sessionContextKey
	localizerContextKey
)

func withUser(ctx context.Context, user *model.User, session *model.Session) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, sessionContextKey, session)
}

// userFromContext returns the signed in user, or nil for anonymous requests.
func userFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

func sessionFromContext(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}

func withLocalizer(ctx context.Context, l *i18n.Localizer) context.Context {
	return context.WithValue(ctx, localizerContextKey, l)
}

// localizer returns the request localizer, negotiating one from the
// Accept-Language header when the middleware did not run.
func (s *Server) localizer(r *http.Request) *i18n.Localizer {
	if l, ok := r.Context().Value(localizerContextKey).(*i18n.Localizer); ok {
		return l
	}
	return s.translations.Localizer(r.Header.Get("Accept-Language"))
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
