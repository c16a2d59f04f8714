// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"net"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
)

var debugHosts = []string{".localhost", "127.0.0.1", "[::1]"}

// splitHost lowercases the host and strips the port. IPv6 literals keep
// their brackets.
func splitHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end != -1 {
			return host[:end+1]
		}
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.TrimSuffix(host, ".")
}

// hostAllowed reports whether host matches one of the patterns. "*"
// matches everything and a leading dot matches the domain and all of its
// subdomains.
func hostAllowed(host string, patterns []string) bool {
	if host == "" {
		return false
	}
	for _, pattern := range patterns {
		pattern = strings.ToLower(pattern)
		switch {
		case pattern == "*":
			return true
		case strings.HasPrefix(pattern, "."):
			if host == pattern[1:] || strings.HasSuffix(host, pattern) {
				return true
			}
		case host == pattern:
			return true
		}
	}
	return false
}

func (s *Server) allowedHosts() []string {
	if len(s.Config.AllowedHosts) == 0 && s.Config.Debug {
		return debugHosts
	}
	return s.Config.AllowedHosts
}

func (s *Server) withAllowedHosts(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := splitHost(r.Host)
		if !hostAllowed(host, s.allowedHosts()) {
			mlog.Warn("Rejected request with disallowed host", mlog.String("host", r.Host))
			s.renderError(w, r, http.StatusBadRequest, "error_bad_request")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				mlog.Error("Recovered from panic",
					mlog.Any("panic", rec),
					mlog.String("path", r.URL.Path),
					mlog.String("stack", string(debug.Stack())),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withSession attaches the signed in user and the request localizer to the
// request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, session := s.loadSession(r)
		ctx := withUser(r.Context(), user, session)
		ctx = withLocalizer(ctx, s.translations.Localizer(r.Header.Get("Accept-Language")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireLogin redirects anonymous users to the login page, remembering
// where they were going.
func (s *Server) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if userFromContext(r.Context()) == nil {
			target := "/accounts/login/?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next(w, r)
	}
}

// safeRedirect only accepts local absolute paths.
func safeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
