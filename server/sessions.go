// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-issuetracker/model"
)

const SessionCookieName = "issuetracker_session"

// newCookieCodec derives the signing and encryption keys from the secret
// key, so rotating SECRET_KEY invalidates every session cookie.
func newCookieCodec(secret string, maxAge time.Duration) *securecookie.SecureCookie {
	hashKey := sha256.Sum256([]byte("issuetracker.hash:" + secret))
	blockKey := sha256.Sum256([]byte("issuetracker.block:" + secret))

	codec := securecookie.New(hashKey[:], blockKey[:])
	codec.MaxAge(int(maxAge.Seconds()))
	return codec
}

func (s *Server) sessionLength() time.Duration {
	return time.Duration(s.Config.SessionLengthHours) * time.Hour
}

// startSession stores a new session for the user and sets its cookie.
func (s *Server) startSession(w http.ResponseWriter, user *model.User) (*model.Session, error) {
	session, err := s.Sessions.Save(model.NewSession(user.ID, s.sessionLength()))
	if err != nil {
		return nil, err
	}

	encoded, err := s.cookies.Encode(SessionCookieName, session.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode session cookie")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   !s.Config.Debug,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

// endSession deletes the stored session, if any, and expires the cookie.
func (s *Server) endSession(w http.ResponseWriter, session *model.Session) {
	if session != nil {
		if err := s.Sessions.Delete(session.Token); err != nil {
			mlog.Warn("Failed to delete session", mlog.Int64("user_id", session.UserID), mlog.Err(err))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !s.Config.Debug,
		SameSite: http.SameSiteLaxMode,
	})
}

// loadSession resolves the session cookie to an active user. Any problem
// with the cookie or the session makes the request anonymous.
func (s *Server) loadSession(r *http.Request) (*model.User, *model.Session) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	var token string
	if err = s.cookies.Decode(SessionCookieName, cookie.Value, &token); err != nil {
		mlog.Debug("Ignoring invalid session cookie", mlog.Err(err))
		return nil, nil
	}

	session, err := s.Sessions.Get(token)
	if err != nil {
		mlog.Error("Failed to load session", mlog.Err(err))
		return nil, nil
	}
	if session == nil {
		return nil, nil
	}
	if session.IsExpired() {
		if err = s.Sessions.Delete(session.Token); err != nil {
			mlog.Warn("Failed to delete expired session", mlog.Err(err))
		}
		return nil, nil
	}

	user, err := s.Store.User().Get(session.UserID)
	if err != nil {
		mlog.Error("Failed to load session user", mlog.Int64("user_id", session.UserID), mlog.Err(err))
		return nil, nil
	}
	if user == nil || !user.IsActive {
		return nil, nil
	}

	return user, session
}
