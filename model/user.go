// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package model

import (
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAssignee Role = "assignee"
	RoleReporter Role = "reporter"

	UsernameMaxLength = 150
	PasswordMinLength = 8
	passwordMaxLength = 72
)

var validUsername = regexp.MustCompile(`^[\w.@+-]+$`)

// Roles lists the roles in the order they are offered to administrators.
var Roles = []Role{RoleAdmin, RoleAssignee, RoleReporter}

func (r Role) IsValid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Label is the translation id of the human readable role name.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "role_admin"
	case RoleAssignee:
		return "role_assignee"
	default:
		return "role_reporter"
	}
}

type User struct {
	ID          int64      `db:"Id"`
	Username    string     `db:"Username"`
	Email       string     `db:"Email"`
	Password    string     `db:"Password" json:"-"`
	Role        Role       `db:"Role"`
	IsActive    bool       `db:"IsActive"`
	IsSuperuser bool       `db:"IsSuperuser"`
	DateJoined  time.Time  `db:"DateJoined"`
	LastLogin   *time.Time `db:"LastLogin"`
}

// PreSave fills the defaults of a user about to be inserted. Superusers are
// always administrators.
func (u *User) PreSave() {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleReporter
	}
	if u.IsSuperuser {
		u.Role = RoleAdmin
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
}

// IsValidUsername accepts letters, digits and @/./+/-/_ up to the maximum
// length.
func IsValidUsername(username string) bool {
	return username != "" && len(username) <= UsernameMaxLength && validUsername.MatchString(username)
}

// IsValidEmail accepts a bare address, without a display name.
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (u *User) IsValid() *AppError {
	if !IsValidUsername(u.Username) {
		return NewAppError("User.IsValid", "model.user.is_valid.username.app_error", nil, "username="+u.Username, http.StatusBadRequest)
	}
	if u.Email != "" && !IsValidEmail(u.Email) {
		return NewAppError("User.IsValid", "model.user.is_valid.email.app_error", nil, "email="+u.Email, http.StatusBadRequest)
	}
	if !u.Role.IsValid() {
		return NewAppError("User.IsValid", "model.user.is_valid.role.app_error", nil, "role="+string(u.Role), http.StatusBadRequest)
	}
	if u.Password == "" {
		return NewAppError("User.IsValid", "model.user.is_valid.password.app_error", nil, "", http.StatusBadRequest)
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

func (u *User) IsAssignee() bool {
	return u != nil && u.Role == RoleAssignee
}

func (u *User) CanComment() bool {
	return u.IsAdmin() || u.IsAssignee()
}

func (u *User) CanChangeStatus() bool {
	return u.IsAdmin() || u.IsAssignee()
}

func (u *User) CanCreateProject() bool {
	return u.IsAdmin()
}

func (u *User) String() string {
	return u.Username
}

// SetPassword stores the bcrypt hash of the given plain text password.
func (u *User) SetPassword(password string) error {
	if len(password) > passwordMaxLength {
		password = password[:passwordMaxLength]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	if u == nil || u.Password == "" {
		return false
	}
	if len(password) > passwordMaxLength {
		password = password[:passwordMaxLength]
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// AssigneeLoad is an active assignee together with the number of issues
// currently assigned to them.
type AssigneeLoad struct {
	User
	NumIssues int `db:"NumIssues"`
}
