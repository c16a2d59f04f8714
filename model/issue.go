// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package model

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"

	IssueTitleMaxLength = 200
)

// StatusChoice pairs a stored status value with its display label.
type StatusChoice struct {
	Value Status
	Label string
}

// StatusChoices are the selectable statuses, in workflow order.
var StatusChoices = []StatusChoice{
	{StatusTodo, "To Do"},
	{StatusInProgress, "In Progress"},
	{StatusDone, "Done"},
}

func (s Status) IsValid() bool {
	for _, c := range StatusChoices {
		if c.Value == s {
			return true
		}
	}
	return false
}

func (s Status) Label() string {
	for _, c := range StatusChoices {
		if c.Value == s {
			return c.Label
		}
	}
	return string(s)
}

type Issue struct {
	ID          int64     `db:"Id"`
	ProjectID   int64     `db:"ProjectId"`
	Title       string    `db:"Title"`
	Description string    `db:"Description"`
	Status      Status    `db:"Status"`
	AssigneeID  *int64    `db:"AssigneeId"`
	AuthorID    *int64    `db:"AuthorId"`
	ExternalRef *string   `db:"ExternalRef"`
	CreatedAt   time.Time `db:"CreatedAt"`
	UpdatedAt   time.Time `db:"UpdatedAt"`

	// Joined columns, read only.
	ProjectName      string  `db:"ProjectName"`
	AuthorUsername   *string `db:"AuthorUsername"`
	AssigneeUsername *string `db:"AssigneeUsername"`
}

func (o *Issue) PreSave() {
	o.Title = strings.TrimSpace(o.Title)
	o.Description = strings.TrimSpace(o.Description)
	if o.Status == "" {
		o.Status = StatusTodo
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
}

// Validate returns every invalid field, in form order. Each error carries
// the offending form field name in Params["Field"].
func (o *Issue) Validate() []*AppError {
	var errs []*AppError
	if o.Title == "" {
		errs = append(errs, NewAppError("Issue.IsValid", "model.issue.is_valid.title.required", map[string]interface{}{"Field": "title"}, "", http.StatusBadRequest))
	} else if utf8.RuneCountInString(o.Title) > IssueTitleMaxLength {
		errs = append(errs, NewAppError("Issue.IsValid", "model.issue.is_valid.title.too_long", map[string]interface{}{"Field": "title", "Max": IssueTitleMaxLength}, "", http.StatusBadRequest))
	}
	if o.Description == "" {
		errs = append(errs, NewAppError("Issue.IsValid", "model.issue.is_valid.description.required", map[string]interface{}{"Field": "description"}, "", http.StatusBadRequest))
	}
	if !o.Status.IsValid() {
		errs = append(errs, NewAppError("Issue.IsValid", "model.issue.is_valid.status.app_error", map[string]interface{}{"Field": "status"}, "status="+string(o.Status), http.StatusBadRequest))
	}
	if o.ProjectID == 0 {
		errs = append(errs, NewAppError("Issue.IsValid", "model.issue.is_valid.project.app_error", nil, "", http.StatusBadRequest))
	}
	return errs
}

// IsValid reports the first invalid field.
func (o *Issue) IsValid() *AppError {
	if errs := o.Validate(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (o *Issue) String() string {
	return fmt.Sprintf("[%s] %s", o.Status.Label(), o.Title)
}

func (o *Issue) GetAuthorUsername() string {
	if o == nil || o.AuthorUsername == nil {
		return ""
	}
	return *o.AuthorUsername
}

func (o *Issue) GetAssigneeUsername() string {
	if o == nil || o.AssigneeUsername == nil {
		return ""
	}
	return *o.AssigneeUsername
}

func (o *Issue) GetExternalRef() string {
	if o == nil || o.ExternalRef == nil {
		return ""
	}
	return *o.ExternalRef
}

func (o *Issue) ToJSON() (string, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func IssueFromJSON(data io.Reader) (*Issue, error) {
	var issue Issue
	err := json.NewDecoder(data).Decode(&issue)
	if err != nil {
		return nil, err
	}

	return &issue, nil
}
