// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package model

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const ProjectNameMaxLength = 100

// Project groups the issues reported against it.
type Project struct {
	ID          int64     `db:"Id"`
	Name        string    `db:"Name"`
	Description string    `db:"Description"`
	CreatedAt   time.Time `db:"CreatedAt"`
}

func (p *Project) PreSave() {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}

func (p *Project) IsValid() *AppError {
	if p.Name == "" {
		return NewAppError("Project.IsValid", "model.project.is_valid.name.required", map[string]interface{}{"Field": "name"}, "", http.StatusBadRequest)
	}
	if utf8.RuneCountInString(p.Name) > ProjectNameMaxLength {
		return NewAppError("Project.IsValid", "model.project.is_valid.name.too_long", map[string]interface{}{"Field": "name", "Max": ProjectNameMaxLength}, "", http.StatusBadRequest)
	}
	return nil
}

func (p *Project) String() string {
	return p.Name
}
