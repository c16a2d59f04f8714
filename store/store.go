// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

//go:generate mockgen -destination=mocks/store.go -package=mocks github.com/mattermost/mattermost-issuetracker/store Store,UserStore,ProjectStore,IssueStore,CommentStore,SessionStore,Locker

package store

import (
	"context"
	"errors"
	"time"

	"github.com/mattermost/mattermost-issuetracker/model"
)

// ErrConflict is wrapped into errors for writes rejected by a unique key.
var ErrConflict = errors.New("unique constraint violated")

// Store is the persistence layer of the tracker. Getters return (nil, nil)
// when the requested row does not exist.
type Store interface {
	User() UserStore
	Project() ProjectStore
	Issue() IssueStore
	Comment() CommentStore
	Session() SessionStore
	Mutex(key string) (Locker, error)
	Close()
	DropAllTables()
}

type UserStore interface {
	Save(user *model.User) (*model.User, error)
	Update(user *model.User) (*model.User, error)
	Get(id int64) (*model.User, error)
	GetByUsername(username string) (*model.User, error)
	List() ([]*model.User, error)
	ListByRole(role model.Role) ([]*model.User, error)
	ListAssigneeLoads() ([]*model.AssigneeLoad, error)
}

type ProjectStore interface {
	Save(project *model.Project) (*model.Project, error)
	Get(id int64) (*model.Project, error)
	List() ([]*model.Project, error)
	Delete(id int64) error
}

type IssueStore interface {
	Save(issue *model.Issue) (*model.Issue, error)
	Get(id int64) (*model.Issue, error)
	GetByExternalRef(projectID int64, ref string) (*model.Issue, error)
	UpdateStatus(id int64, status model.Status) error
	ListByProject(projectID int64) ([]*model.Issue, error)
	List() ([]*model.Issue, error)
	Delete(id int64) error
}

type CommentStore interface {
	Save(comment *model.Comment) (*model.Comment, error)
	ListByIssue(issueID int64) ([]*model.Comment, error)
	CountByIssue(issueID int64) (int64, error)
}

type SessionStore interface {
	Save(session *model.Session) (*model.Session, error)
	Get(token string) (*model.Session, error)
	Delete(token string) error
	DeleteExpired(now time.Time) (int64, error)
}

// Locker is a lock shared by every instance using the same database.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock() error
}
