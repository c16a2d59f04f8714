// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-issuetracker/model"
)

// randIntn is replaced in tests.
var randIntn = rand.Intn

// pickAssignee chooses who works on a new issue. Administrators may pick
// any active assignee and otherwise get the least loaded one. Everyone else, and
// imports with a nil requester, get a random pick among the least loaded
// assignees. A nil user means nobody can be assigned.
func (s *Server) pickAssignee(requester *model.User, chosenID int64) (*model.User, error) {
	if requester.IsAdmin() && chosenID > 0 {
		chosen, err := s.Store.User().Get(chosenID)
		if err != nil {
			return nil, errors.Wrap(err, "could not load chosen assignee")
		}
		if chosen.IsAssignee() && chosen.IsActive {
			return chosen, nil
		}
	}

	loads, err := s.Store.User().ListAssigneeLoads()
	if err != nil {
		return nil, errors.Wrap(err, "could not load assignee workloads")
	}
	if len(loads) == 0 {
		return nil, nil
	}

	// loads is ordered by workload, then id.
	if requester.IsAdmin() {
		user := loads[0].User
		return &user, nil
	}

	least := 0
	for least < len(loads) && loads[least].NumIssues == loads[0].NumIssues {
		least++
	}
	user := loads[randIntn(least)].User
	return &user, nil
}

// createAssignedIssue assigns and saves the issue as one step so two
// concurrent creations see each other's workload.
func (s *Server) createAssignedIssue(issue *model.Issue, requester *model.User, chosenID int64) (*model.Issue, *model.User, error) {
	s.assignLock.Lock()
	defer s.assignLock.Unlock()

	assignee, err := s.pickAssignee(requester, chosenID)
	if err != nil {
		return nil, nil, err
	}
	if assignee != nil {
		id := assignee.ID
		issue.AssigneeID = &id
		username := assignee.Username
		issue.AssigneeUsername = &username
	}

	saved, err := s.Store.Issue().Save(issue)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not save issue")
	}
	return saved, assignee, nil
}
