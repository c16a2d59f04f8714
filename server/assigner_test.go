// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-issuetracker/model"
)

func TestPickAssignee(t *testing.T) {
	loads := []*model.AssigneeLoad{
		assigneeLoad(4, "ann", 0),
		assigneeLoad(5, "bob", 0),
		assigneeLoad(6, "cid", 0),
		assigneeLoad(7, "dan", 2),
	}
	admin := testUser(1, "boss", model.RoleAdmin)
	reporter := testUser(3, "rep", model.RoleReporter)

	t.Run("admin choice wins", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.EXPECT().Get(int64(7)).Return(testUser(7, "dan", model.RoleAssignee), nil)

		user, err := ts.pickAssignee(admin, 7)
		require.NoError(t, err)
		assert.Equal(t, "dan", user.Username)
	})

	t.Run("admin choosing a non assignee gets the least loaded", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.EXPECT().Get(int64(3)).Return(reporter, nil)
		ts.users.EXPECT().ListAssigneeLoads().Return(loads, nil)

		user, err := ts.pickAssignee(admin, 3)
		require.NoError(t, err)
		assert.Equal(t, "ann", user.Username)
	})

	t.Run("admin choosing an inactive assignee gets the least loaded", func(t *testing.T) {
		ts := newTestServer(t)
		inactive := testUser(7, "dan", model.RoleAssignee)
		inactive.IsActive = false
		ts.users.EXPECT().Get(int64(7)).Return(inactive, nil)
		ts.users.EXPECT().ListAssigneeLoads().Return(loads, nil)

		user, err := ts.pickAssignee(admin, 7)
		require.NoError(t, err)
		assert.Equal(t, "ann", user.Username)
	})

	t.Run("admin choosing a missing user gets the least loaded", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.EXPECT().Get(int64(99)).Return(nil, nil)
		ts.users.EXPECT().ListAssigneeLoads().Return(loads, nil)

		user, err := ts.pickAssignee(admin, 99)
		require.NoError(t, err)
		assert.Equal(t, "ann", user.Username)
	})

	t.Run("reporter choice is ignored", func(t *testing.T) {
		ts := newTestServer(t)
		stubRandIntn(t, 2)
		ts.users.EXPECT().ListAssigneeLoads().Return(loads, nil)

		user, err := ts.pickAssignee(reporter, 7)
		require.NoError(t, err)
		assert.Equal(t, "cid", user.Username)
	})

	t.Run("random pick only among the least loaded", func(t *testing.T) {
		ts := newTestServer(t)
		var bound int
		old := randIntn
		randIntn = func(n int) int {
			bound = n
			return 0
		}
		t.Cleanup(func() { randIntn = old })
		ts.users.EXPECT().ListAssigneeLoads().Return(loads, nil)

		_, err := ts.pickAssignee(nil, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, bound)
	})

	t.Run("nobody to assign", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.EXPECT().ListAssigneeLoads().Return([]*model.AssigneeLoad{}, nil)

		user, err := ts.pickAssignee(reporter, 0)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("store error", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.EXPECT().ListAssigneeLoads().Return(nil, errors.New("db down"))

		_, err := ts.pickAssignee(reporter, 0)
		require.Error(t, err)
	})
}

func TestCreateAssignedIssue(t *testing.T) {
	ts := newTestServer(t)
	ts.users.EXPECT().ListAssigneeLoads().Return([]*model.AssigneeLoad{assigneeLoad(4, "ann", 1)}, nil)
	ts.issues.EXPECT().Save(gomock.Any()).DoAndReturn(func(issue *model.Issue) (*model.Issue, error) {
		issue.ID = 3
		return issue, nil
	})

	issue := &model.Issue{ProjectID: 1, Title: "t", Description: "d", Status: model.StatusTodo}
	saved, assignee, err := ts.createAssignedIssue(issue, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), saved.ID)
	assert.Equal(t, "ann", assignee.Username)
	require.NotNil(t, saved.AssigneeID)
	assert.Equal(t, int64(4), *saved.AssigneeID)
	assert.Equal(t, "ann", saved.GetAssigneeUsername())
}
