// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v39/github"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-issuetracker/model"
)

const githubPageSize = 100

// ImportResult counts what an import did.
type ImportResult struct {
	Imported int
	Skipped  int
}

func splitRepo(fullName string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(fullName), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("repository %q is not in owner/name form", fullName)
	}
	return parts[0], parts[1], nil
}

// githubIssueToModel maps a GitHub issue onto a tracker issue. Closed
// issues are done, everything else is still to do.
func githubIssueToModel(projectID int64, gh *github.Issue) *model.Issue {
	title := strings.TrimSpace(gh.GetTitle())
	if r := []rune(title); len(r) > model.IssueTitleMaxLength {
		title = string(r[:model.IssueTitleMaxLength])
	}

	body := strings.TrimSpace(gh.GetBody())
	if body == "" {
		body = "Imported from GitHub without a description."
	}
	body += fmt.Sprintf("\n\nReported on GitHub by @%s: %s", gh.GetUser().GetLogin(), gh.GetHTMLURL())

	status := model.StatusTodo
	if gh.GetState() == "closed" {
		status = model.StatusDone
	}

	ref := gh.GetHTMLURL()
	return &model.Issue{
		ProjectID:   projectID,
		Title:       title,
		Description: body,
		Status:      status,
		ExternalRef: &ref,
	}
}

// ImportGithubIssues copies the issues of a GitHub repository into a
// project. Pull requests and issues imported before are skipped, so the
// import can be repeated.
func (s *Server) ImportGithubIssues(ctx context.Context, projectID int64, repoFullName, state string) (*ImportResult, error) {
	if s.GithubClient == nil {
		return nil, errors.New("a GitHub access token is required to import issues")
	}

	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	project, err := s.Store.Project().Get(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errors.Errorf("project %d does not exist", projectID)
	}

	if state == "" {
		state = "open"
	}
	opts := &github.IssueListByRepoOptions{
		State:       state,
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{PerPage: githubPageSize},
	}

	result := &ImportResult{}
	for {
		ghIssues, resp, err := s.GithubClient.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return result, errors.Wrapf(err, "could not list issues of %s/%s", owner, repo)
		}

		for _, ghIssue := range ghIssues {
			imported, err := s.importGithubIssue(project, ghIssue)
			if err != nil {
				return result, err
			}
			if imported {
				result.Imported++
			} else {
				result.Skipped++
			}
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	mlog.Info("GitHub import finished",
		mlog.String("repo", owner+"/"+repo),
		mlog.Int64("project_id", project.ID),
		mlog.Int("imported", result.Imported),
		mlog.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *Server) importGithubIssue(project *model.Project, ghIssue *github.Issue) (bool, error) {
	if ghIssue.IsPullRequest() {
		return false, nil
	}

	issue := githubIssueToModel(project.ID, ghIssue)
	existing, err := s.Store.Issue().GetByExternalRef(project.ID, issue.GetExternalRef())
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	issue.PreSave()
	if appErr := issue.IsValid(); appErr != nil {
		mlog.Warn("Skipping invalid GitHub issue", mlog.String("url", issue.GetExternalRef()), mlog.Err(appErr))
		return false, nil
	}

	saved, assignee, err := s.createAssignedIssue(issue, nil, 0)
	if err != nil {
		return false, err
	}
	s.Metrics.IncreaseIssuesCreated("github")
	mlog.Debug("Imported GitHub issue",
		mlog.Int64("issue_id", saved.ID),
		mlog.String("url", saved.GetExternalRef()),
		mlog.String("assignee", usernameOrEmpty(assignee)),
	)
	return true, nil
}
