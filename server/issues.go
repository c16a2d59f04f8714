// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"

	"github.com/mattermost/mattermost-issuetracker/model"
)

type issueCard struct {
	*view
	Issue       *model.Issue
	Comments    *commentsView
	ShowProject bool
}

type issueListView struct {
	*view
	Project *model.Project
	Cards   []*issueCard
}

type issueForm struct {
	Title       string
	Description string
	Assignee    string
	Errors      map[string]string
}

type issueFormView struct {
	*view
	Project   *model.Project
	Form      *issueForm
	Assignees []*model.User
}

type issueDetailView struct {
	*view
	Card *issueCard
}

func (s *Server) newIssueFormView(v *view, project *model.Project, form *issueForm) (*issueFormView, error) {
	fv := &issueFormView{view: v, Project: project, Form: form}
	if v.IsAdmin {
		assignees, err := s.Store.User().ListByRole(model.RoleAssignee)
		if err != nil {
			return nil, err
		}
		fv.Assignees = assignees
	}
	return fv, nil
}

// getIssue loads the issue named by the route variable, answering 404
// itself when there is none.
func (s *Server) getIssue(w http.ResponseWriter, r *http.Request, name string) (*model.Issue, bool) {
	id, ok := pathID(r, name)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "error_not_found")
		return nil, false
	}

	issue, err := s.Store.Issue().Get(id)
	if err != nil {
		s.renderInternalError(w, r, "getIssue", err)
		return nil, false
	}
	if issue == nil {
		s.renderError(w, r, http.StatusNotFound, "error_not_found")
		return nil, false
	}
	return issue, true
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	project, ok := s.getProject(w, r, "project_pk")
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		http.Redirect(w, r, fmt.Sprintf("/projects/%d/", project.ID), http.StatusFound)
		return
	}

	user := userFromContext(r.Context())
	v := s.newView(r)
	form := &issueForm{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Assignee:    strings.TrimSpace(r.PostFormValue("assignee")),
	}

	authorID := user.ID
	issue := &model.Issue{
		ProjectID:   project.ID,
		Title:       form.Title,
		Description: form.Description,
		AuthorID:    &authorID,
	}
	issue.PreSave()
	form.Title, form.Description = issue.Title, issue.Description

	if errs := issue.Validate(); len(errs) > 0 {
		form.Errors = fieldErrors(v.L, errs...)
		s.renderInvalidIssueForm(w, r, v, project, form)
		return
	}

	var chosen int64
	if form.Assignee != "" {
		chosen, _ = strconv.ParseInt(form.Assignee, 10, 64)
	}

	saved, assignee, err := s.createAssignedIssue(issue, user, chosen)
	if err != nil {
		s.renderInternalError(w, r, "createIssue", err)
		return
	}
	s.Metrics.IncreaseIssuesCreated("web")
	mlog.Info("Issue created",
		mlog.Int64("issue_id", saved.ID),
		mlog.Int64("project_id", project.ID),
		mlog.String("author", user.Username),
		mlog.String("assignee", usernameOrEmpty(assignee)),
	)
	s.notifyIssueCreated(r.Context(), project, saved, user, assignee)

	if !isHTMX(r) {
		http.Redirect(w, r, fmt.Sprintf("/projects/%d/", project.ID), http.StatusFound)
		return
	}

	fv, err := s.newIssueFormView(v, project, &issueForm{})
	if err != nil {
		s.renderInternalError(w, r, "createIssue", err)
		return
	}
	w.Header().Set("HX-Trigger", "issueCreated")
	s.renderPartial(w, http.StatusOK, "issue_form", fv)
}

// renderInvalidIssueForm shows the form errors in place for HTMX requests
// and on the whole project page otherwise.
func (s *Server) renderInvalidIssueForm(w http.ResponseWriter, r *http.Request, v *view, project *model.Project, form *issueForm) {
	fv, err := s.newIssueFormView(v, project, form)
	if err != nil {
		s.renderInternalError(w, r, "createIssue", err)
		return
	}

	if isHTMX(r) {
		s.renderPartial(w, http.StatusOK, "issue_form", fv)
		return
	}

	list, err := s.projectIssues(v, project)
	if err != nil {
		s.renderInternalError(w, r, "createIssue", err)
		return
	}
	s.renderPage(w, http.StatusOK, "project_detail", &projectDetailView{
		view:      v,
		Project:   project,
		IssueList: list,
		IssueForm: fv,
	})
}

// issueList shows every issue, newest first. HTMX requests get the bare
// list.
func (s *Server) issueList(w http.ResponseWriter, r *http.Request) {
	issues, err := s.Store.Issue().List()
	if err != nil {
		s.renderInternalError(w, r, "issueList", err)
		return
	}

	v := s.newView(r)
	list := &issueListView{view: v}
	for _, issue := range issues {
		list.Cards = append(list.Cards, &issueCard{view: v, Issue: issue, ShowProject: true})
	}

	if isHTMX(r) {
		s.renderPartial(w, http.StatusOK, "issue_list", list)
		return
	}
	s.renderPage(w, http.StatusOK, "issue_list", list)
}

func (s *Server) issueDetail(w http.ResponseWriter, r *http.Request) {
	issue, ok := s.getIssue(w, r, "pk")
	if !ok {
		return
	}

	comments, err := s.Store.Comment().ListByIssue(issue.ID)
	if err != nil {
		s.renderInternalError(w, r, "issueDetail", err)
		return
	}

	v := s.newView(r)
	s.renderPage(w, http.StatusOK, "issue_detail", &issueDetailView{
		view: v,
		Card: &issueCard{
			view:     v,
			Issue:    issue,
			Comments: &commentsView{view: v, Issue: issue, Comments: comments},
		},
	})
}

// changeStatus saves a new status. Unknown values are ignored and the
// current status is shown again.
func (s *Server) changeStatus(w http.ResponseWriter, r *http.Request) {
	issue, ok := s.getIssue(w, r, "pk")
	if !ok {
		return
	}

	user := userFromContext(r.Context())
	if !user.CanChangeStatus() {
		s.renderError(w, r, http.StatusForbidden, "permission_status")
		return
	}

	detailURL := fmt.Sprintf("/issues/%d/", issue.ID)
	if r.Method != http.MethodPost {
		http.Redirect(w, r, detailURL, http.StatusFound)
		return
	}

	status := model.Status(r.PostFormValue("status"))
	if status.IsValid() {
		previous := issue.Status
		if err := s.Store.Issue().UpdateStatus(issue.ID, status); err != nil {
			s.renderInternalError(w, r, "changeStatus", err)
			return
		}
		issue.Status = status
		s.Metrics.IncreaseStatusChanges(string(status))
		mlog.Info("Issue status changed",
			mlog.Int64("issue_id", issue.ID),
			mlog.String("from", string(previous)),
			mlog.String("to", string(status)),
			mlog.String("user", user.Username),
		)
		if previous != status {
			s.notifyStatusChanged(r.Context(), issue, previous, user)
		}
	} else {
		mlog.Debug("Ignoring invalid status", mlog.Int64("issue_id", issue.ID), mlog.String("status", string(status)))
	}

	if isHTMX(r) {
		s.renderPartial(w, http.StatusOK, "status_badge", &issueCard{view: s.newView(r), Issue: issue})
		return
	}
	http.Redirect(w, r, detailURL, http.StatusFound)
}

func usernameOrEmpty(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
