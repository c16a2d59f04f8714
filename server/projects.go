// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mattermost/mattermost-issuetracker/model"
)

type projectListView struct {
	*view
	Projects []*model.Project
}

type projectFormView struct {
	*view
	Name        string
	Description string
	Errors      map[string]string
}

type projectDetailView struct {
	*view
	Project   *model.Project
	IssueList *issueListView
	IssueForm *issueFormView
}

// pathID reads a numeric route variable. The routes only match digits, so
// a failure means the id overflowed.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// getProject loads the project named by the route variable, answering 404
// itself when there is none.
func (s *Server) getProject(w http.ResponseWriter, r *http.Request, name string) (*model.Project, bool) {
	id, ok := pathID(r, name)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "error_not_found")
		return nil, false
	}

	project, err := s.Store.Project().Get(id)
	if err != nil {
		s.renderInternalError(w, r, "getProject", err)
		return nil, false
	}
	if project == nil {
		s.renderError(w, r, http.StatusNotFound, "error_not_found")
		return nil, false
	}
	return project, true
}

func (s *Server) projectList(w http.ResponseWriter, r *http.Request) {
	projects, err := s.Store.Project().List()
	if err != nil {
		s.renderInternalError(w, r, "projectList", err)
		return
	}

	s.renderPage(w, http.StatusOK, "project_list", &projectListView{view: s.newView(r), Projects: projects})
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if !user.CanCreateProject() {
		s.renderError(w, r, http.StatusForbidden, "permission_project")
		return
	}

	v := &projectFormView{view: s.newView(r)}
	if r.Method != http.MethodPost {
		s.renderPage(w, http.StatusOK, "project_create", v)
		return
	}

	project := &model.Project{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
	project.PreSave()
	v.Name, v.Description = project.Name, project.Description

	if appErr := project.IsValid(); appErr != nil {
		v.Errors = fieldErrors(v.L, appErr)
		s.renderPage(w, http.StatusOK, "project_create", v)
		return
	}

	if _, err := s.Store.Project().Save(project); err != nil {
		s.renderInternalError(w, r, "createProject", err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) projectDetail(w http.ResponseWriter, r *http.Request) {
	project, ok := s.getProject(w, r, "pk")
	if !ok {
		return
	}

	v := s.newView(r)
	list, err := s.projectIssues(v, project)
	if err != nil {
		s.renderInternalError(w, r, "projectDetail", err)
		return
	}

	form, err := s.newIssueFormView(v, project, &issueForm{})
	if err != nil {
		s.renderInternalError(w, r, "projectDetail", err)
		return
	}

	s.renderPage(w, http.StatusOK, "project_detail", &projectDetailView{
		view:      v,
		Project:   project,
		IssueList: list,
		IssueForm: form,
	})
}

// projectIssueList is the partial the project page reloads after an issue
// was created.
func (s *Server) projectIssueList(w http.ResponseWriter, r *http.Request) {
	project, ok := s.getProject(w, r, "pk")
	if !ok {
		return
	}

	list, err := s.projectIssues(s.newView(r), project)
	if err != nil {
		s.renderInternalError(w, r, "projectIssueList", err)
		return
	}

	s.renderPartial(w, http.StatusOK, "issue_list", list)
}

// projectIssues lists the issues of the project, oldest first, each with
// its comments.
func (s *Server) projectIssues(v *view, project *model.Project) (*issueListView, error) {
	issues, err := s.Store.Issue().ListByProject(project.ID)
	if err != nil {
		return nil, err
	}

	list := &issueListView{view: v, Project: project}
	for _, issue := range issues {
		comments, err := s.Store.Comment().ListByIssue(issue.ID)
		if err != nil {
			return nil, fmt.Errorf("could not list comments of issue %d: %w", issue.ID, err)
		}
		list.Cards = append(list.Cards, &issueCard{
			view:     v,
			Issue:    issue,
			Comments: &commentsView{view: v, Issue: issue, Comments: comments},
		})
	}
	return list, nil
}
