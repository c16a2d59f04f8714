// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"

	"github.com/mattermost/mattermost-issuetracker/model"
)

// commentsView is the comments section of one issue.
type commentsView struct {
	*view
	Issue    *model.Issue
	Comments []*model.Comment
	Text     string
	Error    string
	// OOB adds the out of band counter update for the issue card.
	OOB bool
}

func commentText(r *http.Request) string {
	if text := strings.TrimSpace(r.PostFormValue("text")); text != "" {
		return text
	}
	// Older forms posted the comment as "content".
	return strings.TrimSpace(r.PostFormValue("content"))
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	issue, ok := s.getIssue(w, r, "issue_pk")
	if !ok {
		return
	}

	user := userFromContext(r.Context())
	if !user.CanComment() {
		s.renderError(w, r, http.StatusForbidden, "permission_comment")
		return
	}

	projectURL := fmt.Sprintf("/projects/%d/", issue.ProjectID)
	if r.Method != http.MethodPost {
		http.Redirect(w, r, projectURL, http.StatusFound)
		return
	}

	v := s.newView(r)
	section := &commentsView{view: v, Issue: issue}

	text := commentText(r)
	if text == "" {
		if !isHTMX(r) {
			http.Redirect(w, r, projectURL, http.StatusFound)
			return
		}
		section.Error = fieldErrors(v.L, (&model.Comment{}).IsValid())["text"]
	} else {
		comment, err := s.Store.Comment().Save(&model.Comment{IssueID: issue.ID, AuthorID: user.ID, Text: text})
		if err != nil {
			s.renderInternalError(w, r, "addComment", err)
			return
		}
		s.Metrics.IncreaseCommentsCreated()
		mlog.Info("Comment added", mlog.Int64("comment_id", comment.ID), mlog.Int64("issue_id", issue.ID), mlog.String("author", user.Username))

		if !isHTMX(r) {
			http.Redirect(w, r, projectURL, http.StatusFound)
			return
		}
		section.OOB = true
	}

	comments, err := s.Store.Comment().ListByIssue(issue.ID)
	if err != nil {
		s.renderInternalError(w, r, "addComment", err)
		return
	}
	section.Comments = comments

	s.renderPartial(w, http.StatusOK, "comments_section", section)
}
