// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-issuetracker/model"
)

type Payload struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// WebhookValidationError reports a missing part of a webhook request.
type WebhookValidationError struct {
	field string
}

func (e *WebhookValidationError) Error() string {
	return fmt.Sprintf("invalid webhook request: %s is not set", e.field)
}

func (s *Server) webhookClient() *http.Client {
	if s.httpClient != nil {
		return s.httpClient
	}
	return http.DefaultClient
}

func (s *Server) sendToWebhook(ctx context.Context, webhookURL string, payload *Payload) error {
	if webhookURL == "" {
		return &WebhookValidationError{field: "webhook URL"}
	}
	if payload.Username == "" {
		return &WebhookValidationError{field: "username"}
	}
	if payload.Text == "" {
		return &WebhookValidationError{field: "text"}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payloadBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	r, err := s.webhookClient().Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
		r.Body.Close()
	}()

	if r.StatusCode != http.StatusOK {
		return errors.Errorf("received non-200 status code posting to mattermost: %v", r.StatusCode)
	}

	return nil
}

// notify posts to the configured webhook. Failures are logged only, the
// user action already succeeded.
func (s *Server) notify(ctx context.Context, event, text string) {
	if s.Config.MattermostWebhookURL == "" {
		return
	}
	if s.Config.MattermostWebhookFooter != "" {
		text += "\n" + s.Config.MattermostWebhookFooter
	}

	s.Metrics.IncreaseWebhookRequest(event)
	payload := &Payload{Username: s.Config.MattermostWebhookUsername, Text: text}
	if err := s.sendToWebhook(ctx, s.Config.MattermostWebhookURL, payload); err != nil {
		mlog.Warn("Failed to send webhook notification", mlog.String("event", event), mlog.Err(err))
	}
}

func (s *Server) issueURL(issue *model.Issue) string {
	return fmt.Sprintf("%s/issues/%d/", strings.TrimSuffix(s.Config.PublicURL, "/"), issue.ID)
}

func (s *Server) notifyIssueCreated(ctx context.Context, project *model.Project, issue *model.Issue, author, assignee *model.User) {
	reporter := "an import"
	if author != nil {
		reporter = "@" + author.Username
	}
	assigned := "nobody"
	if assignee != nil {
		assigned = "@" + assignee.Username
	}

	text := fmt.Sprintf("#### New issue in %s\n[%s](%s) reported by %s, assigned to %s.",
		project.Name, issue.Title, s.issueURL(issue), reporter, assigned)
	s.notify(ctx, "issue_created", text)
}

func (s *Server) notifyStatusChanged(ctx context.Context, issue *model.Issue, previous model.Status, user *model.User) {
	text := fmt.Sprintf("[%s](%s) moved from **%s** to **%s** by @%s.",
		issue.Title, s.issueURL(issue), previous.Label(), issue.Status.Label(), user.Username)
	s.notify(ctx, "status_changed", text)
}
