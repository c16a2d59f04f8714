// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"

	"github.com/mattermost/mattermost-issuetracker/i18n"
	"github.com/mattermost/mattermost-issuetracker/model"
)

//go:embed all:templates
var templateFiles embed.FS

var templateFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"dict":  dict,
	"formatTime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
	"statusClass": statusClass,
	"statuses": func() []model.StatusChoice {
		return model.StatusChoices
	},
	"roles": func() []model.Role {
		return model.Roles
	},
}

// dict builds a map from alternating keys and values, for passing
// template data to translations.
func dict(pairs ...interface{}) (map[string]interface{}, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict needs an even number of arguments")
	}
	m := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

func statusClass(status model.Status) string {
	switch status {
	case model.StatusInProgress:
		return "badge-warning"
	case model.StatusDone:
		return "badge-success"
	default:
		return "badge-info"
	}
}

// Templates holds one set per page, each made of the base layout, every
// partial and the page itself, plus a set with the partials alone.
type Templates struct {
	pages    map[string]*template.Template
	partials *template.Template
}

func LoadTemplates() (*Templates, error) {
	partials, err := template.New("partials").Funcs(templateFuncs).ParseFS(templateFiles, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("could not parse partials: %w", err)
	}

	files, err := fs.Glob(templateFiles, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		t, err := partials.Clone()
		if err != nil {
			return nil, err
		}
		if _, err = t.ParseFS(templateFiles, "templates/base.html", file); err != nil {
			return nil, fmt.Errorf("could not parse page %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = t
	}

	return &Templates{pages: pages, partials: partials}, nil
}

// view is the data every template can rely on.
type view struct {
	L         *i18n.Localizer
	User      *model.User
	IsAdmin   bool
	CanManage bool
	Debug     bool
	Path      string
	CSRFField template.HTML
}

func (s *Server) newView(r *http.Request) *view {
	user := userFromContext(r.Context())
	return &view{
		L:         s.localizer(r),
		User:      user,
		IsAdmin:   user.IsAdmin(),
		CanManage: user.CanChangeStatus(),
		Debug:     s.Config.Debug,
		Path:      r.URL.Path,
		CSRFField: csrf.TemplateField(r),
	}
}

// renderPage writes a full page. Execution happens into a buffer so a
// template error never leaves a half written response.
func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data interface{}) {
	t, ok := s.templates.pages[name]
	if !ok {
		mlog.Error("Unknown page template", mlog.String("template", name))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	s.execute(w, status, t, "base", data)
}

func (s *Server) renderPartial(w http.ResponseWriter, status int, name string, data interface{}) {
	s.execute(w, status, s.templates.partials, name, data)
}

func (s *Server) execute(w http.ResponseWriter, status int, t *template.Template, name string, data interface{}) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		mlog.Error("Failed to render template", mlog.String("template", name), mlog.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		mlog.Debug("Failed to write response", mlog.Err(err))
	}
}

type errorView struct {
	*view
	Status  int
	Message string
	Detail  string
}

// renderError answers with the translated message. HTMX requests get the
// bare message since the response is swapped into an existing page.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, messageID string) {
	s.renderErrorDetail(w, r, status, messageID, "")
}

func (s *Server) renderErrorDetail(w http.ResponseWriter, r *http.Request, status int, messageID, detail string) {
	v := s.newView(r)
	message := v.L.T(messageID)
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprint(w, message)
		return
	}
	if !s.Config.Debug {
		detail = ""
	}
	s.renderPage(w, status, "error", &errorView{view: v, Status: status, Message: message, Detail: detail})
}

// renderInternalError logs err and shows a generic error page.
func (s *Server) renderInternalError(w http.ResponseWriter, r *http.Request, where string, err error) {
	mlog.Error("Request failed", mlog.String("where", where), mlog.String("path", r.URL.Path), mlog.Err(err))
	s.renderErrorDetail(w, r, http.StatusInternalServerError, "error_internal", err.Error())
}

// fieldErrors translates validation errors into per field messages.
func fieldErrors(l *i18n.Localizer, appErrs ...*model.AppError) map[string]string {
	errs := make(map[string]string)
	for _, appErr := range appErrs {
		if appErr == nil {
			continue
		}
		field, _ := appErr.Params["Field"].(string)
		if field == "" {
			field = "__all__"
		}
		if _, ok := errs[field]; !ok {
			errs[field] = l.T(appErr.ID, appErr.Params)
		}
	}
	return errs
}
