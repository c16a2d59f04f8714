// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package metrics

import (
	"context"
	"html/template"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gorilla/mux"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"
)

const (
	metricsReadTimeout  = 30 * time.Second
	metricsWriteTimeout = 30 * time.Second
)

var indexTemplate = template.Must(template.New("index").Parse(`<html>
	<body>
{{- range .}}
		<div><a href="{{.Path}}">{{.Description}}</a></div>
{{- end}}
	</body>
</html>
`))

// Server exposes the Prometheus registry and, optionally, the pprof
// profiles on a port separate from the issue tracker itself.
type Server struct {
	server   *http.Server
	router   *mux.Router
	port     string
	handlers []Handler
}

// Handler is an endpoint listed on the metrics server index page.
type Handler struct {
	Handler     http.Handler
	Path        string
	Description string
}

// NewServer creates a metrics server serving handler and, when pprof is
// set, the runtime profiles.
func NewServer(port string, handler Handler, pprof bool) *Server {
	handlers := []Handler{handler}
	if pprof {
		handlers = append(handlers, pprofHandlers()...)
	}

	m := &Server{port: port, handlers: handlers}
	m.router = mux.NewRouter()
	m.router.HandleFunc("/", m.handleIndex).Methods(http.MethodGet)
	for _, h := range m.handlers {
		mlog.Debug("Adding metrics handler", mlog.String("path", h.Path))
		m.router.Handle(h.Path, h.Handler)
	}
	return m
}

// ServeHTTP lets the metrics router be mounted or tested without a listener.
func (m *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.router.ServeHTTP(w, r)
}

// Start binds the port and serves in the background. A bind failure is
// returned to the caller instead of only being logged.
func (m *Server) Start() error {
	listener, err := net.Listen("tcp", net.JoinHostPort("", m.port))
	if err != nil {
		return errors.Wrapf(err, "unable to listen on metrics port %s", m.port)
	}

	m.server = &http.Server{
		Handler:      m.router,
		ReadTimeout:  metricsReadTimeout,
		WriteTimeout: metricsWriteTimeout,
	}

	go func() {
		mlog.Info("Metrics server started", mlog.String("port", m.port))
		if err := m.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			mlog.Error("Metrics server stopped unexpectedly", mlog.Err(err))
		}
	}()
	return nil
}

// Stop shuts the listener down, waiting for in-flight scrapes until ctx ends.
func (m *Server) Stop(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	if err := m.server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "error shutting down the metrics server")
	}
	mlog.Info("Metrics server stopped")
	return nil
}

func (m *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, m.handlers); err != nil {
		mlog.Error("Error rendering metrics page", mlog.Err(err))
	}
}

func pprofHandlers() []Handler {
	return []Handler{
		{Path: "/debug/pprof/", Description: "Profiling Root", Handler: http.HandlerFunc(pprof.Index)},
		{Path: "/debug/pprof/cmdline", Description: "Profiling Command Line", Handler: http.HandlerFunc(pprof.Cmdline)},
		{Path: "/debug/pprof/symbol", Description: "Profiling Symbols", Handler: http.HandlerFunc(pprof.Symbol)},
		{Path: "/debug/pprof/goroutine", Description: "Profiling Goroutines", Handler: pprof.Handler("goroutine")},
		{Path: "/debug/pprof/heap", Description: "Profiling Heap", Handler: pprof.Handler("heap")},
		{Path: "/debug/pprof/block", Description: "Profiling Blockings", Handler: pprof.Handler("block")},
	}
}
