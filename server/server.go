// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/mattermost/mattermost-issuetracker/i18n"
	"github.com/mattermost/mattermost-issuetracker/store"
	"github.com/mattermost/mattermost-issuetracker/version"
)

const (
	httpReadTimeout  = 30 * time.Second
	httpWriteTimeout = 30 * time.Second
	shutdownTimeout  = 30 * time.Second
)

// Server is the issue tracker web application.
type Server struct {
	Config       *Config
	Store        store.Store
	Sessions     store.SessionStore
	GithubClient *GithubClient
	Metrics      MetricsProvider

	translations *i18n.Translations
	templates    *Templates
	cookies      *securecookie.SecureCookie
	loginLimiter *IPRateLimiter
	httpClient   *http.Client
	router       *mux.Router
	redis        *store.RedisSessionStore

	server    *http.Server
	cron      *cron.Cron
	startTime time.Time

	// assignLock serialises auto-assignment so two issues created at the
	// same time do not both pick the same least loaded assignee.
	assignLock sync.Mutex
}

// New connects to the database and, when configured, to Redis and GitHub.
func New(config *Config, metrics MetricsProvider) (*Server, error) {
	sqlStore, err := store.NewSQLStore(config.DriverName, config.DataSource)
	if err != nil {
		return nil, errors.Wrap(err, "could not connect to the database")
	}

	s, err := newServer(config, sqlStore, metrics)
	if err != nil {
		sqlStore.Close()
		return nil, err
	}

	if config.RedisSettings.Address != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     config.RedisSettings.Address,
			Password: config.RedisSettings.Password,
			DB:       config.RedisSettings.DB,
		})
		redisStore := store.NewRedisSessionStore(client)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err = redisStore.Ping(ctx); err != nil {
			redisStore.Close()
			sqlStore.Close()
			return nil, errors.Wrap(err, "could not connect to redis")
		}
		s.Sessions = redisStore
		s.redis = redisStore
		mlog.Info("Storing sessions in redis", mlog.String("address", config.RedisSettings.Address))
	}

	if config.GithubAccessToken != "" {
		s.GithubClient = NewGithubClient(config, metrics)
	}

	return s, nil
}

func newServer(config *Config, st store.Store, metrics MetricsProvider) (*Server, error) {
	translations, err := i18n.NewTranslations(config.DefaultLocale)
	if err != nil {
		return nil, errors.Wrap(err, "could not load translations")
	}

	templates, err := LoadTemplates()
	if err != nil {
		return nil, errors.Wrap(err, "could not load templates")
	}

	s := &Server{
		Config:       config,
		Store:        st,
		Sessions:     st.Session(),
		Metrics:      metrics,
		translations: translations,
		templates:    templates,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		startTime:    time.Now(),
	}
	s.cookies = newCookieCodec(config.SecretKey, s.sessionLength())
	s.loginLimiter = NewIPRateLimiter(rate.Every(time.Minute/time.Duration(config.LoginAttemptsPerMinute)), config.LoginAttemptsBurst)
	s.router = s.initializeRouter()

	return s, nil
}

func (s *Server) initializeRouter() *mux.Router {
	r := mux.NewRouter().StrictSlash(true)
	r.Use(s.withMetrics, s.withSession, s.csrfProtection())

	r.HandleFunc("/ping", s.ping).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(s.Config.StaticDir))))

	r.HandleFunc("/", s.projectList).Methods(http.MethodGet)
	r.HandleFunc("/projects/create/", s.requireLogin(s.createProject)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/projects/{pk:[0-9]+}/", s.projectDetail).Methods(http.MethodGet)
	r.HandleFunc("/projects/{pk:[0-9]+}/issues/", s.projectIssueList).Methods(http.MethodGet)
	r.HandleFunc("/projects/{project_pk:[0-9]+}/issues/create/", s.requireLogin(s.createIssue)).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/issues/", s.issueList).Methods(http.MethodGet)
	r.HandleFunc("/issues/{pk:[0-9]+}/", s.issueDetail).Methods(http.MethodGet)
	r.HandleFunc("/issues/{pk:[0-9]+}/change-status/", s.requireLogin(s.changeStatus)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/issues/{issue_pk:[0-9]+}/comments/add/", s.requireLogin(s.addComment)).Methods(http.MethodGet, http.MethodPost)

	for _, prefix := range []string{"/accounts", ""} {
		r.HandleFunc(prefix+"/register/", s.register).Methods(http.MethodGet, http.MethodPost)
		r.HandleFunc(prefix+"/login/", s.login).Methods(http.MethodGet, http.MethodPost)
		r.HandleFunc(prefix+"/logout/", s.logout).Methods(http.MethodGet, http.MethodPost)
	}

	r.HandleFunc("/admin/", s.requireLogin(s.adminUsers)).Methods(http.MethodGet, http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "error_not_found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}

// Handler returns the complete middleware chain around the router.
func (s *Server) Handler() http.Handler {
	return s.withRecovery(s.withAllowedHosts(s.router))
}

// Start serves HTTP in the background and schedules the housekeeping jobs.
func (s *Server) Start() {
	mlog.Info("Starting issue tracker", mlog.String("version", version.Full().Version))

	s.server = &http.Server{
		Addr:         s.Config.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  httpReadTimeout,
		WriteTimeout: httpWriteTimeout,
	}

	go func() {
		mlog.Info("Listening on", mlog.String("address", s.Config.ListenAddress))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			mlog.Error("Server exited with error", mlog.Err(err))
		}
	}()

	if err := s.startCron(); err != nil {
		mlog.Error("Failed to schedule jobs", mlog.Err(err))
	}
}

// Stop waits for running jobs and in flight requests, then closes the
// stores.
func (s *Server) Stop() error {
	mlog.Info("Stopping issue tracker")

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	var err error
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = s.server.Shutdown(ctx)
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			mlog.Warn("Failed to close redis client", mlog.Err(rerr))
		}
	}
	s.Store.Close()

	return err
}

type pingResponse struct {
	Status        string        `json:"status"`
	Version       *version.Info `json:"version"`
	UptimeSeconds int64         `json:"uptime_seconds"`
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	resp := pingResponse{
		Status:        "OK",
		Version:       version.Full(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		mlog.Error("Failed to write ping response", mlog.Err(err))
	}
}
