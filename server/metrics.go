// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

// MetricsProvider is the interface that exposes the communication with the metrics system
// this interface should be implemented by the different providers we want to include
type MetricsProvider interface {
	// ObserveHTTPRequestDuration stores the elapsed time for an HTTP request
	// served by the tracker
	ObserveHTTPRequestDuration(handler, method, statusCode string, elapsed float64)

	IncreaseIssuesCreated(source string)
	IncreaseCommentsCreated()
	IncreaseStatusChanges(status string)
	IncreaseLoginFailures(reason string)
	// IncreaseWebhookRequest increases the counter for the outgoing webhook
	// requests identified by name
	IncreaseWebhookRequest(name string)

	// ObserveGithubRequestDuration stores the elapsed time for github requests
	ObserveGithubRequestDuration(handler, method, statusCode string, elapsed float64)
	// IncreaseGithubCacheHits stores the number of cache hits when a github request
	// is done. The information is stored using the HTTP method and the request handler
	IncreaseGithubCacheHits(method, handler string)
	// IncreaseGithubCacheMisses stores the number of cache misses when a github request
	// is done. The information is stored using the HTTP method and the request handler
	IncreaseGithubCacheMisses(method, handler string)

	// ObserveCronTaskDuration stores the elapsed time for a cron task
	ObserveCronTaskDuration(name string, elapsed float64)
	// IncreaseCronTaskErrors stores the number of errors for a cron task
	IncreaseCronTaskErrors(name string)
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// withMetrics records the duration of every routed request, labelled with
// the route template so ids do not explode the label space.
func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		handler := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				handler = tpl
			}
		}
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		s.Metrics.ObserveHTTPRequestDuration(handler, r.Method, strconv.Itoa(status), time.Since(start).Seconds())
	})
}
