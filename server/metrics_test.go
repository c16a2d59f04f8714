// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-issuetracker/metrics"
)

type observedRequest struct {
	handler, method, status string
}

// recordingMetrics remembers the observed HTTP requests and forwards
// everything else to a real provider.
type recordingMetrics struct {
	*metrics.PrometheusProvider

	mu       sync.Mutex
	requests []observedRequest
}

func (m *recordingMetrics) ObserveHTTPRequestDuration(handler, method, statusCode string, elapsed float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, observedRequest{handler, method, statusCode})
}

func TestWithMetrics(t *testing.T) {
	ts := newTestServer(t)
	recorder := &recordingMetrics{PrometheusProvider: metrics.NewPrometheusProvider()}
	ts.Metrics = recorder

	ts.issues.EXPECT().Get(int64(12)).Return(nil, nil)
	w := ts.serve(httptest.NewRequest(http.MethodGet, "/issues/12/", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = ts.serve(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, recorder.requests, 2)
	assert.Equal(t, observedRequest{"/issues/{pk:[0-9]+}/", http.MethodGet, "404"}, recorder.requests[0])
	assert.Equal(t, observedRequest{"/ping", http.MethodGet, "200"}, recorder.requests[1])
}

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, err := rec.Write([]byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.status)
}
