// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// fromCacheHeader is set by httpcache on responses it served itself.
const fromCacheHeader = "X-From-Cache"

// Transport records duration and cache outcome of outgoing GitHub calls.
// Requests are labelled by endpoint, so every repository and issue number
// shares one series.
type Transport struct {
	base    http.RoundTripper
	metrics Provider
}

func NewTransport(base http.RoundTripper, metrics Provider) *Transport {
	return &Transport{base: base, metrics: metrics}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	endpoint := githubEndpoint(req.URL.Path)

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		// Network failures and cancelled contexts.
		t.metrics.ObserveGithubRequestDuration(endpoint, req.Method, "error", elapsed)
		return nil, err
	}

	t.metrics.ObserveGithubRequestDuration(endpoint, req.Method, strconv.Itoa(resp.StatusCode), elapsed)
	if resp.Header.Get(fromCacheHeader) == "1" {
		t.metrics.IncreaseGithubCacheHits(req.Method, endpoint)
	} else {
		t.metrics.IncreaseGithubCacheMisses(req.Method, endpoint)
	}
	return resp, nil
}

func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// githubEndpoint turns /repos/acme/widgets/issues/12 into
// /repos/{owner}/{repo}/issues/{number}.
func githubEndpoint(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) >= 3 && segments[0] == "repos" {
		segments[1], segments[2] = "{owner}", "{repo}"
	}
	for i, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			segments[i] = "{number}"
		}
	}
	return "/" + strings.Join(segments, "/")
}
