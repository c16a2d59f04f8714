// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

//go:generate mockgen -destination=mocks/github_client.go -package=mocks github.com/mattermost/mattermost-issuetracker/server IssuesService,RepositoriesService

package server

import (
	"context"
	"net/http"

	"github.com/die-net/lrucache"
	"github.com/google/go-github/v39/github"
	"github.com/m4ns0ur/httpcache"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/mattermost/mattermost-issuetracker/metrics"
)

type IssuesService interface {
	ListByRepo(ctx context.Context, owner string, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
}

type RepositoriesService interface {
	Get(ctx context.Context, owner, repo string) (*github.Repository, *github.Response, error)
}

// GithubClient wraps the github.Client with relevant interfaces.
type GithubClient struct {
	client *github.Client

	Issues       IssuesService
	Repositories RepositoriesService
}

// NewGithubClient builds an authenticated client. Requests are rate
// limited, measured and served from an in memory cache when GitHub says
// the content did not change.
func NewGithubClient(config *Config, metricsProvider MetricsProvider) *GithubClient {
	cache := lrucache.New(int64(config.GithubCacheSizeMegabytes)*1024*1024, 0)
	cachedTransport := httpcache.NewTransport(cache)
	cachedTransport.MarkCachedResponses = true

	var base http.RoundTripper = cachedTransport
	if metricsProvider != nil {
		base = metrics.NewTransport(base, metricsProvider)
	}
	base = NewRateLimitTransport(rate.Limit(config.GithubRequestsPerSecond), config.GithubRequestsBurst, base)

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.GithubAccessToken})
	tc := &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   base,
		},
	}
	client := github.NewClient(tc)

	return &GithubClient{
		client:       client,
		Issues:       client.Issues,
		Repositories: client.Repositories,
	}
}

func (c *GithubClient) RateLimits(ctx context.Context) (*github.RateLimits, *github.Response, error) {
	return c.client.RateLimits(ctx)
}
