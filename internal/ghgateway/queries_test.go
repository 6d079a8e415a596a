package ghgateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outfitter-dev/firewatch/internal/ferrors"
	"github.com/outfitter-dev/firewatch/internal/ghgateway"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *ghgateway.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghgateway.NewClientWithHTTPClient(server.Client(), server.URL+"/", "test-token")
	require.NoError(t, err)
	return client
}

func TestFetchPRActivity_Success(t *testing.T) {
	resp := map[string]any{
		"data": map[string]any{
			"repository": map[string]any{
				"pullRequests": map[string]any{
					"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""},
					"nodes": []any{
						map[string]any{
							"number":      1,
							"title":       "Add feature",
							"url":         "https://github.com/o/r/pull/1",
							"isDraft":     false,
							"state":       "OPEN",
							"headRefName": "feature",
							"headRefOid":  "abc123",
							"updatedAt":   "2026-07-30T10:00:00Z",
							"author":      map[string]any{"login": "alice"},
							"labels":      map[string]any{"nodes": []any{map[string]any{"name": "bug"}}},
							"reviews": map[string]any{
								"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""},
								"nodes":    []any{},
							},
							"comments": map[string]any{
								"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""},
								"nodes":    []any{},
							},
							"reviewThreads": map[string]any{
								"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""},
								"nodes":    []any{},
							},
							"commits": map[string]any{
								"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""},
								"nodes":    []any{},
							},
							"latestCommit": map[string]any{"nodes": []any{}},
						},
					},
				},
			},
		},
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	page, err := client.FetchPRActivity(context.Background(), "o", "r", ghgateway.ActivityOptions{States: []string{"OPEN"}})
	require.NoError(t, err)
	require.Len(t, page.PRs, 1)
	assert.Equal(t, 1, page.PRs[0].Number)
	assert.Equal(t, "alice", page.PRs[0].Author)
	assert.Equal(t, []string{"bug"}, page.PRs[0].Labels)
}

func TestFetchPRActivity_FollowsReviewThreadPagination(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"repository": map[string]any{
						"pullRequests": map[string]any{
							"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""},
							"nodes": []any{
								map[string]any{
									"number": 2, "title": "x", "url": "u", "isDraft": false, "state": "OPEN",
									"headRefName": "b", "headRefOid": "sha", "updatedAt": "2026-07-30T10:00:00Z",
									"author": map[string]any{"login": "bob"},
									"labels": map[string]any{"nodes": []any{}},
									"reviews": map[string]any{
										"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""}, "nodes": []any{},
									},
									"comments": map[string]any{
										"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""}, "nodes": []any{},
									},
									"reviewThreads": map[string]any{
										"pageInfo": map[string]any{"hasNextPage": true, "endCursor": "CURSOR1"},
										"nodes": []any{
											map[string]any{"id": "T1", "isResolved": false, "path": "a.go", "line": 1, "comments": map[string]any{"nodes": []any{}}},
										},
									},
									"commits": map[string]any{
										"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""}, "nodes": []any{},
									},
									"latestCommit": map[string]any{"nodes": []any{}},
								},
							},
						},
					},
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"repository": map[string]any{
					"pullRequest": map[string]any{
						"reviewThreads": map[string]any{
							"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""},
							"nodes": []any{
								map[string]any{"id": "T2", "isResolved": true, "path": "b.go", "line": 2, "comments": map[string]any{"nodes": []any{}}},
							},
						},
					},
				},
			},
		})
	})

	page, err := client.FetchPRActivity(context.Background(), "o", "r", ghgateway.ActivityOptions{})
	require.NoError(t, err)
	require.Len(t, page.PRs, 1)
	require.Len(t, page.PRs[0].ReviewThreads, 2)
	assert.Equal(t, "T1", page.PRs[0].ReviewThreads[0].ThreadID)
	assert.Equal(t, "T2", page.PRs[0].ReviewThreads[1].ThreadID)
}

func TestFetchPullRequestID_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"repository": map[string]any{"pullRequest": map[string]any{"id": ""}},
			},
		})
	})

	_, err := client.FetchPullRequestID(context.Background(), "o", "r", 99)
	require.Error(t, err)
	assert.Equal(t, ferrors.NotFound, ferrors.KindOf(err))
}

func TestFetchViewerLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"viewer": map[string]any{"login": "octocat"}},
		})
	})

	login, err := client.FetchViewerLogin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", login)
}
