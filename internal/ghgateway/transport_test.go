package ghgateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outfitter-dev/firewatch/internal/ferrors"
	"github.com/outfitter-dev/firewatch/internal/ghgateway"
)

func TestDo_GraphQLErrorWithExtensionCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": nil,
			"errors": []any{
				map[string]any{
					"message":    "Could not resolve to a PullRequest",
					"extensions": map[string]any{"code": "NOT_FOUND"},
				},
			},
		})
	})

	_, err := client.FetchViewerLogin(context.Background())
	require.Error(t, err)
	assert.Equal(t, ferrors.NotFound, ferrors.KindOf(err))
}

func TestDo_GraphQLErrorAlreadyResolvedMapsToConflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []any{map[string]any{"message": "Thread has already been resolved"}},
		})
	})

	err := client.ResolveReviewThread(context.Background(), "THREAD1")
	require.Error(t, err)
	assert.Equal(t, ferrors.Conflict, ferrors.KindOf(err))
}

func TestDo_HTTPUnauthorizedMapsToAuthError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.FetchViewerLogin(context.Background())
	require.Error(t, err)
	assert.Equal(t, ferrors.AuthError, ferrors.KindOf(err))
}

func TestDo_HTTPTooManyRequestsMapsToRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchViewerLogin(context.Background())
	require.Error(t, err)
	assert.Equal(t, ferrors.RateLimited, ferrors.KindOf(err))
}

func TestDo_SendsBearerAuthHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"viewer": map[string]any{"login": "x"}}})
	})

	_, err := client.FetchViewerLogin(context.Background())
	require.NoError(t, err)
}

// failThenSucceedTransport fails the first RoundTrip with a transport-level
// error and succeeds on the second, to exercise do()'s single retry.
type failThenSucceedTransport struct {
	calls int
	body  string
}

func (t *failThenSucceedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls++
	if t.calls == 1 {
		return nil, errors.New("connection reset by peer")
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(t.body)),
		Request:    req,
	}, nil
}

func TestDo_RetriesOnceOnTransportError(t *testing.T) {
	rt := &failThenSucceedTransport{body: `{"data":{"viewer":{"login":"x"}}}`}
	httpClient := &http.Client{Transport: rt}

	client, err := ghgateway.NewClientWithHTTPClient(httpClient, "http://example.invalid/", "test-token")
	require.NoError(t, err)

	login, err := client.FetchViewerLogin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", login)
	assert.Equal(t, 2, rt.calls, "do() should retry exactly once after a transport error")
}

func TestDo_ClassifiesTransportErrorAfterSecondFailure(t *testing.T) {
	httpClient := &http.Client{Transport: roundTripFunc(func(_ *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}

	client, err := ghgateway.NewClientWithHTTPClient(httpClient, "http://example.invalid/", "test-token")
	require.NoError(t, err)

	_, err = client.FetchViewerLogin(context.Background())
	require.Error(t, err)
	assert.Equal(t, ferrors.Transport, ferrors.KindOf(err))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
