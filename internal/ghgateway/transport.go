package ghgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/outfitter-dev/firewatch/internal/ferrors"
)

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlError struct {
	Message    string          `json:"message"`
	Type       string          `json:"type"`
	Path       []any           `json:"path"`
	Extensions json.RawMessage `json:"extensions"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// do is the minimal internal GraphQL transport: marshal {query, variables},
// POST with a bearer auth header, decode into out, and surface errors[] as
// a classified *ferrors.Error. Generalizes the teacher's graphql.go
// FetchThreadResolution/SetDraftStatus pattern into one reusable call used
// by every exported method in this package.
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return ferrors.Wrap(ferrors.Fatal, "marshal graphql request", err)
	}

	req, err := c.newRequest(ctx, body)
	if err != nil {
		return ferrors.Wrap(ferrors.Fatal, "create graphql request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// spec.md §4.3: one immediate retry on a transient transport error,
		// no automatic retry policy beyond that.
		retryReq, rerr := c.newRequest(ctx, body)
		if rerr != nil {
			return ferrors.Wrap(ferrors.Fatal, "create graphql request", rerr)
		}
		resp, err = c.http.Do(retryReq)
		if err != nil {
			return classifyTransportError(err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &ferrors.Error{Kind: ferrors.AuthError, Msg: fmt.Sprintf("github returned HTTP %d", resp.StatusCode)}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &ferrors.Error{Kind: ferrors.RateLimited, Msg: "github rate limited the request"}
	}
	if resp.StatusCode != http.StatusOK {
		return &ferrors.Error{Kind: ferrors.Transport, Msg: fmt.Sprintf("github returned HTTP %d", resp.StatusCode)}
	}

	var env graphqlEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return ferrors.Wrap(ferrors.Transport, "decode graphql response", err)
	}

	if len(env.Errors) > 0 {
		return classifyGraphQLErrors(env.Errors)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return ferrors.Wrap(ferrors.Transport, "decode graphql data", err)
		}
	}

	return nil
}

// newRequest builds one POST request for the given body. Split out of do()
// so the transient-transport-error retry can build a fresh *http.Request
// from the same marshalled bytes (an http.Request's body reader is
// consumed after one Do call, so it can't simply be reused).
func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// classifyTransportError classifies network-level failures (connection
// refused, timeout, DNS) as ferrors.Transport. Centralizing this in one
// place is the generalization of the teacher's per-call error handling
// into a single classification point (SPEC_FULL.md §4.3).
func classifyTransportError(err error) error {
	return ferrors.Wrap(ferrors.Transport, "graphql transport error", err)
}

// classifyGraphQLErrors inspects the server's errors[] array for the
// well-known message shapes GitHub uses and maps them to a Kind — the
// template for this is the teacher's writer.go 422 inspection
// (errors.As(..., *gh.ErrorResponse) for "PR was updated since you started
// reviewing"), generalized from one ad hoc REST check into the standing
// classification path every GraphQL method goes through.
func classifyGraphQLErrors(errs []gqlError) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}

	for _, e := range errs {
		code := e.Type
		if code == "" {
			code = extensionCode(e.Extensions)
		}
		switch code {
		case "NOT_FOUND":
			return &ferrors.Error{Kind: ferrors.NotFound, Msg: e.Message, GQL: msgs}
		case "FORBIDDEN", "UNAUTHORIZED":
			return &ferrors.Error{Kind: ferrors.AuthError, Msg: e.Message, GQL: msgs}
		}
		switch {
		case containsAny(e.Message, "already resolved", "already exists", "has already been"):
			return &ferrors.Error{Kind: ferrors.Conflict, Msg: e.Message, GQL: msgs}
		case containsAny(e.Message, "rate limit"):
			return &ferrors.Error{Kind: ferrors.RateLimited, Msg: e.Message, GQL: msgs}
		}
	}

	return &ferrors.Error{Kind: ferrors.GraphQLError, Msg: "graphql request returned errors", GQL: msgs}
}

func containsAny(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
