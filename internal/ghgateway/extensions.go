package ghgateway

import (
	"encoding/json"
	"log/slog"

	"github.com/itchyny/gojq"
)

// extensionCode pulls error.extensions.code out of a GraphQL error payload
// whose shape GitHub doesn't document consistently across endpoints (some
// errors nest the machine-readable code under "extensions.code", others
// under "extensions.errorType"). gojq lets classifyGraphQLErrors query
// either path without hand-rolling a second loosely-typed struct per shape.
func extensionCode(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}

	for _, path := range []string{".code", ".errorType"} {
		if code, ok := queryString(doc, path); ok {
			return code
		}
	}
	return ""
}

func queryString(doc any, path string) (string, bool) {
	query, err := gojq.Parse(path)
	if err != nil {
		slog.Debug("ghgateway: invalid extension query", "path", path, "error", err)
		return "", false
	}

	iter := query.Run(doc)
	v, ok := iter.Next()
	if !ok {
		return "", false
	}
	if err, isErr := v.(error); isErr {
		slog.Debug("ghgateway: extension query failed", "path", path, "error", err)
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
