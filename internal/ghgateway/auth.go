package ghgateway

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/outfitter-dev/firewatch/internal/ferrors"
)

// DetectAuth resolves a GitHub token by trying, in order: the configured
// token, `gh auth token` (the external credential helper), and the
// FIREWATCH_GITHUB_TOKEN environment variable. The first non-empty result
// wins; otherwise it fails describing each source tried (spec.md §4.3).
func DetectAuth(ctx context.Context, configuredToken string) (string, error) {
	if configuredToken != "" {
		return configuredToken, nil
	}

	if token, err := ghAuthToken(ctx); err == nil && token != "" {
		return token, nil
	}

	if token := os.Getenv("FIREWATCH_GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	return "", ferrors.New(ferrors.AuthError,
		"no GitHub token found (tried: configured token, `gh auth token`, FIREWATCH_GITHUB_TOKEN)").
		WithHint("Run `gh auth login` or set FIREWATCH_GITHUB_TOKEN")
}

func ghAuthToken(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gh", "auth", "token").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
