package ghgateway_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outfitter-dev/firewatch/internal/ferrors"
	"github.com/outfitter-dev/firewatch/internal/ghgateway"
)

func TestDetectAuth_PrefersConfiguredToken(t *testing.T) {
	token, err := ghgateway.DetectAuth(context.Background(), "configured-token")
	require.NoError(t, err)
	assert.Equal(t, "configured-token", token)
}

func TestDetectAuth_FallsBackToEnvVar(t *testing.T) {
	t.Setenv("FIREWATCH_GITHUB_TOKEN", "env-token")
	token, err := ghgateway.DetectAuth(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "env-token", token)
}

func TestDetectAuth_FailsWithAuthErrorWhenNothingFound(t *testing.T) {
	t.Setenv("FIREWATCH_GITHUB_TOKEN", "")
	t.Setenv("PATH", "")

	_, err := ghgateway.DetectAuth(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, ferrors.AuthError, ferrors.KindOf(err))
}
