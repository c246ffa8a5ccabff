package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJwtRoundTrip(t *testing.T) {
	tok, err := JwtGenerate("s3cret", 7, "finance", time.Hour)
	require.NoError(t, err)

	claim, err := JwtValidate("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, 7, claim.ID)
	assert.Equal(t, "finance", claim.Role)

	_, err = JwtValidate("other", tok)
	assert.Error(t, err)
}

func TestJwtExpired(t *testing.T) {
	tok, err := JwtGenerate("s3cret", 1, "admin", -time.Minute)
	require.NoError(t, err)
	_, err = JwtValidate("s3cret", tok)
	assert.Error(t, err)
}

func TestJwtNeedsSecret(t *testing.T) {
	_, err := JwtGenerate("", 1, "admin", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestTriggeredByDefault(t *testing.T) {
	assert.Equal(t, "manual", TriggeredBy(context.Background()))
	assert.Equal(t, "cli", TriggeredBy(SetTriggeredByInContext(context.Background(), "cli")))
	assert.Equal(t, "user:42", TriggeredByUser(42))
}
