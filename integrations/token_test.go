package integrations

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisTokenProvider(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	p := NewRedisTokenProvider(rdb, ServiceZohoBooks)
	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tok)

	_, err = RequireToken(context.Background(), p, ServiceZohoBooks)
	require.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, mr.Set(TokenKey(ServiceZohoBooks), `{"access_token":"abc","api_domain":"https://www.zohoapis.in","organization_id":"42"}`))
	tok, err = RequireToken(context.Background(), p, ServiceZohoBooks)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "42", tok.OrganizationID)
	assert.Equal(t, "https://www.zohoapis.in", tok.APIDomain)
}

func TestStaticTokenProviderEmpty(t *testing.T) {
	tok, err := NewStaticTokenProvider("  ", "").Token(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestAPIErrorRetryable(t *testing.T) {
	assert.True(t, (&APIError{StatusCode: 429}).Retryable())
	assert.True(t, (&APIError{StatusCode: 502}).Retryable())
	assert.False(t, (&APIError{StatusCode: 401}).Retryable())
}
