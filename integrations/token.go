// Package integrations holds what the Zoho and Microsoft Graph clients share: tokens,
// retry policy and upstream error reporting.
package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrNotConnected means no usable token exists for a service. Sync runs report it as a
// configuration failure.
var ErrNotConnected = errors.New("integration not connected")

type Service string

const (
	ServiceZohoBooks  Service = "zoho_books"
	ServiceZohoPeople Service = "zoho_people"
	ServiceMicrosoft  Service = "microsoft"
)

type Token struct {
	AccessToken    string `json:"access_token"`
	APIDomain      string `json:"api_domain,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// TokenProvider returns the current token for one service, or nil when unauthenticated.
type TokenProvider interface {
	Token(ctx context.Context) (*Token, error)
}

// RequireToken turns a nil or empty token into ErrNotConnected.
func RequireToken(ctx context.Context, p TokenProvider, service Service) (*Token, error) {
	if p == nil {
		return nil, fmt.Errorf("%s: %w", service, ErrNotConnected)
	}
	tok, err := p.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s token: %w", service, err)
	}
	if tok == nil || strings.TrimSpace(tok.AccessToken) == "" {
		return nil, fmt.Errorf("%s: %w", service, ErrNotConnected)
	}
	return tok, nil
}

// StaticTokenProvider serves a token read from configuration.
type StaticTokenProvider struct {
	tok *Token
}

func NewStaticTokenProvider(accessToken, organizationID string) *StaticTokenProvider {
	if strings.TrimSpace(accessToken) == "" {
		return &StaticTokenProvider{}
	}
	return &StaticTokenProvider{tok: &Token{AccessToken: accessToken, OrganizationID: organizationID}}
}

func (p *StaticTokenProvider) Token(ctx context.Context) (*Token, error) {
	if p.tok == nil {
		return nil, nil
	}
	t := *p.tok
	return &t, nil
}

// RedisTokenProvider reads a JSON encoded Token written by whatever owns the OAuth flow.
type RedisTokenProvider struct {
	rdb *redis.Client
	key string
}

func TokenKey(service Service) string {
	return "margindesk:oauth:" + string(service)
}

func NewRedisTokenProvider(rdb *redis.Client, service Service) *RedisTokenProvider {
	return &RedisTokenProvider{rdb: rdb, key: TokenKey(service)}
}

func (p *RedisTokenProvider) Token(ctx context.Context) (*Token, error) {
	if p.rdb == nil {
		return nil, nil
	}
	raw, err := p.rdb.Get(ctx, p.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var t Token
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.key, err)
	}
	return &t, nil
}
