// Package msgraph lists directory users from Microsoft Graph.
package msgraph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/margindesk/margindesk_backend/integrations"
	"github.com/margindesk/margindesk_backend/paginate"
)

const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

type Client struct {
	baseURL string
	tokens  integrations.TokenProvider
	req     *integrations.Requester
}

func NewClient(baseURL string, tokens integrations.TokenProvider, req *integrations.Requester) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), tokens: tokens, req: req}
}

type usersResponse struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// UsersPage follows @odata.nextLink; the cursor is the full next link.
func (c *Client) UsersPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	tok, err := integrations.RequireToken(ctx, c.tokens, integrations.ServiceMicrosoft)
	if err != nil {
		return paginate.Page[json.RawMessage]{}, err
	}
	endpoint := cursor
	if endpoint == "" {
		params := url.Values{}
		params.Set("$select", "id,displayName,mail,userPrincipalName,jobTitle,department,accountEnabled")
		params.Set("$top", "999")
		endpoint = c.baseURL + "/users?" + params.Encode()
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+tok.AccessToken)

	var resp usersResponse
	if err := c.req.GetJSON(ctx, endpoint, header, &resp); err != nil {
		return paginate.Page[json.RawMessage]{}, err
	}
	return paginate.Page[json.RawMessage]{Items: resp.Value, NextCursor: resp.NextLink}, nil
}
