package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/margindesk/margindesk_backend/integrations"
	"github.com/margindesk/margindesk_backend/paginate"
)

// PeopleClient lists Zoho People form records. Pages are addressed by a 1-based start
// index; the paginate cursor carries the next start index.
type PeopleClient struct {
	cfg    Config
	tokens integrations.TokenProvider
	req    *integrations.Requester
}

func NewPeopleClient(cfg Config, tokens integrations.TokenProvider, req *integrations.Requester) *PeopleClient {
	if cfg.PageSize <= 0 || cfg.PageSize > 200 {
		cfg.PageSize = 200
	}
	return &PeopleClient{cfg: cfg, tokens: tokens, req: req}
}

func (c *PeopleClient) PageSize() int {
	return c.cfg.PageSize
}

type peopleEnvelope struct {
	Response struct {
		Result  json.RawMessage `json:"result"`
		Status  int             `json:"status"`
		Message string          `json:"message"`
		Errors  json.RawMessage `json:"errors"`
	} `json:"response"`
}

func (c *PeopleClient) baseURL() string {
	if c.cfg.BaseURL != "" {
		return strings.TrimRight(c.cfg.BaseURL, "/")
	}
	return PeopleBaseURL(c.cfg.Region)
}

func (c *PeopleClient) formPage(ctx context.Context, form, cursor string) (paginate.Page[json.RawMessage], error) {
	start := 1
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return paginate.Page[json.RawMessage]{}, fmt.Errorf("bad start index %q", cursor)
		}
		start = n
	}
	tok, err := integrations.RequireToken(ctx, c.tokens, integrations.ServiceZohoPeople)
	if err != nil {
		return paginate.Page[json.RawMessage]{}, err
	}

	params := url.Values{}
	params.Set("sIndex", strconv.Itoa(start))
	params.Set("limit", strconv.Itoa(c.cfg.PageSize))
	header := http.Header{}
	header.Set("Authorization", "Zoho-oauthtoken "+tok.AccessToken)

	var env peopleEnvelope
	endpoint := c.baseURL() + "/forms/" + url.PathEscape(form) + "/getRecords?" + params.Encode()
	if err := c.req.GetJSON(ctx, endpoint, header, &env); err != nil {
		return paginate.Page[json.RawMessage]{}, err
	}
	if env.Response.Status != 0 {
		// Zoho People answers "no records" past the last page with a non-zero status.
		if isNoRecords(env.Response.Errors) {
			return paginate.Page[json.RawMessage]{HasMore: paginate.Bool(false)}, nil
		}
		return paginate.Page[json.RawMessage]{}, &integrations.APIError{
			Service:    integrations.ServiceZohoPeople,
			StatusCode: http.StatusOK,
			Code:       env.Response.Status,
			Body:       strings.TrimSpace(env.Response.Message + " " + string(env.Response.Errors)),
		}
	}
	var items []json.RawMessage
	if len(env.Response.Result) > 0 {
		if err := json.Unmarshal(env.Response.Result, &items); err != nil {
			return paginate.Page[json.RawMessage]{}, fmt.Errorf("decode %s records: %w", form, err)
		}
	}
	return paginate.Page[json.RawMessage]{
		Items:      items,
		NextCursor: strconv.Itoa(start + len(items)),
		HasMore:    paginate.Bool(len(items) == c.cfg.PageSize),
	}, nil
}

func isNoRecords(raw json.RawMessage) bool {
	var e struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return false
	}
	return e.Code == 7024 || strings.Contains(strings.ToLower(e.Message), "no records")
}

func (c *PeopleClient) EmployeesPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	return c.formPage(ctx, "employee", cursor)
}

func (c *PeopleClient) LeavesPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	return c.formPage(ctx, "leave", cursor)
}

func (c *PeopleClient) HolidaysPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	return c.formPage(ctx, "P_Holiday", cursor)
}
