package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/margindesk/margindesk_backend/integrations"
	"github.com/margindesk/margindesk_backend/paginate"
)

type Config struct {
	Region string
	// BaseURL overrides the region derived root, e.g. for a test server.
	BaseURL  string
	PageSize int
}

// BooksClient lists Zoho Books resources one page at a time. Pages are addressed by
// number; the paginate cursor carries the next page number.
type BooksClient struct {
	cfg    Config
	tokens integrations.TokenProvider
	req    *integrations.Requester
}

func NewBooksClient(cfg Config, tokens integrations.TokenProvider, req *integrations.Requester) *BooksClient {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	return &BooksClient{cfg: cfg, tokens: tokens, req: req}
}

func (c *BooksClient) PageSize() int {
	return c.cfg.PageSize
}

type pageContext struct {
	Page        int  `json:"page"`
	PerPage     int  `json:"per_page"`
	HasMorePage bool `json:"has_more_page"`
}

func (c *BooksClient) baseURL(tok *integrations.Token) string {
	if c.cfg.BaseURL != "" {
		return strings.TrimRight(c.cfg.BaseURL, "/")
	}
	if tok.APIDomain != "" {
		return strings.TrimRight(tok.APIDomain, "/") + "/books/v3"
	}
	return BooksBaseURL(c.cfg.Region)
}

func (c *BooksClient) get(ctx context.Context, path string, params url.Values, dest map[string]json.RawMessage) error {
	tok, err := integrations.RequireToken(ctx, c.tokens, integrations.ServiceZohoBooks)
	if err != nil {
		return err
	}
	if tok.OrganizationID == "" {
		return fmt.Errorf("zoho books organization id: %w", integrations.ErrNotConnected)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("organization_id", tok.OrganizationID)

	header := http.Header{}
	header.Set("Authorization", "Zoho-oauthtoken "+tok.AccessToken)
	if err := c.req.GetJSON(ctx, c.baseURL(tok)+path+"?"+params.Encode(), header, &dest); err != nil {
		return err
	}
	var code int
	if raw, ok := dest["code"]; ok {
		_ = json.Unmarshal(raw, &code)
	}
	if code != 0 {
		var msg string
		_ = json.Unmarshal(dest["message"], &msg)
		return &integrations.APIError{Service: integrations.ServiceZohoBooks, StatusCode: http.StatusOK, Code: code, Body: msg}
	}
	return nil
}

// listPage fetches one page of a list endpoint whose records sit under key.
func (c *BooksClient) listPage(ctx context.Context, path, key string, cursor string, extra url.Values) (paginate.Page[json.RawMessage], error) {
	page := 1
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return paginate.Page[json.RawMessage]{}, fmt.Errorf("bad page cursor %q", cursor)
		}
		page = n
	}
	params := url.Values{}
	for k, v := range extra {
		params[k] = v
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(c.cfg.PageSize))

	body := map[string]json.RawMessage{}
	if err := c.get(ctx, path, params, body); err != nil {
		return paginate.Page[json.RawMessage]{}, err
	}
	var items []json.RawMessage
	if raw, ok := body[key]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return paginate.Page[json.RawMessage]{}, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	var pc pageContext
	if raw, ok := body["page_context"]; ok {
		_ = json.Unmarshal(raw, &pc)
	}
	return paginate.Page[json.RawMessage]{
		Items:      items,
		NextCursor: strconv.Itoa(page + 1),
		HasMore:    paginate.Bool(pc.HasMorePage),
	}, nil
}

// DateRange filters bills and expenses by date, inclusive. Nil bounds are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) params() url.Values {
	v := url.Values{}
	if r.From != nil {
		v.Set("date_start", r.From.Format("2006-01-02"))
	}
	if r.To != nil {
		v.Set("date_end", r.To.Format("2006-01-02"))
	}
	return v
}

func (c *BooksClient) ContactsPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	v := url.Values{}
	v.Set("contact_type", "customer")
	return c.listPage(ctx, "/contacts", "contacts", cursor, v)
}

func (c *BooksClient) InvoicesPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	return c.listPage(ctx, "/invoices", "invoices", cursor, nil)
}

func (c *BooksClient) CustomerPaymentsPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	return c.listPage(ctx, "/customerpayments", "customerpayments", cursor, nil)
}

func (c *BooksClient) BillsPage(r DateRange) paginate.FetchFunc[json.RawMessage] {
	return func(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
		return c.listPage(ctx, "/bills", "bills", cursor, r.params())
	}
}

func (c *BooksClient) ExpensesPage(r DateRange) paginate.FetchFunc[json.RawMessage] {
	return func(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
		return c.listPage(ctx, "/expenses", "expenses", cursor, r.params())
	}
}

// BillDetail fetches one bill including its line items.
func (c *BooksClient) BillDetail(ctx context.Context, zohoBillID string) (json.RawMessage, error) {
	body := map[string]json.RawMessage{}
	if err := c.get(ctx, "/bills/"+url.PathEscape(zohoBillID), nil, body); err != nil {
		return nil, err
	}
	raw, ok := body["bill"]
	if !ok {
		return nil, fmt.Errorf("bill %s: missing bill in response", zohoBillID)
	}
	return raw, nil
}
