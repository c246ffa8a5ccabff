package zoho

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/margindesk/margindesk_backend/integrations"
	"github.com/margindesk/margindesk_backend/paginate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooks(t *testing.T, srvURL string, retry integrations.RetryPolicy) *BooksClient {
	t.Helper()
	req := integrations.NewRequester(integrations.ServiceZohoBooks, 5*time.Second, retry, 0, nil)
	return NewBooksClient(Config{BaseURL: srvURL, PageSize: 2}, integrations.NewStaticTokenProvider("books-token", "org-1"), req)
}

func TestBooksBillsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bills", r.URL.Path)
		assert.Equal(t, "Zoho-oauthtoken books-token", r.Header.Get("Authorization"))
		assert.Equal(t, "org-1", r.URL.Query().Get("organization_id"))
		assert.Equal(t, "2024-04-01", r.URL.Query().Get("date_start"))
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`{"code":0,"bills":[{"bill_id":"1"},{"bill_id":"2"}],"page_context":{"page":1,"has_more_page":true}}`))
		default:
			_, _ = w.Write([]byte(`{"code":0,"bills":[{"bill_id":"3"}],"page_context":{"page":2,"has_more_page":false}}`))
		}
	}))
	defer srv.Close()

	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	c := newBooks(t, srv.URL, integrations.NoRetry)
	res, err := paginate.Walk(context.Background(), c.BillsPage(DateRange{From: &from}), paginate.Options{PageSize: c.PageSize()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	require.Len(t, res.Items, 3)

	var bill struct {
		BillID string `json:"bill_id"`
	}
	require.NoError(t, json.Unmarshal(res.Items[2], &bill))
	assert.Equal(t, "3", bill.BillID)
}

func TestBooksInBandErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":57,"message":"You are not authorized to perform this operation"}`))
	}))
	defer srv.Close()

	_, err := newBooks(t, srv.URL, integrations.NoRetry).ContactsPage(context.Background(), "")
	var apiErr *integrations.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 57, apiErr.Code)
}

func TestBooksRetryPolicy(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"code":0,"invoices":[],"page_context":{"has_more_page":false}}`))
	}))
	defer srv.Close()

	_, err := newBooks(t, srv.URL, integrations.NoRetry).InvoicesPage(context.Background(), "")
	var apiErr *integrations.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)

	atomic.StoreInt32(&calls, 0)
	_, err = newBooks(t, srv.URL, integrations.RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond}).InvoicesPage(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestBooksMissingOrganization(t *testing.T) {
	req := integrations.NewRequester(integrations.ServiceZohoBooks, 0, integrations.NoRetry, 0, nil)
	c := NewBooksClient(Config{BaseURL: "http://127.0.0.1:1"}, integrations.NewStaticTokenProvider("tok", ""), req)
	_, err := c.ContactsPage(context.Background(), "")
	require.ErrorIs(t, err, integrations.ErrNotConnected)
}

func TestRegionBaseURLs(t *testing.T) {
	assert.Equal(t, "https://www.zohoapis.in/books/v3", BooksBaseURL("in"))
	assert.Equal(t, "https://www.zohoapis.com/books/v3", BooksBaseURL(""))
	assert.Equal(t, "https://people.zoho.eu/people/api", PeopleBaseURL("EU"))
	assert.Equal(t, "https://people.zoho.com.au/people/api", PeopleBaseURL("au"))
}
