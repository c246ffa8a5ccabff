package zoho

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/margindesk/margindesk_backend/integrations"
	"github.com/margindesk/margindesk_backend/paginate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeopleStartIndexPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/employee/getRecords", r.URL.Path)
		switch r.URL.Query().Get("sIndex") {
		case "1":
			_, _ = w.Write([]byte(`{"response":{"status":0,"result":[{"100":[{"EmailID":"a@x.com"}]},{"101":[{"EmailID":"b@x.com"}]}]}}`))
		case "3":
			_, _ = w.Write([]byte(`{"response":{"status":1,"message":"Error","errors":{"code":7024,"message":"No records found"}}}`))
		default:
			t.Errorf("unexpected sIndex %s", r.URL.Query().Get("sIndex"))
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	req := integrations.NewRequester(integrations.ServiceZohoPeople, 0, integrations.NoRetry, 0, nil)
	c := NewPeopleClient(Config{BaseURL: srv.URL, PageSize: 2}, integrations.NewStaticTokenProvider("people-token", ""), req)

	res, err := paginate.Walk(context.Background(), c.EmployeesPage, paginate.Options{PageSize: c.PageSize()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.Len(t, res.Items, 2)
}
