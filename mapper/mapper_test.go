package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/margindesk/margindesk_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		in     string
		wantOK bool
		want   *time.Time
	}{
		{"15-Mar-2024", true, &want},
		{"2024-03-15", true, &want},
		{"15/03/2024", true, &want},
		{"2024-03-15T10:30:00+05:30", true, &want},
		{"", true, nil},
		{"   ", true, nil},
		{"March fifteenth", false, nil},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.in)
		assert.Equal(t, tc.wantOK, ok, tc.in)
		if tc.want == nil {
			assert.Nil(t, got, tc.in)
			continue
		}
		require.NotNil(t, got, tc.in)
		assert.True(t, tc.want.Equal(*got), "%s: got %s", tc.in, got)
	}
}

func TestUnwrapAndMapEmployee(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"4100000012345":[{"EmailID":"Jane@Example.com","FirstName":"Jane","LastName":"Doe","Dateofjoining":"01-Apr-2023","Dateofexit":"not a date","Designation":"Engineer","Employeestatus":"Active","Reporting_To.MailID":"Boss@Example.com","CTC":"120000"}]}`),
	}
	recs, failed := UnwrapPeopleRecords(raw)
	require.Empty(t, failed)
	require.Len(t, recs, 1)
	assert.Equal(t, "4100000012345", recs[0].RecordID)

	emp, err := Employee(recs[0])
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", emp.Person.Email)
	assert.Equal(t, "Jane Doe", emp.Person.Name)
	assert.Equal(t, "4100000012345", *emp.Person.ZohoEmployeeId)
	assert.Equal(t, "boss@example.com", emp.ManagerEmail)
	assert.Equal(t, models.PersonStatusActive, emp.Person.Status)
	require.NotNil(t, emp.Person.StartDate)
	assert.Equal(t, time.April, emp.Person.StartDate.Month())
	assert.Nil(t, emp.Person.EndDate)
	require.Len(t, emp.Warnings, 1)
	assert.Contains(t, emp.Warnings[0], "Dateofexit")
	assert.True(t, decimal.NewFromInt(120000).Equal(emp.Person.CtcMonthly))
}

func TestEmployeePrefersZohoIDField(t *testing.T) {
	recs, failed := UnwrapPeopleRecords([]json.RawMessage{json.RawMessage(`{"99":[{"Zoho_ID":7,"EmailID":"a@b.c","Employeestatus":"Resigned"}]}`)})
	require.Empty(t, failed)
	emp, err := Employee(recs[0])
	require.NoError(t, err)
	assert.Equal(t, "7", *emp.Person.ZohoEmployeeId)
	assert.Equal(t, models.PersonStatusExited, emp.Person.Status)
}

func TestUnwrapKeepsGoodRowsNextToBadOnes(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"b":[{"EmailID":"b@x.com"}],"a":[{"EmailID":"a@x.com"}]}`),
		json.RawMessage(`{"2":["not an object"]}`),
		json.RawMessage(`[1,2]`),
		json.RawMessage(`{"3":[{"EmailID":"c@x.com"}]}`),
	}
	recs, failed := UnwrapPeopleRecords(raw)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"a", "b", "3"}, []string{recs[0].RecordID, recs[1].RecordID, recs[2].RecordID})

	require.Len(t, failed, 2)
	assert.Equal(t, 1, failed[0].Index)
	assert.Equal(t, "2", failed[0].RecordID)
	assert.Contains(t, failed[0].Error(), "record 2")
	assert.Equal(t, 2, failed[1].Index)
	assert.Empty(t, failed[1].RecordID)
	assert.Contains(t, failed[1].Error(), "item 2")
}

func TestEmployeeBillableFlag(t *testing.T) {
	cases := []struct {
		row     string
		want    bool
		wantSet bool
	}{
		{`{"EmailID":"a@x.com"}`, true, false},
		{`{"EmailID":"a@x.com","Billable":"No"}`, false, true},
		{`{"EmailID":"a@x.com","Is_Billable":true}`, true, true},
	}
	for _, c := range cases {
		emp, err := Employee(PeopleRecord{RecordID: "1", Fields: mustFields(t, c.row)})
		require.NoError(t, err, c.row)
		assert.Equal(t, c.want, emp.Person.Billable, c.row)
		assert.Equal(t, c.wantSet, emp.BillableSet, c.row)
	}
}

func mustFields(t *testing.T, doc string) Fields {
	t.Helper()
	f, err := decodeFields([]byte(doc))
	require.NoError(t, err)
	return f
}

func TestBillWithCustomFields(t *testing.T) {
	rec, err := Bill(json.RawMessage(`{"bill_id":"B1","vendor_name":"AWS India","date":"2024-05-02","total":1234.5,"cf_cost_center":"Cloud","cf_cost_center_unformatted":"Cloud"}`))
	require.NoError(t, err)
	assert.Equal(t, "B1", rec.Bill.ZohoBillId)
	assert.Equal(t, "AWS India", rec.Bill.VendorName)
	assert.True(t, decimal.RequireFromString("1234.5").Equal(rec.Bill.Total))
	assert.Equal(t, models.JSONMap{"cf_cost_center": "Cloud"}, rec.Bill.CustomFields)
	assert.True(t, rec.Bill.IncludeInCalculation)
}

func TestBillWithoutIDFails(t *testing.T) {
	_, err := Bill(json.RawMessage(`{"vendor_name":"x"}`))
	require.Error(t, err)
}

func TestCustomerPaymentInvoices(t *testing.T) {
	rec, err := CustomerPayment(json.RawMessage(`{"payment_id":"P1","amount":"500.00","invoices":[{"invoice_id":"I1","amount_applied":500}],"invoice_numbers":"INV-1, INV-2"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"I1"}, rec.InvoiceZohoIDs)
	assert.Equal(t, []string{"INV-1", "INV-2"}, rec.InvoiceNumbers)
}

func TestBillLineItems(t *testing.T) {
	items, err := BillLineItems(json.RawMessage(`{"bill_id":"B1","line_items":[{"line_item_id":"L1","account_name":"Cloud","quantity":2,"rate":10,"item_total":20}]}`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "L1", items[0].ZohoLineItemId)
	assert.True(t, decimal.NewFromInt(20).Equal(items[0].ItemTotal))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+919876543210", NormalizePhone("098765 43210", "IN"))
	assert.Equal(t, "+14155552671", NormalizePhone("+1 415-555-2671", "IN"))
	assert.Equal(t, "call me", NormalizePhone("call me", "IN"))
	assert.Equal(t, "", NormalizePhone("", "IN"))
}

func TestGraphUserEmailFallback(t *testing.T) {
	u, err := GraphUser(json.RawMessage(`{"id":"g1","userPrincipalName":"Jane@Corp.onmicrosoft.com","accountEnabled":false}`))
	require.NoError(t, err)
	assert.Equal(t, "jane@corp.onmicrosoft.com", u.Email)
	assert.False(t, u.Enabled)
}
