package syncer

import (
	"context"
	"encoding/json"

	"github.com/margindesk/margindesk_backend/integrations/zoho"
	"github.com/margindesk/margindesk_backend/paginate"
)

func onePage(items []json.RawMessage, err error) (paginate.Page[json.RawMessage], error) {
	if err != nil {
		return paginate.Page[json.RawMessage]{}, err
	}
	return paginate.Page[json.RawMessage]{Items: items, HasMore: paginate.Bool(false)}, nil
}

func raws(docs ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(docs))
	for i, d := range docs {
		out[i] = json.RawMessage(d)
	}
	return out
}

type fakeBooks struct {
	contacts []json.RawMessage
	invoices []json.RawMessage
	payments []json.RawMessage
	bills    []json.RawMessage
	expenses []json.RawMessage
	details  map[string]json.RawMessage
	err      error

	billRanges []zoho.DateRange
}

func (f *fakeBooks) PageSize() int { return 0 }

func (f *fakeBooks) ContactsPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	return onePage(f.contacts, f.err)
}

func (f *fakeBooks) InvoicesPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	return onePage(f.invoices, f.err)
}

func (f *fakeBooks) CustomerPaymentsPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	return onePage(f.payments, f.err)
}

func (f *fakeBooks) BillsPage(r zoho.DateRange) paginate.FetchFunc[json.RawMessage] {
	f.billRanges = append(f.billRanges, r)
	return func(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
		return onePage(f.bills, f.err)
	}
}

func (f *fakeBooks) ExpensesPage(r zoho.DateRange) paginate.FetchFunc[json.RawMessage] {
	return func(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
		return onePage(f.expenses, f.err)
	}
}

func (f *fakeBooks) BillDetail(ctx context.Context, zohoBillID string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.details[zohoBillID], nil
}

type fakePeople struct {
	employees []json.RawMessage
	leaves    []json.RawMessage
	holidays  []json.RawMessage
	err       error
}

func (f *fakePeople) PageSize() int { return 0 }

func (f *fakePeople) EmployeesPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	return onePage(f.employees, f.err)
}

func (f *fakePeople) LeavesPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	return onePage(f.leaves, f.err)
}

func (f *fakePeople) HolidaysPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	return onePage(f.holidays, f.err)
}

type fakeGraph struct {
	users []json.RawMessage
}

func (f *fakeGraph) UsersPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error) {
	return onePage(f.users, nil)
}
