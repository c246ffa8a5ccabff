package managerhistory

import (
	"context"
	"testing"
	"time"

	"github.com/margindesk/margindesk_backend/models"
	"github.com/margindesk/margindesk_backend/store/storetest"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	mem   *storetest.Memory
	rec   *Reconciler
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	f := &fixture{mem: storetest.New(), clock: date(2024, 6, 10)}
	f.rec = NewReconciler(f.mem, logger).WithClock(func() time.Time { return f.clock })
	return f
}

func (f *fixture) person(t *testing.T, email string, start time.Time) *models.Person {
	t.Helper()
	p := &models.Person{Name: email, Email: email, Status: models.PersonStatusActive, StartDate: &start}
	require.NoError(t, f.mem.CreatePerson(context.Background(), p))
	return p
}

func (f *fixture) history(t *testing.T, personID int) []models.ManagerHistory {
	t.Helper()
	h, err := f.mem.ListManagerHistory(context.Background(), personID)
	require.NoError(t, err)
	return h
}

func assertNoOverlap(t *testing.T, hs []models.ManagerHistory) {
	t.Helper()
	open := 0
	for i, h := range hs {
		if h.EndDate == nil {
			open++
		} else {
			assert.False(t, h.EndDate.Before(h.StartDate), "interval %d ends before it starts", i)
		}
		if i > 0 {
			prev := hs[i-1]
			require.NotNil(t, prev.EndDate, "only the last interval may be open")
			assert.False(t, h.StartDate.Before(*prev.EndDate), "interval %d overlaps previous", i)
		}
	}
	assert.LessOrEqual(t, open, 1)
}

func TestFirstAssignmentStartsAtStartDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.person(t, "boss@x.com", date(2020, 1, 1))
	emp := f.person(t, "emp@x.com", date(2023, 4, 1))

	res := f.rec.Reconcile(ctx, []ManagerRef{{PersonID: emp.ID, ManagerEmail: "boss@x.com"}})
	assert.Equal(t, 1, res.Opened)
	assert.Zero(t, res.Errors)

	hs := f.history(t, emp.ID)
	require.Len(t, hs, 1)
	assert.Equal(t, date(2023, 4, 1), hs[0].StartDate)
	assert.Nil(t, hs[0].EndDate)

	got, _ := f.mem.GetPerson(ctx, emp.ID)
	require.NotNil(t, got.ManagerId)
	assert.Equal(t, boss.ID, *got.ManagerId)
}

func TestManagerChangeClosesAndOpensAtNow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.person(t, "a@x.com", date(2020, 1, 1))
	b := f.person(t, "b@x.com", date(2020, 1, 1))
	emp := f.person(t, "emp@x.com", date(2023, 4, 1))

	f.rec.Reconcile(ctx, []ManagerRef{{PersonID: emp.ID, ManagerEmail: "a@x.com"}})
	f.clock = date(2024, 9, 1)
	res := f.rec.Reconcile(ctx, []ManagerRef{{PersonID: emp.ID, ManagerEmail: "b@x.com"}})
	assert.Equal(t, 1, res.Closed)
	assert.Equal(t, 1, res.Opened)

	hs := f.history(t, emp.ID)
	require.Len(t, hs, 2)
	assert.Equal(t, date(2024, 9, 1), *hs[0].EndDate)
	assert.Equal(t, date(2024, 9, 1), hs[1].StartDate)
	assert.Equal(t, b.ID, hs[1].ManagerId)
	assertNoOverlap(t, hs)
}

func TestUnchangedManagerIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.person(t, "a@x.com", date(2020, 1, 1))
	emp := f.person(t, "emp@x.com", date(2023, 4, 1))

	refs := []ManagerRef{{PersonID: emp.ID, ManagerEmail: "a@x.com"}}
	f.rec.Reconcile(ctx, refs)
	f.clock = date(2024, 7, 1)
	res := f.rec.Reconcile(ctx, refs)
	assert.Equal(t, 1, res.Unchanged)
	assert.Zero(t, res.Opened)
	assert.Len(t, f.history(t, emp.ID), 1)
}

func TestUnresolvedManagerLeavesHistoryAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.person(t, "a@x.com", date(2020, 1, 1))
	emp := f.person(t, "emp@x.com", date(2023, 4, 1))
	f.rec.Reconcile(ctx, []ManagerRef{{PersonID: emp.ID, ManagerEmail: "a@x.com"}})

	res := f.rec.Reconcile(ctx, []ManagerRef{{PersonID: emp.ID, ManagerEmail: "ghost@x.com"}})
	assert.Equal(t, 1, res.Unresolved)
	hs := f.history(t, emp.ID)
	require.Len(t, hs, 1)
	assert.Nil(t, hs[0].EndDate)
}

func TestNoManagerClosesOpenInterval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.person(t, "a@x.com", date(2020, 1, 1))
	emp := f.person(t, "emp@x.com", date(2023, 4, 1))
	f.rec.Reconcile(ctx, []ManagerRef{{PersonID: emp.ID, ManagerEmail: "a@x.com"}})

	f.clock = date(2024, 8, 15)
	res := f.rec.Reconcile(ctx, []ManagerRef{{PersonID: emp.ID}})
	assert.Equal(t, 1, res.Closed)
	hs := f.history(t, emp.ID)
	require.Len(t, hs, 1)
	assert.Equal(t, date(2024, 8, 15), *hs[0].EndDate)

	got, _ := f.mem.GetPerson(ctx, emp.ID)
	assert.Nil(t, got.ManagerId)
}

func TestExitedPersonClosesAtExitDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.person(t, "a@x.com", date(2020, 1, 1))
	emp := f.person(t, "emp@x.com", date(2023, 4, 1))
	f.rec.Reconcile(ctx, []ManagerRef{{PersonID: emp.ID, ManagerEmail: "a@x.com"}})

	exit := date(2024, 5, 31)
	p, _ := f.mem.GetPerson(ctx, emp.ID)
	p.Status = models.PersonStatusExited
	p.EndDate = &exit
	require.NoError(t, f.mem.UpdatePerson(ctx, p))

	res := f.rec.Reconcile(ctx, []ManagerRef{{PersonID: emp.ID, ManagerEmail: "a@x.com"}})
	assert.Equal(t, 1, res.Closed)
	hs := f.history(t, emp.ID)
	require.Len(t, hs, 1)
	assert.Equal(t, exit, *hs[0].EndDate)

	got, _ := f.mem.GetPerson(ctx, emp.ID)
	assert.Nil(t, got.ManagerId)
}

func TestExitedPersonNewManagerAfterExitIsSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.person(t, "a@x.com", date(2020, 1, 1))
	f.person(t, "b@x.com", date(2020, 1, 1))
	emp := f.person(t, "emp@x.com", date(2023, 4, 1))
	f.rec.Reconcile(ctx, []ManagerRef{{PersonID: emp.ID, ManagerEmail: "a@x.com"}})

	exit := date(2024, 5, 31)
	p, _ := f.mem.GetPerson(ctx, emp.ID)
	p.Status = models.PersonStatusExited
	p.EndDate = &exit
	require.NoError(t, f.mem.UpdatePerson(ctx, p))

	res := f.rec.Reconcile(ctx, []ManagerRef{{PersonID: emp.ID, ManagerEmail: "b@x.com"}})
	assert.Equal(t, 1, res.Closed)
	assert.Zero(t, res.Opened)
	hs := f.history(t, emp.ID)
	require.Len(t, hs, 1)
	assertNoOverlap(t, hs)
}

func TestExitedPersonWithoutHistoryGetsClosedInterval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.person(t, "a@x.com", date(2020, 1, 1))
	exit := date(2024, 2, 29)
	emp := &models.Person{Name: "e", Email: "e@x.com", Status: models.PersonStatusExited, StartDate: ptr(date(2022, 1, 10)), EndDate: &exit}
	require.NoError(t, f.mem.CreatePerson(ctx, emp))

	res := f.rec.Reconcile(ctx, []ManagerRef{{PersonID: emp.ID, ManagerEmail: "a@x.com"}})
	assert.Equal(t, 1, res.Opened)
	hs := f.history(t, emp.ID)
	require.Len(t, hs, 1)
	assert.Equal(t, date(2022, 1, 10), hs[0].StartDate)
	assert.Equal(t, exit, *hs[0].EndDate)
}

func TestRepeatedChangesNeverOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, e := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		f.person(t, e, date(2020, 1, 1))
	}
	emp := f.person(t, "emp@x.com", date(2024, 6, 10))

	seq := []string{"a@x.com", "b@x.com", "b@x.com", "", "c@x.com", "a@x.com", "a@x.com"}
	for i, m := range seq {
		f.clock = date(2024, 6, 10).AddDate(0, 0, i*3)
		res := f.rec.Reconcile(ctx, []ManagerRef{{PersonID: emp.ID, ManagerEmail: m}})
		require.Zero(t, res.Errors, res.Messages)
		assertNoOverlap(t, f.history(t, emp.ID))
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
