// Package finance builds pod level revenue, utilization and cost reports from stored data.
package finance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/margindesk/margindesk_backend/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const HoursPerDay = 8

var (
	ErrInvalidRange = errors.New("end date is before start date")

	hundred = decimal.NewFromInt(100)
)

// Source is what the engine reads.
type Source interface {
	store.ReportStore
	ListPeople(ctx context.Context, ids []int) ([]models.Person, error)
}

// OverheadAllocator decides the overhead charged to a pod for one month.
type OverheadAllocator interface {
	Allocate(ctx context.Context, pod *models.Pod, month time.Time, direct, support decimal.Decimal) (decimal.Decimal, error)
}

// ZeroOverhead charges nothing. No allocation policy has been agreed yet.
type ZeroOverhead struct{}

func (ZeroOverhead) Allocate(context.Context, *models.Pod, time.Time, decimal.Decimal, decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type Engine struct {
	src      Source
	overhead OverheadAllocator
	logger   logrus.FieldLogger
	tracer   trace.Tracer
}

func NewEngine(src Source, logger logrus.FieldLogger) *Engine {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &Engine{
		src:      src,
		overhead: ZeroOverhead{},
		logger:   logger,
		tracer:   otel.Tracer("margindesk/finance"),
	}
}

func (e *Engine) WithOverhead(a OverheadAllocator) *Engine {
	if a != nil {
		e.overhead = a
	}
	return e
}

// pct treats an unset allocation as a full one.
func pct(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return hundred
	}
	return d
}

func ratio(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}

func salaryAmount(s models.Salary) decimal.Decimal {
	if s.Total.IsZero() {
		return s.ComputeTotal()
	}
	return s.Total
}

func salaryKey(personID int, year int, month time.Month) string {
	return fmt.Sprintf("%d:%04d-%02d", personID, year, int(month))
}

// PodReport aggregates [start, end] for one pod. Both dates are inclusive.
func (e *Engine) PodReport(ctx context.Context, podID int, start, end time.Time) (*PodReport, error) {
	ctx, span := e.tracer.Start(ctx, "finance.pod_report")
	defer span.End()
	span.SetAttributes(attribute.Int("pod.id", podID))

	rng := Window{From: Day(start), To: Day(end)}
	if rng.Empty() {
		return nil, ErrInvalidRange
	}
	pod, err := e.src.GetPod(ctx, podID)
	if err != nil {
		return nil, err
	}

	members, err := e.src.ListPodMembers(ctx, podID, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("list pod members: %w", err)
	}
	mappings, err := e.src.ListProjectMappings(ctx, podID, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("list project mappings: %w", err)
	}

	rep := &PodReport{PodID: pod.ID, PodName: pod.Name, StartDate: rng.From, EndDate: rng.To}
	months := rng.Months()

	revenueByMonth, err := e.revenue(ctx, rep, mappings, rng, months)
	if err != nil {
		return nil, err
	}

	personIDs := uniquePersonIDs(members)
	people, err := e.people(ctx, personIDs)
	if err != nil {
		return nil, err
	}
	if err := e.utilization(ctx, rep, members, people, rng); err != nil {
		return nil, err
	}
	direct, support, err := e.costs(ctx, rep, members, people, rng, months)
	if err != nil {
		return nil, err
	}

	for _, m := range months {
		key := MonthKey(m.From)
		overhead, err := e.overhead.Allocate(ctx, pod, m.From, direct[key], support[key])
		if err != nil {
			return nil, fmt.Errorf("overhead for %s: %w", key, err)
		}
		gross := revenueByMonth[key].Sub(direct[key]).Sub(support[key])
		rep.Months = append(rep.Months, MonthSummary{
			Month:       key,
			Revenue:     revenueByMonth[key],
			DirectCost:  direct[key],
			SupportCost: support[key],
			GrossProfit: gross,
			Overhead:    overhead,
			NetProfit:   gross.Sub(overhead),
		})
	}
	rep.Totals = rollup(rep.Months)

	e.logger.WithFields(logrus.Fields{
		"pod_id":  podID,
		"from":    MonthKey(rng.From),
		"to":      MonthKey(rng.To),
		"members": len(members),
		"revenue": rep.Totals.Revenue.String(),
	}).Debug("pod report built")
	return rep, nil
}

func rollup(months []MonthSummary) Totals {
	var t Totals
	for _, m := range months {
		t.Revenue = t.Revenue.Add(m.Revenue)
		t.DirectCost = t.DirectCost.Add(m.DirectCost)
		t.SupportCost = t.SupportCost.Add(m.SupportCost)
		t.Overhead = t.Overhead.Add(m.Overhead)
	}
	t.TotalCost = t.DirectCost.Add(t.SupportCost)
	t.GrossProfit = t.Revenue.Sub(t.TotalCost)
	t.NetProfit = t.GrossProfit.Sub(t.Overhead)
	t.GrossMarginPct = ratio(t.GrossProfit, t.Revenue)
	t.NetMarginPct = ratio(t.NetProfit, t.Revenue)
	return t
}

// revenue takes each mapped project's cost entries for months the mapping covers, scaled
// by the mapping's allocation.
func (e *Engine) revenue(ctx context.Context, rep *PodReport, mappings []models.ProjectMapping, rng Window, months []Window) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	if len(mappings) == 0 {
		return out, nil
	}
	byProject := map[int][]models.ProjectMapping{}
	var ids []int
	for _, pm := range mappings {
		if _, ok := byProject[pm.ProjectId]; !ok {
			ids = append(ids, pm.ProjectId)
		}
		byProject[pm.ProjectId] = append(byProject[pm.ProjectId], pm)
	}
	sort.Ints(ids)

	projects, err := e.src.ListProjects(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	info := map[int]models.Project{}
	for _, p := range projects {
		info[p.ID] = p
	}

	entries, err := e.src.ListProjectCosts(ctx, ids, months[0].From, months[len(months)-1].To)
	if err != nil {
		return nil, fmt.Errorf("list project costs: %w", err)
	}
	type key struct {
		month   string
		project int
	}
	sums := map[key]decimal.Decimal{}
	for _, c := range entries {
		month := MonthOf(c.Month)
		if _, ok := Intersect(month, rng); !ok {
			continue
		}
		for _, pm := range byProject[c.ProjectId] {
			if _, ok := Intersect(month, NewWindow(pm.StartDate, pm.EndDate)); !ok {
				continue
			}
			k := key{MonthKey(month.From), c.ProjectId}
			sums[k] = sums[k].Add(c.Amount.Mul(pct(pm.AllocationPct)).Div(hundred))
		}
	}

	keys := make([]key, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return keys[i].project < keys[j].project
	})
	for _, k := range keys {
		p := info[k.project]
		rep.Revenue = append(rep.Revenue, ProjectRevenue{
			Month:       k.month,
			ProjectID:   k.project,
			ProjectCode: p.Code,
			ProjectName: p.Name,
			Amount:      sums[k],
		})
		out[k.month] = out[k.month].Add(sums[k])
	}
	return out, nil
}

func uniquePersonIDs(members []models.PodMember) []int {
	seen := map[int]bool{}
	var ids []int
	for _, m := range members {
		if !seen[m.PersonId] {
			seen[m.PersonId] = true
			ids = append(ids, m.PersonId)
		}
	}
	sort.Ints(ids)
	return ids
}

func (e *Engine) people(ctx context.Context, ids []int) (map[int]models.Person, error) {
	out := map[int]models.Person{}
	if len(ids) == 0 {
		return out, nil
	}
	people, err := e.src.ListPeople(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	for _, p := range people {
		out[p.ID] = p
	}
	return out, nil
}

// plannedByMonth sums each person's planned allocation per month across projects.
func (e *Engine) plannedByMonth(ctx context.Context, ids []int, rng Window) (map[int]map[string]decimal.Decimal, error) {
	allocations, err := e.src.ListAllocations(ctx, ids, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	out := map[int]map[string]decimal.Decimal{}
	for _, a := range allocations {
		if out[a.PersonId] == nil {
			out[a.PersonId] = map[string]decimal.Decimal{}
		}
		k := MonthKey(a.Month)
		out[a.PersonId][k] = out[a.PersonId][k].Add(a.Percentage)
	}
	return out, nil
}

// averagePlanned is the mean planned allocation over the months w touches. Months with no
// allocation count as zero.
func averagePlanned(byMonth map[string]decimal.Decimal, w Window) decimal.Decimal {
	months := w.Months()
	if len(months) == 0 {
		return decimal.Zero
	}
	var sum decimal.Decimal
	for _, m := range months {
		sum = sum.Add(byMonth[MonthKey(m.From)])
	}
	return sum.Div(decimal.NewFromInt(int64(len(months))))
}

func (e *Engine) utilization(ctx context.Context, rep *PodReport, members []models.PodMember, people map[int]models.Person, rng Window) error {
	if len(members) == 0 {
		return nil
	}
	ids := uniquePersonIDs(members)
	entries, err := e.src.ListTimesheetEntries(ctx, ids, rng.From, rng.To)
	if err != nil {
		return fmt.Errorf("list timesheet entries: %w", err)
	}
	planned, err := e.plannedByMonth(ctx, ids, rng)
	if err != nil {
		return err
	}
	byPerson := map[int][]models.TimesheetEntry{}
	for _, t := range entries {
		byPerson[t.PersonId] = append(byPerson[t.PersonId], t)
	}

	for _, m := range members {
		w, ok := Intersect(NewWindow(m.StartDate, m.EndDate), rng)
		if !ok {
			continue
		}
		working := decimal.NewFromInt(int64(w.BusinessDays() * HoursPerDay))
		var billable, nonBillable decimal.Decimal
		for _, t := range byPerson[m.PersonId] {
			if !w.Contains(t.Date) {
				continue
			}
			if t.Billable {
				billable = billable.Add(t.Hours)
			} else {
				nonBillable = nonBillable.Add(t.Hours)
			}
		}
		worked := billable.Add(nonBillable)
		rep.Members = append(rep.Members, MemberUtilization{
			PersonID:         m.PersonId,
			Name:             people[m.PersonId].Name,
			WindowStart:      w.From,
			WindowEnd:        w.To,
			WorkingHours:     working,
			WorkedHours:      worked,
			BillableHours:    billable,
			NonBillableHours: nonBillable,
			UnutilizedHours:  working.Sub(worked),
			UtilizationPct:   ratio(worked, working),
			BillabilityPct:   ratio(billable, working),
			TargetPct:        people[m.PersonId].UtilizationTarget,
			PlannedPct:       averagePlanned(planned[m.PersonId], w),
		})
	}
	return nil
}

// costs prorates each member's monthly salary over the days of the month they were in the
// pod and inside the report range.
func (e *Engine) costs(ctx context.Context, rep *PodReport, members []models.PodMember, people map[int]models.Person, rng Window, months []Window) (map[string]decimal.Decimal, map[string]decimal.Decimal, error) {
	direct := map[string]decimal.Decimal{}
	support := map[string]decimal.Decimal{}
	if len(members) == 0 {
		return direct, support, nil
	}
	salaries, err := e.src.ListSalaries(ctx, uniquePersonIDs(members), months[0].From, months[len(months)-1].To)
	if err != nil {
		return nil, nil, fmt.Errorf("list salaries: %w", err)
	}
	bySlot := map[string]models.Salary{}
	for _, s := range salaries {
		bySlot[salaryKey(s.PersonId, s.Year, time.Month(s.Month))] = s
	}

	for _, month := range months {
		key := MonthKey(month.From)
		for _, m := range members {
			w, ok := Intersect(NewWindow(m.StartDate, m.EndDate), rng)
			if !ok {
				continue
			}
			if w, ok = Intersect(w, month); !ok {
				continue
			}
			s, ok := bySlot[salaryKey(m.PersonId, month.From.Year(), month.From.Month())]
			if !ok {
				continue
			}
			amount := salaryAmount(s)
			alloc := pct(m.AllocationPct)
			days, dim := w.Days(), month.Days()
			cost := amount.Mul(alloc).Mul(decimal.NewFromInt(int64(days))).
				Div(hundred.Mul(decimal.NewFromInt(int64(dim))))

			rep.Costs = append(rep.Costs, MemberCost{
				Month:         key,
				PersonID:      m.PersonId,
				Name:          people[m.PersonId].Name,
				MonthlySalary: amount,
				AllocationPct: alloc,
				Days:          days,
				DaysInMonth:   dim,
				Cost:          cost,
				Support:       s.IsSupportStaff,
			})
			if s.IsSupportStaff {
				support[key] = support[key].Add(cost)
			} else {
				direct[key] = direct[key].Add(cost)
			}
		}
	}
	return direct, support, nil
}
