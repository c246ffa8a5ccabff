package syncer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/margindesk/margindesk_backend/integrations"
	"github.com/margindesk/margindesk_backend/managerhistory"
	"github.com/margindesk/margindesk_backend/mapper"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/margindesk/margindesk_backend/paginate"
	"github.com/sirupsen/logrus"
)

func errPeopleNotConnected() error {
	return fmt.Errorf("zoho people client: %w", integrations.ErrNotConnected)
}

func (s *Syncer) fetchPeople(ctx context.Context, label string, page paginate.FetchFunc[json.RawMessage], logger logrus.FieldLogger, res *MergeResult) ([]mapper.PeopleRecord, error) {
	raws, err := fetchAll(ctx, s, label, s.people.PageSize(), page, logger, res)
	if err != nil {
		return nil, err
	}
	recs, failed := mapper.UnwrapPeopleRecords(raws)
	for _, f := range failed {
		res.Fail(fmt.Sprintf("%s %s", label, f.Error()))
	}
	return recs, nil
}

// ApplyPerson copies an upstream person onto the stored one. Blank upstream values never
// clear stored ones, the end date only moves when upstream has one, and a manual CTC
// override keeps the stored compensation and role.
func ApplyPerson(existing *models.Person, in models.Person) {
	existing.Name = nonEmpty(in.Name, existing.Name)
	existing.Email = nonEmpty(in.Email, existing.Email)
	existing.Designation = nonEmpty(in.Designation, existing.Designation)
	existing.Department = nonEmpty(in.Department, existing.Department)
	if in.Status != "" {
		existing.Status = in.Status
	}
	if in.StartDate != nil {
		existing.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		existing.EndDate = in.EndDate
	}
	if in.ZohoEmployeeId != nil {
		existing.ZohoEmployeeId = in.ZohoEmployeeId
	}
	if !existing.ManualCtcOverride {
		existing.Role = nonEmpty(in.Role, existing.Role)
		if !in.CtcMonthly.IsZero() {
			existing.CtcMonthly = in.CtcMonthly
		}
	}
}

// syncEmployees merges people first and reconciles manager history afterwards, so a
// manager synced later in the same run still resolves.
func (s *Syncer) syncEmployees(ctx context.Context, logger logrus.FieldLogger) (MergeResult, error) {
	var res MergeResult
	if s.people == nil {
		return res, errPeopleNotConnected()
	}
	recs, err := s.fetchPeople(ctx, "employees", s.people.EmployeesPage, logger, &res)
	if err != nil {
		return res, err
	}

	employees := make([]mapper.EmployeeRecord, 0, len(recs))
	for _, rec := range recs {
		emp, err := mapper.Employee(rec)
		if err != nil {
			res.Fail(fmt.Sprintf("employee %s: %v", rec.RecordID, err))
			continue
		}
		if emp.Person.Email == "" {
			res.Skipped++
			continue
		}
		recordWarnings(&res, *emp.Person.ZohoEmployeeId, emp.Warnings)
		employees = append(employees, emp)
	}

	var refs []managerhistory.ManagerRef
	res.Add(Merge(ctx, employees, MergeOps[mapper.EmployeeRecord, models.Person]{
		Key: func(e mapper.EmployeeRecord) string { return *e.Person.ZohoEmployeeId },
		Find: func(ctx context.Context, key string, e mapper.EmployeeRecord) (*models.Person, error) {
			p, err := s.store.FindPersonByZohoID(ctx, key)
			if err != nil || p != nil {
				return p, err
			}
			return s.store.FindPersonByEmail(ctx, e.Person.Email)
		},
		Create: func(ctx context.Context, e mapper.EmployeeRecord) (*models.Person, error) {
			p := e.Person
			return &p, s.store.CreatePerson(ctx, &p)
		},
		Update: func(ctx context.Context, existing *models.Person, e mapper.EmployeeRecord) error {
			ApplyPerson(existing, e.Person)
			if e.BillableSet {
				existing.Billable = e.Person.Billable
			}
			return s.store.UpdatePerson(ctx, existing)
		},
		Stored: func(e mapper.EmployeeRecord, p *models.Person) {
			refs = append(refs, managerhistory.ManagerRef{PersonID: p.ID, ManagerEmail: e.ManagerEmail})
		},
	}))

	hist := managerhistory.NewReconciler(s.store, logger).WithClock(s.now).Reconcile(ctx, refs)
	res.Errors += hist.Errors
	res.Messages = append(res.Messages, hist.Messages...)
	if hist.Unresolved > 0 {
		res.Warn(fmt.Sprintf("%d manager emails did not resolve to a person", hist.Unresolved))
	}
	return res, nil
}

// syncLeaves skips leaves of people not stored locally without reporting them.
func (s *Syncer) syncLeaves(ctx context.Context, logger logrus.FieldLogger) (MergeResult, error) {
	var res MergeResult
	if s.people == nil {
		return res, errPeopleNotConnected()
	}
	recs, err := s.fetchPeople(ctx, "leaves", s.people.LeavesPage, logger, &res)
	if err != nil {
		return res, err
	}

	leaves := make([]models.Leave, 0, len(recs))
	for _, rec := range recs {
		lr, err := mapper.Leave(rec)
		if err != nil {
			res.Fail(fmt.Sprintf("leave %s: %v", rec.RecordID, err))
			continue
		}
		p, err := s.leaveOwner(ctx, lr)
		if err != nil {
			res.Fail(fmt.Sprintf("leave %s: employee lookup: %v", lr.Leave.ZohoLeaveId, err))
			continue
		}
		if p == nil {
			res.Skipped++
			continue
		}
		recordWarnings(&res, lr.Leave.ZohoLeaveId, lr.Warnings)
		lr.Leave.PersonId = p.ID
		leaves = append(leaves, lr.Leave)
	}

	res.Add(Merge(ctx, leaves, MergeOps[models.Leave, models.Leave]{
		Key: func(l models.Leave) string { return l.ZohoLeaveId },
		Find: func(ctx context.Context, key string, _ models.Leave) (*models.Leave, error) {
			return s.store.FindLeaveByZohoID(ctx, key)
		},
		Create: func(ctx context.Context, l models.Leave) (*models.Leave, error) {
			return &l, s.store.CreateLeave(ctx, &l)
		},
		Update: func(ctx context.Context, existing *models.Leave, l models.Leave) error {
			l.ID = existing.ID
			l.CreatedAt = existing.CreatedAt
			*existing = l
			return s.store.UpdateLeave(ctx, existing)
		},
	}))
	return res, nil
}

func (s *Syncer) leaveOwner(ctx context.Context, lr mapper.LeaveRecord) (*models.Person, error) {
	if lr.EmployeeZohoID != "" {
		p, err := s.store.FindPersonByZohoID(ctx, lr.EmployeeZohoID)
		if err != nil || p != nil {
			return p, err
		}
	}
	if lr.EmployeeEmail != "" {
		return s.store.FindPersonByEmail(ctx, lr.EmployeeEmail)
	}
	return nil, nil
}

func (s *Syncer) syncHolidays(ctx context.Context, logger logrus.FieldLogger) (MergeResult, error) {
	var res MergeResult
	if s.people == nil {
		return res, errPeopleNotConnected()
	}
	recs, err := s.fetchPeople(ctx, "holidays", s.people.HolidaysPage, logger, &res)
	if err != nil {
		return res, err
	}

	holidays := make([]models.Holiday, 0, len(recs))
	for _, rec := range recs {
		hr, err := mapper.Holiday(rec)
		if err != nil {
			res.Fail(fmt.Sprintf("holiday %s: %v", rec.RecordID, err))
			continue
		}
		recordWarnings(&res, hr.Holiday.ZohoHolidayId, hr.Warnings)
		holidays = append(holidays, hr.Holiday)
	}

	res.Add(Merge(ctx, holidays, MergeOps[models.Holiday, models.Holiday]{
		Key: func(h models.Holiday) string { return h.ZohoHolidayId },
		Find: func(ctx context.Context, key string, _ models.Holiday) (*models.Holiday, error) {
			return s.store.FindHolidayByZohoID(ctx, key)
		},
		Create: func(ctx context.Context, h models.Holiday) (*models.Holiday, error) {
			return &h, s.store.CreateHoliday(ctx, &h)
		},
		Update: func(ctx context.Context, existing *models.Holiday, h models.Holiday) error {
			h.ID = existing.ID
			h.CreatedAt = existing.CreatedAt
			*existing = h
			return s.store.UpdateHoliday(ctx, existing)
		},
	}))
	return res, nil
}

// syncMicrosoftUsers only links directory ids onto existing people; it never creates one.
func (s *Syncer) syncMicrosoftUsers(ctx context.Context, logger logrus.FieldLogger) (MergeResult, error) {
	var res MergeResult
	if s.graph == nil {
		return res, fmt.Errorf("microsoft graph client: %w", integrations.ErrNotConnected)
	}
	raws, err := fetchAll(ctx, s, "microsoft users", 0, s.graph.UsersPage, logger, &res)
	if err != nil {
		return res, err
	}

	users := make([]mapper.GraphUserRecord, 0, len(raws))
	for i, raw := range raws {
		u, err := mapper.GraphUser(raw)
		if err != nil {
			res.Fail(fmt.Sprintf("microsoft user #%d: %v", i+1, err))
			continue
		}
		users = append(users, u)
	}

	res.Add(Merge(ctx, users, MergeOps[mapper.GraphUserRecord, models.Person]{
		Key: func(u mapper.GraphUserRecord) string { return u.ID },
		Find: func(ctx context.Context, key string, u mapper.GraphUserRecord) (*models.Person, error) {
			p, err := s.store.FindPersonByMicrosoftID(ctx, key)
			if err != nil || p != nil || u.Email == "" {
				return p, err
			}
			return s.store.FindPersonByEmail(ctx, u.Email)
		},
		Update: func(ctx context.Context, existing *models.Person, u mapper.GraphUserRecord) error {
			id := u.ID
			existing.MicrosoftUserId = &id
			return s.store.UpdatePerson(ctx, existing)
		},
	}))
	return res, nil
}
