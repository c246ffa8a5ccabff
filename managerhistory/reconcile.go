// Package managerhistory keeps the time-sliced reporting line of each person in step with
// the manager recorded upstream. It runs after all people of a sync have been merged so
// managers synced later in the same run resolve.
package managerhistory

import (
	"context"
	"fmt"
	"time"

	"github.com/margindesk/margindesk_backend/models"
	"github.com/margindesk/margindesk_backend/store"
	"github.com/sirupsen/logrus"
)

// ManagerRef pairs a synced person with the manager email the upstream reported.
// An empty ManagerEmail means the upstream has no manager for the person.
type ManagerRef struct {
	PersonID     int
	ManagerEmail string
}

type Result struct {
	Opened     int
	Closed     int
	Unchanged  int
	Unresolved int
	Errors     int
	Messages   []string
}

type Reconciler struct {
	store  store.PeopleStore
	now    func() time.Time
	logger logrus.FieldLogger
}

func NewReconciler(s store.PeopleStore, logger logrus.FieldLogger) *Reconciler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Reconciler{store: s, now: time.Now, logger: logger}
}

// WithClock replaces the clock used for "now" boundaries.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func (r *Reconciler) Reconcile(ctx context.Context, refs []ManagerRef) Result {
	var res Result
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			res.Errors++
			res.Messages = append(res.Messages, err.Error())
			return res
		}
		if err := r.reconcileOne(ctx, ref, &res); err != nil {
			res.Errors++
			res.Messages = append(res.Messages, fmt.Sprintf("manager history for person %d: %v", ref.PersonID, err))
		}
	}
	return res
}

func (r *Reconciler) reconcileOne(ctx context.Context, ref ManagerRef, res *Result) error {
	person, err := r.store.GetPerson(ctx, ref.PersonID)
	if err != nil {
		return err
	}
	open, err := r.store.FindOpenManagerHistory(ctx, person.ID)
	if err != nil {
		return err
	}
	now := day(r.now())

	var exit *time.Time
	if person.IsExited() {
		e := now
		if person.EndDate != nil {
			e = day(*person.EndDate)
		}
		exit = &e
	}

	if ref.ManagerEmail == "" {
		if open != nil {
			if err := r.close(ctx, open, now); err != nil {
				return err
			}
			res.Closed++
		}
		return r.setManager(ctx, person, nil)
	}

	manager, err := r.store.FindPersonByEmail(ctx, ref.ManagerEmail)
	if err != nil {
		return err
	}
	if manager == nil || manager.ID == person.ID {
		r.logger.WithFields(logrus.Fields{
			"person_id":     person.ID,
			"manager_email": ref.ManagerEmail,
		}).Warn("manager not resolved, history left unchanged")
		res.Unresolved++
		return nil
	}

	if open != nil && open.ManagerId == manager.ID {
		if exit == nil {
			res.Unchanged++
			return r.setManager(ctx, person, &manager.ID)
		}
		if err := r.close(ctx, open, *exit); err != nil {
			return err
		}
		res.Closed++
		return r.setManager(ctx, person, nil)
	}

	closeAt := now
	if exit != nil {
		closeAt = *exit
	}
	if open != nil {
		if err := r.close(ctx, open, closeAt); err != nil {
			return err
		}
		res.Closed++
	}

	start := now
	history, err := r.store.ListManagerHistory(ctx, person.ID)
	if err != nil {
		return err
	}
	if len(history) == 0 && person.StartDate != nil {
		start = day(*person.StartDate)
	}

	if exit != nil {
		if !start.After(*exit) {
			end := *exit
			if err := r.store.CreateManagerHistory(ctx, &models.ManagerHistory{
				PersonId:  person.ID,
				ManagerId: manager.ID,
				StartDate: start,
				EndDate:   &end,
			}); err != nil {
				return err
			}
			res.Opened++
		}
		return r.setManager(ctx, person, nil)
	}

	if err := r.store.CreateManagerHistory(ctx, &models.ManagerHistory{
		PersonId:  person.ID,
		ManagerId: manager.ID,
		StartDate: start,
	}); err != nil {
		return err
	}
	res.Opened++
	return r.setManager(ctx, person, &manager.ID)
}

// close ends an open interval at end, never before its start.
func (r *Reconciler) close(ctx context.Context, h *models.ManagerHistory, end time.Time) error {
	end = laterOf(end, h.StartDate)
	h.EndDate = &end
	return r.store.UpdateManagerHistory(ctx, h)
}

func (r *Reconciler) setManager(ctx context.Context, p *models.Person, managerID *int) error {
	if samePointer(p.ManagerId, managerID) {
		return nil
	}
	p.ManagerId = managerID
	return r.store.UpdatePerson(ctx, p)
}

func samePointer(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
