package syncer

import (
	"context"
	"fmt"

	"github.com/margindesk/margindesk_backend/exclusion"
	"github.com/margindesk/margindesk_backend/integrations/zoho"
	"github.com/margindesk/margindesk_backend/mapper"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/sirupsen/logrus"
)

func (r DateRange) zoho() zoho.DateRange {
	return zoho.DateRange{From: r.From, To: r.To}
}

// ApplyBill copies an upstream bill onto the stored one. A manual inclusion override
// survives, otherwise the rule decision carried by in wins.
func ApplyBill(existing *models.Bill, in models.Bill) {
	in.ID = existing.ID
	in.CreatedAt = existing.CreatedAt
	if existing.InclusionOverridden {
		in.IncludeInCalculation = existing.IncludeInCalculation
		in.ExclusionReason = existing.ExclusionReason
		in.InclusionOverridden = true
	}
	*existing = in
}

func ApplyExpense(existing *models.Expense, in models.Expense) {
	in.ID = existing.ID
	in.CreatedAt = existing.CreatedAt
	if existing.InclusionOverridden {
		in.IncludeInCalculation = existing.IncludeInCalculation
		in.ExclusionReason = existing.ExclusionReason
		in.InclusionOverridden = true
	}
	*existing = in
}

func (s *Syncer) syncBills(ctx context.Context, r DateRange, logger logrus.FieldLogger) (MergeResult, error) {
	var res MergeResult
	if s.books == nil {
		return res, errBooksNotConnected()
	}
	rules, err := s.store.ListExclusionRules(ctx, true)
	if err != nil {
		return res, fmt.Errorf("load exclusion rules: %w", err)
	}
	raws, err := fetchAll(ctx, s, "bills", s.books.PageSize(), s.books.BillsPage(r.zoho()), logger, &res)
	if err != nil {
		return res, err
	}

	bills := make([]models.Bill, 0, len(raws))
	excluded := 0
	for i, raw := range raws {
		rec, err := mapper.Bill(raw)
		if err != nil {
			res.Fail(fmt.Sprintf("bill #%d: %v", i+1, err))
			continue
		}
		recordWarnings(&res, rec.Bill.ZohoBillId, rec.Warnings)
		d := exclusion.Evaluate(rules, models.RuleEntityBill, &rec.Bill)
		rec.Bill.IncludeInCalculation = d.Include
		rec.Bill.ExclusionReason = d.Reason
		if !d.Include {
			excluded++
		}
		bills = append(bills, rec.Bill)
	}

	res.Add(Merge(ctx, bills, MergeOps[models.Bill, models.Bill]{
		Key: func(b models.Bill) string { return b.ZohoBillId },
		Find: func(ctx context.Context, key string, _ models.Bill) (*models.Bill, error) {
			return s.store.FindBillByZohoID(ctx, key)
		},
		Create: func(ctx context.Context, b models.Bill) (*models.Bill, error) {
			return &b, s.store.CreateBill(ctx, &b)
		},
		Update: func(ctx context.Context, existing *models.Bill, b models.Bill) error {
			ApplyBill(existing, b)
			return s.store.UpdateBill(ctx, existing)
		},
	}))
	logger.WithField("excluded_by_rule", excluded).Debug("bills evaluated")
	return res, nil
}

func (s *Syncer) syncExpenses(ctx context.Context, r DateRange, logger logrus.FieldLogger) (MergeResult, error) {
	var res MergeResult
	if s.books == nil {
		return res, errBooksNotConnected()
	}
	rules, err := s.store.ListExclusionRules(ctx, true)
	if err != nil {
		return res, fmt.Errorf("load exclusion rules: %w", err)
	}
	raws, err := fetchAll(ctx, s, "expenses", s.books.PageSize(), s.books.ExpensesPage(r.zoho()), logger, &res)
	if err != nil {
		return res, err
	}

	expenses := make([]models.Expense, 0, len(raws))
	for i, raw := range raws {
		rec, err := mapper.Expense(raw)
		if err != nil {
			res.Fail(fmt.Sprintf("expense #%d: %v", i+1, err))
			continue
		}
		recordWarnings(&res, rec.Expense.ZohoExpenseId, rec.Warnings)
		d := exclusion.Evaluate(rules, models.RuleEntityExpense, &rec.Expense)
		rec.Expense.IncludeInCalculation = d.Include
		rec.Expense.ExclusionReason = d.Reason
		expenses = append(expenses, rec.Expense)
	}

	res.Add(Merge(ctx, expenses, MergeOps[models.Expense, models.Expense]{
		Key: func(e models.Expense) string { return e.ZohoExpenseId },
		Find: func(ctx context.Context, key string, _ models.Expense) (*models.Expense, error) {
			return s.store.FindExpenseByZohoID(ctx, key)
		},
		Create: func(ctx context.Context, e models.Expense) (*models.Expense, error) {
			return &e, s.store.CreateExpense(ctx, &e)
		},
		Update: func(ctx context.Context, existing *models.Expense, e models.Expense) error {
			ApplyExpense(existing, e)
			return s.store.UpdateExpense(ctx, existing)
		},
	}))
	return res, nil
}
