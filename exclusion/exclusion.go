// Package exclusion evaluates user defined rules that keep bills and expenses out of
// margin calculations.
package exclusion

import (
	"strings"

	"github.com/margindesk/margindesk_backend/models"
	"github.com/shopspring/decimal"
)

// Subject is a record rules can inspect by field name.
type Subject interface {
	FieldValue(field string) (string, bool)
}

type Decision struct {
	Include bool
	Reason  string
	RuleID  int
}

// Evaluate applies enabled rules for entityType in order (callers pass them sorted by
// priority). Rules are OR-combined: the first match excludes and supplies the reason.
func Evaluate(rules []models.ExclusionRule, entityType models.RuleEntityType, s Subject) Decision {
	for _, r := range rules {
		if !r.Enabled || !r.AppliesTo(entityType) {
			continue
		}
		v, ok := s.FieldValue(r.Field)
		if !ok {
			continue
		}
		if Match(r.Operator, v, r.Value) {
			reason := r.Reason
			if reason == "" {
				reason = "matched rule: " + r.Field + " " + string(r.Operator) + " " + r.Value
			}
			return Decision{Include: false, Reason: reason, RuleID: r.ID}
		}
	}
	return Decision{Include: true}
}

// Match compares case-insensitively; greater_than and less_than compare numerically and
// never match non-numeric values.
func Match(op models.RuleOperator, actual, expected string) bool {
	a := strings.ToLower(strings.TrimSpace(actual))
	e := strings.ToLower(strings.TrimSpace(expected))
	switch op {
	case models.RuleOperatorEquals:
		return a == e
	case models.RuleOperatorNotEquals:
		return a != e
	case models.RuleOperatorContains:
		return strings.Contains(a, e)
	case models.RuleOperatorNotContains:
		return !strings.Contains(a, e)
	case models.RuleOperatorStartsWith:
		return strings.HasPrefix(a, e)
	case models.RuleOperatorEndsWith:
		return strings.HasSuffix(a, e)
	case models.RuleOperatorGreaterThan, models.RuleOperatorLessThan:
		ad, err1 := decimal.NewFromString(a)
		ed, err2 := decimal.NewFromString(e)
		if err1 != nil || err2 != nil {
			return false
		}
		if op == models.RuleOperatorGreaterThan {
			return ad.GreaterThan(ed)
		}
		return ad.LessThan(ed)
	}
	return false
}
