package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type PersonStatus string

const (
	PersonStatusActive PersonStatus = "active"
	PersonStatusExited PersonStatus = "exited"
)

type SyncType string

const (
	SyncTypeCashReceipts   SyncType = "cash_receipts"
	SyncTypeContacts       SyncType = "contacts"
	SyncTypeEmployees      SyncType = "employees"
	SyncTypeLeaves         SyncType = "leaves"
	SyncTypeHolidays       SyncType = "holidays"
	SyncTypeInvoices       SyncType = "invoices"
	SyncTypeMicrosoftUsers SyncType = "microsoft_users"
	SyncTypeBills          SyncType = "bills"
	SyncTypeExpenses       SyncType = "expenses"
	SyncTypeAll            SyncType = "all"
	SyncTypeBillDetails    SyncType = "bill_details"
)

// AllSyncOrder is the order the "all" trigger runs its members in.
var AllSyncOrder = []SyncType{
	SyncTypeContacts,
	SyncTypeInvoices,
	SyncTypeCashReceipts,
	SyncTypeEmployees,
	SyncTypeLeaves,
	SyncTypeHolidays,
	SyncTypeMicrosoftUsers,
}

func (t SyncType) IsValid() bool {
	switch t {
	case SyncTypeCashReceipts, SyncTypeContacts, SyncTypeEmployees, SyncTypeLeaves, SyncTypeHolidays,
		SyncTypeInvoices, SyncTypeMicrosoftUsers, SyncTypeBills, SyncTypeExpenses, SyncTypeAll:
		return true
	}
	return false
}

// NeedsDateRange reports whether the sync type filters upstream records by a date range token.
func (t SyncType) NeedsDateRange() bool {
	return t == SyncTypeBills || t == SyncTypeExpenses
}

func ParseSyncType(s string) (SyncType, error) {
	t := SyncType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown sync type %q", s)
	}
	return t, nil
}

type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusFailed  SyncStatus = "failed"
)

const (
	SyncTriggeredManual    = "manual"
	SyncTriggeredScheduler = "scheduler"
	SyncTriggeredCLI       = "cli"
)

type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

type RuleEntityType string

const (
	RuleEntityBill    RuleEntityType = "bill"
	RuleEntityExpense RuleEntityType = "expense"
	RuleEntityAll     RuleEntityType = "all"
)

type RuleOperator string

const (
	RuleOperatorEquals      RuleOperator = "equals"
	RuleOperatorNotEquals   RuleOperator = "not_equals"
	RuleOperatorContains    RuleOperator = "contains"
	RuleOperatorNotContains RuleOperator = "not_contains"
	RuleOperatorStartsWith  RuleOperator = "starts_with"
	RuleOperatorEndsWith    RuleOperator = "ends_with"
	RuleOperatorGreaterThan RuleOperator = "greater_than"
	RuleOperatorLessThan    RuleOperator = "less_than"
)

func (o RuleOperator) IsValid() bool {
	switch o {
	case RuleOperatorEquals, RuleOperatorNotEquals, RuleOperatorContains, RuleOperatorNotContains,
		RuleOperatorStartsWith, RuleOperatorEndsWith, RuleOperatorGreaterThan, RuleOperatorLessThan:
		return true
	}
	return false
}

// StringList is stored as a newline separated text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return strings.Join(l, "\n"), nil
}

func (l *StringList) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	if s == "" {
		*l = nil
		return nil
	}
	*l = strings.Split(s, "\n")
	return nil
}
