package mapper

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/margindesk/margindesk_backend/models"
	"github.com/shopspring/decimal"
)

// PeopleRecord is one Zoho People form row with its record id lifted out of the wrapper.
type PeopleRecord struct {
	RecordID string
	Fields   Fields
}

// PeopleDecodeError is one wrapper item or row that could not be decoded. RecordID is empty
// when the wrapper itself was unreadable.
type PeopleDecodeError struct {
	Index    int
	RecordID string
	Err      error
}

func (e PeopleDecodeError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("item %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("record %s: %v", e.RecordID, e.Err)
}

func (e PeopleDecodeError) Unwrap() error { return e.Err }

// UnwrapPeopleRecords flattens Zoho People's {"<recordId>": [ {...} ]} rows. Undecodable
// items are returned separately so the rest of the batch still syncs. Record ids within a
// wrapper come out in sorted order.
func UnwrapPeopleRecords(raw []json.RawMessage) ([]PeopleRecord, []PeopleDecodeError) {
	var (
		out    []PeopleRecord
		failed []PeopleDecodeError
	)
	for i, item := range raw {
		var wrapper map[string][]json.RawMessage
		if err := json.Unmarshal(item, &wrapper); err != nil {
			failed = append(failed, PeopleDecodeError{Index: i, Err: err})
			continue
		}
		ids := make([]string, 0, len(wrapper))
		for id := range wrapper {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			for _, row := range wrapper[id] {
				f, err := decodeFields(row)
				if err != nil {
					failed = append(failed, PeopleDecodeError{Index: i, RecordID: id, Err: err})
					continue
				}
				out = append(out, PeopleRecord{RecordID: id, Fields: f})
			}
		}
	}
	return out, failed
}

type EmployeeRecord struct {
	Person       models.Person
	ManagerEmail string
	// BillableSet is false when the form has no billable field and Person.Billable holds
	// the default.
	BillableSet bool
	Warnings    []string
}

var exitedStatuses = map[string]bool{
	"resigned":   true,
	"terminated": true,
	"exited":     true,
	"inactive":   true,
	"deceased":   true,
	"left":       true,
}

// Employee maps an employee form row. ZohoEmployeeId prefers the Zoho_ID field over the
// record id; records without an email come back with an empty Person.Email. People are
// billable unless the form says otherwise.
func Employee(rec PeopleRecord) (EmployeeRecord, error) {
	f := rec.Fields
	var w warnings

	zohoID := f.String("Zoho_ID", "Zoho ID", "EmployeeID")
	if zohoID == "" {
		zohoID = rec.RecordID
	}
	if zohoID == "" {
		return EmployeeRecord{}, fmt.Errorf("employee without id")
	}

	name := strings.TrimSpace(f.String("FirstName") + " " + f.String("LastName"))
	email := strings.ToLower(f.String("EmailID", "Email"))
	if name == "" {
		name = email
	}

	status := models.PersonStatusActive
	if s := strings.ToLower(f.String("Employeestatus", "Employee_status")); exitedStatuses[s] {
		status = models.PersonStatusExited
	}

	billable, billableSet := f.Flag("Billable", "Is_Billable", "Billable_Resource")
	if !billableSet {
		billable = true
	}

	p := models.Person{
		Name:           name,
		Email:          email,
		Designation:    f.String("Designation"),
		Department:     f.String("Department"),
		Role:           f.String("Role"),
		StartDate:      w.date("Dateofjoining", f.String("Dateofjoining")),
		EndDate:        w.date("Dateofexit", f.String("Dateofexit")),
		Status:         status,
		ZohoEmployeeId: &zohoID,
		CtcMonthly:     f.Decimal("CTC", "Monthly_CTC"),
		Billable:       billable,
	}
	return EmployeeRecord{
		Person:       p,
		ManagerEmail: strings.ToLower(f.String("Reporting_To.MailID", "Reporting_To_MailID")),
		BillableSet:  billableSet,
		Warnings:     w,
	}, nil
}

type LeaveRecord struct {
	Leave          models.Leave
	EmployeeZohoID string
	EmployeeEmail  string
	Warnings       []string
}

func Leave(rec PeopleRecord) (LeaveRecord, error) {
	f := rec.Fields
	var w warnings
	id := f.String("Zoho_ID", "Zoho ID")
	if id == "" {
		id = rec.RecordID
	}
	if id == "" {
		return LeaveRecord{}, fmt.Errorf("leave without id")
	}
	days := f.Decimal("Daystaken", "Days_Taken")
	l := models.Leave{
		ZohoLeaveId: id,
		LeaveType:   f.String("Leavetype", "Leave_Type"),
		FromDate:    w.date("From", f.String("From")),
		ToDate:      w.date("To", f.String("To")),
		Days:        days,
		Status:      f.String("ApprovalStatus", "Approval_Status"),
		Reason:      f.String("Reasonforleave", "Reason"),
	}
	if l.Days.IsZero() && l.FromDate != nil && l.ToDate != nil && !l.ToDate.Before(*l.FromDate) {
		l.Days = decimal.NewFromInt(int64(l.ToDate.Sub(*l.FromDate).Hours()/24) + 1)
	}
	return LeaveRecord{
		Leave:          l,
		EmployeeZohoID: f.String("Employee_ID.ID", "EmployeeID"),
		EmployeeEmail:  strings.ToLower(f.String("Employee_ID.MailID", "Email")),
		Warnings:       w,
	}, nil
}

type HolidayRecord struct {
	Holiday  models.Holiday
	Warnings []string
}

func Holiday(rec PeopleRecord) (HolidayRecord, error) {
	f := rec.Fields
	var w warnings
	id := f.String("Id", "Zoho_ID")
	if id == "" {
		id = rec.RecordID
	}
	name := f.String("Name", "Holiday_Name")
	if id == "" || name == "" {
		return HolidayRecord{}, fmt.Errorf("holiday without id or name")
	}
	return HolidayRecord{
		Holiday: models.Holiday{
			ZohoHolidayId: id,
			Name:          name,
			Date:          w.date("Date", f.String("Date", "Holiday_Date")),
			Location:      f.String("LocationName", "Location"),
			IsRestricted:  f.Bool("isRestrictedHoliday", "Restricted"),
		},
		Warnings: w,
	}, nil
}
