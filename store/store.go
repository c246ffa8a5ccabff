// Package store is the persistence boundary for sync jobs and reports.
//
// Find* lookups by external key return (nil, nil) when nothing matches; Get* lookups by
// internal id return ErrNotFound.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/margindesk/margindesk_backend/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type PeopleStore interface {
	GetPerson(ctx context.Context, id int) (*models.Person, error)
	FindPersonByZohoID(ctx context.Context, zohoEmployeeID string) (*models.Person, error)
	FindPersonByEmail(ctx context.Context, email string) (*models.Person, error)
	FindPersonByMicrosoftID(ctx context.Context, microsoftUserID string) (*models.Person, error)
	ListPeople(ctx context.Context, ids []int) ([]models.Person, error)
	CreatePerson(ctx context.Context, p *models.Person) error
	UpdatePerson(ctx context.Context, p *models.Person) error

	FindOpenManagerHistory(ctx context.Context, personID int) (*models.ManagerHistory, error)
	ListManagerHistory(ctx context.Context, personID int) ([]models.ManagerHistory, error)
	CreateManagerHistory(ctx context.Context, h *models.ManagerHistory) error
	UpdateManagerHistory(ctx context.Context, h *models.ManagerHistory) error
}

type LeaveStore interface {
	FindLeaveByZohoID(ctx context.Context, zohoLeaveID string) (*models.Leave, error)
	CreateLeave(ctx context.Context, l *models.Leave) error
	UpdateLeave(ctx context.Context, l *models.Leave) error
	FindHolidayByZohoID(ctx context.Context, zohoHolidayID string) (*models.Holiday, error)
	CreateHoliday(ctx context.Context, h *models.Holiday) error
	UpdateHoliday(ctx context.Context, h *models.Holiday) error
}

type ReceivableStore interface {
	FindClientByZohoID(ctx context.Context, zohoContactID string) (*models.Client, error)
	CreateClient(ctx context.Context, c *models.Client) error
	UpdateClient(ctx context.Context, c *models.Client) error
	FindInvoiceByZohoID(ctx context.Context, zohoInvoiceID string) (*models.Invoice, error)
	FindInvoiceByNumber(ctx context.Context, invoiceNumber string) (*models.Invoice, error)
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	UpdateInvoice(ctx context.Context, inv *models.Invoice) error
	FindCashReceiptByZohoID(ctx context.Context, zohoPaymentID string) (*models.CashReceipt, error)
	CreateCashReceipt(ctx context.Context, r *models.CashReceipt) error
	UpdateCashReceipt(ctx context.Context, r *models.CashReceipt) error
}

// DateFilter bounds a listing by record date, both ends inclusive; nil means unbounded.
type DateFilter struct {
	From *time.Time
	To   *time.Time
}

type LedgerStore interface {
	GetBill(ctx context.Context, id int) (*models.Bill, error)
	FindBillByZohoID(ctx context.Context, zohoBillID string) (*models.Bill, error)
	ListBills(ctx context.Context, f DateFilter) ([]models.Bill, error)
	CreateBill(ctx context.Context, b *models.Bill) error
	UpdateBill(ctx context.Context, b *models.Bill) error
	ReplaceBillLineItems(ctx context.Context, billID int, items []models.BillLineItem) error
	ListBillLineItems(ctx context.Context, billID int) ([]models.BillLineItem, error)

	GetExpense(ctx context.Context, id int) (*models.Expense, error)
	FindExpenseByZohoID(ctx context.Context, zohoExpenseID string) (*models.Expense, error)
	CreateExpense(ctx context.Context, e *models.Expense) error
	UpdateExpense(ctx context.Context, e *models.Expense) error

	ListExclusionRules(ctx context.Context, enabledOnly bool) ([]models.ExclusionRule, error)
	CreateExclusionRule(ctx context.Context, r *models.ExclusionRule) error
}

type SyncLogFilter struct {
	SyncType models.SyncType
	Limit    int
}

type AuditStore interface {
	CreateSyncLog(ctx context.Context, l *models.SyncLog) error
	ListSyncLogs(ctx context.Context, f SyncLogFilter) ([]models.SyncLog, error)
}

type JobStore interface {
	CreateJob(ctx context.Context, j *models.DetailSyncJob) error
	GetJob(ctx context.Context, id string) (*models.DetailSyncJob, error)
	// UpdateRunningJob writes the job's counters, status and completion time only while the stored
	// row is still running. It reports whether the row was updated.
	UpdateRunningJob(ctx context.Context, j *models.DetailSyncJob) (bool, error)
}

type ReportStore interface {
	GetPod(ctx context.Context, id int) (*models.Pod, error)
	ListPodMembers(ctx context.Context, podID int, from, to time.Time) ([]models.PodMember, error)
	ListProjectMappings(ctx context.Context, podID int, from, to time.Time) ([]models.ProjectMapping, error)
	ListProjects(ctx context.Context, ids []int) ([]models.Project, error)
	ListProjectCosts(ctx context.Context, projectIDs []int, from, to time.Time) ([]models.ProjectCost, error)
	ListSalaries(ctx context.Context, personIDs []int, from, to time.Time) ([]models.Salary, error)
	ListTimesheetEntries(ctx context.Context, personIDs []int, from, to time.Time) ([]models.TimesheetEntry, error)
	ListAllocations(ctx context.Context, personIDs []int, from, to time.Time) ([]models.Allocation, error)
}

// Store is everything the sync jobs, the detail job runner and the report engine read or write.
type Store interface {
	PeopleStore
	LeaveStore
	ReceivableStore
	LedgerStore
	AuditStore
	JobStore
	ReportStore
}
