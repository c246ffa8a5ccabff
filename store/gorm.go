package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/margindesk/margindesk_backend/models"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

// GormStore implements Store on top of a gorm connection.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%w: %s", ErrDuplicate, myErr.Message)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func findOne[T any](ctx context.Context, db *gorm.DB, query string, args ...interface{}) (*T, error) {
	var out T
	err := db.WithContext(ctx).Where(query, args...).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func getByID[T any](ctx context.Context, db *gorm.DB, id interface{}) (*T, error) {
	var out T
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (s *GormStore) create(ctx context.Context, v interface{}) error {
	return translate(s.db.WithContext(ctx).Create(v).Error)
}

func (s *GormStore) save(ctx context.Context, v interface{}) error {
	return translate(s.db.WithContext(ctx).Save(v).Error)
}

// people

func (s *GormStore) GetPerson(ctx context.Context, id int) (*models.Person, error) {
	return getByID[models.Person](ctx, s.db, id)
}

func (s *GormStore) FindPersonByZohoID(ctx context.Context, zohoEmployeeID string) (*models.Person, error) {
	return findOne[models.Person](ctx, s.db, "zoho_employee_id = ?", zohoEmployeeID)
}

func (s *GormStore) FindPersonByEmail(ctx context.Context, email string) (*models.Person, error) {
	return findOne[models.Person](ctx, s.db, "LOWER(email) = LOWER(?)", email)
}

func (s *GormStore) FindPersonByMicrosoftID(ctx context.Context, microsoftUserID string) (*models.Person, error) {
	return findOne[models.Person](ctx, s.db, "microsoft_user_id = ?", microsoftUserID)
}

func (s *GormStore) ListPeople(ctx context.Context, ids []int) ([]models.Person, error) {
	var out []models.Person
	q := s.db.WithContext(ctx).Order("id")
	if ids != nil {
		q = q.Where("id IN ?", ids)
	}
	return out, translate(q.Find(&out).Error)
}

func (s *GormStore) CreatePerson(ctx context.Context, p *models.Person) error {
	return s.create(ctx, p)
}

func (s *GormStore) UpdatePerson(ctx context.Context, p *models.Person) error {
	return s.save(ctx, p)
}

func (s *GormStore) FindOpenManagerHistory(ctx context.Context, personID int) (*models.ManagerHistory, error) {
	var out models.ManagerHistory
	err := s.db.WithContext(ctx).
		Where("person_id = ? AND end_date IS NULL", personID).
		Order("start_date DESC").
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (s *GormStore) ListManagerHistory(ctx context.Context, personID int) ([]models.ManagerHistory, error) {
	var out []models.ManagerHistory
	err := s.db.WithContext(ctx).Where("person_id = ?", personID).Order("start_date, id").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) CreateManagerHistory(ctx context.Context, h *models.ManagerHistory) error {
	return s.create(ctx, h)
}

func (s *GormStore) UpdateManagerHistory(ctx context.Context, h *models.ManagerHistory) error {
	return s.save(ctx, h)
}

// leave

func (s *GormStore) FindLeaveByZohoID(ctx context.Context, zohoLeaveID string) (*models.Leave, error) {
	return findOne[models.Leave](ctx, s.db, "zoho_leave_id = ?", zohoLeaveID)
}

func (s *GormStore) CreateLeave(ctx context.Context, l *models.Leave) error {
	return s.create(ctx, l)
}

func (s *GormStore) UpdateLeave(ctx context.Context, l *models.Leave) error {
	return s.save(ctx, l)
}

func (s *GormStore) FindHolidayByZohoID(ctx context.Context, zohoHolidayID string) (*models.Holiday, error) {
	return findOne[models.Holiday](ctx, s.db, "zoho_holiday_id = ?", zohoHolidayID)
}

func (s *GormStore) CreateHoliday(ctx context.Context, h *models.Holiday) error {
	return s.create(ctx, h)
}

func (s *GormStore) UpdateHoliday(ctx context.Context, h *models.Holiday) error {
	return s.save(ctx, h)
}

// receivables

func (s *GormStore) FindClientByZohoID(ctx context.Context, zohoContactID string) (*models.Client, error) {
	return findOne[models.Client](ctx, s.db, "zoho_contact_id = ?", zohoContactID)
}

func (s *GormStore) CreateClient(ctx context.Context, c *models.Client) error {
	return s.create(ctx, c)
}

func (s *GormStore) UpdateClient(ctx context.Context, c *models.Client) error {
	return s.save(ctx, c)
}

func (s *GormStore) FindInvoiceByZohoID(ctx context.Context, zohoInvoiceID string) (*models.Invoice, error) {
	return findOne[models.Invoice](ctx, s.db, "zoho_invoice_id = ?", zohoInvoiceID)
}

func (s *GormStore) FindInvoiceByNumber(ctx context.Context, invoiceNumber string) (*models.Invoice, error) {
	return findOne[models.Invoice](ctx, s.db, "invoice_number = ?", invoiceNumber)
}

func (s *GormStore) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	return s.create(ctx, inv)
}

func (s *GormStore) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	return s.save(ctx, inv)
}

func (s *GormStore) FindCashReceiptByZohoID(ctx context.Context, zohoPaymentID string) (*models.CashReceipt, error) {
	return findOne[models.CashReceipt](ctx, s.db, "zoho_payment_id = ?", zohoPaymentID)
}

func (s *GormStore) CreateCashReceipt(ctx context.Context, r *models.CashReceipt) error {
	return s.create(ctx, r)
}

func (s *GormStore) UpdateCashReceipt(ctx context.Context, r *models.CashReceipt) error {
	return s.save(ctx, r)
}

// ledger

func (s *GormStore) GetBill(ctx context.Context, id int) (*models.Bill, error) {
	return getByID[models.Bill](ctx, s.db, id)
}

func (s *GormStore) FindBillByZohoID(ctx context.Context, zohoBillID string) (*models.Bill, error) {
	return findOne[models.Bill](ctx, s.db, "zoho_bill_id = ?", zohoBillID)
}

func (s *GormStore) ListBills(ctx context.Context, f DateFilter) ([]models.Bill, error) {
	var out []models.Bill
	q := s.db.WithContext(ctx).Order("date, id")
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	return out, translate(q.Find(&out).Error)
}

func (s *GormStore) CreateBill(ctx context.Context, b *models.Bill) error {
	return s.create(ctx, b)
}

func (s *GormStore) UpdateBill(ctx context.Context, b *models.Bill) error {
	return s.save(ctx, b)
}

// ReplaceBillLineItems deletes the bill's current lines and inserts the new ones in one transaction.
func (s *GormStore) ReplaceBillLineItems(ctx context.Context, billID int, items []models.BillLineItem) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bill_id = ?", billID).Delete(&models.BillLineItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ID = 0
			items[i].BillId = billID
		}
		return tx.Create(&items).Error
	}))
}

func (s *GormStore) ListBillLineItems(ctx context.Context, billID int) ([]models.BillLineItem, error) {
	var out []models.BillLineItem
	err := s.db.WithContext(ctx).Where("bill_id = ?", billID).Order("id").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) GetExpense(ctx context.Context, id int) (*models.Expense, error) {
	return getByID[models.Expense](ctx, s.db, id)
}

func (s *GormStore) FindExpenseByZohoID(ctx context.Context, zohoExpenseID string) (*models.Expense, error) {
	return findOne[models.Expense](ctx, s.db, "zoho_expense_id = ?", zohoExpenseID)
}

func (s *GormStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	return s.create(ctx, e)
}

func (s *GormStore) UpdateExpense(ctx context.Context, e *models.Expense) error {
	return s.save(ctx, e)
}

func (s *GormStore) ListExclusionRules(ctx context.Context, enabledOnly bool) ([]models.ExclusionRule, error) {
	var out []models.ExclusionRule
	q := s.db.WithContext(ctx).Order("priority DESC, id")
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	return out, translate(q.Find(&out).Error)
}

func (s *GormStore) CreateExclusionRule(ctx context.Context, r *models.ExclusionRule) error {
	return s.create(ctx, r)
}

// audit

func (s *GormStore) CreateSyncLog(ctx context.Context, l *models.SyncLog) error {
	return s.create(ctx, l)
}

func (s *GormStore) ListSyncLogs(ctx context.Context, f SyncLogFilter) ([]models.SyncLog, error) {
	var out []models.SyncLog
	q := s.db.WithContext(ctx).Order("started_at DESC, id DESC")
	if f.SyncType != "" {
		q = q.Where("sync_type = ?", f.SyncType)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return out, translate(q.Find(&out).Error)
}

// jobs

func (s *GormStore) CreateJob(ctx context.Context, j *models.DetailSyncJob) error {
	return s.create(ctx, j)
}

func (s *GormStore) GetJob(ctx context.Context, id string) (*models.DetailSyncJob, error) {
	return getByID[models.DetailSyncJob](ctx, s.db, id)
}

func (s *GormStore) UpdateRunningJob(ctx context.Context, j *models.DetailSyncJob) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.DetailSyncJob{}).
		Where("id = ? AND status = ?", j.ID, models.JobStatusRunning).
		Updates(map[string]interface{}{
			"status":         j.Status,
			"total":          j.Total,
			"processed":      j.Processed,
			"success_count":  j.SuccessCount,
			"error_count":    j.ErrorCount,
			"error_messages": j.ErrorMessages,
			"completed_at":   j.CompletedAt,
		})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// reports

func (s *GormStore) GetPod(ctx context.Context, id int) (*models.Pod, error) {
	return getByID[models.Pod](ctx, s.db, id)
}

func (s *GormStore) ListPodMembers(ctx context.Context, podID int, from, to time.Time) ([]models.PodMember, error) {
	var out []models.PodMember
	err := s.db.WithContext(ctx).
		Where("pod_id = ? AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)", podID, to, from).
		Order("person_id, start_date").
		Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) ListProjectMappings(ctx context.Context, podID int, from, to time.Time) ([]models.ProjectMapping, error) {
	var out []models.ProjectMapping
	err := s.db.WithContext(ctx).
		Where("pod_id = ? AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)", podID, to, from).
		Order("project_id, start_date").
		Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) ListProjects(ctx context.Context, ids []int) ([]models.Project, error) {
	var out []models.Project
	if len(ids) == 0 {
		return out, nil
	}
	return out, translate(s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&out).Error)
}

func (s *GormStore) ListProjectCosts(ctx context.Context, projectIDs []int, from, to time.Time) ([]models.ProjectCost, error) {
	var out []models.ProjectCost
	if len(projectIDs) == 0 {
		return out, nil
	}
	err := s.db.WithContext(ctx).
		Where("project_id IN ? AND month >= ? AND month <= ?", projectIDs, from, to).
		Order("month, project_id").
		Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) ListSalaries(ctx context.Context, personIDs []int, from, to time.Time) ([]models.Salary, error) {
	var out []models.Salary
	if len(personIDs) == 0 {
		return out, nil
	}
	lo := from.Year()*100 + int(from.Month())
	hi := to.Year()*100 + int(to.Month())
	err := s.db.WithContext(ctx).
		Where("person_id IN ? AND (year * 100 + month) BETWEEN ? AND ?", personIDs, lo, hi).
		Order("year, month, person_id").
		Find(&out).Error
	return out, translate(err)
}

// ListAllocations returns planned allocations whose month falls in the months touched by
// [from, to].
func (s *GormStore) ListAllocations(ctx context.Context, personIDs []int, from, to time.Time) ([]models.Allocation, error) {
	var out []models.Allocation
	if len(personIDs) == 0 {
		return out, nil
	}
	first := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	err := s.db.WithContext(ctx).
		Where("person_id IN ? AND month >= ? AND month <= ?", personIDs, first, to).
		Order("month, person_id, project_id").
		Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) ListTimesheetEntries(ctx context.Context, personIDs []int, from, to time.Time) ([]models.TimesheetEntry, error) {
	var out []models.TimesheetEntry
	if len(personIDs) == 0 {
		return out, nil
	}
	err := s.db.WithContext(ctx).
		Where("person_id IN ? AND date >= ? AND date <= ?", personIDs, from, to).
		Order("date, id").
		Find(&out).Error
	return out, translate(err)
}
