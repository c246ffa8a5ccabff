// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/margindesk/margindesk_backend/models"
	"github.com/margindesk/margindesk_backend/store"
)

// Memory keeps every table in maps keyed by id. Returned records are copies.
type Memory struct {
	mu sync.Mutex

	seq      int
	failures map[string]error

	people          map[int]models.Person
	managerHistory  map[int]models.ManagerHistory
	leaves          map[int]models.Leave
	holidays        map[int]models.Holiday
	clients         map[int]models.Client
	invoices        map[int]models.Invoice
	cashReceipts    map[int]models.CashReceipt
	bills           map[int]models.Bill
	billLineItems   map[int]models.BillLineItem
	expenses        map[int]models.Expense
	exclusionRules  map[int]models.ExclusionRule
	syncLogs        map[int]models.SyncLog
	jobs            map[string]models.DetailSyncJob
	pods            map[int]models.Pod
	podMembers      map[int]models.PodMember
	projectMappings map[int]models.ProjectMapping
	projects        map[int]models.Project
	projectCosts    map[int]models.ProjectCost
	salaries        map[int]models.Salary
	timesheets      map[int]models.TimesheetEntry
	allocations     map[int]models.Allocation
}

var _ store.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		failures:        map[string]error{},
		people:          map[int]models.Person{},
		managerHistory:  map[int]models.ManagerHistory{},
		leaves:          map[int]models.Leave{},
		holidays:        map[int]models.Holiday{},
		clients:         map[int]models.Client{},
		invoices:        map[int]models.Invoice{},
		cashReceipts:    map[int]models.CashReceipt{},
		bills:           map[int]models.Bill{},
		billLineItems:   map[int]models.BillLineItem{},
		expenses:        map[int]models.Expense{},
		exclusionRules:  map[int]models.ExclusionRule{},
		syncLogs:        map[int]models.SyncLog{},
		jobs:            map[string]models.DetailSyncJob{},
		pods:            map[int]models.Pod{},
		podMembers:      map[int]models.PodMember{},
		projectMappings: map[int]models.ProjectMapping{},
		projects:        map[int]models.Project{},
		projectCosts:    map[int]models.ProjectCost{},
		salaries:        map[int]models.Salary{},
		timesheets:      map[int]models.TimesheetEntry{},
		allocations:     map[int]models.Allocation{},
	}
}

// FailOn makes the named method return err until cleared with a nil err.
func (m *Memory) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, method)
		return
	}
	m.failures[method] = err
}

func (m *Memory) fail(method string) error {
	return m.failures[method]
}

func (m *Memory) nextID() int {
	m.seq++
	return m.seq
}

func sortedKeys[V any](in map[int]V) []int {
	keys := make([]int, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func overlaps(start time.Time, end *time.Time, from, to time.Time) bool {
	return !start.After(to) && (end == nil || !end.Before(from))
}

// people

func (m *Memory) GetPerson(ctx context.Context, id int) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetPerson"); err != nil {
		return nil, err
	}
	p, ok := m.people[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) findPerson(match func(models.Person) bool) *models.Person {
	for _, id := range sortedKeys(m.people) {
		p := m.people[id]
		if match(p) {
			return &p
		}
	}
	return nil
}

func (m *Memory) FindPersonByZohoID(ctx context.Context, zohoEmployeeID string) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findPerson(func(p models.Person) bool {
		return p.ZohoEmployeeId != nil && *p.ZohoEmployeeId == zohoEmployeeID
	}), nil
}

func (m *Memory) FindPersonByEmail(ctx context.Context, email string) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findPerson(func(p models.Person) bool {
		return strings.EqualFold(p.Email, email)
	}), nil
}

func (m *Memory) FindPersonByMicrosoftID(ctx context.Context, microsoftUserID string) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findPerson(func(p models.Person) bool {
		return p.MicrosoftUserId != nil && *p.MicrosoftUserId == microsoftUserID
	}), nil
}

func (m *Memory) ListPeople(ctx context.Context, ids []int) ([]models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Person
	for _, id := range sortedKeys(m.people) {
		if ids == nil || contains(ids, id) {
			out = append(out, m.people[id])
		}
	}
	return out, nil
}

func (m *Memory) personConflict(p *models.Person) bool {
	for id, other := range m.people {
		if id == p.ID {
			continue
		}
		if strings.EqualFold(other.Email, p.Email) {
			return true
		}
		if p.ZohoEmployeeId != nil && other.ZohoEmployeeId != nil && *p.ZohoEmployeeId == *other.ZohoEmployeeId {
			return true
		}
		if p.MicrosoftUserId != nil && other.MicrosoftUserId != nil && *p.MicrosoftUserId == *other.MicrosoftUserId {
			return true
		}
	}
	return false
}

func (m *Memory) CreatePerson(ctx context.Context, p *models.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreatePerson"); err != nil {
		return err
	}
	if m.personConflict(p) {
		return store.ErrDuplicate
	}
	p.ID = m.nextID()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.people[p.ID] = *p
	return nil
}

func (m *Memory) UpdatePerson(ctx context.Context, p *models.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdatePerson"); err != nil {
		return err
	}
	if _, ok := m.people[p.ID]; !ok {
		return store.ErrNotFound
	}
	if m.personConflict(p) {
		return store.ErrDuplicate
	}
	p.UpdatedAt = time.Now()
	m.people[p.ID] = *p
	return nil
}

func (m *Memory) FindOpenManagerHistory(ctx context.Context, personID int) (*models.ManagerHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var open *models.ManagerHistory
	for _, id := range sortedKeys(m.managerHistory) {
		h := m.managerHistory[id]
		if h.PersonId == personID && h.EndDate == nil {
			if open == nil || h.StartDate.After(open.StartDate) {
				open = &h
			}
		}
	}
	return open, nil
}

func (m *Memory) ListManagerHistory(ctx context.Context, personID int) ([]models.ManagerHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ManagerHistory
	for _, id := range sortedKeys(m.managerHistory) {
		if h := m.managerHistory[id]; h.PersonId == personID {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (m *Memory) CreateManagerHistory(ctx context.Context, h *models.ManagerHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateManagerHistory"); err != nil {
		return err
	}
	h.ID = m.nextID()
	h.CreatedAt = time.Now()
	h.UpdatedAt = h.CreatedAt
	m.managerHistory[h.ID] = *h
	return nil
}

func (m *Memory) UpdateManagerHistory(ctx context.Context, h *models.ManagerHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.managerHistory[h.ID]; !ok {
		return store.ErrNotFound
	}
	h.UpdatedAt = time.Now()
	m.managerHistory[h.ID] = *h
	return nil
}

// leave

func (m *Memory) FindLeaveByZohoID(ctx context.Context, zohoLeaveID string) (*models.Leave, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sortedKeys(m.leaves) {
		if l := m.leaves[id]; l.ZohoLeaveId == zohoLeaveID {
			return &l, nil
		}
	}
	return nil, nil
}

func (m *Memory) CreateLeave(ctx context.Context, l *models.Leave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateLeave"); err != nil {
		return err
	}
	l.ID = m.nextID()
	m.leaves[l.ID] = *l
	return nil
}

func (m *Memory) UpdateLeave(ctx context.Context, l *models.Leave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leaves[l.ID]; !ok {
		return store.ErrNotFound
	}
	m.leaves[l.ID] = *l
	return nil
}

func (m *Memory) FindHolidayByZohoID(ctx context.Context, zohoHolidayID string) (*models.Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sortedKeys(m.holidays) {
		if h := m.holidays[id]; h.ZohoHolidayId == zohoHolidayID {
			return &h, nil
		}
	}
	return nil, nil
}

func (m *Memory) CreateHoliday(ctx context.Context, h *models.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = m.nextID()
	m.holidays[h.ID] = *h
	return nil
}

func (m *Memory) UpdateHoliday(ctx context.Context, h *models.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holidays[h.ID]; !ok {
		return store.ErrNotFound
	}
	m.holidays[h.ID] = *h
	return nil
}

// receivables

func (m *Memory) FindClientByZohoID(ctx context.Context, zohoContactID string) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sortedKeys(m.clients) {
		if c := m.clients[id]; c.ZohoContactId == zohoContactID {
			c.CustomFields = c.CustomFields.Clone()
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) CreateClient(ctx context.Context, c *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateClient"); err != nil {
		return err
	}
	c.ID = m.nextID()
	cp := *c
	cp.CustomFields = c.CustomFields.Clone()
	m.clients[c.ID] = cp
	return nil
}

func (m *Memory) UpdateClient(ctx context.Context, c *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[c.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *c
	cp.CustomFields = c.CustomFields.Clone()
	m.clients[c.ID] = cp
	return nil
}

func (m *Memory) FindInvoiceByZohoID(ctx context.Context, zohoInvoiceID string) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sortedKeys(m.invoices) {
		if inv := m.invoices[id]; inv.ZohoInvoiceId == zohoInvoiceID {
			return &inv, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindInvoiceByNumber(ctx context.Context, invoiceNumber string) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sortedKeys(m.invoices) {
		if inv := m.invoices[id]; inv.InvoiceNumber == invoiceNumber {
			return &inv, nil
		}
	}
	return nil, nil
}

func (m *Memory) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv.ID = m.nextID()
	m.invoices[inv.ID] = *inv
	return nil
}

func (m *Memory) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[inv.ID]; !ok {
		return store.ErrNotFound
	}
	m.invoices[inv.ID] = *inv
	return nil
}

func (m *Memory) FindCashReceiptByZohoID(ctx context.Context, zohoPaymentID string) (*models.CashReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sortedKeys(m.cashReceipts) {
		if r := m.cashReceipts[id]; r.ZohoPaymentId == zohoPaymentID {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *Memory) CreateCashReceipt(ctx context.Context, r *models.CashReceipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID()
	m.cashReceipts[r.ID] = *r
	return nil
}

func (m *Memory) UpdateCashReceipt(ctx context.Context, r *models.CashReceipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cashReceipts[r.ID]; !ok {
		return store.ErrNotFound
	}
	m.cashReceipts[r.ID] = *r
	return nil
}

// CashReceipts returns every stored receipt.
func (m *Memory) CashReceipts() []models.CashReceipt {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CashReceipt
	for _, id := range sortedKeys(m.cashReceipts) {
		out = append(out, m.cashReceipts[id])
	}
	return out
}

// Leaves returns every stored leave.
func (m *Memory) Leaves() []models.Leave {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Leave
	for _, id := range sortedKeys(m.leaves) {
		out = append(out, m.leaves[id])
	}
	return out
}

// ledger

func cloneBill(b models.Bill) *models.Bill {
	b.CustomFields = b.CustomFields.Clone()
	return &b
}

func (m *Memory) GetBill(ctx context.Context, id int) (*models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneBill(b), nil
}

func (m *Memory) FindBillByZohoID(ctx context.Context, zohoBillID string) (*models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sortedKeys(m.bills) {
		if b := m.bills[id]; b.ZohoBillId == zohoBillID {
			return cloneBill(b), nil
		}
	}
	return nil, nil
}

func (m *Memory) ListBills(ctx context.Context, f store.DateFilter) ([]models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListBills"); err != nil {
		return nil, err
	}
	var out []models.Bill
	for _, id := range sortedKeys(m.bills) {
		b := m.bills[id]
		if f.From != nil && (b.Date == nil || b.Date.Before(*f.From)) {
			continue
		}
		if f.To != nil && (b.Date == nil || b.Date.After(*f.To)) {
			continue
		}
		out = append(out, *cloneBill(b))
	}
	return out, nil
}

func (m *Memory) CreateBill(ctx context.Context, b *models.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateBill"); err != nil {
		return err
	}
	b.ID = m.nextID()
	m.bills[b.ID] = *cloneBill(*b)
	return nil
}

func (m *Memory) UpdateBill(ctx context.Context, b *models.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bills[b.ID]; !ok {
		return store.ErrNotFound
	}
	m.bills[b.ID] = *cloneBill(*b)
	return nil
}

func (m *Memory) ReplaceBillLineItems(ctx context.Context, billID int, items []models.BillLineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ReplaceBillLineItems"); err != nil {
		return err
	}
	for id, item := range m.billLineItems {
		if item.BillId == billID {
			delete(m.billLineItems, id)
		}
	}
	for i := range items {
		items[i].ID = m.nextID()
		items[i].BillId = billID
		m.billLineItems[items[i].ID] = items[i]
	}
	return nil
}

func (m *Memory) ListBillLineItems(ctx context.Context, billID int) ([]models.BillLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BillLineItem
	for _, id := range sortedKeys(m.billLineItems) {
		if item := m.billLineItems[id]; item.BillId == billID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *Memory) GetExpense(ctx context.Context, id int) (*models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	e.CustomFields = e.CustomFields.Clone()
	return &e, nil
}

func (m *Memory) FindExpenseByZohoID(ctx context.Context, zohoExpenseID string) (*models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sortedKeys(m.expenses) {
		if e := m.expenses[id]; e.ZohoExpenseId == zohoExpenseID {
			e.CustomFields = e.CustomFields.Clone()
			return &e, nil
		}
	}
	return nil, nil
}

func (m *Memory) CreateExpense(ctx context.Context, e *models.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID()
	cp := *e
	cp.CustomFields = e.CustomFields.Clone()
	m.expenses[e.ID] = cp
	return nil
}

func (m *Memory) UpdateExpense(ctx context.Context, e *models.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.expenses[e.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *e
	cp.CustomFields = e.CustomFields.Clone()
	m.expenses[e.ID] = cp
	return nil
}

func (m *Memory) ListExclusionRules(ctx context.Context, enabledOnly bool) ([]models.ExclusionRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListExclusionRules"); err != nil {
		return nil, err
	}
	var out []models.ExclusionRule
	for _, id := range sortedKeys(m.exclusionRules) {
		r := m.exclusionRules[id]
		if enabledOnly && !r.Enabled {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (m *Memory) CreateExclusionRule(ctx context.Context, r *models.ExclusionRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID()
	m.exclusionRules[r.ID] = *r
	return nil
}

// audit

func (m *Memory) CreateSyncLog(ctx context.Context, l *models.SyncLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateSyncLog"); err != nil {
		return err
	}
	l.ID = m.nextID()
	cp := *l
	cp.ErrorMessages = append(models.StringList(nil), l.ErrorMessages...)
	cp.Warnings = append(models.StringList(nil), l.Warnings...)
	m.syncLogs[l.ID] = cp
	return nil
}

func (m *Memory) ListSyncLogs(ctx context.Context, f store.SyncLogFilter) ([]models.SyncLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SyncLog
	keys := sortedKeys(m.syncLogs)
	for i := len(keys) - 1; i >= 0; i-- {
		l := m.syncLogs[keys[i]]
		if f.SyncType != "" && l.SyncType != f.SyncType {
			continue
		}
		out = append(out, l)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// jobs

func cloneJob(j models.DetailSyncJob) *models.DetailSyncJob {
	j.ErrorMessages = append(models.StringList(nil), j.ErrorMessages...)
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		j.CompletedAt = &t
	}
	return &j
}

func (m *Memory) CreateJob(ctx context.Context, j *models.DetailSyncJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[j.ID]; ok {
		return store.ErrDuplicate
	}
	m.jobs[j.ID] = *cloneJob(*j)
	return nil
}

func (m *Memory) GetJob(ctx context.Context, id string) (*models.DetailSyncJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneJob(j), nil
}

func (m *Memory) UpdateRunningJob(ctx context.Context, j *models.DetailSyncJob) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.jobs[j.ID]
	if !ok || cur.Status != models.JobStatusRunning {
		return false, nil
	}
	next := cloneJob(*j)
	next.StartedAt = cur.StartedAt
	next.JobType = cur.JobType
	next.DateRange = cur.DateRange
	next.UpdatedAt = time.Now()
	m.jobs[j.ID] = *next
	return true, nil
}

// reports

func (m *Memory) AddPod(p models.Pod) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID()
	m.pods[p.ID] = p
	return p.ID
}

func (m *Memory) AddProject(p models.Project) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID()
	m.projects[p.ID] = p
	return p.ID
}

func (m *Memory) AddPodMember(pm models.PodMember) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	pm.ID = m.nextID()
	m.podMembers[pm.ID] = pm
	return pm.ID
}

func (m *Memory) AddProjectMapping(pm models.ProjectMapping) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	pm.ID = m.nextID()
	m.projectMappings[pm.ID] = pm
	return pm.ID
}

func (m *Memory) AddProjectCost(pc models.ProjectCost) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc.ID = m.nextID()
	m.projectCosts[pc.ID] = pc
	return pc.ID
}

func (m *Memory) AddSalary(s models.Salary) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.nextID()
	m.salaries[s.ID] = s
	return s.ID
}

func (m *Memory) AddTimesheetEntry(t models.TimesheetEntry) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextID()
	m.timesheets[t.ID] = t
	return t.ID
}

func (m *Memory) AddAllocation(a models.Allocation) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID()
	m.allocations[a.ID] = a
	return a.ID
}

func (m *Memory) GetPod(ctx context.Context, id int) (*models.Pod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pods[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListPodMembers(ctx context.Context, podID int, from, to time.Time) ([]models.PodMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PodMember
	for _, id := range sortedKeys(m.podMembers) {
		pm := m.podMembers[id]
		if pm.PodId == podID && overlaps(pm.StartDate, pm.EndDate, from, to) {
			out = append(out, pm)
		}
	}
	return out, nil
}

func (m *Memory) ListProjectMappings(ctx context.Context, podID int, from, to time.Time) ([]models.ProjectMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ProjectMapping
	for _, id := range sortedKeys(m.projectMappings) {
		pm := m.projectMappings[id]
		if pm.PodId == podID && overlaps(pm.StartDate, pm.EndDate, from, to) {
			out = append(out, pm)
		}
	}
	return out, nil
}

func (m *Memory) ListProjects(ctx context.Context, ids []int) ([]models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Project
	for _, id := range sortedKeys(m.projects) {
		if contains(ids, id) {
			out = append(out, m.projects[id])
		}
	}
	return out, nil
}

func (m *Memory) ListProjectCosts(ctx context.Context, projectIDs []int, from, to time.Time) ([]models.ProjectCost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ProjectCost
	for _, id := range sortedKeys(m.projectCosts) {
		pc := m.projectCosts[id]
		if contains(projectIDs, pc.ProjectId) && !pc.Month.Before(from) && !pc.Month.After(to) {
			out = append(out, pc)
		}
	}
	return out, nil
}

func (m *Memory) ListSalaries(ctx context.Context, personIDs []int, from, to time.Time) ([]models.Salary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lo := from.Year()*100 + int(from.Month())
	hi := to.Year()*100 + int(to.Month())
	var out []models.Salary
	for _, id := range sortedKeys(m.salaries) {
		s := m.salaries[id]
		ym := s.Year*100 + s.Month
		if contains(personIDs, s.PersonId) && ym >= lo && ym <= hi {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) ListTimesheetEntries(ctx context.Context, personIDs []int, from, to time.Time) ([]models.TimesheetEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TimesheetEntry
	for _, id := range sortedKeys(m.timesheets) {
		t := m.timesheets[id]
		if contains(personIDs, t.PersonId) && !t.Date.Before(from) && !t.Date.After(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) ListAllocations(ctx context.Context, personIDs []int, from, to time.Time) ([]models.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	first := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	var out []models.Allocation
	for _, id := range sortedKeys(m.allocations) {
		a := m.allocations[id]
		if contains(personIDs, a.PersonId) && !a.Month.Before(first) && !a.Month.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}
