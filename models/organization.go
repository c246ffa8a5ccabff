package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client is a customer synced from Zoho Books contacts.
type Client struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ZohoContactId string    `gorm:"size:64;uniqueIndex;not null" json:"zoho_contact_id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	CompanyName   string    `gorm:"size:255" json:"company_name"`
	Email         string    `gorm:"size:255" json:"email"`
	Phone         string    `gorm:"size:50" json:"phone"`
	CurrencyCode  string    `gorm:"size:10" json:"currency_code"`
	Status        string    `gorm:"size:20" json:"status"`
	CustomFields  JSONMap   `gorm:"type:json" json:"custom_fields"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Project struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Code      string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	ClientId  *int      `gorm:"index" json:"client_id"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Pod struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	LeadId    *int      `json:"lead_id"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PodMember is a time-sliced membership of a person in a pod.
type PodMember struct {
	ID            int             `gorm:"primary_key" json:"id"`
	PodId         int             `gorm:"index;not null" json:"pod_id"`
	PersonId      int             `gorm:"index;not null" json:"person_id"`
	StartDate     time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate       *time.Time      `gorm:"type:date" json:"end_date"`
	AllocationPct decimal.Decimal `gorm:"type:decimal(7,2);default:100" json:"allocation_pct"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProjectMapping attributes a project's revenue to a pod over a period.
type ProjectMapping struct {
	ID            int             `gorm:"primary_key" json:"id"`
	ProjectId     int             `gorm:"index;not null" json:"project_id"`
	PodId         int             `gorm:"index;not null" json:"pod_id"`
	StartDate     time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate       *time.Time      `gorm:"type:date" json:"end_date"`
	AllocationPct decimal.Decimal `gorm:"type:decimal(7,2);default:100" json:"allocation_pct"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Allocation is the planned share of a person's month on a project.
type Allocation struct {
	ID         int             `gorm:"primary_key" json:"id"`
	PersonId   int             `gorm:"uniqueIndex:idx_allocation,priority:1;not null" json:"person_id"`
	ProjectId  int             `gorm:"uniqueIndex:idx_allocation,priority:2;not null" json:"project_id"`
	Month      time.Time       `gorm:"type:date;uniqueIndex:idx_allocation,priority:3;not null" json:"month"`
	Percentage decimal.Decimal `gorm:"type:decimal(7,2);default:0" json:"percentage"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Salary struct {
	ID             int             `gorm:"primary_key" json:"id"`
	PersonId       int             `gorm:"uniqueIndex:idx_salary_person_month,priority:1;not null" json:"person_id"`
	Year           int             `gorm:"uniqueIndex:idx_salary_person_month,priority:2;not null" json:"year"`
	Month          int             `gorm:"uniqueIndex:idx_salary_person_month,priority:3;not null" json:"month"`
	Base           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"base"`
	Bonus          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"bonus"`
	Overtime       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"overtime"`
	Deductions     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"deductions"`
	Total          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	IsSupportStaff bool            `gorm:"not null;default:false" json:"is_support_staff"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ComputeTotal derives the salary total from its components.
func (s *Salary) ComputeTotal() decimal.Decimal {
	return s.Base.Add(s.Bonus).Add(s.Overtime).Sub(s.Deductions)
}

// ProjectCost is a revenue entry for a project in a month. Month is the first day of the month.
type ProjectCost struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ProjectId int             `gorm:"index:idx_project_cost,priority:1;not null" json:"project_id"`
	Month     time.Time       `gorm:"type:date;index:idx_project_cost,priority:2;not null" json:"month"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Notes     string          `gorm:"type:text" json:"notes"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
