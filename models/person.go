package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Person struct {
	ID                int             `gorm:"primary_key" json:"id"`
	Name              string          `gorm:"size:255;not null" json:"name"`
	Email             string          `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role              string          `gorm:"size:100" json:"role"`
	Designation       string          `gorm:"size:255" json:"designation"`
	Department        string          `gorm:"size:255" json:"department"`
	Billable          bool            `gorm:"not null;default:true" json:"billable"`
	CtcMonthly        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"ctc_monthly"`
	UtilizationTarget decimal.Decimal `gorm:"type:decimal(7,2);default:80" json:"utilization_target"`
	StartDate         *time.Time      `gorm:"type:date" json:"start_date"`
	EndDate           *time.Time      `gorm:"type:date" json:"end_date"`
	Status            PersonStatus    `gorm:"size:20;not null;default:active" json:"status"`
	ManagerId         *int            `gorm:"index" json:"manager_id"`
	ZohoEmployeeId    *string         `gorm:"size:64;uniqueIndex" json:"zoho_employee_id"`
	MicrosoftUserId   *string         `gorm:"size:64;uniqueIndex" json:"microsoft_user_id"`
	ManualCtcOverride bool            `gorm:"not null;default:false" json:"manual_ctc_override"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Person) IsExited() bool {
	return p.Status == PersonStatusExited
}

// ExitDate is the end date of an exited person, nil for active people.
func (p *Person) ExitDate() *time.Time {
	if !p.IsExited() {
		return nil
	}
	return p.EndDate
}

type ManagerHistory struct {
	ID        int        `gorm:"primary_key" json:"id"`
	PersonId  int        `gorm:"index;not null" json:"person_id"`
	ManagerId int        `gorm:"index;not null" json:"manager_id"`
	StartDate time.Time  `gorm:"not null" json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (h *ManagerHistory) IsOpen() bool {
	return h.EndDate == nil
}

type TimesheetEntry struct {
	ID        int             `gorm:"primary_key" json:"id"`
	PersonId  int             `gorm:"index:idx_timesheet_person_date,priority:1;not null" json:"person_id"`
	ProjectId *int            `gorm:"index" json:"project_id"`
	Date      time.Time       `gorm:"type:date;index:idx_timesheet_person_date,priority:2;not null" json:"date"`
	Hours     decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"hours"`
	Billable  bool            `gorm:"not null;default:false" json:"billable"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Leave struct {
	ID          int             `gorm:"primary_key" json:"id"`
	ZohoLeaveId string          `gorm:"size:64;uniqueIndex;not null" json:"zoho_leave_id"`
	PersonId    int             `gorm:"index;not null" json:"person_id"`
	LeaveType   string          `gorm:"size:100" json:"leave_type"`
	FromDate    *time.Time      `gorm:"type:date" json:"from_date"`
	ToDate      *time.Time      `gorm:"type:date" json:"to_date"`
	Days        decimal.Decimal `gorm:"type:decimal(6,2);default:0" json:"days"`
	Status      string          `gorm:"size:50" json:"status"`
	Reason      string          `gorm:"type:text" json:"reason"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Holiday struct {
	ID            int        `gorm:"primary_key" json:"id"`
	ZohoHolidayId string     `gorm:"size:64;uniqueIndex;not null" json:"zoho_holiday_id"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	Date          *time.Time `gorm:"type:date" json:"date"`
	Location      string     `gorm:"size:255" json:"location"`
	IsRestricted  bool       `gorm:"not null;default:false" json:"is_restricted"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
