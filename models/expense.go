package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Expense struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	ZohoExpenseId        string          `gorm:"size:64;uniqueIndex;not null" json:"zoho_expense_id"`
	Date                 *time.Time      `gorm:"type:date;index" json:"date"`
	AccountName          string          `gorm:"size:255;index" json:"account_name"`
	Description          string          `gorm:"type:text" json:"description"`
	ReferenceNumber      string          `gorm:"size:255" json:"reference_number"`
	VendorName           string          `gorm:"size:255" json:"vendor_name"`
	CustomerName         string          `gorm:"size:255" json:"customer_name"`
	ProjectName          string          `gorm:"size:255" json:"project_name"`
	PaidThrough          string          `gorm:"size:255" json:"paid_through"`
	Status               string          `gorm:"size:50" json:"status"`
	CurrencyCode         string          `gorm:"size:10" json:"currency_code"`
	IsBillable           bool            `gorm:"not null;default:false" json:"is_billable"`
	Amount               decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Total                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	CustomFields         JSONMap         `gorm:"type:json" json:"custom_fields"`
	IncludeInCalculation bool            `gorm:"not null;default:true" json:"include_in_calculation"`
	ExclusionReason      string          `gorm:"size:255" json:"exclusion_reason"`
	InclusionOverridden  bool            `gorm:"not null;default:false" json:"inclusion_overridden"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *Expense) FieldValue(field string) (string, bool) {
	switch field {
	case "account_name":
		return e.AccountName, true
	case "description":
		return e.Description, true
	case "reference_number":
		return e.ReferenceNumber, true
	case "vendor_name":
		return e.VendorName, true
	case "customer_name":
		return e.CustomerName, true
	case "project_name":
		return e.ProjectName, true
	case "paid_through":
		return e.PaidThrough, true
	case "status":
		return e.Status, true
	case "currency_code":
		return e.CurrencyCode, true
	case "is_billable":
		return strconv.FormatBool(e.IsBillable), true
	case "amount":
		return e.Amount.String(), true
	case "total":
		return e.Total.String(), true
	}
	if strings.HasPrefix(field, "cf_") {
		v, ok := e.CustomFields[field]
		return v, ok
	}
	return "", false
}
