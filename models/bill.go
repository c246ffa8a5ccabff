package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Bill struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	ZohoBillId           string          `gorm:"size:64;uniqueIndex;not null" json:"zoho_bill_id"`
	BillNumber           string          `gorm:"size:100" json:"bill_number"`
	ReferenceNumber      string          `gorm:"size:255" json:"reference_number"`
	VendorId             string          `gorm:"size:64" json:"vendor_id"`
	VendorName           string          `gorm:"size:255;index" json:"vendor_name"`
	Date                 *time.Time      `gorm:"type:date;index" json:"date"`
	DueDate              *time.Time      `gorm:"type:date" json:"due_date"`
	Status               string          `gorm:"size:50" json:"status"`
	CurrencyCode         string          `gorm:"size:10" json:"currency_code"`
	SubTotal             decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sub_total"`
	Total                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	Balance              decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	CustomFields         JSONMap         `gorm:"type:json" json:"custom_fields"`
	IncludeInCalculation bool            `gorm:"not null;default:true" json:"include_in_calculation"`
	ExclusionReason      string          `gorm:"size:255" json:"exclusion_reason"`
	InclusionOverridden  bool            `gorm:"not null;default:false" json:"inclusion_overridden"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// FieldValue exposes bill columns by their json name for exclusion rule matching.
func (b *Bill) FieldValue(field string) (string, bool) {
	switch field {
	case "vendor_name":
		return b.VendorName, true
	case "vendor_id":
		return b.VendorId, true
	case "bill_number":
		return b.BillNumber, true
	case "reference_number":
		return b.ReferenceNumber, true
	case "status":
		return b.Status, true
	case "currency_code":
		return b.CurrencyCode, true
	case "sub_total":
		return b.SubTotal.String(), true
	case "total":
		return b.Total.String(), true
	case "balance":
		return b.Balance.String(), true
	}
	if strings.HasPrefix(field, "cf_") {
		v, ok := b.CustomFields[field]
		return v, ok
	}
	return "", false
}

// BillLineItem is a detail line fetched by the bill details job.
type BillLineItem struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BillId         int             `gorm:"index;not null" json:"bill_id"`
	ZohoLineItemId string          `gorm:"size:64" json:"zoho_line_item_id"`
	AccountName    string          `gorm:"size:255" json:"account_name"`
	Description    string          `gorm:"type:text" json:"description"`
	ProjectName    string          `gorm:"size:255" json:"project_name"`
	CustomerName   string          `gorm:"size:255" json:"customer_name"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	Rate           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rate"`
	ItemTotal      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"item_total"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
