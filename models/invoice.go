package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Invoice struct {
	ID              int             `gorm:"primary_key" json:"id"`
	ZohoInvoiceId   string          `gorm:"size:64;uniqueIndex;not null" json:"zoho_invoice_id"`
	InvoiceNumber   string          `gorm:"size:100;index" json:"invoice_number"`
	ClientId        *int            `gorm:"index" json:"client_id"`
	ZohoCustomerId  string          `gorm:"size:64" json:"zoho_customer_id"`
	CustomerName    string          `gorm:"size:255" json:"customer_name"`
	Date            *time.Time      `gorm:"type:date" json:"date"`
	DueDate         *time.Time      `gorm:"type:date" json:"due_date"`
	Status          string          `gorm:"size:50" json:"status"`
	CurrencyCode    string          `gorm:"size:10" json:"currency_code"`
	Total           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	Balance         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	ReferenceNumber string          `gorm:"size:255" json:"reference_number"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CashReceipt is a customer payment applied to a synced invoice.
type CashReceipt struct {
	ID              int             `gorm:"primary_key" json:"id"`
	ZohoPaymentId   string          `gorm:"size:64;uniqueIndex;not null" json:"zoho_payment_id"`
	InvoiceId       int             `gorm:"index;not null" json:"invoice_id"`
	PaymentNumber   string          `gorm:"size:100" json:"payment_number"`
	CustomerName    string          `gorm:"size:255" json:"customer_name"`
	Date            *time.Time      `gorm:"type:date" json:"date"`
	PaymentMode     string          `gorm:"size:100" json:"payment_mode"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	ReferenceNumber string          `gorm:"size:255" json:"reference_number"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
