package mapper

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/margindesk/margindesk_backend/models"
	"github.com/ttacon/libphonenumber"
)

// NormalizePhone formats a number as E.164 using region for numbers without a country
// code. Numbers libphonenumber cannot validate are returned as given.
func NormalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := libphonenumber.Parse(raw, strings.ToUpper(region))
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return raw
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

func Contact(raw json.RawMessage, phoneRegion string) (models.Client, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return models.Client{}, err
	}
	id := f.String("contact_id")
	if id == "" {
		return models.Client{}, fmt.Errorf("contact without contact_id")
	}
	name := f.String("contact_name", "customer_name", "company_name")
	if name == "" {
		name = "Zoho contact " + id
	}
	return models.Client{
		ZohoContactId: id,
		Name:          name,
		CompanyName:   f.String("company_name"),
		Email:         strings.ToLower(f.String("email")),
		Phone:         NormalizePhone(f.String("phone", "mobile"), phoneRegion),
		CurrencyCode:  f.String("currency_code"),
		Status:        f.String("status"),
		CustomFields:  CustomFields(f),
	}, nil
}

type InvoiceRecord struct {
	Invoice  models.Invoice
	Warnings []string
}

func Invoice(raw json.RawMessage) (InvoiceRecord, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return InvoiceRecord{}, err
	}
	id := f.String("invoice_id")
	if id == "" {
		return InvoiceRecord{}, fmt.Errorf("invoice without invoice_id")
	}
	var w warnings
	return InvoiceRecord{
		Invoice: models.Invoice{
			ZohoInvoiceId:   id,
			InvoiceNumber:   f.String("invoice_number"),
			ZohoCustomerId:  f.String("customer_id"),
			CustomerName:    f.String("customer_name"),
			Date:            w.date("date", f.String("date")),
			DueDate:         w.date("due_date", f.String("due_date")),
			Status:          f.String("status"),
			CurrencyCode:    f.String("currency_code"),
			Total:           f.Decimal("total"),
			Balance:         f.Decimal("balance"),
			ReferenceNumber: f.String("reference_number"),
		},
		Warnings: w,
	}, nil
}

// PaymentRecord is a customer payment plus the invoices it was applied to.
type PaymentRecord struct {
	Receipt        models.CashReceipt
	InvoiceZohoIDs []string
	InvoiceNumbers []string
	Warnings       []string
}

func CustomerPayment(raw json.RawMessage) (PaymentRecord, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return PaymentRecord{}, err
	}
	id := f.String("payment_id")
	if id == "" {
		return PaymentRecord{}, fmt.Errorf("customer payment without payment_id")
	}
	var w warnings
	rec := PaymentRecord{
		Receipt: models.CashReceipt{
			ZohoPaymentId:   id,
			PaymentNumber:   f.String("payment_number"),
			CustomerName:    f.String("customer_name"),
			Date:            w.date("date", f.String("date")),
			PaymentMode:     f.String("payment_mode"),
			Amount:          f.Decimal("amount"),
			ReferenceNumber: f.String("reference_number"),
		},
	}
	if applied, ok := f["invoices"].([]interface{}); ok {
		for _, a := range applied {
			if m, ok := a.(map[string]interface{}); ok {
				if inv := Fields(m).String("invoice_id"); inv != "" {
					rec.InvoiceZohoIDs = append(rec.InvoiceZohoIDs, inv)
				}
				if n := Fields(m).String("invoice_number"); n != "" {
					rec.InvoiceNumbers = append(rec.InvoiceNumbers, n)
				}
			}
		}
	}
	if id := f.String("invoice_id"); id != "" {
		rec.InvoiceZohoIDs = append(rec.InvoiceZohoIDs, id)
	}
	for _, n := range strings.Split(f.String("invoice_numbers", "invoice_number"), ",") {
		if n = strings.TrimSpace(n); n != "" {
			rec.InvoiceNumbers = append(rec.InvoiceNumbers, n)
		}
	}
	rec.Warnings = w
	return rec, nil
}

type BillRecord struct {
	Bill     models.Bill
	Warnings []string
}

func Bill(raw json.RawMessage) (BillRecord, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return BillRecord{}, err
	}
	id := f.String("bill_id")
	if id == "" {
		return BillRecord{}, fmt.Errorf("bill without bill_id")
	}
	var w warnings
	return BillRecord{
		Bill: models.Bill{
			ZohoBillId:           id,
			BillNumber:           f.String("bill_number"),
			ReferenceNumber:      f.String("reference_number"),
			VendorId:             f.String("vendor_id"),
			VendorName:           f.String("vendor_name"),
			Date:                 w.date("date", f.String("date")),
			DueDate:              w.date("due_date", f.String("due_date")),
			Status:               f.String("status"),
			CurrencyCode:         f.String("currency_code"),
			SubTotal:             f.Decimal("sub_total"),
			Total:                f.Decimal("total"),
			Balance:              f.Decimal("balance"),
			CustomFields:         CustomFields(f),
			IncludeInCalculation: true,
		},
		Warnings: w,
	}, nil
}

// BillLineItems maps the line_items of a bill detail response.
func BillLineItems(raw json.RawMessage) ([]models.BillLineItem, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}
	lines, _ := f["line_items"].([]interface{})
	out := make([]models.BillLineItem, 0, len(lines))
	for i, l := range lines {
		m, ok := l.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("line item %d is not an object", i)
		}
		lf := Fields(m)
		out = append(out, models.BillLineItem{
			ZohoLineItemId: lf.String("line_item_id"),
			AccountName:    lf.String("account_name"),
			Description:    lf.String("description", "name"),
			ProjectName:    lf.String("project_name"),
			CustomerName:   lf.String("customer_name"),
			Quantity:       lf.Decimal("quantity"),
			Rate:           lf.Decimal("rate"),
			ItemTotal:      lf.Decimal("item_total"),
		})
	}
	return out, nil
}

type ExpenseRecord struct {
	Expense  models.Expense
	Warnings []string
}

func Expense(raw json.RawMessage) (ExpenseRecord, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return ExpenseRecord{}, err
	}
	id := f.String("expense_id")
	if id == "" {
		return ExpenseRecord{}, fmt.Errorf("expense without expense_id")
	}
	var w warnings
	return ExpenseRecord{
		Expense: models.Expense{
			ZohoExpenseId:        id,
			Date:                 w.date("date", f.String("date")),
			AccountName:          f.String("account_name"),
			Description:          f.String("description"),
			ReferenceNumber:      f.String("reference_number"),
			VendorName:           f.String("vendor_name"),
			CustomerName:         f.String("customer_name"),
			ProjectName:          f.String("project_name"),
			PaidThrough:          f.String("paid_through_account_name"),
			Status:               f.String("status"),
			CurrencyCode:         f.String("currency_code"),
			IsBillable:           f.Bool("is_billable"),
			Amount:               f.Decimal("sub_total", "amount", "total"),
			Total:                f.Decimal("total"),
			CustomFields:         CustomFields(f),
			IncludeInCalculation: true,
		},
		Warnings: w,
	}, nil
}
