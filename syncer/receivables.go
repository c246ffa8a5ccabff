package syncer

import (
	"context"
	"fmt"

	"github.com/margindesk/margindesk_backend/integrations"
	"github.com/margindesk/margindesk_backend/mapper"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/sirupsen/logrus"
)

func errBooksNotConnected() error {
	return fmt.Errorf("zoho books client: %w", integrations.ErrNotConnected)
}

func (s *Syncer) syncContacts(ctx context.Context, logger logrus.FieldLogger) (MergeResult, error) {
	var res MergeResult
	if s.books == nil {
		return res, errBooksNotConnected()
	}
	raws, err := fetchAll(ctx, s, "contacts", s.books.PageSize(), s.books.ContactsPage, logger, &res)
	if err != nil {
		return res, err
	}

	clients := make([]models.Client, 0, len(raws))
	for i, raw := range raws {
		c, err := mapper.Contact(raw, s.opts.PhoneRegion)
		if err != nil {
			res.Fail(fmt.Sprintf("contact #%d: %v", i+1, err))
			continue
		}
		clients = append(clients, c)
	}

	res.Add(Merge(ctx, clients, MergeOps[models.Client, models.Client]{
		Key: func(c models.Client) string { return c.ZohoContactId },
		Find: func(ctx context.Context, key string, _ models.Client) (*models.Client, error) {
			return s.store.FindClientByZohoID(ctx, key)
		},
		Create: func(ctx context.Context, c models.Client) (*models.Client, error) {
			return &c, s.store.CreateClient(ctx, &c)
		},
		Update: func(ctx context.Context, existing *models.Client, c models.Client) error {
			existing.Name = nonEmpty(c.Name, existing.Name)
			existing.CompanyName = nonEmpty(c.CompanyName, existing.CompanyName)
			existing.Email = nonEmpty(c.Email, existing.Email)
			existing.Phone = nonEmpty(c.Phone, existing.Phone)
			existing.CurrencyCode = nonEmpty(c.CurrencyCode, existing.CurrencyCode)
			existing.Status = nonEmpty(c.Status, existing.Status)
			if c.CustomFields != nil {
				existing.CustomFields = c.CustomFields
			}
			return s.store.UpdateClient(ctx, existing)
		},
	}))
	return res, nil
}

func (s *Syncer) syncInvoices(ctx context.Context, logger logrus.FieldLogger) (MergeResult, error) {
	var res MergeResult
	if s.books == nil {
		return res, errBooksNotConnected()
	}
	raws, err := fetchAll(ctx, s, "invoices", s.books.PageSize(), s.books.InvoicesPage, logger, &res)
	if err != nil {
		return res, err
	}

	invoices := make([]models.Invoice, 0, len(raws))
	for i, raw := range raws {
		rec, err := mapper.Invoice(raw)
		if err != nil {
			res.Fail(fmt.Sprintf("invoice #%d: %v", i+1, err))
			continue
		}
		recordWarnings(&res, rec.Invoice.ZohoInvoiceId, rec.Warnings)
		invoices = append(invoices, rec.Invoice)
	}

	res.Add(Merge(ctx, invoices, MergeOps[models.Invoice, models.Invoice]{
		Key: func(inv models.Invoice) string { return inv.ZohoInvoiceId },
		Find: func(ctx context.Context, key string, _ models.Invoice) (*models.Invoice, error) {
			return s.store.FindInvoiceByZohoID(ctx, key)
		},
		Create: func(ctx context.Context, inv models.Invoice) (*models.Invoice, error) {
			if err := s.linkClient(ctx, &inv); err != nil {
				return nil, err
			}
			return &inv, s.store.CreateInvoice(ctx, &inv)
		},
		Update: func(ctx context.Context, existing *models.Invoice, inv models.Invoice) error {
			inv.ID = existing.ID
			inv.CreatedAt = existing.CreatedAt
			inv.ClientId = existing.ClientId
			if err := s.linkClient(ctx, &inv); err != nil {
				return err
			}
			*existing = inv
			return s.store.UpdateInvoice(ctx, existing)
		},
	}))
	return res, nil
}

func (s *Syncer) linkClient(ctx context.Context, inv *models.Invoice) error {
	if inv.ZohoCustomerId == "" {
		return nil
	}
	c, err := s.store.FindClientByZohoID(ctx, inv.ZohoCustomerId)
	if err != nil {
		return err
	}
	if c != nil {
		inv.ClientId = &c.ID
	}
	return nil
}

// syncCashReceipts needs invoices synced first. A payment whose invoice is not stored
// locally is skipped with a message; it does not count as an error.
func (s *Syncer) syncCashReceipts(ctx context.Context, logger logrus.FieldLogger) (MergeResult, error) {
	var res MergeResult
	if s.books == nil {
		return res, errBooksNotConnected()
	}
	raws, err := fetchAll(ctx, s, "customer payments", s.books.PageSize(), s.books.CustomerPaymentsPage, logger, &res)
	if err != nil {
		return res, err
	}

	receipts := make([]models.CashReceipt, 0, len(raws))
	for i, raw := range raws {
		rec, err := mapper.CustomerPayment(raw)
		if err != nil {
			res.Fail(fmt.Sprintf("customer payment #%d: %v", i+1, err))
			continue
		}
		recordWarnings(&res, rec.Receipt.ZohoPaymentId, rec.Warnings)
		inv, err := s.matchInvoice(ctx, rec)
		if err != nil {
			res.Fail(fmt.Sprintf("%s: invoice lookup: %v", rec.Receipt.ZohoPaymentId, err))
			continue
		}
		if inv == nil {
			res.SkipWithMessage(fmt.Sprintf("%s: no matching invoice for payment %s", rec.Receipt.ZohoPaymentId, rec.Receipt.PaymentNumber))
			continue
		}
		rec.Receipt.InvoiceId = inv.ID
		receipts = append(receipts, rec.Receipt)
	}

	res.Add(Merge(ctx, receipts, MergeOps[models.CashReceipt, models.CashReceipt]{
		Key: func(r models.CashReceipt) string { return r.ZohoPaymentId },
		Find: func(ctx context.Context, key string, _ models.CashReceipt) (*models.CashReceipt, error) {
			return s.store.FindCashReceiptByZohoID(ctx, key)
		},
		Create: func(ctx context.Context, r models.CashReceipt) (*models.CashReceipt, error) {
			return &r, s.store.CreateCashReceipt(ctx, &r)
		},
		Update: func(ctx context.Context, existing *models.CashReceipt, r models.CashReceipt) error {
			r.ID = existing.ID
			r.CreatedAt = existing.CreatedAt
			*existing = r
			return s.store.UpdateCashReceipt(ctx, existing)
		},
	}))
	return res, nil
}

func (s *Syncer) matchInvoice(ctx context.Context, rec mapper.PaymentRecord) (*models.Invoice, error) {
	for _, id := range rec.InvoiceZohoIDs {
		inv, err := s.store.FindInvoiceByZohoID(ctx, id)
		if err != nil || inv != nil {
			return inv, err
		}
	}
	for _, n := range rec.InvoiceNumbers {
		inv, err := s.store.FindInvoiceByNumber(ctx, n)
		if err != nil || inv != nil {
			return inv, err
		}
	}
	return nil, nil
}
