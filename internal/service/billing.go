package service

import (
	"context"
	"fmt"
	"strings"

	"farmacia-bermat/backend/internal/access"
	"farmacia-bermat/backend/internal/cart"
	"farmacia-bermat/backend/internal/domain"
	"farmacia-bermat/backend/internal/store"
	"farmacia-bermat/backend/internal/xid"
)

// FinalizeSale turns the caller's sale cart into an invoice and decrements
// stock. The cart is cleared only when the invoice is stored.
func (s *Service) FinalizeSale(ctx context.Context, req domain.FinalizeRequest) (domain.Invoice, error) {
	return s.finalize(ctx, domain.InvoiceKindSale, req)
}

// FinalizeQuotation stores the quotation cart as a pro-forma document. Stock
// is left untouched.
func (s *Service) FinalizeQuotation(ctx context.Context, req domain.FinalizeRequest) (domain.Invoice, error) {
	return s.finalize(ctx, domain.InvoiceKindQuotation, req)
}

func (s *Service) finalize(ctx context.Context, kind string, req domain.FinalizeRequest) (domain.Invoice, error) {
	actor, err := s.cartActor(ctx, kind)
	if err != nil {
		return domain.Invoice{}, err
	}
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if err := s.validateRequest(req); err != nil {
		return domain.Invoice{}, err
	}
	if req.Discount.IsNegative() {
		return domain.Invoice{}, fmt.Errorf("%w: discount must not be negative", store.ErrInvalidTransaction)
	}

	var created *domain.Invoice
	err = s.carts.With(actor.UserID, kind, func(c *cart.Cart) error {
		if c.Len() == 0 {
			return ErrEmptyCart
		}
		totals := c.Totals(req.Discount)
		if totals.GrandTotal.IsNegative() {
			return fmt.Errorf("%w: discount exceeds total", store.ErrInvalidTransaction)
		}

		invoice, err := s.repo.CreateInvoice(ctx, domain.Invoice{
			ID:               xid.New("inv"),
			Kind:             kind,
			IssuedAt:         s.now().UTC(),
			CustomerID:       req.CustomerID,
			OperatorID:       actor.UserID,
			OperatorUsername: actor.Username,
			Items:            c.Lines(),
			Subtotal:         totals.Subtotal,
			TaxTotal:         totals.TaxTotal,
			Discount:         totals.Discount,
			Total:            totals.GrandTotal,
			PaymentMethod:    req.PaymentMethod,
		})
		if err != nil {
			return err
		}
		c.Clear()
		created = invoice
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	if kind == domain.InvoiceKindSale {
		s.logSession(ctx, fmt.Sprintf("Venda finalizada: %s (total %s)", created.Number, created.Total.StringFixed(2)))
	} else {
		s.logSession(ctx, fmt.Sprintf("Proforma emitida: %s (total %s)", created.Number, created.Total.StringFixed(2)))
	}
	s.log.Info().
		Str("number", created.Number).
		Str("kind", kind).
		Str("operator", actor.Username).
		Int("items", len(created.Items)).
		Msg("document finalized")
	return *created, nil
}

// ListInvoices returns documents newest first. An empty kind lists both sales
// and quotations.
func (s *Service) ListInvoices(ctx context.Context, kind string) ([]domain.Invoice, error) {
	if _, err := s.authorize(ctx, access.ModuleBilling); err != nil {
		return nil, err
	}
	if kind != "" {
		if _, err := moduleForKind(kind); err != nil {
			return nil, err
		}
	}
	invoices, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return invoices, nil
	}
	filtered := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Kind == kind {
			filtered = append(filtered, inv)
		}
	}
	return filtered, nil
}

func (s *Service) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	if _, err := s.authorize(ctx, access.ModuleBilling); err != nil {
		return domain.Invoice{}, err
	}
	invoice, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("invoice %s: %w", id, err)
	}
	return *invoice, nil
}

// CancelInvoice marks a document cancelled. Cancelling a sale returns every
// line quantity to its batch.
func (s *Service) CancelInvoice(ctx context.Context, id string, confirm bool) (domain.Invoice, error) {
	if _, err := s.authorize(ctx, access.ModuleBilling); err != nil {
		return domain.Invoice{}, err
	}
	if !confirm {
		return domain.Invoice{}, ErrConfirmationRequired
	}
	cancelled, err := s.repo.CancelInvoice(ctx, id, s.now())
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("invoice %s: %w", id, err)
	}
	s.logSession(ctx, fmt.Sprintf("Documento anulado: %s", cancelled.Number))
	return *cancelled, nil
}
