package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"farmacia-bermat/backend/internal/access"
	"farmacia-bermat/backend/internal/cart"
	"farmacia-bermat/backend/internal/domain"
	"farmacia-bermat/backend/internal/store"
)

func moduleForKind(kind string) (string, error) {
	switch kind {
	case domain.InvoiceKindSale:
		return access.ModuleBilling, nil
	case domain.InvoiceKindQuotation:
		return access.ModuleProforma, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDocumentKind, kind)
	}
}

func (s *Service) cartActor(ctx context.Context, kind string) (domain.Actor, error) {
	module, err := moduleForKind(kind)
	if err != nil {
		return domain.Actor{}, err
	}
	return s.authorize(ctx, module)
}

func (s *Service) CartView(ctx context.Context, kind string) (domain.CartView, error) {
	actor, err := s.cartActor(ctx, kind)
	if err != nil {
		return domain.CartView{}, err
	}
	var view domain.CartView
	err = s.carts.With(actor.UserID, kind, func(c *cart.Cart) error {
		view = viewOf(kind, c)
		return nil
	})
	return view, err
}

// AddToCart adds one unit of the batch. Quotation carts accept inactive
// products; both kinds refuse expired batches.
func (s *Service) AddToCart(ctx context.Context, kind string, req domain.CartLineRequest) (domain.CartView, error) {
	actor, err := s.cartActor(ctx, kind)
	if err != nil {
		return domain.CartView{}, err
	}
	if err := s.validateRequest(req); err != nil {
		return domain.CartView{}, err
	}

	batch, err := s.repo.GetBatch(ctx, req.BatchID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("batch %s: %w", req.BatchID, err)
	}
	if batch.IsExpired(s.today()) {
		return domain.CartView{}, fmt.Errorf("batch %s: %w", batch.LotNumber, store.ErrBatchExpired)
	}
	product, err := s.repo.GetProduct(ctx, batch.ProductID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("product %s: %w", batch.ProductID, err)
	}

	var view domain.CartView
	err = s.carts.With(actor.UserID, kind, func(c *cart.Cart) error {
		if err := c.AddLine(*product, *batch, kind == domain.InvoiceKindQuotation); err != nil {
			return err
		}
		view = viewOf(kind, c)
		return nil
	})
	return view, err
}

func (s *Service) AdjustCartLine(ctx context.Context, kind string, batchID string, req domain.CartQuantityRequest) (domain.CartView, error) {
	actor, err := s.cartActor(ctx, kind)
	if err != nil {
		return domain.CartView{}, err
	}
	if err := s.validateRequest(req); err != nil {
		return domain.CartView{}, err
	}
	batch, err := s.repo.GetBatch(ctx, batchID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("batch %s: %w", batchID, err)
	}

	var view domain.CartView
	err = s.carts.With(actor.UserID, kind, func(c *cart.Cart) error {
		if _, err := c.AdjustQuantity(batchID, req.Delta, batch.Quantity); err != nil {
			return err
		}
		view = viewOf(kind, c)
		return nil
	})
	return view, err
}

func (s *Service) RemoveCartLine(ctx context.Context, kind string, batchID string) (domain.CartView, error) {
	actor, err := s.cartActor(ctx, kind)
	if err != nil {
		return domain.CartView{}, err
	}
	var view domain.CartView
	err = s.carts.With(actor.UserID, kind, func(c *cart.Cart) error {
		if err := c.RemoveLine(batchID); err != nil {
			return err
		}
		view = viewOf(kind, c)
		return nil
	})
	return view, err
}

func (s *Service) ClearCart(ctx context.Context, kind string) error {
	actor, err := s.cartActor(ctx, kind)
	if err != nil {
		return err
	}
	return s.carts.With(actor.UserID, kind, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

func viewOf(kind string, c *cart.Cart) domain.CartView {
	return domain.CartView{
		Kind:   kind,
		Lines:  c.Lines(),
		Totals: c.Totals(decimal.Zero),
	}
}
