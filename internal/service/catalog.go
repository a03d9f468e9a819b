package service

import (
	"context"
	"fmt"
	"strings"

	"farmacia-bermat/backend/internal/access"
	"farmacia-bermat/backend/internal/domain"
	"farmacia-bermat/backend/internal/store"
	"farmacia-bermat/backend/internal/xid"
)

func (s *Service) FindProduct(ctx context.Context, id string) (domain.Product, error) {
	if _, err := s.authenticated(ctx); err != nil {
		return domain.Product{}, err
	}
	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, err)
	}
	return *product, nil
}

// ListProducts returns the whole catalog, inactive products included.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if _, err := s.authorize(ctx, access.ModuleProducts); err != nil {
		return nil, err
	}
	return s.repo.ListProducts(ctx)
}

func (s *Service) ActiveProducts(ctx context.Context) ([]domain.Product, error) {
	return s.SearchProducts(ctx, "")
}

// SearchProducts matches query case-insensitively against name, code and
// active ingredient of active products. An empty query matches every active
// product.
func (s *Service) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	if _, err := s.authenticated(ctx); err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	matches := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if !p.Active {
			continue
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Code), needle) ||
			strings.Contains(strings.ToLower(p.ActiveIngredient), needle) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// AggregateStock sums the quantity of every batch of the product, expired
// batches included.
func (s *Service) AggregateStock(ctx context.Context, productID string) (domain.ProductStock, error) {
	if _, err := s.FindProduct(ctx, productID); err != nil {
		return domain.ProductStock{}, err
	}
	batches, err := s.repo.ListBatches(ctx)
	if err != nil {
		return domain.ProductStock{}, err
	}
	total := 0
	for _, b := range batches {
		if b.ProductID == productID {
			total += b.Quantity
		}
	}
	return domain.ProductStock{ProductID: productID, Quantity: total}, nil
}

func (s *Service) RegisterProduct(ctx context.Context, req domain.ProductRequest) (domain.ProductRegistration, error) {
	if _, err := s.authorize(ctx, access.ModuleProducts); err != nil {
		return domain.ProductRegistration{}, err
	}
	product, err := s.productFromRequest(req)
	if err != nil {
		return domain.ProductRegistration{}, err
	}

	entry, err := parseDate(req.EntryDate, s.today())
	if err != nil {
		return domain.ProductRegistration{}, err
	}
	expiry, err := parseDate(req.ExpiryDate, entry.AddDate(2, 0, 0))
	if err != nil {
		return domain.ProductRegistration{}, err
	}

	product.ID = xid.New("prod")
	product.Active = true
	created, batch, err := s.repo.CreateProduct(ctx, product, domain.Batch{
		ID:         xid.New("batch"),
		ExpiryDate: expiry,
		EntryDate:  entry,
	})
	if err != nil {
		return domain.ProductRegistration{}, err
	}

	s.logSession(ctx, fmt.Sprintf("Produto registado: %s (%s)", created.Name, created.Code))
	return domain.ProductRegistration{Product: *created, Batch: *batch}, nil
}

// EditProduct replaces the product fields; batches are not touched.
func (s *Service) EditProduct(ctx context.Context, id string, req domain.ProductRequest) (domain.Product, error) {
	if _, err := s.authorize(ctx, access.ModuleProducts); err != nil {
		return domain.Product{}, err
	}
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, err)
	}
	product, err := s.productFromRequest(req)
	if err != nil {
		return domain.Product{}, err
	}
	product.ID = existing.ID
	product.Code = existing.Code
	product.Active = existing.Active

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.logSession(ctx, fmt.Sprintf("Produto editado: %s (%s)", updated.Name, updated.Code))
	return *updated, nil
}

func (s *Service) ToggleProductActive(ctx context.Context, id string) (domain.Product, error) {
	if _, err := s.authorize(ctx, access.ModuleProducts); err != nil {
		return domain.Product{}, err
	}
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, err)
	}
	product.Active = !product.Active
	updated, err := s.repo.UpdateProduct(ctx, *product)
	if err != nil {
		return domain.Product{}, err
	}

	state := "desativado"
	if updated.Active {
		state = "ativado"
	}
	s.logSession(ctx, fmt.Sprintf("Produto %s: %s (%s)", state, updated.Name, updated.Code))
	return *updated, nil
}

// DeleteProduct removes a product that no longer holds stock. Its batches are
// kept so earlier sales stay reversible.
func (s *Service) DeleteProduct(ctx context.Context, id string, confirm bool) error {
	if _, err := s.authorize(ctx, access.ModuleProducts); err != nil {
		return err
	}
	if !confirm {
		return ErrConfirmationRequired
	}
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("product %s: %w", id, err)
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logSession(ctx, fmt.Sprintf("Produto eliminado: %s (%s)", product.Name, product.Code))
	return nil
}

func (s *Service) productFromRequest(req domain.ProductRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if err := s.validateRequest(req); err != nil {
		return domain.Product{}, err
	}
	if !domain.IsKnownCategory(req.Category) {
		return domain.Product{}, fmt.Errorf("%w: unknown category %q", store.ErrInvalidTransaction, req.Category)
	}
	if req.PurchasePrice.IsNegative() || !req.SellPrice.IsPositive() {
		return domain.Product{}, fmt.Errorf("%w: prices must be positive", store.ErrInvalidTransaction)
	}
	if req.PriceCap != nil && req.PriceCap.IsNegative() {
		return domain.Product{}, fmt.Errorf("%w: price cap must not be negative", store.ErrInvalidTransaction)
	}
	if req.PriceRegime == domain.PriceRegimeCapped && req.PriceCap != nil && req.SellPrice.GreaterThan(*req.PriceCap) {
		return domain.Product{}, fmt.Errorf("%w: %s > %s", store.ErrPriceAboveCap, req.SellPrice, req.PriceCap)
	}

	return domain.Product{
		Name:             req.Name,
		ActiveIngredient: strings.TrimSpace(req.ActiveIngredient),
		Category:         req.Category,
		ProductType:      strings.TrimSpace(req.ProductType),
		PriceRegime:      req.PriceRegime,
		PurchasePrice:    req.PurchasePrice,
		SellPrice:        req.SellPrice,
		PriceCap:         req.PriceCap,
		Taxable:          req.Taxable,
		Supplier:         strings.TrimSpace(req.Supplier),
		MinStock:         req.MinStock,
	}, nil
}
