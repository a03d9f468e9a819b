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

// AvailableBatches lists batches that can be sold today: quantity above zero,
// not expired and still attached to a catalog product.
func (s *Service) AvailableBatches(ctx context.Context) ([]domain.Batch, error) {
	if _, err := s.authenticated(ctx); err != nil {
		return nil, err
	}
	batches, err := s.repo.ListBatches(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(products))
	for _, p := range products {
		known[p.ID] = true
	}
	today := s.today()
	available := make([]domain.Batch, 0, len(batches))
	for _, b := range batches {
		if b.Quantity > 0 && !b.IsExpired(today) && known[b.ProductID] {
			available = append(available, b)
		}
	}
	return available, nil
}

func (s *Service) ListBatches(ctx context.Context) ([]domain.Batch, error) {
	if _, err := s.authorize(ctx, access.ModuleBatches); err != nil {
		return nil, err
	}
	return s.repo.ListBatches(ctx)
}

func (s *Service) BatchesForProduct(ctx context.Context, productID string) ([]domain.Batch, error) {
	if _, err := s.authenticated(ctx); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	batches, err := s.repo.ListBatches(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Batch, 0)
	for _, b := range batches {
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Service) RegisterBatch(ctx context.Context, req domain.BatchCreateRequest) (domain.Batch, error) {
	if _, err := s.authorize(ctx, access.ModuleBatches); err != nil {
		return domain.Batch{}, err
	}
	req.LotNumber = strings.TrimSpace(req.LotNumber)
	if err := s.validateRequest(req); err != nil {
		return domain.Batch{}, err
	}
	expiry, err := parseDate(req.ExpiryDate, s.today())
	if err != nil {
		return domain.Batch{}, err
	}
	entry, err := parseDate(req.EntryDate, s.today())
	if err != nil {
		return domain.Batch{}, err
	}

	product, err := s.repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("product %s: %w", req.ProductID, err)
	}
	created, err := s.repo.CreateBatch(ctx, domain.Batch{
		ID:         xid.New("batch"),
		ProductID:  product.ID,
		LotNumber:  req.LotNumber,
		ExpiryDate: expiry,
		Quantity:   req.Quantity,
		EntryDate:  entry,
	})
	if err != nil {
		return domain.Batch{}, err
	}

	s.logSession(ctx, fmt.Sprintf("Lote registado: %s de %s (quantidade %d)", created.LotNumber, product.Name, created.Quantity))
	return *created, nil
}

// EditBatch changes lot number and dates. Quantity only moves through sales,
// cancellations and stock adjustments.
func (s *Service) EditBatch(ctx context.Context, id string, req domain.BatchUpdateRequest) (domain.Batch, error) {
	if _, err := s.authorize(ctx, access.ModuleBatches); err != nil {
		return domain.Batch{}, err
	}
	batch, err := s.repo.GetBatch(ctx, id)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("batch %s: %w", id, err)
	}

	updated := *batch
	if req.LotNumber != nil {
		lot := strings.TrimSpace(*req.LotNumber)
		if lot == "" {
			return domain.Batch{}, store.ErrInvalidTransaction
		}
		updated.LotNumber = lot
	}
	if req.ExpiryDate != nil {
		if updated.ExpiryDate, err = parseDate(*req.ExpiryDate, updated.ExpiryDate); err != nil {
			return domain.Batch{}, err
		}
	}
	if req.EntryDate != nil {
		if updated.EntryDate, err = parseDate(*req.EntryDate, updated.EntryDate); err != nil {
			return domain.Batch{}, err
		}
	}

	saved, err := s.repo.UpdateBatch(ctx, updated)
	if err != nil {
		return domain.Batch{}, err
	}
	s.logSession(ctx, fmt.Sprintf("Lote editado: %s", saved.LotNumber))
	return *saved, nil
}

// AdjustStock applies a manual correction to one batch. The result never
// goes below zero; Clamped reports when the floor was hit.
func (s *Service) AdjustStock(ctx context.Context, batchID string, req domain.StockAdjustRequest) (domain.StockAdjustment, error) {
	if _, err := s.authorize(ctx, access.ModuleStock); err != nil {
		return domain.StockAdjustment{}, err
	}
	note := strings.TrimSpace(req.Note)
	if note == "" {
		return domain.StockAdjustment{}, store.ErrNoteRequired
	}
	if req.Delta == 0 {
		return domain.StockAdjustment{}, fmt.Errorf("%w: delta must not be zero", store.ErrInvalidTransaction)
	}
	if !req.Confirm {
		return domain.StockAdjustment{}, ErrConfirmationRequired
	}

	result, err := s.repo.AdjustBatchQuantity(ctx, batchID, req.Delta)
	if err != nil {
		return domain.StockAdjustment{}, fmt.Errorf("batch %s: %w", batchID, err)
	}
	if result.Clamped {
		s.log.Warn().
			Str("batch_id", batchID).
			Int("delta", req.Delta).
			Int("old_quantity", result.OldQuantity).
			Msg("stock adjustment clamped at zero")
	}

	s.logSession(ctx, fmt.Sprintf("Ajuste de stock no lote %s: %d -> %d. Motivo: %s",
		result.Batch.LotNumber, result.OldQuantity, result.NewQuantity, note))
	return result, nil
}
