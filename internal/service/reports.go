package service

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"farmacia-bermat/backend/internal/access"
	"farmacia-bermat/backend/internal/domain"
)

const topProductsLimit = 5

// SalesReport aggregates active sales. Cancelled documents and quotations are
// only counted. Profit uses the purchase cost recorded on each invoice line.
func (s *Service) SalesReport(ctx context.Context) (domain.SalesReport, error) {
	if _, err := s.authorize(ctx, access.ModuleReports); err != nil {
		return domain.SalesReport{}, err
	}
	invoices, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return domain.SalesReport{}, err
	}

	report := domain.SalesReport{
		GeneratedAt:     s.now().UTC(),
		Revenue:         decimal.Zero,
		TaxCollected:    decimal.Zero,
		EstimatedProfit: decimal.Zero,
		TopProducts:     []domain.TopProduct{},
	}
	byProduct := make(map[string]*domain.TopProduct)
	for _, inv := range invoices {
		switch {
		case inv.Status == domain.InvoiceStatusCancelled:
			report.CancelledCount++
			continue
		case inv.Kind == domain.InvoiceKindQuotation:
			report.QuotationCount++
			continue
		}

		report.SalesCount++
		report.Revenue = report.Revenue.Add(inv.Total)
		report.TaxCollected = report.TaxCollected.Add(inv.TaxTotal)
		for _, item := range inv.Items {
			cost := item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity)))
			report.EstimatedProfit = report.EstimatedProfit.Add(item.Total.Sub(cost))

			top, ok := byProduct[item.ProductID]
			if !ok {
				top = &domain.TopProduct{ProductID: item.ProductID, ProductName: item.ProductName, Total: decimal.Zero}
				byProduct[item.ProductID] = top
			}
			top.Quantity += item.Quantity
			top.Total = top.Total.Add(item.Total)
		}
	}

	for _, top := range byProduct {
		report.TopProducts = append(report.TopProducts, *top)
	}
	slices.SortFunc(report.TopProducts, func(a, b domain.TopProduct) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.ProductName, b.ProductName)
	})
	if len(report.TopProducts) > topProductsLimit {
		report.TopProducts = report.TopProducts[:topProductsLimit]
	}
	return report, nil
}

// StockReport classifies every batch against its product minimum and lists
// products whose aggregate stock is at or below that minimum.
func (s *Service) StockReport(ctx context.Context) (domain.StockReport, error) {
	if _, err := s.authorize(ctx, access.ModuleStock); err != nil {
		return domain.StockReport{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.StockReport{}, err
	}
	batches, err := s.repo.ListBatches(ctx)
	if err != nil {
		return domain.StockReport{}, err
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	today := s.today()
	report := domain.StockReport{
		GeneratedAt:       s.now().UTC(),
		Batches:           make([]domain.BatchStockLine, 0, len(batches)),
		LowStockProducts:  []domain.LowStockProduct{},
		ExpiredBatches:    []domain.Batch{},
		NearExpiryBatches: []domain.Batch{},
	}
	aggregate := make(map[string]int, len(products))
	for _, b := range batches {
		product, ok := byID[b.ProductID]
		if !ok {
			// batch of a deleted product
			continue
		}
		aggregate[b.ProductID] += b.Quantity
		report.TotalUnits += b.Quantity

		line := domain.BatchStockLine{
			Batch:        b,
			ProductName:  product.Name,
			MinStock:     product.MinStock,
			Status:       stockStatus(b.Quantity, product.MinStock),
			DaysToExpiry: b.DaysToExpiry(today),
			Expired:      b.IsExpired(today),
			NearExpiry:   b.IsNearExpiry(today),
		}
		report.Batches = append(report.Batches, line)
		if line.Expired {
			report.ExpiredBatches = append(report.ExpiredBatches, b)
		} else if line.NearExpiry {
			report.NearExpiryBatches = append(report.NearExpiryBatches, b)
		}
	}

	for _, p := range products {
		if qty := aggregate[p.ID]; qty <= p.MinStock {
			report.LowStockProducts = append(report.LowStockProducts, domain.LowStockProduct{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    qty,
				MinStock:    p.MinStock,
			})
		}
	}
	return report, nil
}

func stockStatus(quantity int, minStock int) string {
	switch {
	case quantity <= minStock/2:
		return domain.StockStatusCritical
	case quantity <= minStock:
		return domain.StockStatusLow
	default:
		return domain.StockStatusOK
	}
}
