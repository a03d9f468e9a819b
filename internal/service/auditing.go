package service

import (
	"context"

	"farmacia-bermat/backend/internal/access"
	"farmacia-bermat/backend/internal/audit"
	"farmacia-bermat/backend/internal/domain"
)

// RunAudit asks the configured language model to review recent documents,
// the catalog and batch stock. Provider failures come back as a fallback
// report, not as an error.
func (s *Service) RunAudit(ctx context.Context) (domain.AuditReport, error) {
	if _, err := s.authorize(ctx, access.ModuleReports); err != nil {
		return domain.AuditReport{}, err
	}
	invoices, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return domain.AuditReport{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.AuditReport{}, err
	}
	batches, err := s.repo.ListBatches(ctx)
	if err != nil {
		return domain.AuditReport{}, err
	}

	report := s.auditor.Run(ctx, audit.Snapshot{
		Invoices: invoices,
		Products: products,
		Batches:  batches,
	})
	if !report.Fallback && !report.Cached {
		s.logSession(ctx, "Auditoria inteligente executada")
	}
	return report, nil
}
