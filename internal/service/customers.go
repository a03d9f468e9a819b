package service

import (
	"context"
	"fmt"
	"strings"

	"farmacia-bermat/backend/internal/access"
	"farmacia-bermat/backend/internal/domain"
	"farmacia-bermat/backend/internal/xid"
)

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	if _, err := s.authorize(ctx, access.ModuleCustomers); err != nil {
		return nil, err
	}
	return s.repo.ListCustomers(ctx)
}

// GetCustomer returns the customer with the IDs of every document issued to
// them, oldest first.
func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	if _, err := s.authorize(ctx, access.ModuleCustomers); err != nil {
		return domain.Customer{}, err
	}
	customer, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("customer %s: %w", id, err)
	}
	return *customer, nil
}

func (s *Service) RegisterCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	if _, err := s.authorize(ctx, access.ModuleCustomers); err != nil {
		return domain.Customer{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.TaxID = strings.TrimSpace(req.TaxID)
	if err := s.validateRequest(req); err != nil {
		return domain.Customer{}, err
	}

	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		ID:    xid.New("cust"),
		Name:  req.Name,
		Type:  req.Type,
		TaxID: req.TaxID,
	})
	if err != nil {
		return domain.Customer{}, err
	}
	s.logSession(ctx, fmt.Sprintf("Cliente registado: %s", created.Name))
	return *created, nil
}
