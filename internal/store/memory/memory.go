package memory

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"farmacia-bermat/backend/internal/domain"
	"farmacia-bermat/backend/internal/store"
	"farmacia-bermat/backend/internal/xid"
)

type Store struct {
	mu            sync.RWMutex
	products      map[string]domain.Product
	batches       map[string]domain.Batch
	invoicesByID  map[string]*domain.Invoice
	invoiceOrder  []string
	customers     map[string]domain.Customer
	customerOrder []string
	usersByID     map[string]domain.User
	sessionLogs   []domain.SessionLog
	saleSeq       int
	quotationSeq  int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		products:     make(map[string]domain.Product),
		batches:      make(map[string]domain.Batch),
		invoicesByID: make(map[string]*domain.Invoice),
		customers:    make(map[string]domain.Customer),
		usersByID:    make(map[string]domain.User),
	}
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, cloneProduct(p))
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return strings.Compare(a.Code, b.Code)
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	dup := cloneProduct(product)
	return &dup, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product, companion domain.Batch) (*domain.Product, *domain.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Name == "" {
		return nil, nil, store.ErrInvalidTransaction
	}
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, nil, store.ErrDuplicate
	}

	product.Code = s.nextProductCodeLocked()
	companion.ProductID = product.ID
	companion.LotNumber = domain.CompanionLotNumber(product.Code)
	if companion.ID == "" {
		companion.ID = xid.New("batch")
	}
	if companion.Quantity < 0 {
		return nil, nil, store.ErrInvalidTransaction
	}

	s.products[product.ID] = cloneProduct(product)
	s.batches[companion.ID] = companion

	created := cloneProduct(product)
	createdBatch := companion
	return &created, &createdBatch, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if product.Name == "" {
		return nil, store.ErrInvalidTransaction
	}
	product.Code = existing.Code
	s.products[product.ID] = cloneProduct(product)

	updated := cloneProduct(product)
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	for _, batch := range s.batches {
		if batch.ProductID == id && batch.Quantity > 0 {
			return store.ErrProductHasStock
		}
	}
	// Batches stay behind so sales that reference them can still be cancelled.
	delete(s.products, id)
	return nil
}

func (s *Store) ListBatches(_ context.Context) ([]domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batches := make([]domain.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		batches = append(batches, b)
	}
	slices.SortFunc(batches, compareBatchForFEFO)
	return batches, nil
}

func (s *Store) GetBatch(_ context.Context, id string) (*domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, ok := s.batches[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &batch, nil
}

func (s *Store) CreateBatch(_ context.Context, batch domain.Batch) (*domain.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batch.LotNumber == "" || batch.Quantity < 0 {
		return nil, store.ErrInvalidTransaction
	}
	if _, ok := s.products[batch.ProductID]; !ok {
		return nil, store.ErrNotFound
	}
	if batch.ID == "" {
		batch.ID = xid.New("batch")
	}
	if _, exists := s.batches[batch.ID]; exists {
		return nil, store.ErrDuplicate
	}

	s.batches[batch.ID] = batch
	return &batch, nil
}

// UpdateBatch replaces the descriptive fields of a batch. Product and
// quantity are kept from the stored batch.
func (s *Store) UpdateBatch(_ context.Context, batch domain.Batch) (*domain.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.batches[batch.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if batch.LotNumber == "" {
		return nil, store.ErrInvalidTransaction
	}
	existing.LotNumber = batch.LotNumber
	existing.ExpiryDate = batch.ExpiryDate
	existing.EntryDate = batch.EntryDate
	s.batches[batch.ID] = existing
	return &existing, nil
}

func (s *Store) AdjustBatchQuantity(_ context.Context, id string, delta int) (domain.StockAdjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[id]
	if !ok {
		return domain.StockAdjustment{}, store.ErrNotFound
	}

	result := domain.StockAdjustment{OldQuantity: batch.Quantity}
	next := batch.Quantity + delta
	if next < 0 {
		next = 0
		result.Clamped = true
	}
	batch.Quantity = next
	s.batches[id] = batch

	result.NewQuantity = next
	result.Batch = batch
	return result, nil
}

func (s *Store) CreateInvoice(_ context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(invoice.Items) == 0 {
		return nil, store.ErrInvalidTransaction
	}
	if invoice.CustomerID != "" {
		if _, ok := s.customers[invoice.CustomerID]; !ok {
			return nil, fmt.Errorf("customer %s: %w", invoice.CustomerID, store.ErrNotFound)
		}
	}

	switch invoice.Kind {
	case domain.InvoiceKindSale:
		if err := s.reserveLocked(invoice); err != nil {
			return nil, err
		}
		s.saleSeq++
		invoice.Number = fmt.Sprintf("F%06d", s.saleSeq)
		invoice.Status = domain.InvoiceStatusActive
	case domain.InvoiceKindQuotation:
		s.quotationSeq++
		invoice.Number = fmt.Sprintf("PF%06d", s.quotationSeq)
		invoice.Status = domain.InvoiceStatusQuotation
	default:
		return nil, store.ErrInvalidTransaction
	}

	if invoice.ID == "" {
		invoice.ID = xid.New("inv")
	}
	if invoice.IssuedAt.IsZero() {
		invoice.IssuedAt = time.Now().UTC()
	}

	stored := cloneInvoice(&invoice)
	s.invoicesByID[invoice.ID] = stored
	s.invoiceOrder = append(s.invoiceOrder, invoice.ID)
	return cloneInvoice(stored), nil
}

// reserveLocked validates every line of a sale against current stock and
// product status, and only then decrements the batches.
func (s *Store) reserveLocked(invoice domain.Invoice) error {
	today := domain.DateUTC(invoice.IssuedAt)
	if invoice.IssuedAt.IsZero() {
		today = domain.DateUTC(time.Now())
	}

	needed := make(map[string]int, len(invoice.Items))
	for _, item := range invoice.Items {
		if item.Quantity < 1 {
			return store.ErrInvalidTransaction
		}
		batch, ok := s.batches[item.BatchID]
		if !ok {
			return fmt.Errorf("batch %s: %w", item.BatchID, store.ErrNotFound)
		}
		if batch.ProductID != item.ProductID {
			return store.ErrInvalidTransaction
		}
		product, ok := s.products[item.ProductID]
		if !ok {
			return fmt.Errorf("product %s: %w", item.ProductID, store.ErrNotFound)
		}
		if !product.Active {
			return fmt.Errorf("product %s: %w", product.Name, store.ErrProductInactive)
		}
		if batch.IsExpired(today) {
			return fmt.Errorf("batch %s: %w", batch.LotNumber, store.ErrBatchExpired)
		}
		needed[item.BatchID] += item.Quantity
		if needed[item.BatchID] > batch.Quantity {
			return fmt.Errorf("batch %s: %w", batch.LotNumber, store.ErrInsufficientStock)
		}
	}

	for batchID, qty := range needed {
		batch := s.batches[batchID]
		batch.Quantity -= qty
		s.batches[batchID] = batch
	}
	return nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoice, ok := s.invoicesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneInvoice(invoice), nil
}

// ListInvoices returns invoices most recent first.
func (s *Store) ListInvoices(_ context.Context) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoices := make([]domain.Invoice, 0, len(s.invoiceOrder))
	for i := len(s.invoiceOrder) - 1; i >= 0; i-- {
		invoices = append(invoices, *cloneInvoice(s.invoicesByID[s.invoiceOrder[i]]))
	}
	return invoices, nil
}

func (s *Store) CancelInvoice(_ context.Context, id string, at time.Time) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoice, ok := s.invoicesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if invoice.Status == domain.InvoiceStatusCancelled {
		return nil, store.ErrAlreadyCancelled
	}

	if invoice.Kind == domain.InvoiceKindSale {
		for _, item := range invoice.Items {
			if _, ok := s.batches[item.BatchID]; !ok {
				return nil, fmt.Errorf("restock batch %s: %w", item.BatchID, store.ErrNotFound)
			}
		}
		for _, item := range invoice.Items {
			batch := s.batches[item.BatchID]
			batch.Quantity += item.Quantity
			s.batches[item.BatchID] = batch
		}
	}

	cancelledAt := at.UTC()
	invoice.Status = domain.InvoiceStatusCancelled
	invoice.CancelledAt = &cancelledAt
	return cloneInvoice(invoice), nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customerOrder))
	for _, id := range s.customerOrder {
		customers = append(customers, s.customerWithHistoryLocked(s.customers[id]))
	}
	return customers, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	withHistory := s.customerWithHistoryLocked(customer)
	return &withHistory, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.Name == "" {
		return nil, store.ErrInvalidTransaction
	}
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	if _, exists := s.customers[customer.ID]; exists {
		return nil, store.ErrDuplicate
	}
	customer.History = nil
	s.customers[customer.ID] = customer
	s.customerOrder = append(s.customerOrder, customer.ID)

	created := s.customerWithHistoryLocked(customer)
	return &created, nil
}

// customerWithHistoryLocked derives the invoice history from the invoice
// collection, oldest first.
func (s *Store) customerWithHistoryLocked(customer domain.Customer) domain.Customer {
	history := make([]string, 0)
	for _, id := range s.invoiceOrder {
		if s.invoicesByID[id].CustomerID == customer.ID {
			history = append(history, id)
		}
	}
	customer.History = history
	return customer
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.usersByID))
	for _, u := range s.usersByID {
		users = append(users, cloneUser(u))
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	user := cloneUser(u)
	return &user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.usersByID {
		if strings.EqualFold(u.Username, username) {
			dup := cloneUser(u)
			return &dup, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.PasswordHash == "" {
		return nil, store.ErrInvalidTransaction
	}
	for _, existing := range s.usersByID {
		if strings.EqualFold(existing.Username, user.Username) {
			return nil, fmt.Errorf("username %s: %w", user.Username, store.ErrDuplicate)
		}
	}
	if user.ID == "" {
		user.ID = xid.New("user")
	}
	s.usersByID[user.ID] = cloneUser(user)

	created := cloneUser(user)
	return &created, nil
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.usersByID[user.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	user.Username = existing.Username
	if user.PasswordHash == "" {
		user.PasswordHash = existing.PasswordHash
	}
	s.usersByID[user.ID] = cloneUser(user)

	updated := cloneUser(user)
	return &updated, nil
}

func (s *Store) AppendSessionLog(_ context.Context, entry domain.SessionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Action == "" {
		return store.ErrInvalidTransaction
	}
	if entry.ID == "" {
		entry.ID = xid.New("log")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	s.sessionLogs = append(s.sessionLogs, entry)
	return nil
}

// ListSessionLogs returns the newest entries first. A limit below one returns
// every entry.
func (s *Store) ListSessionLogs(_ context.Context, limit int) ([]domain.SessionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := len(s.sessionLogs)
	if limit > 0 && limit < count {
		count = limit
	}
	logs := make([]domain.SessionLog, 0, count)
	for i := len(s.sessionLogs) - 1; i >= 0 && len(logs) < count; i-- {
		logs = append(logs, s.sessionLogs[i])
	}
	return logs, nil
}

// nextProductCodeLocked returns the highest numeric code plus one, zero
// padded to three digits.
func (s *Store) nextProductCodeLocked() string {
	highest := 0
	for _, p := range s.products {
		if n, err := strconv.Atoi(p.Code); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%03d", highest+1)
}

func compareBatchForFEFO(a domain.Batch, b domain.Batch) int {
	if a.ExpiryDate.Before(b.ExpiryDate) {
		return -1
	}
	if a.ExpiryDate.After(b.ExpiryDate) {
		return 1
	}
	if a.EntryDate.Before(b.EntryDate) {
		return -1
	}
	if a.EntryDate.After(b.EntryDate) {
		return 1
	}
	return strings.Compare(a.ID, b.ID)
}

func cloneProduct(src domain.Product) domain.Product {
	dup := src
	if src.PriceCap != nil {
		limit := *src.PriceCap
		dup.PriceCap = &limit
	}
	return dup
}

func cloneInvoice(src *domain.Invoice) *domain.Invoice {
	if src == nil {
		return nil
	}
	dup := *src
	dup.Items = make([]domain.InvoiceItem, len(src.Items))
	copy(dup.Items, src.Items)
	if src.CancelledAt != nil {
		at := *src.CancelledAt
		dup.CancelledAt = &at
	}
	return &dup
}

func cloneUser(src domain.User) domain.User {
	dup := src
	if src.LastLogin != nil {
		at := *src.LastLogin
		dup.LastLogin = &at
	}
	return dup
}
