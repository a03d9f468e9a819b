package store

import (
	"context"
	"errors"
	"time"

	"farmacia-bermat/backend/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrPriceAboveCap      = errors.New("sell price exceeds price cap")
	ErrNoteRequired       = errors.New("adjustment note is required")
	ErrBatchExpired       = errors.New("batch is expired")
	ErrProductInactive    = errors.New("product is inactive")
	ErrAlreadyCancelled   = errors.New("invoice already cancelled")
	ErrProductHasStock    = errors.New("product still holds stock")
	ErrDuplicate          = errors.New("already exists")
)

// Repository owns every collection of the pharmacy. Each mutating call is
// applied atomically: it either completes fully or leaves state untouched.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// CreateProduct assigns the next product code and stores the product
	// together with its companion batch.
	CreateProduct(ctx context.Context, product domain.Product, companion domain.Batch) (*domain.Product, *domain.Batch, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListBatches(ctx context.Context) ([]domain.Batch, error)
	GetBatch(ctx context.Context, id string) (*domain.Batch, error)
	CreateBatch(ctx context.Context, batch domain.Batch) (*domain.Batch, error)
	UpdateBatch(ctx context.Context, batch domain.Batch) (*domain.Batch, error)
	AdjustBatchQuantity(ctx context.Context, id string, delta int) (domain.StockAdjustment, error)

	// CreateInvoice numbers and stores a finalized document. Sales decrement
	// every referenced batch; a shortfall on any line rejects the whole sale.
	CreateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
	CancelInvoice(ctx context.Context, id string, at time.Time) (*domain.Invoice, error)

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)

	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) (*domain.User, error)

	AppendSessionLog(ctx context.Context, entry domain.SessionLog) error
	ListSessionLogs(ctx context.Context, limit int) ([]domain.SessionLog, error)
}
