package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID               string           `json:"id"`
	Code             string           `json:"code"`
	Name             string           `json:"name"`
	ActiveIngredient string           `json:"active_ingredient"`
	Category         string           `json:"category"`
	ProductType      string           `json:"product_type"`
	PriceRegime      string           `json:"price_regime"`
	PurchasePrice    decimal.Decimal  `json:"purchase_price"`
	SellPrice        decimal.Decimal  `json:"sell_price"`
	PriceCap         *decimal.Decimal `json:"price_cap,omitempty"`
	Taxable          bool             `json:"taxable"`
	Supplier         string           `json:"supplier"`
	Active           bool             `json:"active"`
	MinStock         int              `json:"min_stock"`
}

// ProductRequest is used both to register and to edit a product.
type ProductRequest struct {
	Name             string           `json:"name" validate:"required,max=120"`
	ActiveIngredient string           `json:"active_ingredient" validate:"max=120"`
	Category         string           `json:"category" validate:"required"`
	ProductType      string           `json:"product_type" validate:"max=60"`
	PriceRegime      string           `json:"price_regime" validate:"required,oneof=free price-capped"`
	PurchasePrice    decimal.Decimal  `json:"purchase_price"`
	SellPrice        decimal.Decimal  `json:"sell_price"`
	PriceCap         *decimal.Decimal `json:"price_cap,omitempty"`
	Taxable          bool             `json:"taxable"`
	Supplier         string           `json:"supplier" validate:"max=120"`
	MinStock         int              `json:"min_stock" validate:"gte=0"`
	ExpiryDate       string           `json:"expiry_date,omitempty"`
	EntryDate        string           `json:"entry_date,omitempty"`
}

type ProductRegistration struct {
	Product Product `json:"product"`
	Batch   Batch   `json:"batch"`
}

type ProductStock struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Batch struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	LotNumber  string    `json:"lot_number"`
	ExpiryDate time.Time `json:"expiry_date"`
	Quantity   int       `json:"quantity"`
	EntryDate  time.Time `json:"entry_date"`
}

// IsExpired reports whether the batch expiry date lies before today.
func (b Batch) IsExpired(today time.Time) bool {
	return DateUTC(b.ExpiryDate).Before(DateUTC(today))
}

// DaysToExpiry counts whole days from today to the expiry date; negative once
// the batch is expired.
func (b Batch) DaysToExpiry(today time.Time) int {
	return int(DateUTC(b.ExpiryDate).Sub(DateUTC(today)).Hours() / 24)
}

func (b Batch) IsNearExpiry(today time.Time) bool {
	days := b.DaysToExpiry(today)
	return days >= 0 && days <= NearExpiryDays
}

type BatchCreateRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	LotNumber  string `json:"lot_number" validate:"required,max=60"`
	ExpiryDate string `json:"expiry_date" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gte=0"`
	EntryDate  string `json:"entry_date,omitempty"`
}

type BatchUpdateRequest struct {
	LotNumber  *string `json:"lot_number,omitempty"`
	ExpiryDate *string `json:"expiry_date,omitempty"`
	EntryDate  *string `json:"entry_date,omitempty"`
}

type StockAdjustRequest struct {
	Delta   int    `json:"delta"`
	Note    string `json:"note"`
	Confirm bool   `json:"confirm"`
}

type StockAdjustment struct {
	Batch       Batch `json:"batch"`
	OldQuantity int   `json:"old_quantity"`
	NewQuantity int   `json:"new_quantity"`
	Clamped     bool  `json:"clamped"`
}

type Customer struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	TaxID   string   `json:"tax_id,omitempty"`
	History []string `json:"history"`
}

type CustomerCreateRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Type  string `json:"type" validate:"required,oneof=occasional institutional"`
	TaxID string `json:"tax_id,omitempty" validate:"omitempty,max=20"`
}

type InvoiceItem struct {
	ProductID   string          `json:"product_id"`
	BatchID     string          `json:"batch_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	Taxable     bool            `json:"taxable"`
}

type Invoice struct {
	ID               string          `json:"id"`
	Number           string          `json:"number"`
	Kind             string          `json:"kind"`
	IssuedAt         time.Time       `json:"issued_at"`
	CustomerID       string          `json:"customer_id,omitempty"`
	OperatorID       string          `json:"operator_id"`
	OperatorUsername string          `json:"operator_username"`
	Items            []InvoiceItem   `json:"items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	TaxTotal         decimal.Decimal `json:"tax_total"`
	Discount         decimal.Decimal `json:"discount"`
	Total            decimal.Decimal `json:"total"`
	PaymentMethod    string          `json:"payment_method"`
	Status           string          `json:"status"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
}

type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxTotal   decimal.Decimal `json:"tax_total"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

type CartView struct {
	Kind   string        `json:"kind"`
	Lines  []InvoiceItem `json:"lines"`
	Totals Totals        `json:"totals"`
}

type CartLineRequest struct {
	BatchID string `json:"batch_id" validate:"required"`
}

type CartQuantityRequest struct {
	Delta int `json:"delta" validate:"ne=0"`
}

type FinalizeRequest struct {
	CustomerID    string          `json:"customer_id,omitempty"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash multicaixa transfer"`
	Discount      decimal.Decimal `json:"discount"`
}

// ConfirmRequest carries the explicit confirmation destructive actions need.
type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Role         string     `json:"role"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	FullName     string     `json:"full_name"`
	TaxID        string     `json:"tax_id"`
	Phone        string     `json:"phone,omitempty"`
	Status       string     `json:"status"`
	PasswordHash string     `json:"-"`
}

type UserCreateRequest struct {
	Username string `json:"username" validate:"required,min=4,max=40"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,max=120"`
	Role     string `json:"role" validate:"required,oneof=admin operator"`
	TaxID    string `json:"tax_id" validate:"required,max=20"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

type SessionLog struct {
	ID            string    `json:"id"`
	ActorID       string    `json:"actor_id"`
	ActorUsername string    `json:"actor_username"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
}

type Actor struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	Role        string   `json:"role"`
	Username    string   `json:"username"`
	Modules     []string `json:"modules"`
	ExpiresAt   string   `json:"expires_at"`
}

type TopProduct struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

type SalesReport struct {
	GeneratedAt     time.Time       `json:"generated_at"`
	SalesCount      int             `json:"sales_count"`
	CancelledCount  int             `json:"cancelled_count"`
	QuotationCount  int             `json:"quotation_count"`
	Revenue         decimal.Decimal `json:"revenue"`
	TaxCollected    decimal.Decimal `json:"tax_collected"`
	EstimatedProfit decimal.Decimal `json:"estimated_profit"`
	TopProducts     []TopProduct    `json:"top_products"`
}

type BatchStockLine struct {
	Batch        Batch  `json:"batch"`
	ProductName  string `json:"product_name"`
	MinStock     int    `json:"min_stock"`
	Status       string `json:"status"`
	DaysToExpiry int    `json:"days_to_expiry"`
	Expired      bool   `json:"expired"`
	NearExpiry   bool   `json:"near_expiry"`
}

type LowStockProduct struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	MinStock    int    `json:"min_stock"`
}

type StockReport struct {
	GeneratedAt       time.Time         `json:"generated_at"`
	TotalUnits        int               `json:"total_units"`
	Batches           []BatchStockLine  `json:"batches"`
	LowStockProducts  []LowStockProduct `json:"low_stock_products"`
	ExpiredBatches    []Batch           `json:"expired_batches"`
	NearExpiryBatches []Batch           `json:"near_expiry_batches"`
}

type AuditReport struct {
	Provider    string    `json:"provider"`
	Summary     string    `json:"summary"`
	Fallback    bool      `json:"fallback"`
	Cached      bool      `json:"cached"`
	GeneratedAt time.Time `json:"generated_at"`
}

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

const (
	PriceRegimeFree   = "free"
	PriceRegimeCapped = "price-capped"
)

const (
	CustomerOccasional    = "occasional"
	CustomerInstitutional = "institutional"
)

const (
	InvoiceKindSale      = "sale"
	InvoiceKindQuotation = "quotation"
)

const (
	InvoiceStatusActive    = "active"
	InvoiceStatusCancelled = "cancelled"
	InvoiceStatusQuotation = "quotation"
)

const (
	PaymentCash       = "cash"
	PaymentMulticaixa = "multicaixa"
	PaymentTransfer   = "transfer"
)

const (
	StockStatusCritical = "critical"
	StockStatusLow      = "low"
	StockStatusOK       = "ok"
)

const NearExpiryDays = 60

// TaxRate is the IVA rate applied to taxable lines.
var TaxRate = decimal.RequireFromString("0.23")

var Categories = []string{
	"Analgésicos",
	"Antibióticos",
	"Anti-inflamatórios",
	"Antipiréticos",
	"Antimaláricos",
	"Antidiabéticos",
	"Antihipertensivos",
	"Equipamentos descartáveis",
	"Cosmético",
	"Suplemento",
	"Equipamento médico",
	"Vitaminas",
	"Minerais",
	"Outros",
}

func IsKnownCategory(category string) bool {
	for _, known := range Categories {
		if known == category {
			return true
		}
	}
	return false
}

func DateUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func CompanionLotNumber(code string) string {
	return "LOTE-" + code
}
