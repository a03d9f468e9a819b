// Package cart holds open sale and quotation carts and prices their lines.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"farmacia-bermat/backend/internal/domain"
)

var (
	ErrInsufficientStock = errors.New("quantity exceeds batch stock")
	ErrProductInactive   = errors.New("product is inactive")
	ErrLineNotFound      = errors.New("cart line not found")
	ErrBatchMismatch     = errors.New("batch does not belong to product")
)

// Cart is an ordered list of lines, at most one per batch. It is not safe for
// concurrent use; Registry serialises access.
type Cart struct {
	lines []domain.InvoiceItem
}

func New() *Cart {
	return &Cart{}
}

// AddLine adds one unit of batch to the cart. The unit price and purchase
// cost are captured from the product at the moment the line is first created.
func (c *Cart) AddLine(product domain.Product, batch domain.Batch, allowInactive bool) error {
	if batch.ProductID != product.ID {
		return ErrBatchMismatch
	}
	if !product.Active && !allowInactive {
		return ErrProductInactive
	}

	if i := c.indexOf(batch.ID); i >= 0 {
		if c.lines[i].Quantity+1 > batch.Quantity {
			return ErrInsufficientStock
		}
		c.lines[i] = priced(c.lines[i], c.lines[i].Quantity+1)
		return nil
	}

	if batch.Quantity < 1 {
		return ErrInsufficientStock
	}
	c.lines = append(c.lines, priced(domain.InvoiceItem{
		ProductID:   product.ID,
		BatchID:     batch.ID,
		ProductName: product.Name,
		UnitPrice:   product.SellPrice,
		UnitCost:    product.PurchasePrice,
		Taxable:     product.Taxable,
	}, 1))
	return nil
}

// AdjustQuantity changes a line by delta. A result above onHand is refused and
// leaves the line unchanged; a result of zero or less removes the line.
func (c *Cart) AdjustQuantity(batchID string, delta int, onHand int) (removed bool, err error) {
	i := c.indexOf(batchID)
	if i < 0 {
		return false, ErrLineNotFound
	}
	next := c.lines[i].Quantity + delta
	if next > onHand {
		return false, ErrInsufficientStock
	}
	if next <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return true, nil
	}
	c.lines[i] = priced(c.lines[i], next)
	return false, nil
}

func (c *Cart) RemoveLine(batchID string) error {
	i := c.indexOf(batchID)
	if i < 0 {
		return ErrLineNotFound
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return nil
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []domain.InvoiceItem {
	out := make([]domain.InvoiceItem, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Totals sums the lines. GrandTotal is Subtotal + TaxTotal - discount.
func (c *Cart) Totals(discount decimal.Decimal) domain.Totals {
	return Summarize(c.lines, discount)
}

func Summarize(lines []domain.InvoiceItem, discount decimal.Decimal) domain.Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Total)
		tax = tax.Add(line.Tax)
	}
	return domain.Totals{
		Subtotal:   subtotal,
		TaxTotal:   tax,
		Discount:   discount,
		GrandTotal: subtotal.Add(tax).Sub(discount),
	}
}

func (c *Cart) indexOf(batchID string) int {
	for i, line := range c.lines {
		if line.BatchID == batchID {
			return i
		}
	}
	return -1
}

func priced(line domain.InvoiceItem, qty int) domain.InvoiceItem {
	line.Quantity = qty
	line.Total = line.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	line.Tax = decimal.Zero
	if line.Taxable {
		line.Tax = line.Total.Mul(domain.TaxRate)
	}
	return line
}
