// Package cart assembles a sale from a catalog snapshot. A Composer belongs
// to a single composing session; it validates lines against the snapshot,
// keeps an exact-decimal running total and, on Submit, hands back an
// immutable Request for the sale store to persist. It performs no I/O.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"novasalud/m/domain"
)

var (
	ErrUnknownProduct    = errors.New("product not in catalog snapshot")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInsufficientStock = errors.New("quantity exceeds available stock")
	ErrDuplicateLine     = errors.New("product already in cart")
	ErrNoCustomer        = errors.New("no customer selected")
	ErrEmptyCart         = errors.New("cart has no lines")
)

// Line is one product entry in a cart. UnitPrice is the catalog price at the
// moment the line was added; later catalog edits do not touch it.
type Line struct {
	ProductID int64           `json:"id"`
	Nombre    string          `json:"nombre"`
	UnitPrice decimal.Decimal `json:"precio"`
	Cantidad  int64           `json:"cantidad"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Cantidad))
}

// Request is the outcome of a successful Submit.
type Request struct {
	ClienteID int64
	Lines     []Line
	Total     decimal.Decimal
}

type Composer struct {
	catalog   map[int64]domain.Product
	clienteID int64
	lines     []Line
}

// NewComposer takes a read-only snapshot of the product catalog. The
// snapshot is copied; edits to the slice after construction are not seen.
func NewComposer(snapshot []domain.Product) *Composer {
	catalog := make(map[int64]domain.Product, len(snapshot))
	for _, p := range snapshot {
		catalog[p.ID] = p
	}
	return &Composer{catalog: catalog}
}

func (c *Composer) SelectCustomer(clienteID int64) {
	c.clienteID = clienteID
}

// AddLine appends a line for the given product. Re-adding a product is
// rejected rather than merged; remove and re-add to change the quantity.
func (c *Composer) AddLine(productID, cantidad int64) error {
	if cantidad <= 0 {
		return ErrInvalidQuantity
	}
	prod, ok := c.catalog[productID]
	if !ok {
		return ErrUnknownProduct
	}
	for _, l := range c.lines {
		if l.ProductID == productID {
			return ErrDuplicateLine
		}
	}
	if cantidad > prod.Stock {
		return ErrInsufficientStock
	}
	c.lines = append(c.lines, Line{
		ProductID: prod.ID,
		Nombre:    prod.Nombre,
		UnitPrice: prod.Precio,
		Cantidad:  cantidad,
	})
	return nil
}

// RemoveLine drops the line for the given product. Absent lines are a no-op.
func (c *Composer) RemoveLine(productID int64) {
	for i, l := range c.lines {
		if l.ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

func (c *Composer) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Composer) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Submit validates the cart and returns the finalized request, clearing the
// composer for the next sale. The request's total equals the exact sum of
// line subtotals.
func (c *Composer) Submit() (Request, error) {
	if c.clienteID == 0 {
		return Request{}, ErrNoCustomer
	}
	if len(c.lines) == 0 {
		return Request{}, ErrEmptyCart
	}
	req := Request{ClienteID: c.clienteID, Lines: c.Lines(), Total: c.Total()}
	c.clienteID = 0
	c.lines = nil
	return req, nil
}
