package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"novasalud/m/domain"
	"novasalud/m/internal/cart"
)

// SaleStore is the sale ledger.
type SaleStore struct {
	db *sqlx.DB
}

func NewSaleStore(db *sqlx.DB) *SaleStore {
	return &SaleStore{db: db}
}

// SalePatch carries the fields Update may change. Historical sales are not
// re-priced; total is taken as given.
type SalePatch struct {
	ClienteID *int64           `json:"cliente_id"`
	Total     *decimal.Decimal `json:"total"`
}

// Create persists a finalized sale. The insert and the per-line stock
// decrements run in one transaction: a line that would drive stock negative
// aborts the whole sale. The total is recomputed from the priced lines, so a
// tampered request total is never persisted.
func (s *SaleStore) Create(ctx context.Context, req cart.Request) (domain.Sale, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Sale{}, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM clientes WHERE id = ?)`, req.ClienteID); err != nil {
		return domain.Sale{}, err
	}
	if !exists {
		return domain.Sale{}, ErrCustomerNotFound
	}

	total := decimal.Zero
	for _, line := range req.Lines {
		total = total.Add(line.Subtotal())
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO ventas (id_cliente, total) VALUES (?, ?)`, req.ClienteID, total)
	if err != nil {
		return domain.Sale{}, err
	}
	saleID, err := res.LastInsertId()
	if err != nil {
		return domain.Sale{}, err
	}

	for _, line := range req.Lines {
		var stock int64
		err := tx.GetContext(ctx, &stock, `SELECT stock FROM productos WHERE id = ?`, line.ProductID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Sale{}, ErrNotFound
		}
		if err != nil {
			return domain.Sale{}, err
		}
		if stock < line.Cantidad {
			return domain.Sale{}, ErrInsufficientStock
		}
		if _, err := tx.ExecContext(ctx, `UPDATE productos SET stock = stock - ? WHERE id = ?`, line.Cantidad, line.ProductID); err != nil {
			return domain.Sale{}, err
		}
	}

	var sale domain.Sale
	if err := tx.GetContext(ctx, &sale, `SELECT id, id_cliente, total, fecha FROM ventas WHERE id = ?`, saleID); err != nil {
		return domain.Sale{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

// List joins the customer display name onto each sale. A sale whose customer
// was deleted keeps an empty cliente string. No ordering is guaranteed;
// callers wanting chronology sort by fecha.
func (s *SaleStore) List(ctx context.Context) ([]domain.SaleSummary, error) {
	sales := []domain.SaleSummary{}
	err := s.db.SelectContext(ctx, &sales, `SELECT v.id, COALESCE(c.nombre || ' ' || c.apellido, '') AS cliente, COALESCE(strftime('%Y-%m-%d', v.fecha), '') AS fecha, v.total
		FROM ventas v
		LEFT JOIN clientes c ON v.id_cliente = c.id`)
	return sales, err
}

func (s *SaleStore) Update(ctx context.Context, id int64, patch SalePatch) (domain.Sale, error) {
	var sale domain.Sale
	err := s.db.GetContext(ctx, &sale, `SELECT id, id_cliente, total, fecha FROM ventas WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sale{}, ErrNotFound
	}
	if err != nil {
		return domain.Sale{}, err
	}

	if patch.ClienteID != nil {
		var exists bool
		if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM clientes WHERE id = ?)`, *patch.ClienteID); err != nil {
			return domain.Sale{}, err
		}
		if !exists {
			return domain.Sale{}, ErrCustomerNotFound
		}
		sale.ClienteID = *patch.ClienteID
	}
	if patch.Total != nil {
		sale.Total = *patch.Total
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE ventas SET id_cliente = ?, total = ? WHERE id = ?`, sale.ClienteID, sale.Total, id); err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

// Delete removes the sale. Stock decremented at creation is not restored.
func (s *SaleStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ventas WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
