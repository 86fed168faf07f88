package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"novasalud/m/domain"
)

// ProductStore is the product catalog.
type ProductStore struct {
	db *sqlx.DB
}

func NewProductStore(db *sqlx.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, nombre, descripcion, categoria, precio, stock, proveedor, COALESCE(vencimiento, '') AS vencimiento`

func (s *ProductStore) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := s.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM productos WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	return p, err
}

func (s *ProductStore) List(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	err := s.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM productos`)
	return products, err
}

func (s *ProductStore) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO productos (nombre, descripcion, categoria, precio, stock, proveedor, vencimiento) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Nombre, p.Descripcion, p.Categoria, p.Precio, p.Stock, p.Proveedor, nullIfEmpty(p.Vencimiento))
	if err != nil {
		return domain.Product{}, err
	}
	p.ID, err = res.LastInsertId()
	return p, err
}

func (s *ProductStore) Update(ctx context.Context, id int64, p domain.Product) (domain.Product, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE productos SET nombre = ?, descripcion = ?, categoria = ?, precio = ?, stock = ?, proveedor = ?, vencimiento = ? WHERE id = ?`,
		p.Nombre, p.Descripcion, p.Categoria, p.Precio, p.Stock, p.Proveedor, nullIfEmpty(p.Vencimiento), id)
	if err != nil {
		return domain.Product{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Product{}, err
	}
	if n == 0 {
		return domain.Product{}, ErrNotFound
	}
	p.ID = id
	return p, nil
}

func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM productos WHERE id = ?`, id)
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
