package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"novasalud/m/domain"
)

// CustomerStore is the customer directory.
type CustomerStore struct {
	db *sqlx.DB
}

func NewCustomerStore(db *sqlx.DB) *CustomerStore {
	return &CustomerStore{db: db}
}

const customerColumns = `id, nombre, apellido, dni, telefono, direccion`

func (s *CustomerStore) Get(ctx context.Context, id int64) (domain.Customer, error) {
	var c domain.Customer
	err := s.db.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM clientes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, ErrNotFound
	}
	return c, err
}

func (s *CustomerStore) List(ctx context.Context) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	err := s.db.SelectContext(ctx, &customers, `SELECT `+customerColumns+` FROM clientes`)
	return customers, err
}

// SearchByName matches against nombre and apellido. National ids are
// advisory only, so name search is the directory's lookup besides Get.
func (s *CustomerStore) SearchByName(ctx context.Context, query string) ([]domain.Customer, error) {
	like := "%" + query + "%"
	customers := []domain.Customer{}
	err := s.db.SelectContext(ctx, &customers, `SELECT `+customerColumns+` FROM clientes WHERE nombre LIKE ? OR apellido LIKE ? ORDER BY nombre`, like, like)
	return customers, err
}

func (s *CustomerStore) Create(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO clientes (nombre, apellido, dni, telefono, direccion) VALUES (?, ?, ?, ?, ?)`,
		c.Nombre, c.Apellido, c.DNI, c.Telefono, c.Direccion)
	if err != nil {
		return domain.Customer{}, err
	}
	c.ID, err = res.LastInsertId()
	return c, err
}

func (s *CustomerStore) Update(ctx context.Context, id int64, c domain.Customer) (domain.Customer, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE clientes SET nombre = ?, apellido = ?, dni = ?, telefono = ?, direccion = ? WHERE id = ?`,
		c.Nombre, c.Apellido, c.DNI, c.Telefono, c.Direccion, id)
	if err != nil {
		return domain.Customer{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Customer{}, err
	}
	if n == 0 {
		return domain.Customer{}, ErrNotFound
	}
	c.ID = id
	return c, nil
}

func (s *CustomerStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clientes WHERE id = ?`, id)
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
