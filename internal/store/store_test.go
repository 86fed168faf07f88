package store

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"novasalud/m/domain"
	"novasalud/m/internal/cart"
	"novasalud/m/internal/migrations"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)
	return db
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProduct(t *testing.T, s *ProductStore, nombre, precio string, stock int64) domain.Product {
	t.Helper()
	p, err := s.Create(context.Background(), domain.Product{Nombre: nombre, Precio: price(precio), Stock: stock})
	require.NoError(t, err)
	return p
}

func seedCustomer(t *testing.T, s *CustomerStore, nombre, apellido string) domain.Customer {
	t.Helper()
	c, err := s.Create(context.Background(), domain.Customer{Nombre: nombre, Apellido: apellido, DNI: "12345678"})
	require.NoError(t, err)
	return c
}

func TestProductRoundTrip(t *testing.T) {
	db := newTestDB(t)
	s := NewProductStore(db)
	ctx := context.Background()

	created := seedProduct(t, s, "Paracetamol 500mg", "12.50", 20)
	require.NotZero(t, created.ID)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paracetamol 500mg", got.Nombre)
	assert.True(t, got.Precio.Equal(price("12.50")), "precio = %s", got.Precio)
	assert.Equal(t, int64(20), got.Stock)
	assert.Equal(t, "", got.Vencimiento)
}

func TestProductUnknownID(t *testing.T) {
	db := newTestDB(t)
	s := NewProductStore(db)
	ctx := context.Background()

	_, err := s.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Update(ctx, 999, domain.Product{Nombre: "x", Precio: price("1")})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, 999), ErrNotFound)
}

func TestCustomerSearchByName(t *testing.T) {
	db := newTestDB(t)
	s := NewCustomerStore(db)
	ctx := context.Background()

	seedCustomer(t, s, "Maria", "Gonzales")
	seedCustomer(t, s, "Jorge", "Mariategui")
	seedCustomer(t, s, "Ana", "Torres")

	found, err := s.SearchByName(ctx, "Maria")
	require.NoError(t, err)
	require.Len(t, found, 2, "matches nombre and apellido")

	found, err = s.SearchByName(ctx, "nadie")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSaleCreateDecrementsStockAndPersistsExactTotal(t *testing.T) {
	db := newTestDB(t)
	products := NewProductStore(db)
	customers := NewCustomerStore(db)
	sales := NewSaleStore(db)
	ctx := context.Background()

	a := seedProduct(t, products, "Paracetamol 500mg", "12.50", 20)
	b := seedProduct(t, products, "Ibuprofeno 400mg", "7.25", 15)
	cliente := seedCustomer(t, customers, "Maria", "Gonzales")

	composer := cart.NewComposer([]domain.Product{a, b})
	composer.SelectCustomer(cliente.ID)
	require.NoError(t, composer.AddLine(a.ID, 2))
	require.NoError(t, composer.AddLine(b.ID, 1))
	req, err := composer.Submit()
	require.NoError(t, err)

	sale, err := sales.Create(ctx, req)
	require.NoError(t, err)
	assert.NotZero(t, sale.ID)
	assert.Equal(t, cliente.ID, sale.ClienteID)
	assert.True(t, sale.Total.Equal(price("32.25")), "total = %s", sale.Total)
	assert.NotEmpty(t, sale.Fecha)

	gotA, err := products.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(18), gotA.Stock)
	gotB, err := products.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(14), gotB.Stock)

	list, err := sales.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Maria Gonzales", list[0].Cliente)
	assert.True(t, list[0].Total.Equal(req.Total), "round-trip total = %s", list[0].Total)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, list[0].Fecha)
}

func TestSaleCreateUnknownCustomer(t *testing.T) {
	db := newTestDB(t)
	products := NewProductStore(db)
	sales := NewSaleStore(db)
	ctx := context.Background()

	a := seedProduct(t, products, "Paracetamol 500mg", "12.50", 20)
	req := cart.Request{
		ClienteID: 42,
		Lines:     []cart.Line{{ProductID: a.ID, UnitPrice: a.Precio, Cantidad: 1}},
		Total:     a.Precio,
	}

	_, err := sales.Create(ctx, req)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestSaleCreateStaleSnapshotAborts(t *testing.T) {
	// The composer validated against a snapshot, but stock moved before
	// commit. The whole sale must roll back: no sale row, no decrement.
	db := newTestDB(t)
	products := NewProductStore(db)
	customers := NewCustomerStore(db)
	sales := NewSaleStore(db)
	ctx := context.Background()

	a := seedProduct(t, products, "Paracetamol 500mg", "12.50", 20)
	b := seedProduct(t, products, "Ibuprofeno 400mg", "7.25", 1)
	cliente := seedCustomer(t, customers, "Maria", "Gonzales")

	req := cart.Request{
		ClienteID: cliente.ID,
		Lines: []cart.Line{
			{ProductID: a.ID, UnitPrice: a.Precio, Cantidad: 2},
			{ProductID: b.ID, UnitPrice: b.Precio, Cantidad: 5},
		},
	}

	_, err := sales.Create(ctx, req)
	require.ErrorIs(t, err, ErrInsufficientStock)

	gotA, err := products.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), gotA.Stock, "first line's decrement rolled back")

	list, err := sales.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaleCreateIgnoresTamperedTotal(t *testing.T) {
	db := newTestDB(t)
	products := NewProductStore(db)
	customers := NewCustomerStore(db)
	sales := NewSaleStore(db)
	ctx := context.Background()

	a := seedProduct(t, products, "Paracetamol 500mg", "12.50", 20)
	cliente := seedCustomer(t, customers, "Maria", "Gonzales")

	req := cart.Request{
		ClienteID: cliente.ID,
		Lines:     []cart.Line{{ProductID: a.ID, UnitPrice: a.Precio, Cantidad: 2}},
		Total:     price("0.01"),
	}

	sale, err := sales.Create(ctx, req)
	require.NoError(t, err)
	assert.True(t, sale.Total.Equal(price("25.00")), "total recomputed from lines, got %s", sale.Total)
}

func TestSaleUpdate(t *testing.T) {
	db := newTestDB(t)
	products := NewProductStore(db)
	customers := NewCustomerStore(db)
	sales := NewSaleStore(db)
	ctx := context.Background()

	a := seedProduct(t, products, "Paracetamol 500mg", "12.50", 20)
	maria := seedCustomer(t, customers, "Maria", "Gonzales")
	jorge := seedCustomer(t, customers, "Jorge", "Torres")

	composer := cart.NewComposer([]domain.Product{a})
	composer.SelectCustomer(maria.ID)
	require.NoError(t, composer.AddLine(a.ID, 1))
	req, err := composer.Submit()
	require.NoError(t, err)
	sale, err := sales.Create(ctx, req)
	require.NoError(t, err)

	newTotal := price("99.90")
	updated, err := sales.Update(ctx, sale.ID, SalePatch{ClienteID: &jorge.ID, Total: &newTotal})
	require.NoError(t, err)
	assert.Equal(t, jorge.ID, updated.ClienteID)
	assert.True(t, updated.Total.Equal(newTotal))

	// Partial patch leaves the other field alone.
	updated, err = sales.Update(ctx, sale.ID, SalePatch{ClienteID: &maria.ID})
	require.NoError(t, err)
	assert.Equal(t, maria.ID, updated.ClienteID)
	assert.True(t, updated.Total.Equal(newTotal))

	_, err = sales.Update(ctx, 999, SalePatch{Total: &newTotal})
	assert.ErrorIs(t, err, ErrNotFound)

	unknown := int64(999)
	_, err = sales.Update(ctx, sale.ID, SalePatch{ClienteID: &unknown})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestSaleDelete(t *testing.T) {
	db := newTestDB(t)
	products := NewProductStore(db)
	customers := NewCustomerStore(db)
	sales := NewSaleStore(db)
	ctx := context.Background()

	a := seedProduct(t, products, "Paracetamol 500mg", "12.50", 20)
	cliente := seedCustomer(t, customers, "Maria", "Gonzales")

	composer := cart.NewComposer([]domain.Product{a})
	composer.SelectCustomer(cliente.ID)
	require.NoError(t, composer.AddLine(a.ID, 3))
	req, err := composer.Submit()
	require.NoError(t, err)
	sale, err := sales.Create(ctx, req)
	require.NoError(t, err)

	require.NoError(t, sales.Delete(ctx, sale.ID))
	assert.ErrorIs(t, sales.Delete(ctx, sale.ID), ErrNotFound, "deleting twice is not a silent success")

	// Deleting a sale does not restore decremented stock.
	got, err := products.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(17), got.Stock)
}

func TestSaleListWithDeletedCustomer(t *testing.T) {
	db := newTestDB(t)
	products := NewProductStore(db)
	customers := NewCustomerStore(db)
	sales := NewSaleStore(db)
	ctx := context.Background()

	a := seedProduct(t, products, "Paracetamol 500mg", "12.50", 20)
	cliente := seedCustomer(t, customers, "Maria", "Gonzales")

	composer := cart.NewComposer([]domain.Product{a})
	composer.SelectCustomer(cliente.ID)
	require.NoError(t, composer.AddLine(a.ID, 1))
	req, err := composer.Submit()
	require.NoError(t, err)
	_, err = sales.Create(ctx, req)
	require.NoError(t, err)

	require.NoError(t, customers.Delete(ctx, cliente.ID))

	list, err := sales.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "", list[0].Cliente)
}
