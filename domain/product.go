package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          int64           `db:"id" json:"id"`
	Nombre      string          `db:"nombre" json:"nombre"`
	Descripcion string          `db:"descripcion" json:"descripcion"`
	Categoria   string          `db:"categoria" json:"categoria"`
	Precio      decimal.Decimal `db:"precio" json:"precio"`
	Stock       int64           `db:"stock" json:"stock"`
	Proveedor   string          `db:"proveedor" json:"proveedor"`
	Vencimiento string          `db:"vencimiento" json:"vencimiento"`
}
