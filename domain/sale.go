package domain

import "github.com/shopspring/decimal"

type Sale struct {
	ID        int64           `db:"id" json:"id"`
	ClienteID int64           `db:"id_cliente" json:"cliente_id"`
	Total     decimal.Decimal `db:"total" json:"total"`
	Fecha     string          `db:"fecha" json:"fecha"`
}

// SaleSummary is the list shape: the customer's display name joined in,
// fecha normalized to a date-only string.
type SaleSummary struct {
	ID      int64           `db:"id" json:"id"`
	Cliente string          `db:"cliente" json:"cliente"`
	Fecha   string          `db:"fecha" json:"fecha"`
	Total   decimal.Decimal `db:"total" json:"total"`
}
