package migrations

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema. Monetary columns are TEXT so decimal
// values round-trip without float coercion.
func Run(db *sqlx.DB) {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS usuarios (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            correo TEXT NOT NULL UNIQUE,
            contrasena TEXT NOT NULL,
            nombres TEXT,
            apellido_paterno TEXT,
            apellido_materno TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS productos (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            nombre TEXT NOT NULL,
            descripcion TEXT,
            categoria TEXT,
            precio TEXT NOT NULL,
            stock INTEGER NOT NULL DEFAULT 0,
            proveedor TEXT,
            vencimiento TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS clientes (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            nombre TEXT NOT NULL,
            apellido TEXT,
            dni TEXT,
            telefono TEXT,
            direccion TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS ventas (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            id_cliente INTEGER NOT NULL,
            total TEXT NOT NULL,
            fecha DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY(id_cliente) REFERENCES clientes(id)
        );`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
}
