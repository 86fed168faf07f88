package seed

import (
	"encoding/csv"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// LoadProducts ingests the starter catalog CSV into the productos table.
// The load runs only when the table is empty; there is no natural unique
// key on productos to dedupe against otherwise.
func LoadProducts(db *sqlx.DB, csvPath string) {
	var count int64
	if err := db.Get(&count, `SELECT COUNT(*) FROM productos`); err != nil {
		log.Printf("unable to inspect product catalog: %v", err)
		return
	}
	if count > 0 {
		return
	}

	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("unable to load product catalog %s: %v", csvPath, err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Printf("unable to read product header: %v", err)
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Printf("unable to start product transaction: %v", err)
		return
	}
	stmt, err := tx.Preparex(`INSERT INTO productos (nombre, descripcion, categoria, precio, stock, proveedor, vencimiento) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("unable to prepare product insert: %v", err)
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("unable to read product row: %v", err)
			continue
		}
		if len(record) < 7 {
			continue
		}
		nombre := strings.TrimSpace(record[0])
		descripcion := strings.TrimSpace(record[1])
		categoria := strings.TrimSpace(record[2])
		precio := strings.TrimSpace(record[3])
		proveedor := strings.TrimSpace(record[5])
		vencimiento := strings.TrimSpace(record[6])

		if nombre == "" || precio == "" {
			continue
		}
		stock, err := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64)
		if err != nil || stock < 0 {
			continue
		}

		var expiry *string
		if vencimiento != "" {
			expiry = &vencimiento
		}
		if _, err := stmt.Exec(nombre, descripcion, categoria, precio, stock, proveedor, expiry); err != nil {
			log.Printf("unable to insert product %s: %v", nombre, err)
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("unable to commit product seed: %v", err)
	} else {
		log.Printf("seeded product catalog with %d rows", rows)
	}
}
