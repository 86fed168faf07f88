package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"novasalud/m/internal/api"
	"novasalud/m/internal/config"
	"novasalud/m/internal/database"
	"novasalud/m/internal/migrations"
	"novasalud/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)
	seed.LoadProducts(db, "assets/productos.csv")

	handler := api.New(db, cfg.Secret)

	log.Printf("Nova Salud server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
