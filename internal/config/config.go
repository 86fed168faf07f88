package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds application configuration values.
type Config struct {
	Secret      string
	DatabaseDSN string
	HTTPPort    string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	secret := os.Getenv("SECRET")
	if secret == "" {
		secret = "nova_salud_secret_key_2024"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "4000"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "novasalud.db"
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 4000", port)
		port = "4000"
	}

	return Config{Secret: secret, DatabaseDSN: dsn, HTTPPort: port}
}
