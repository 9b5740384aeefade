package app

import (
	"strings"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/database"
)

// DatabaseOpenConfig converts DatabaseConfig to the database package representation.
func (c DatabaseConfig) DatabaseOpenConfig() database.Config {
	driver := strings.ToLower(strings.TrimSpace(c.Driver))
	if driver == "" {
		driver = "sqlite"
	}

	return database.Config{
		Driver: driver,
		Path:   strings.TrimSpace(c.Path),
		DSN:    strings.TrimSpace(c.DSN),
	}
}
