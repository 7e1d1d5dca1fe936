package service

import (
	"database/sql"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/database"
)

// SystemService handles system-related operations
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a new SystemService.
// db may be nil when the price cache is held in memory.
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{
		db: db,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	if s.db == nil {
		return nil
	}
	return database.HealthCheck(s.db)
}

// StorageBackend names where cached prices are stored.
func (s *SystemService) StorageBackend() string {
	if s.db == nil {
		return "memory"
	}
	return "sqlite"
}
