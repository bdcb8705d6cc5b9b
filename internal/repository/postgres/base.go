package postgres

import (
	"github.com/jmoiron/sqlx"
)

// BaseRepository provides common functionality for all repositories. The
// rule store is read-only from this service, so there is no transaction
// helper here.
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}
