package repository

import (
	"context"
	"database/sql"

	"cellscan/internal/models"
)

type Users interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type History interface {
	Append(ctx context.Context, r models.HistoryRecord) (int, error)
	List(ctx context.Context, userID int) ([]models.HistoryRecord, error)
	Latest(ctx context.Context, userID int, f HistoryFilter) (*models.HistoryRecord, error)
}

// HistoryFilter narrows Latest; zero fields are ignored.
type HistoryFilter struct {
	ID         int
	Filename   string
	Prediction string
	StorageKey string
}

type Repository struct {
	Users   Users
	History History
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Users:   NewUserRepository(db),
		History: NewHistorySQLite(db),
	}
}
