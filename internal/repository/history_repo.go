package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cellscan/internal/models"
)

type HistorySQLite struct {
	db *sql.DB
}

func NewHistorySQLite(db *sql.DB) *HistorySQLite { return &HistorySQLite{db: db} }

var _ History = (*HistorySQLite)(nil)

const (
	insertHistorySQL = `INSERT INTO history (user_id, filename, storage_key, prediction, timestamp) VALUES (?, ?, ?, ?, ?)`
	selectHistorySQL = `SELECT id, user_id, filename, storage_key, prediction, timestamp FROM history`
	historyOrderSQL  = ` ORDER BY timestamp DESC, id DESC`
)

// Append inserts a record. A zero Timestamp is set to the current local time.
func (r *HistorySQLite) Append(ctx context.Context, rec models.HistoryRecord) (int, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	res, err := r.db.ExecContext(ctx, insertHistorySQL,
		rec.UserID,
		rec.Filename,
		rec.StorageKey,
		rec.Prediction,
		rec.Timestamp.Format(models.TimestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert history for user %d: %w", rec.UserID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for history: %w", err)
	}
	return int(id), nil
}

// List returns every record owned by userID, newest first.
func (r *HistorySQLite) List(ctx context.Context, userID int) ([]models.HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectHistorySQL+` WHERE user_id = ?`+historyOrderSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("select history for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]models.HistoryRecord, 0, 16)
	for rows.Next() {
		rec, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history for user %d: %w", userID, err)
	}
	return out, nil
}

// Latest returns the newest record of userID matching f. Returns (nil, nil) if none.
func (r *HistorySQLite) Latest(ctx context.Context, userID int, f HistoryFilter) (*models.HistoryRecord, error) {
	conds := []string{"user_id = ?"}
	args := []any{userID}

	if f.ID != 0 {
		conds = append(conds, "id = ?")
		args = append(args, f.ID)
	}
	if f.Filename != "" {
		conds = append(conds, "filename = ?")
		args = append(args, f.Filename)
	}
	if f.Prediction != "" {
		conds = append(conds, "prediction = ?")
		args = append(args, f.Prediction)
	}
	if f.StorageKey != "" {
		conds = append(conds, "storage_key = ?")
		args = append(args, f.StorageKey)
	}

	q := selectHistorySQL + " WHERE " + strings.Join(conds, " AND ") + historyOrderSQL + " LIMIT 1"
	rec, err := scanHistory(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHistory(s scanner) (models.HistoryRecord, error) {
	var (
		rec models.HistoryRecord
		ts  string
	)
	if err := s.Scan(&rec.ID, &rec.UserID, &rec.Filename, &rec.StorageKey, &rec.Prediction, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan history row: %w", err)
	}
	t, err := time.ParseInLocation(models.TimestampLayout, ts, time.Local)
	if err != nil {
		return rec, fmt.Errorf("parse history timestamp %q: %w", ts, err)
	}
	rec.Timestamp = t
	return rec, nil
}
