package service

import (
	"context"
	"fmt"
	"io"

	"cellscan/internal/models"
	"cellscan/internal/repository"
	"cellscan/internal/storage"
)

// ResultQuery identifies a result either by history ID or by the
// filename/prediction pair shown on the result page.
type ResultQuery struct {
	ID         int
	Filename   string
	Prediction string
}

type HistoryService struct {
	history repository.History
	uploads storage.Store
}

func NewHistoryService(history repository.History, uploads storage.Store) *HistoryService {
	return &HistoryService{history: history, uploads: uploads}
}

// List returns the caller's records, newest first.
func (s *HistoryService) List(ctx context.Context, id models.Identity) ([]models.HistoryRecord, error) {
	return s.history.List(ctx, id.UserID)
}

// Resolve looks the requested result up in the caller's own history, so a
// crafted query string can only ever show a prediction that was recorded.
func (s *HistoryService) Resolve(ctx context.Context, id models.Identity, q ResultQuery) (*models.HistoryRecord, error) {
	if q.ID <= 0 && (q.Filename == "" || q.Prediction == "") {
		return nil, ErrMissingResultParams
	}
	f := repository.HistoryFilter{ID: q.ID}
	if q.ID <= 0 {
		f = repository.HistoryFilter{Filename: q.Filename, Prediction: q.Prediction}
	}
	rec, err := s.history.Latest(ctx, id.UserID, f)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrResultNotFound
	}
	return rec, nil
}

// OpenImage returns the uploaded bytes behind one of the caller's records.
func (s *HistoryService) OpenImage(ctx context.Context, id models.Identity, storageKey string) (io.ReadCloser, *models.HistoryRecord, error) {
	if storageKey == "" {
		return nil, nil, ErrResultNotFound
	}
	rec, err := s.history.Latest(ctx, id.UserID, repository.HistoryFilter{StorageKey: storageKey})
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, ErrResultNotFound
	}
	rc, err := s.uploads.Get(ctx, storageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open upload %q: %w", storageKey, err)
	}
	return rc, rec, nil
}
