package service

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"cellscan/internal/logger"
	"cellscan/internal/models"
	"cellscan/internal/repository"
	"cellscan/internal/storage"

	"github.com/google/uuid"
)

// UploadInput is one file received from a client.
type UploadInput struct {
	Filename string
	Data     []byte
}

type UploadService struct {
	history    repository.History
	classifier Classifier
	uploads    storage.Store
	outputs    storage.Store
	allowed    map[string]struct{}
	log        *logger.Logger

	now    func() time.Time
	newKey func() string
}

func NewUploadService(history repository.History, c Classifier, uploads, outputs storage.Store, allowedExt []string, log *logger.Logger) *UploadService {
	allowed := make(map[string]struct{}, len(allowedExt))
	for _, e := range allowedExt {
		allowed["."+strings.TrimPrefix(strings.ToLower(e), ".")] = struct{}{}
	}
	return &UploadService{
		history:    history,
		classifier: c,
		uploads:    uploads,
		outputs:    outputs,
		allowed:    allowed,
		log:        log,
		now:        time.Now,
		newKey:     uuid.NewString,
	}
}

// Upload classifies the file, saves it under a fresh storage key and records
// the prediction. A classification failure returns before anything is stored
// or recorded; the error wraps classifier.ErrUnreadableImage or
// classifier.ErrModelInference. If recording fails the saved upload is removed.
func (s *UploadService) Upload(ctx context.Context, id models.Identity, in UploadInput) (models.HistoryRecord, error) {
	name := SanitizeFilename(in.Filename)
	if name == "" {
		return models.HistoryRecord{}, ErrEmptyFilename
	}
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := s.allowed[ext]; !ok {
		return models.HistoryRecord{}, fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}

	pred, err := s.classifier.Classify(ctx, in.Data)
	if err != nil {
		s.log.Warnw("classify_failed", "user_id", id.UserID, "filename", name, "err", err)
		return models.HistoryRecord{}, fmt.Errorf("classify %q: %w", name, err)
	}

	key := s.newKey() + ext
	contentType := mime.TypeByExtension(ext)
	if err := s.uploads.Put(ctx, key, bytes.NewReader(in.Data), int64(len(in.Data)), contentType); err != nil {
		return models.HistoryRecord{}, fmt.Errorf("save upload: %w", err)
	}
	s.log.Infow("upload_saved", "user_id", id.UserID, "filename", name, "storage_key", key, "bytes", len(in.Data))

	rec := models.HistoryRecord{
		UserID:     id.UserID,
		Filename:   name,
		StorageKey: key,
		Prediction: pred.Label,
		Timestamp:  s.now().Truncate(time.Second),
	}
	rec.ID, err = s.history.Append(ctx, rec)
	if err != nil {
		if derr := s.uploads.Delete(ctx, key); derr != nil {
			s.log.Warnw("upload_cleanup_failed", "storage_key", key, "err", derr)
		}
		return models.HistoryRecord{}, fmt.Errorf("record prediction: %w", err)
	}

	// Keep a copy grouped by predicted label.
	archived := pred.Label + "/" + key
	if err := s.outputs.Put(ctx, archived, bytes.NewReader(in.Data), int64(len(in.Data)), contentType); err != nil {
		s.log.Warnw("archive_failed", "key", archived, "err", err)
	}

	s.log.Infow("upload_classified", "user_id", id.UserID, "history_id", rec.ID, "label", pred.Label)
	return rec, nil
}
