package service

import (
	"context"
	"io"

	"cellscan/internal/classifier"
	"cellscan/internal/logger"
	"cellscan/internal/models"
	"cellscan/internal/repository"
	"cellscan/internal/storage"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	Authenticate(ctx context.Context, username, password string) (models.Identity, error)
}

// History exposes the caller's own classification records.
type History interface {
	List(ctx context.Context, id models.Identity) ([]models.HistoryRecord, error)
	Resolve(ctx context.Context, id models.Identity, q ResultQuery) (*models.HistoryRecord, error)
	OpenImage(ctx context.Context, id models.Identity, storageKey string) (io.ReadCloser, *models.HistoryRecord, error)
}

// Upload stores, classifies and records one image.
type Upload interface {
	Upload(ctx context.Context, id models.Identity, in UploadInput) (models.HistoryRecord, error)
}

// Report renders the caller's history as a document.
type Report interface {
	Export(ctx context.Context, id models.Identity) (ReportFile, error)
}

// Classifier is the slice of classifier.Classifier the upload flow needs.
type Classifier interface {
	Classify(ctx context.Context, data []byte) (classifier.Prediction, error)
}

// TableRenderer is the slice of report.Renderer the export flow needs.
type TableRenderer interface {
	RenderTable(w io.Writer, header []string, rows [][]string) error
}

type Service struct {
	Authorization
	History
	Upload
	Report
}

// Deps are the non-repository collaborators, built once at startup.
type Deps struct {
	Classifier        Classifier
	Uploads           storage.Store
	Outputs           storage.Store
	Renderer          TableRenderer
	AllowedExtensions []string
	Log               *logger.Logger
}

func NewService(repos *repository.Repository, d Deps) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Users),
		History:       NewHistoryService(repos.History, d.Uploads),
		Upload:        NewUploadService(repos.History, d.Classifier, d.Uploads, d.Outputs, d.AllowedExtensions, d.Log),
		Report:        NewReportService(repos.History, d.Renderer, d.Outputs, d.Log),
	}
}
