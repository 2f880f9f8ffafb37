package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"cellscan/internal/logger"
	"cellscan/internal/models"
	"cellscan/internal/repository"
	"cellscan/internal/storage"
)

// ReportHeader is the first row of every exported history table.
var ReportHeader = []string{"Filename", "Prediction", "Timestamp"}

const reportContentType = "application/pdf"

// ReportFile is a rendered document ready to be sent as an attachment.
type ReportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type ReportService struct {
	history  repository.History
	renderer TableRenderer
	outputs  storage.Store
	log      *logger.Logger
}

func NewReportService(history repository.History, r TableRenderer, outputs storage.Store, log *logger.Logger) *ReportService {
	return &ReportService{history: history, renderer: r, outputs: outputs, log: log}
}

// Export renders the caller's history, newest first, and keeps a copy in the
// output store as history_report_<username>.pdf.
func (s *ReportService) Export(ctx context.Context, id models.Identity) (ReportFile, error) {
	records, err := s.history.List(ctx, id.UserID)
	if err != nil {
		return ReportFile{}, fmt.Errorf("load history: %w", err)
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Filename, r.Prediction, r.FormattedTimestamp()})
	}

	var buf bytes.Buffer
	if err := s.renderer.RenderTable(&buf, ReportHeader, rows); err != nil {
		return ReportFile{}, fmt.Errorf("render report: %w", err)
	}

	f := ReportFile{Name: reportName(id), ContentType: reportContentType, Data: buf.Bytes()}
	if err := s.outputs.Put(ctx, f.Name, bytes.NewReader(f.Data), int64(len(f.Data)), f.ContentType); err != nil {
		s.log.Warnw("report_store_failed", "name", f.Name, "err", err)
	}
	s.log.Infow("report_exported", "user_id", id.UserID, "rows", len(rows), "bytes", len(f.Data))
	return f, nil
}

func reportName(id models.Identity) string {
	user := SanitizeFilename(id.Username)
	if user == "" {
		user = strconv.Itoa(id.UserID)
	}
	return "history_report_" + user + ".pdf"
}
