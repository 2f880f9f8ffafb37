package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"cellscan/internal/models"
)

func seededHistory() *memHistory {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local)
	return &memHistory{records: []models.HistoryRecord{
		{ID: 1, UserID: 1, Filename: "a.png", StorageKey: "k1.png", Prediction: "Benign", Timestamp: base},
		{ID: 2, UserID: 2, Filename: "b.png", StorageKey: "k2.png", Prediction: "Pro", Timestamp: base.Add(time.Minute)},
		{ID: 3, UserID: 1, Filename: "a.png", StorageKey: "k3.png", Prediction: "Benign", Timestamp: base.Add(2 * time.Minute)},
	}}
}

func TestHistoryService_ListOnlyOwnRecords(t *testing.T) {
	svc := NewHistoryService(seededHistory(), newMemStore())

	got, err := svc.List(context.Background(), models.Identity{UserID: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 1 {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestHistoryService_Resolve(t *testing.T) {
	svc := NewHistoryService(seededHistory(), newMemStore())
	ctx := context.Background()
	u1 := models.Identity{UserID: 1}

	rec, err := svc.Resolve(ctx, u1, ResultQuery{ID: 1})
	if err != nil || rec.ID != 1 {
		t.Fatalf("by id: %+v, %v", rec, err)
	}

	rec, err = svc.Resolve(ctx, u1, ResultQuery{Filename: "a.png", Prediction: "Benign"})
	if err != nil || rec.ID != 3 {
		t.Fatalf("by name should return the latest match: %+v, %v", rec, err)
	}

	if _, err := svc.Resolve(ctx, u1, ResultQuery{Filename: "a.png"}); !errors.Is(err, ErrMissingResultParams) {
		t.Fatalf("expected ErrMissingResultParams, got %v", err)
	}
	if _, err := svc.Resolve(ctx, u1, ResultQuery{}); !errors.Is(err, ErrMissingResultParams) {
		t.Fatalf("expected ErrMissingResultParams, got %v", err)
	}
	// forged prediction for a real filename
	if _, err := svc.Resolve(ctx, u1, ResultQuery{Filename: "a.png", Prediction: "Pro"}); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
	// another user's record
	if _, err := svc.Resolve(ctx, u1, ResultQuery{ID: 2}); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}

func TestHistoryService_OpenImage(t *testing.T) {
	uploads := newMemStore()
	uploads.objects["k1.png"] = []byte("pixels")
	uploads.objects["k2.png"] = []byte("bob's")
	svc := NewHistoryService(seededHistory(), uploads)
	ctx := context.Background()
	u1 := models.Identity{UserID: 1}

	rc, rec, err := svc.OpenImage(ctx, u1, "k1.png")
	if err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "pixels" || rec.ID != 1 {
		t.Fatalf("unexpected image %q / %+v", b, rec)
	}

	if _, _, err := svc.OpenImage(ctx, u1, "k2.png"); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("must not open another user's image, got %v", err)
	}
	if _, _, err := svc.OpenImage(ctx, u1, ""); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound for empty key, got %v", err)
	}
}
