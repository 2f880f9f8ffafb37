package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"cellscan/internal/models"
	"cellscan/internal/repository/db"

	"github.com/DATA-DOG/go-sqlmock"
)

var historyColumns = []string{"id", "user_id", "filename", "storage_key", "prediction", "timestamp"}

func newMockHistory(t *testing.T) (*HistorySQLite, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("mock expectations: %v", err)
		}
		_ = conn.Close()
	})
	return NewHistorySQLite(conn), mock
}

func TestHistoryAppend_FormatsTimestamp(t *testing.T) {
	repo, mock := newMockHistory(t)
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)

	mock.ExpectExec(regexp.QuoteMeta(insertHistorySQL)).
		WithArgs(3, "cell.png", "abc.png", "Benign", "2025-03-04 05:06:07").
		WillReturnResult(sqlmock.NewResult(11, 1))

	id, err := repo.Append(context.Background(), models.HistoryRecord{
		UserID:     3,
		Filename:   "cell.png",
		StorageKey: "abc.png",
		Prediction: "Benign",
		Timestamp:  ts,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if id != 11 {
		t.Fatalf("want id 11, got %d", id)
	}
}

func TestHistoryAppend_DefaultsTimestamp(t *testing.T) {
	repo, mock := newMockHistory(t)

	mock.ExpectExec(regexp.QuoteMeta(insertHistorySQL)).
		WithArgs(3, "cell.png", "abc.png", "Pro", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if _, err := repo.Append(context.Background(), models.HistoryRecord{
		UserID: 3, Filename: "cell.png", StorageKey: "abc.png", Prediction: "Pro",
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestHistoryAppend_DBError(t *testing.T) {
	repo, mock := newMockHistory(t)

	mock.ExpectExec("INSERT INTO history").WillReturnError(errors.New("down"))

	_, err := repo.Append(context.Background(), models.HistoryRecord{UserID: 1, Prediction: "Pre"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestHistoryList_OrdersAndParses(t *testing.T) {
	repo, mock := newMockHistory(t)

	rows := sqlmock.NewRows(historyColumns).
		AddRow(2, 5, "b.png", "kb.png", "Early", "2025-01-02 10:00:00").
		AddRow(1, 5, "a.png", "ka.png", "Benign", "2025-01-01 10:00:00")

	mock.ExpectQuery(regexp.QuoteMeta(selectHistorySQL + ` WHERE user_id = ?` + historyOrderSQL)).
		WithArgs(5).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), 5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("unexpected records: %+v", got)
	}
	if got[0].FormattedTimestamp() != "2025-01-02 10:00:00" {
		t.Fatalf("timestamp round trip: %q", got[0].FormattedTimestamp())
	}
}

func TestHistoryList_BadTimestamp(t *testing.T) {
	repo, mock := newMockHistory(t)

	mock.ExpectQuery("SELECT id, user_id").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(historyColumns).AddRow(1, 5, "a.png", "ka.png", "Benign", "yesterday"))

	if _, err := repo.List(context.Background(), 5); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestHistoryLatest_BuildsFilter(t *testing.T) {
	repo, mock := newMockHistory(t)

	q := selectHistorySQL + ` WHERE user_id = ? AND filename = ? AND prediction = ?` + historyOrderSQL + ` LIMIT 1`
	mock.ExpectQuery(regexp.QuoteMeta(q)).
		WithArgs(5, "a.png", "Benign").
		WillReturnRows(sqlmock.NewRows(historyColumns).AddRow(9, 5, "a.png", "ka.png", "Benign", "2025-01-01 10:00:00"))

	rec, err := repo.Latest(context.Background(), 5, HistoryFilter{Filename: "a.png", Prediction: "Benign"})
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if rec == nil || rec.ID != 9 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestHistoryLatest_NotFound(t *testing.T) {
	repo, mock := newMockHistory(t)

	q := selectHistorySQL + ` WHERE user_id = ? AND id = ?` + historyOrderSQL + ` LIMIT 1`
	mock.ExpectQuery(regexp.QuoteMeta(q)).
		WithArgs(5, 77).
		WillReturnError(sql.ErrNoRows)

	rec, err := repo.Latest(context.Background(), 5, HistoryFilter{ID: 77})
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestHistory_IsolatedPerUserOnSQLite(t *testing.T) {
	conn, err := db.InitDB(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ctx := context.Background()
	users := NewUserRepository(conn)
	hist := NewHistorySQLite(conn)

	alice, _ := users.Create(ctx, "alice", "h")
	bob, _ := users.Create(ctx, "bob", "h")

	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local)
	for i, rec := range []models.HistoryRecord{
		{UserID: alice, Filename: "a1.png", StorageKey: "k1", Prediction: "Benign", Timestamp: base},
		{UserID: bob, Filename: "b1.png", StorageKey: "k2", Prediction: "Pro", Timestamp: base.Add(time.Minute)},
		{UserID: alice, Filename: "a2.png", StorageKey: "k3", Prediction: "Early", Timestamp: base.Add(2 * time.Minute)},
	} {
		if _, err := hist.Append(ctx, rec); err != nil {
			t.Fatalf("Append #%d: %v", i, err)
		}
	}

	got, err := hist.List(ctx, alice)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("alice should see 2 records, got %d", len(got))
	}
	for _, r := range got {
		if r.UserID != alice {
			t.Fatalf("record of another user leaked: %+v", r)
		}
	}
	if got[0].Filename != "a2.png" {
		t.Fatalf("expected newest first, got %q", got[0].Filename)
	}

	// bob cannot resolve alice's storage key
	rec, err := hist.Latest(ctx, bob, HistoryFilter{StorageKey: "k1"})
	if err != nil || rec != nil {
		t.Fatalf("expected no record for bob, got %+v, %v", rec, err)
	}

	// dangling user id is rejected
	if _, err := hist.Append(ctx, models.HistoryRecord{UserID: 12345, Filename: "x", StorageKey: "x", Prediction: "Pre"}); err == nil {
		t.Fatalf("expected foreign key failure")
	}
}
