package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"cellscan/internal/classifier"
	"cellscan/internal/models"
	"cellscan/internal/repository"
	"cellscan/internal/storage"
)

// mockUsers is a lightweight in-test mock for repository.Users.
type mockUsers struct {
	CreateFn        func(username, hash string) (int, error)
	GetByUsernameFn func(username string) (*models.User, error)

	createCalls []struct {
		username string
		hash     string
	}
	getCalls []string
}

func (m *mockUsers) Create(_ context.Context, username, hash string) (int, error) {
	m.createCalls = append(m.createCalls, struct {
		username string
		hash     string
	}{username: username, hash: hash})
	return m.CreateFn(username, hash)
}

func (m *mockUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.getCalls = append(m.getCalls, username)
	return m.GetByUsernameFn(username)
}

// memHistory is an in-memory repository.History.
type memHistory struct {
	mu        sync.Mutex
	records   []models.HistoryRecord
	appendErr error
	listErr   error
}

var _ repository.History = (*memHistory)(nil)

func (h *memHistory) Append(_ context.Context, r models.HistoryRecord) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.appendErr != nil {
		return 0, h.appendErr
	}
	r.ID = len(h.records) + 1
	h.records = append(h.records, r)
	return r.ID, nil
}

func (h *memHistory) List(_ context.Context, userID int) ([]models.HistoryRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listErr != nil {
		return nil, h.listErr
	}
	var out []models.HistoryRecord
	for _, r := range h.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (h *memHistory) Latest(ctx context.Context, userID int, f repository.HistoryFilter) (*models.HistoryRecord, error) {
	all, err := h.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, r := range all {
		if f.ID != 0 && r.ID != f.ID ||
			f.Filename != "" && r.Filename != f.Filename ||
			f.Prediction != "" && r.Prediction != f.Prediction ||
			f.StorageKey != "" && r.StorageKey != f.StorageKey {
			continue
		}
		rec := r
		return &rec, nil
	}
	return nil, nil
}

// memStore is an in-memory storage.Store.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = b
	return nil
}

func (s *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

type fakeClassifier struct {
	label string
	err   error
	calls int
}

func (f *fakeClassifier) Classify(_ context.Context, data []byte) (classifier.Prediction, error) {
	f.calls++
	if f.err != nil {
		return classifier.Prediction{}, f.err
	}
	if len(data) == 0 {
		return classifier.Prediction{}, classifier.ErrUnreadableImage
	}
	return classifier.Prediction{Label: f.label}, nil
}

type fakeRenderer struct {
	header []string
	rows   [][]string
	err    error
}

func (f *fakeRenderer) RenderTable(w io.Writer, header []string, rows [][]string) error {
	f.header, f.rows = header, rows
	if f.err != nil {
		return f.err
	}
	_, err := fmt.Fprintf(w, "%%PDF rows=%d", len(rows))
	return err
}

var errBoom = errors.New("boom")
