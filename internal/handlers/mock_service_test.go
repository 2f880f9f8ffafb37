package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"cellscan/internal/models"
	"cellscan/internal/service"
	"cellscan/internal/session"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID  int
	signUpErr error
	authID    models.Identity
	authErr   error

	lastSignUpUsername string
	lastSignUpPassword string
	lastAuthUsername   string
	lastAuthPassword   string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}

func (m *mockAuth) Authenticate(_ context.Context, username, password string) (models.Identity, error) {
	m.lastAuthUsername = username
	m.lastAuthPassword = password
	return m.authID, m.authErr
}

type mockHistory struct {
	records []models.HistoryRecord
	listErr error

	resolved   *models.HistoryRecord
	resolveErr error
	lastQuery  service.ResultQuery

	image    []byte
	imageErr error
	lastKey  string
	lastUser models.Identity
}

func (m *mockHistory) List(_ context.Context, id models.Identity) ([]models.HistoryRecord, error) {
	m.lastUser = id
	return m.records, m.listErr
}

func (m *mockHistory) Resolve(_ context.Context, id models.Identity, q service.ResultQuery) (*models.HistoryRecord, error) {
	m.lastUser = id
	m.lastQuery = q
	return m.resolved, m.resolveErr
}

func (m *mockHistory) OpenImage(_ context.Context, id models.Identity, key string) (io.ReadCloser, *models.HistoryRecord, error) {
	m.lastUser = id
	m.lastKey = key
	if m.imageErr != nil {
		return nil, nil, m.imageErr
	}
	return io.NopCloser(bytes.NewReader(m.image)), &models.HistoryRecord{StorageKey: key}, nil
}

type mockUpload struct {
	rec    models.HistoryRecord
	err    error
	calls  int
	lastIn service.UploadInput
}

func (m *mockUpload) Upload(_ context.Context, _ models.Identity, in service.UploadInput) (models.HistoryRecord, error) {
	m.calls++
	m.lastIn = in
	return m.rec, m.err
}

type mockReport struct {
	file service.ReportFile
	err  error
}

func (m *mockReport) Export(_ context.Context, _ models.Identity) (service.ReportFile, error) {
	return m.file, m.err
}

// ---- Shared Test Helpers ----

const testMaxUpload = 1 << 20

func newTestSessions() *session.Manager {
	return session.NewManager(session.Options{
		Secret:          "test-secret",
		CookieName:      "sid",
		FlashCookieName: "flash",
		TTL:             time.Hour,
	})
}

func newTestRouter(s *service.Service, sm *session.Manager) *gin.Engine {
	h := NewHandler(s, sm, nil, Options{MaxUploadBytes: testMaxUpload, AllowedExtensions: []string{"png", "jpg"}})
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// browser replays cookies between requests like a user agent would.
type browser struct {
	handler http.Handler
	jar     map[string]*http.Cookie
}

func newBrowser(h http.Handler) *browser {
	return &browser{handler: h, jar: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.jar {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	w := httptest.NewRecorder()
	b.handler.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.jar, c.Name)
			continue
		}
		b.jar[c.Name] = c
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// login puts a valid session cookie for id into the jar.
func (b *browser) login(sm *session.Manager, id models.Identity) {
	w := httptest.NewRecorder()
	_ = sm.Start(w, id)
	for _, c := range w.Result().Cookies() {
		b.jar[c.Name] = c
	}
}
