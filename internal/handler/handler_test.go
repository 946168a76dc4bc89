package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/clearskyhq/clearsky/internal/domain"
	"github.com/clearskyhq/clearsky/internal/handler"
	"github.com/clearskyhq/clearsky/internal/repository/sqlite"
	"github.com/clearskyhq/clearsky/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

// fakeEngine implements domain.AuditEngine for handler tests.
type fakeEngine struct {
	statuses []string
	result   *domain.AuditResult
	err      error
}

func (f *fakeEngine) Execute(ctx context.Context, url string, onStatus domain.StatusFunc) (*domain.AuditResult, error) {
	for _, s := range f.statuses {
		if onStatus != nil {
			onStatus(s)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func passingEngine() *fakeEngine {
	return &fakeEngine{
		statuses: []string{"Loading page", "Gathering results"},
		result: &domain.AuditResult{
			Scores: domain.AuditScores{Performance: 92, SEO: 85, BestPractices: 100, Accessibility: 78},
			Raw:    json.RawMessage(`{"categories":{"performance":{"score":0.92}},"audits":{}}`),
		},
	}
}

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
	db     *sqlite.DB
	auth   *service.AuthService
}

// newTestEnv wires the full HTTP surface against a temp database and the
// given engine, with a cookie-keeping client.
func newTestEnv(t *testing.T, engine domain.AuditEngine) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	auth := service.NewAuthService(db.Users(), db.Ledger(), db.LoginTokens(), testJWTSecret, "http://localhost:8080", 4)
	audits := service.NewAuditService(db.Audits(), db.Ledger(), engine)
	tracking := service.NewCallTrackingService(nil, db.PhoneNumbers(), db.CallLogs(), "", 0)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, auth, audits, tracking, db.Ledger(), false)

	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}

	return &testEnv{
		srv:    srv,
		client: &http.Client{Jar: jar},
		db:     db,
		auth:   auth,
	}
}

// postJSON sends a JSON body and returns the response.
func (e *testEnv) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := e.client.Post(e.srv.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.client.Get(e.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// signup registers a user through the API so the client holds a session
// cookie, and returns the created user.
func (e *testEnv) signup(t *testing.T, email string) *domain.User {
	t.Helper()
	resp := e.postJSON(t, "/api/auth/signup", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("signup: expected 201, got %d: %s", resp.StatusCode, body)
	}

	user, err := e.db.Users().GetByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("load signed-up user: %v", err)
	}
	return user
}

func newEmptyJar() (http.CookieJar, error) {
	return cookiejar.New(nil)
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
