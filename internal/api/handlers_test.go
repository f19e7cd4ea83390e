package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roboclub/clubhouse/internal/config"
	"roboclub/clubhouse/internal/db"
	"roboclub/clubhouse/internal/metrics"
	"roboclub/clubhouse/internal/models/dtos/requests"
	"roboclub/clubhouse/internal/models/entities"
	models "roboclub/clubhouse/internal/models/gorm"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:           "test",
		SessionBackend:   "memory",
		CacheBackend:     "memory",
		JWTSecret:        "test-secret",
		SessionTTL:       time.Hour,
		RecoveryTTL:      15 * time.Minute,
		AllowedOrigins:   []string{"https://club.test"},
		LoginRateLimit:   100,
		LoginBurst:       100,
		ChatPollInterval: 10 * time.Millisecond,
		SettingsCacheTTL: time.Minute,
	}
}

func newTestDeps(t *testing.T) *Dependencies {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), db.GormConfig())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	sqlxDB, err := db.SQLXFromGorm(gdb, "sqlite3")
	if err != nil {
		t.Fatalf("Failed to wrap sqlx: %v", err)
	}

	deps, err := InitDependencies(testConfig(), Infra{Gorm: gdb, SQLX: sqlxDB}, metrics.NewMetricsRegistry())
	if err != nil {
		t.Fatalf("InitDependencies failed: %v", err)
	}
	t.Cleanup(deps.Close)
	return deps
}

func seedMember(t *testing.T, deps *Dependencies, email string) *models.Profile {
	t.Helper()
	p, err := deps.Services.Members.CreateMember(context.Background(), requests.CreateMemberRequest{
		Email: email, Password: "secret123", Name: "Test Member",
	})
	if err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}
	return p
}

// pollRouter mounts the admin-side poll handler so the {memberID} param
// resolves without an auth session.
func pollRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Get("/chat/{memberID}/poll", h.PollHandler(AdminThread))
	return r
}

type pollBody struct {
	Status string               `json:"status"`
	Data   []models.ChatMessage `json:"data"`
}

func TestHealthCheckHandler(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]Pinger
		wantStatus int
		wantState  string
	}{
		{
			name:       "all up",
			checks:     map[string]Pinger{"postgres": PingFunc(func(context.Context) error { return nil })},
			wantStatus: http.StatusOK,
			wantState:  "ok",
		},
		{
			name: "one down",
			checks: map[string]Pinger{
				"postgres": PingFunc(func(context.Context) error { return nil }),
				"redis":    PingFunc(func(context.Context) error { return errors.New("connection refused") }),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			HealthCheckHandler(tt.checks, time.Now().Add(-time.Minute))(rr, httptest.NewRequest("GET", "/healthCheck", nil))

			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			var resp entities.HealthCheckResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tt.wantState {
				t.Errorf("Expected status %q, got %q", tt.wantState, resp.Status)
			}
			if len(resp.Services) != len(tt.checks) {
				t.Errorf("Expected %d services, got %d", len(tt.checks), len(resp.Services))
			}
		})
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://club.test", "http://localhost:*"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://club.test", true},
		{"http://localhost:5173", true},
		{"https://evil.test", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := check(r); got != tt.want {
			t.Errorf("origin %q: expected %v, got %v", tt.origin, tt.want, got)
		}
	}
}

func TestSinceAndLimitParams(t *testing.T) {
	r := httptest.NewRequest("GET", "/?since=2024-05-01T10:00:00Z&limit=5", nil)
	since, err := sinceParam(r)
	if err != nil {
		t.Fatalf("sinceParam failed: %v", err)
	}
	if !since.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected since: %v", since)
	}
	if n := limitParam(r, 50); n != 5 {
		t.Errorf("Expected limit 5, got %d", n)
	}

	bad := httptest.NewRequest("GET", "/?since=yesterday&limit=-1", nil)
	if _, err := sinceParam(bad); err == nil {
		t.Error("Expected an error for a malformed since")
	}
	if n := limitParam(bad, 50); n != 50 {
		t.Errorf("Expected fallback limit, got %d", n)
	}
}

func TestDecode_RejectsMalformedBody(t *testing.T) {
	var req requests.SignInRequest
	err := decode(httptest.NewRequest("POST", "/", bytes.NewBufferString("{not json")), &req)
	if err == nil {
		t.Fatal("Expected an error for malformed JSON")
	}
}

func TestPollHandler_ReturnsEmptyAfterWait(t *testing.T) {
	deps := newTestDeps(t)
	member := seedMember(t, deps, "quiet@club.test")

	h := NewHandlers(deps)
	h.pollWait = 50 * time.Millisecond

	rr := httptest.NewRecorder()
	start := time.Now()
	pollRouter(h).ServeHTTP(rr, httptest.NewRequest("GET", "/chat/"+member.ID+"/poll", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Error("Expected the poll to hold the request")
	}
	var body pollBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(body.Data) != 0 {
		t.Errorf("Expected no messages, got %d", len(body.Data))
	}
}

func TestPollHandler_WakesOnNewMessage(t *testing.T) {
	deps := newTestDeps(t)
	member := seedMember(t, deps, "chatty@club.test")

	h := NewHandlers(deps)
	h.pollWait = 5 * time.Second

	go func() {
		time.Sleep(30 * time.Millisecond)
		_, _ = deps.Services.Chat.Send(context.Background(), member.ID, false, "", "hello admins")
	}()

	rr := httptest.NewRecorder()
	start := time.Now()
	pollRouter(h).ServeHTTP(rr, httptest.NewRequest("GET", "/chat/"+member.ID+"/poll", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Expected the poll to return as soon as the message arrived")
	}
	var body pollBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Content != "hello admins" {
		t.Errorf("Unexpected messages: %+v", body.Data)
	}
}

func TestPollHandler_ImmediateWhenHistoryExists(t *testing.T) {
	deps := newTestDeps(t)
	member := seedMember(t, deps, "history@club.test")
	if _, err := deps.Services.Chat.Send(context.Background(), member.ID, false, "", "earlier"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	h := NewHandlers(deps)
	h.pollWait = 5 * time.Second

	rr := httptest.NewRecorder()
	start := time.Now()
	pollRouter(h).ServeHTTP(rr, httptest.NewRequest("GET", "/chat/"+member.ID+"/poll", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if time.Since(start) > time.Second {
		t.Error("Expected an immediate answer")
	}
}
