package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"papertrail-server/internal/domain"
	"papertrail-server/internal/health"
	"papertrail-server/internal/http/handler"
	"papertrail-server/internal/http/router"
	"papertrail-server/internal/repository"
	"papertrail-server/internal/security"
	"papertrail-server/internal/service"
)

const (
	testAccessKey  = "abcdefghijklmnopqrstuvwxyz123456"
	testRefreshKey = "abcdefghijklmnopqrstuvwxyz654321"
)

type testEnv struct {
	server   *httptest.Server
	client   *http.Client
	sessions repository.SessionStore
	redis    *miniredis.Miniredis
}

// newTestEnv stands up the full HTTP stack over miniredis and sqlite, the same
// wiring main performs minus the OTel exporters.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	redisServer := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: redisServer.Addr()})
	t.Cleanup(func() {
		_ = redisClient.Close()
		redisServer.Close()
	})

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Note{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	jwtMgr := security.NewJWTManager(security.TokenIssuer, testAccessKey, testRefreshKey)
	cookies := security.NewCookieWriter(false, 10*time.Minute, 240*time.Hour)
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionStore(redisClient, "session", time.Second)
	notes := repository.NewNoteRepository(db)

	authSvc := service.NewAuthService(users, sessions, jwtMgr, 10*time.Minute, 240*time.Hour)
	noteSvc := service.NewNoteService(notes)

	readiness := health.NewProbeRunner(time.Second)
	readiness.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	h := router.NewRouter(router.Dependencies{
		AuthHandler:  handler.NewAuthHandler(authSvc, cookies),
		NoteHandler:  handler.NewNoteHandler(noteSvc),
		JWTManager:   jwtMgr,
		SessionStore: sessions,
		Cookies:      cookies,
		Readiness:    readiness,
	})

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	// No cookie jar: tests replay old cookies on purpose, so each request
	// carries exactly the cookies the test attaches.
	return &testEnv{
		server:   server,
		client:   server.Client(),
		sessions: sessions,
		redis:    redisServer,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body string, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func wantStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected %d, got %d", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode)
	}
}
