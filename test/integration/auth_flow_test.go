package integration

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"papertrail-server/internal/security"
)

const signUpBody = `{"email":"ada@example.com","password":"correct horse"}`

func TestFullAuthLifecycle(t *testing.T) {
	env := newTestEnv(t)

	// Sign up: both cookies arrive scoped to their paths.
	resp := env.do(t, http.MethodPost, "/api/v1/auth/sign-up", signUpBody)
	wantStatus(t, resp, http.StatusCreated)
	access := cookieByName(resp, security.AccessTokenCookie)
	refresh := cookieByName(resp, security.RefreshTokenCookie)
	if access == nil || refresh == nil {
		t.Fatal("sign-up must set both auth cookies")
	}
	if access.Path != "/api" {
		t.Fatalf("access cookie path %q", access.Path)
	}
	if refresh.Path != "/api/v1/auth/refresh" {
		t.Fatalf("refresh cookie path %q", refresh.Path)
	}

	// The access cookie opens /me.
	resp = env.do(t, http.MethodGet, "/api/v1/auth/me", "", access)
	wantStatus(t, resp, http.StatusOK)
	env0 := decodeEnvelope(t, resp)
	if string(env0.Data) == "" || !env0.Success {
		t.Fatalf("unexpected me payload: %+v", env0)
	}

	// Refresh rotates: a new pair comes back, different from the old one.
	resp = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", refresh)
	wantStatus(t, resp, http.StatusOK)
	newAccess := cookieByName(resp, security.AccessTokenCookie)
	newRefresh := cookieByName(resp, security.RefreshTokenCookie)
	if newAccess == nil || newRefresh == nil {
		t.Fatal("refresh must set both auth cookies")
	}
	if newRefresh.Value == refresh.Value {
		t.Fatal("refresh must mint a new refresh token")
	}

	// Replaying the superseded refresh token is reuse: 401, session revoked,
	// cookies cleared.
	resp = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", refresh)
	wantStatus(t, resp, http.StatusUnauthorized)
	envelope := decodeEnvelope(t, resp)
	if envelope.Error == nil || envelope.Error.Code != "REUSE_DETECTED" {
		t.Fatalf("expected REUSE_DETECTED, got %+v", envelope.Error)
	}
	for _, name := range []string{security.AccessTokenCookie, security.RefreshTokenCookie} {
		c := cookieByName(resp, name)
		if c == nil || c.Value != "" || c.MaxAge >= 0 {
			t.Fatalf("cookie %q must be cleared after reuse, got %+v", name, c)
		}
	}

	// The revocation kills the whole session: even the fresh access token from
	// the successful rotation stops working.
	resp = env.do(t, http.MethodGet, "/api/v1/auth/me", "", newAccess)
	wantStatus(t, resp, http.StatusUnauthorized)

	// And the fresh refresh token is dead too.
	resp = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", newRefresh)
	wantStatus(t, resp, http.StatusUnauthorized)
}

func TestSignOutEndsSession(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/sign-up", signUpBody)
	wantStatus(t, resp, http.StatusCreated)
	access := cookieByName(resp, security.AccessTokenCookie)
	refresh := cookieByName(resp, security.RefreshTokenCookie)

	resp = env.do(t, http.MethodPost, "/api/v1/auth/sign-out", "", access)
	wantStatus(t, resp, http.StatusNoContent)

	// Both tokens are dead once the session record is gone.
	resp = env.do(t, http.MethodGet, "/api/v1/auth/me", "", access)
	wantStatus(t, resp, http.StatusUnauthorized)
	resp = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", refresh)
	wantStatus(t, resp, http.StatusUnauthorized)
}

func TestSignInAfterSignOut(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/sign-up", signUpBody)
	wantStatus(t, resp, http.StatusCreated)
	access := cookieByName(resp, security.AccessTokenCookie)

	resp = env.do(t, http.MethodPost, "/api/v1/auth/sign-out", "", access)
	wantStatus(t, resp, http.StatusNoContent)

	resp = env.do(t, http.MethodPost, "/api/v1/auth/sign-in", signUpBody)
	wantStatus(t, resp, http.StatusOK)
	if cookieByName(resp, security.AccessTokenCookie) == nil {
		t.Fatal("sign-in must set a fresh access cookie")
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodPost, "/api/v1/auth/sign-out"},
		{http.MethodPost, "/api/v1/auth/refresh"},
		{http.MethodGet, "/api/v1/notes/"},
	} {
		resp := env.do(t, tc.method, tc.path, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}

// Two refreshes racing with the same still-valid token: exactly one wins, the
// loser gets 401 and never silently double-rotates.
func TestConcurrentRefreshSingleWinner(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/sign-up", signUpBody)
	wantStatus(t, resp, http.StatusCreated)
	refresh := cookieByName(resp, security.RefreshTokenCookie)

	const racers = 2
	statuses := make([]int, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/auth/refresh", nil)
			if err != nil {
				return
			}
			req.AddCookie(&http.Cookie{Name: refresh.Name, Value: refresh.Value})
			r, err := env.client.Do(req)
			if err != nil {
				return
			}
			statuses[i] = r.StatusCode
			_ = r.Body.Close()
		}(i)
	}
	wg.Wait()

	ok, unauthorized := 0, 0
	for _, s := range statuses {
		switch s {
		case http.StatusOK:
			ok++
		case http.StatusUnauthorized:
			unauthorized++
		}
	}
	if ok != 1 || unauthorized != 1 {
		t.Fatalf("expected exactly one winner, got statuses %v", statuses)
	}
}

func TestAccessTokenDiesWithSessionExpiry(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/sign-up", signUpBody)
	wantStatus(t, resp, http.StatusCreated)
	access := cookieByName(resp, security.AccessTokenCookie)

	// Run the session record past its TTL. The JWT itself is still inside its
	// exp window, but the server-side session is gone.
	env.redis.FastForward(241 * time.Hour)

	resp = env.do(t, http.MethodGet, "/api/v1/auth/me", "", access)
	wantStatus(t, resp, http.StatusUnauthorized)
}
