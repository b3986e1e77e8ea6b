package integration

import (
	"net/http"
	"testing"
)

func TestLivenessAlwaysOK(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health/live", "")
	wantStatus(t, resp, http.StatusOK)
	envelope := decodeEnvelope(t, resp)
	if !envelope.Success {
		t.Fatalf("unexpected liveness payload: %+v", envelope)
	}
}

func TestReadinessTracksRedis(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health/ready", "")
	wantStatus(t, resp, http.StatusOK)

	// Kill the backing store: readiness must flip to 503.
	env.redis.Close()

	resp = env.do(t, http.MethodGet, "/health/ready", "")
	wantStatus(t, resp, http.StatusServiceUnavailable)
	envelope := decodeEnvelope(t, resp)
	if envelope.Error == nil || envelope.Error.Code != "DEPENDENCY_UNREADY" {
		t.Fatalf("expected DEPENDENCY_UNREADY, got %+v", envelope.Error)
	}
}
