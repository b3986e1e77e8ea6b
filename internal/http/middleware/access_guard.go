package middleware

import (
	"errors"
	"net/http"

	"papertrail-server/internal/http/response"
	"papertrail-server/internal/observability"
	"papertrail-server/internal/repository"
	"papertrail-server/internal/security"
)

// AccessGuard verifies the access cookie and confirms the session it names is
// still alive. Access tokens carry no jti, so existence of the session record
// is the only server-side check; rotation state is the refresh guard's
// concern.
func AccessGuard(jwtMgr *security.JWTManager, sessions repository.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := security.GetCookie(r, security.AccessTokenCookie)
			if raw == "" {
				observability.RecordAccessTokenValidation(r.Context(), "missing")
				response.Unauthorized(w, r)
				return
			}
			claims, err := jwtMgr.ParseAccessToken(raw)
			if err != nil {
				observability.RecordAccessTokenValidation(r.Context(), "invalid")
				response.Unauthorized(w, r)
				return
			}
			session, err := sessions.Get(r.Context(), claims.SessionID)
			if err != nil {
				if errors.Is(err, repository.ErrSessionNotFound) {
					observability.RecordAccessTokenValidation(r.Context(), "session_missing")
					response.Unauthorized(w, r)
					return
				}
				response.Internal(w, r)
				return
			}
			// The sub claim and the stored session must agree on the user.
			if session.UserID != claims.Subject {
				observability.RecordAccessTokenValidation(r.Context(), "user_mismatch")
				response.Unauthorized(w, r)
				return
			}
			observability.RecordAccessTokenValidation(r.Context(), "valid")
			ctx := withAuth(r.Context(), Auth{UserID: claims.Subject, SessionID: claims.SessionID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
