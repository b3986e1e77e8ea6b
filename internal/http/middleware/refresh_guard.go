package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"papertrail-server/internal/http/response"
	"papertrail-server/internal/observability"
	"papertrail-server/internal/repository"
	"papertrail-server/internal/security"
)

// RefreshGuard verifies the refresh cookie and compares its jti against the
// session record. A mismatch means the presented token was already superseded
// by a rotation: either the client replayed a stale token or the token was
// stolen and the thief rotated first. Both cases revoke the whole session.
// Revocation lives here and nowhere else; the auth service trusts that any
// refresh reaching it already passed this gate once.
func RefreshGuard(jwtMgr *security.JWTManager, sessions repository.SessionStore, cookies *security.CookieWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := security.GetCookie(r, security.RefreshTokenCookie)
			if raw == "" {
				cookies.ClearAuthCookies(w)
				response.Unauthorized(w, r)
				return
			}
			claims, err := jwtMgr.ParseRefreshToken(raw)
			if err != nil {
				cookies.ClearAuthCookies(w)
				response.Unauthorized(w, r)
				return
			}
			session, err := sessions.Get(r.Context(), claims.SessionID)
			if err != nil {
				cookies.ClearAuthCookies(w)
				if errors.Is(err, repository.ErrSessionNotFound) {
					response.Unauthorized(w, r)
					return
				}
				response.Internal(w, r)
				return
			}
			if claims.ID != session.RefreshTokenJTI {
				slog.WarnContext(r.Context(), "refresh token reuse detected",
					"session_id", claims.SessionID,
					"user_id", claims.Subject,
				)
				observability.RecordReuseDetected()
				// Revoke the session so the pair the attacker holds dies with it.
				if err := sessions.Del(r.Context(), claims.SessionID); err != nil {
					slog.ErrorContext(r.Context(), "revoke session after reuse", "error", err)
				}
				cookies.ClearAuthCookies(w)
				response.Error(w, r, http.StatusUnauthorized, response.CodeReuseDetected, "unauthorized", nil)
				return
			}
			ctx := withAuth(r.Context(), Auth{
				UserID:     claims.Subject,
				SessionID:  claims.SessionID,
				RefreshJTI: claims.ID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
