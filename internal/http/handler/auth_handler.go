package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"papertrail-server/internal/http/middleware"
	"papertrail-server/internal/http/response"
	"papertrail-server/internal/observability"
	"papertrail-server/internal/security"
	"papertrail-server/internal/service"
)

const minPasswordLen = 8

type AuthHandler struct {
	auth    *service.AuthService
	cookies *security.CookieWriter
}

func NewAuthHandler(auth *service.AuthService, cookies *security.CookieWriter) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}
	pair, err := h.auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailInUse) {
			observability.RecordAuthSignUp("email_in_use")
			response.Error(w, r, http.StatusBadRequest, response.CodeEmailInUse, "Email address is already in use.", nil)
			return
		}
		observability.RecordAuthSignUp("error")
		response.Internal(w, r)
		return
	}
	observability.RecordAuthSignUp("success")
	observability.Audit(r, "auth.sign_up", "email", req.Email)
	h.cookies.SetAuthCookies(w, pair.AccessToken, pair.RefreshToken)
	response.JSON(w, r, http.StatusCreated, map[string]string{"message": "User registered successfully."})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}
	pair, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			observability.RecordAuthSignIn("invalid_credentials")
			response.Error(w, r, http.StatusBadRequest, response.CodeInvalidCredentials, "Incorrect credentials provided.", nil)
			return
		}
		observability.RecordAuthSignIn("error")
		response.Internal(w, r)
		return
	}
	observability.RecordAuthSignIn("success")
	observability.Audit(r, "auth.sign_in", "email", req.Email)
	h.cookies.SetAuthCookies(w, pair.AccessToken, pair.RefreshToken)
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "OK"})
}

// SignOut runs behind the access guard. The session delete is idempotent, so a
// second sign-out with a raced cookie still returns 204.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	if err := h.auth.SignOut(r.Context(), auth.SessionID); err != nil {
		observability.RecordAuthSignOut("error")
		response.Internal(w, r)
		return
	}
	observability.RecordAuthSignOut("success")
	observability.Audit(r, "auth.sign_out", "user_id", auth.UserID)
	h.cookies.ClearAuthCookies(w)
	response.NoContent(w)
}

// Refresh runs behind the refresh guard, which already matched the presented
// jti once and revokes on reuse. The service re-checks atomically while
// rotating, so a concurrent refresh racing this one loses cleanly.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		h.cookies.ClearAuthCookies(w)
		response.Unauthorized(w, r)
		return
	}
	pair, err := h.auth.Refresh(r.Context(), auth.SessionID, auth.UserID, auth.RefreshJTI)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionExpired):
			observability.RecordAuthRefresh("expired")
			h.cookies.ClearAuthCookies(w)
			response.Error(w, r, http.StatusUnauthorized, response.CodeSessionExpired, "unauthorized", nil)
		case errors.Is(err, service.ErrUnauthorized):
			observability.RecordAuthRefresh("unauthorized")
			h.cookies.ClearAuthCookies(w)
			response.Unauthorized(w, r)
		default:
			observability.RecordAuthRefresh("error")
			response.Internal(w, r)
		}
		return
	}
	observability.RecordAuthRefresh("success")
	h.cookies.SetAuthCookies(w, pair.AccessToken, pair.RefreshToken)
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "OK"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	user, err := h.auth.Me(r.Context(), auth.UserID, auth.SessionID)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			// The user row is gone; the guard's session was self-healed away.
			h.cookies.ClearAuthCookies(w)
			response.Unauthorized(w, r)
			return
		}
		response.Internal(w, r)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

func (h *AuthHandler) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeValidation, "malformed request body", nil)
		return req, false
	}
	details := map[string]string{}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		details["email"] = "email is required"
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		details["email"] = "email is not a valid address"
	}
	if len(req.Password) < minPasswordLen {
		details["password"] = "password must be at least 8 characters"
	}
	if len(details) > 0 {
		response.Error(w, r, http.StatusBadRequest, response.CodeValidation, "invalid request body", details)
		return req, false
	}
	return req, true
}
