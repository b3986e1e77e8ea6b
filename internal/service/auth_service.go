package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"papertrail-server/internal/domain"
	"papertrail-server/internal/repository"
	"papertrail-server/internal/security"
)

var (
	ErrEmailInUse         = errors.New("email address is already in use")
	ErrInvalidCredentials = errors.New("incorrect credentials provided")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSessionExpired     = errors.New("session expired")
)

// TokenPair carries both freshly signed tokens back to the transport layer,
// which turns them into cookies.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService owns the session lifecycle: sign-up, sign-in, sign-out, refresh
// rotation and profile lookup. Reuse detection is the refresh guard's job; by
// the time Refresh runs here the presented jti already matched once, and the
// store-level compare-and-swap closes the remaining race.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionStore
	jwtMgr     *security.JWTManager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(users repository.UserRepository, sessions repository.SessionStore, jwtMgr *security.JWTManager, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwtMgr:     jwtMgr,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *AuthService) SignUp(ctx context.Context, email, password string) (*TokenPair, error) {
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailInUse
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:     email,
		Password:  hash,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The unique index is the authoritative guard; a racing sign-up that
		// slipped past ExistsByEmail lands here.
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueSession(ctx, user.ID)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same error whether the email or the password was wrong, so the
			// endpoint cannot be used to enumerate accounts.
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !security.VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user.ID)
}

// SignOut deletes the session record. Deleting an absent key is not an error,
// so repeated sign-outs are idempotent.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	return s.sessions.Del(ctx, sessionID)
}

// Refresh rotates the session's refresh jti and issues a fresh token pair bound
// to the same session. The store's atomic rotate preserves the remaining TTL:
// refreshing never extends the session past its original expiry.
func (s *AuthService) Refresh(ctx context.Context, sessionID, userID, presentedJTI string) (*TokenPair, error) {
	newJTI := security.NewRefreshJTI()
	if _, err := s.sessions.Rotate(ctx, sessionID, presentedJTI, newJTI, time.Now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotFound), errors.Is(err, repository.ErrJTIMismatch):
			return nil, ErrUnauthorized
		case errors.Is(err, repository.ErrSessionExpired):
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	accessToken, err := s.jwtMgr.SignAccessToken(userID, sessionID, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := s.jwtMgr.SignRefreshToken(userID, sessionID, newJTI, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Me returns the limited profile for the signed-in user. A session whose user
// vanished is deleted on sight so it cannot keep passing the access guard.
func (s *AuthService) Me(ctx context.Context, userID, sessionID string) (*domain.AuthUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = s.sessions.Del(ctx, sessionID)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &domain.AuthUser{
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.Name,
		ProfilePicture: user.ProfilePicture,
		OnboardingStep: user.OnboardingStep,
	}, nil
}

func (s *AuthService) issueSession(ctx context.Context, userID string) (*TokenPair, error) {
	sessionID := security.NewSessionID()
	jti := security.NewRefreshJTI()

	session := &domain.Session{
		UserID:          userID,
		RefreshTokenJTI: jti,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.sessions.Set(ctx, sessionID, session, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	accessToken, err := s.jwtMgr.SignAccessToken(userID, sessionID, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := s.jwtMgr.SignRefreshToken(userID, sessionID, jti, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
