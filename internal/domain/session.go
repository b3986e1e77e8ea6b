package domain

import "time"

// Session is the server-side record backing one signed-in browser. It lives in
// the session store under its session id and expires together with the refresh
// token that created it. RefreshTokenJTI identifies the single refresh token
// currently accepted for this session; every successful refresh replaces it.
type Session struct {
	UserID          string     `json:"user"`
	RefreshTokenJTI string     `json:"refreshTokenJti"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt"`
}
