package security

import "github.com/google/uuid"

// NewSessionID returns a fresh session identifier. UUIDv4 carries 122 random
// bits, which satisfies the unguessability requirement for store keys.
func NewSessionID() string { return uuid.NewString() }

// NewRefreshJTI returns the rotation fingerprint for a refresh token.
func NewRefreshJTI() string { return uuid.NewString() }
