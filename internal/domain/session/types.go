package session

import "time"

// User is the profile snapshot cached alongside the credential.
type User struct {
	UID         string    `json:"uid"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Verified    bool      `json:"verified,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// State tracks the credential lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateRestoring
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// LoginRequest captures login details. TFACode is optional.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TFACode  string `json:"tfaCode,omitempty"`
}

// RegisterRequest captures the registration payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Availability is the answer to a username/email availability probe. A probe
// never fails outright: network trouble reads as unavailable with Err set.
type Availability struct {
	Available bool
	Err       error
}

// authEnvelope is the wire shape shared by login and register responses.
type authEnvelope struct {
	Success bool   `json:"success"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

// meEnvelope is the wire shape of GET /v1/auth/me.
type meEnvelope struct {
	User *User `json:"user"`
}

type availabilityEnvelope struct {
	Available bool `json:"available"`
}
