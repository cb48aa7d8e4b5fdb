package domain

import "time"

// Credentials is the body of the login and registration requests
type Credentials struct {
	Username string `json:"username" validate:"notblank,max=256"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
