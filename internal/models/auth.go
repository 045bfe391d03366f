package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GuestTokenResponse returns an issued guest token.
type GuestTokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	UserID      string    `json:"user_id"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for planner tokens.
type JWTClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
