package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims are the claims carried by access tokens.
type TokenClaims struct {
	UserID int32 `json:"user_id"`
	jwt.RegisteredClaims
}
