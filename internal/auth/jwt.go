// Package auth issues and verifies session tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"promanage/internal/common"
	"promanage/internal/models"
)

// Claims carries the caller identity inside a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// Identity is the verified caller attached to a request.
type Identity struct {
	ID    string
	Email string
	Role  models.Role
}

// GenerateToken signs a HS256 token for the user valid for ttl.
func GenerateToken(u models.User, secretKey []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	})

	signed, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry and returns the identity. The
// role is validated against the known set so a token minted with a role that
// no longer exists is rejected.
func ParseToken(tokenString string, secretKey []byte) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, common.Unauthenticated("Token expired")
		}
		return Identity{}, common.Unauthenticated("Invalid token")
	}
	if !token.Valid || claims.UserID == "" {
		return Identity{}, common.Unauthenticated("Invalid token")
	}

	role, err := models.ParseRole(string(claims.Role))
	if err != nil {
		return Identity{}, common.Unauthenticated("Invalid token: " + err.Error())
	}
	return Identity{ID: claims.UserID, Email: claims.Email, Role: role}, nil
}
