package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const AuthTokenValidity = time.Hour * 24 * 30

var ErrTokenInvalid = errors.New("token_invalid")

// MakeToken signs an auth token for a user
func MakeToken(userID int64, secret string, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("no jwt secret configured")
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"type":    "auth",
		"iat":     now.Unix(),
		"exp":     now.Add(AuthTokenValidity).Unix(),
	})

	return t.SignedString([]byte(secret))
}

// ParseToken validates an auth token and returns the user id it was issued for
func ParseToken(tokenStr, secret string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return 0, fmt.Errorf("%w, %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrTokenInvalid
	}

	if typ, _ := claims["type"].(string); typ != "auth" {
		return 0, ErrTokenInvalid
	}

	// Numbers come back as float64 from MapClaims
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, ErrTokenInvalid
	}

	return int64(id), nil
}
