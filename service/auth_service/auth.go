package auth_service

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/rs/xid"
)

// CreateToken from Claims to JWT
func CreateToken(claims jwt.MapClaims, secret string, durationSeconds int) (string, error) {
	now := time.Now()
	if durationSeconds != 0 {
		claims["exp"] = now.Add(time.Duration(durationSeconds) * time.Second).Unix()
	} else {
		claims["exp"] = now.Add(time.Hour).Unix() // 1 hour
	}
	claims["iat"] = now.Unix()
	// create the token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	// Sign and get the complete encoded token as string
	return token.SignedString([]byte(secret))
}

// CreateAccessToken issues the short-lived access token
func CreateAccessToken(userID uint64, aud Audience, scope string, secret string, durationSeconds int) (string, error) {
	claims := jwt.MapClaims{
		"user_id": fmt.Sprintf("%d", userID),
		"aud":     aud.String(),
		"scope":   scope,
	}
	return CreateToken(claims, secret, durationSeconds)
}

// CreateRefreshToken issues a refresh token carrying a jti so rotation can
// blacklist the old token.
func CreateRefreshToken(userID uint64, aud Audience, secret string, durationSeconds int) (token, jti string, err error) {
	jti = xid.New().String()
	claims := jwt.MapClaims{
		"user_id": fmt.Sprintf("%d", userID),
		"aud":     aud.String(),
		"jti":     jti,
	}
	token, err = CreateToken(claims, secret, durationSeconds)
	return token, jti, err
}

var ErrInvalidToken = errors.New("AUTH_INVALID_TOKEN")

// ParseToken validates the signature and expiry and returns the claims
func ParseToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
