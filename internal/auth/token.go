package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var ErrMissingToken = errors.New("missing token")
var ErrInvalidToken = errors.New("invalid token")
var ErrWrongTokenType = errors.New("wrong token type")
var ErrBadSubject = errors.New("token subject is not a user id")

type Claims struct {
	jwt.RegisteredClaims
	Type     TokenType `json:"type"`
	Username string    `json:"username,omitempty"`
}

// UserID returns the subject as a positive user id.
func (c *Claims) UserID() (int, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil || id <= 0 {
		return 0, ErrBadSubject
	}
	return id, nil
}

// BuildJWTString signs a token of the given type for userID. The jti is
// random so refresh tokens can be revoked one by one.
func BuildJWTString(userID int, username string, tokenType TokenType, ttl time.Duration, secret []byte) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type:     tokenType,
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", nil, err
	}

	return tokenString, claims, nil
}

func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetUser verifies a token of the wanted type and returns its user id.
func GetUser(tokenString string, tokenType TokenType, secret []byte) (int, *Claims, error) {
	claims, err := ParseToken(tokenString, secret)
	if err != nil {
		return 0, nil, err
	}
	if claims.Type != tokenType {
		return 0, nil, ErrWrongTokenType
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, nil, err
	}
	return id, claims, nil
}
