package auth

import (
	"errors"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	// ReadScope grants access to GET endpoints.
	ReadScope = "rateplan.read"
	// AdminScope grants access to all endpoints.
	AdminScope = "rateplan.admin"
)

// ConsoleClaims is the token payload issued for console users.
type ConsoleClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Scope  []string `json:"scope"`
	jwt.RegisteredClaims
}

// JWT authenticates bearer tokens signed with a shared HMAC key.
type JWT struct {
	SigningKey []byte
}

func (j *JWT) NewAuthorizer(token string) (Authorizer, error) {
	if token == "" {
		return nil, errors.New("no auth token: unauthorized")
	}
	claims := &ConsoleClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.SigningKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %s", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if !hasScope(claims.Scope, ReadScope) && !hasScope(claims.Scope, AdminScope) {
		return nil, fmt.Errorf("token has none of the required scopes: %s, %s", ReadScope, AdminScope)
	}
	return &scopeAuthorizer{scopes: claims.Scope}, nil
}

type scopeAuthorizer struct {
	scopes []string
}

func (a *scopeAuthorizer) Admin() (bool, error) {
	return hasScope(a.scopes, AdminScope), nil
}

func hasScope(scopes []string, want string) bool {
	for _, scope := range scopes {
		if scope == want {
			return true
		}
	}
	return false
}
