// Package auth provides bearer-token authentication for the console
// API. Tokens are HMAC-signed JWTs carrying a scope list; the admin
// scope unlocks write endpoints.
package auth

type Authenticator interface {
	NewAuthorizer(token string) (Authorizer, error)
}

type Authorizer interface {
	Admin() (bool, error)
}
