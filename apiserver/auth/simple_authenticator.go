package auth

import "fmt"

// SimpleAuthenticator grants access from a static token table. Used in
// tests and local development where minting JWTs would get in the way.
type SimpleAuthenticator struct {
	// Tokens maps a bearer token to whether it carries admin rights.
	Tokens map[string]bool
}

func (sa *SimpleAuthenticator) NewAuthorizer(token string) (Authorizer, error) {
	admin, ok := sa.Tokens[token]
	if !ok {
		return nil, fmt.Errorf("authenticator: unknown token")
	}
	return &SimpleAuthorizer{admin: admin}, nil
}

type SimpleAuthorizer struct {
	admin bool
}

func (sa *SimpleAuthorizer) Admin() (bool, error) {
	return sa.admin, nil
}
