package auth_test

import (
	jwt "github.com/golang-jwt/jwt/v5"

	. "github.com/metermill/rateplan-console/apiserver/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("JWT authenticator", func() {

	var (
		signingKey    = []byte("test-signing-key")
		authenticator *JWT
	)

	signedToken := func(key []byte, scopes ...string) string {
		claims := ConsoleClaims{
			UserID: "u-1",
			Email:  "ops@example.com",
			Scope:  scopes,
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
		Expect(err).ToNot(HaveOccurred())
		return token
	}

	BeforeEach(func() {
		authenticator = &JWT{SigningKey: signingKey}
	})

	It("grants admin to a token with the admin scope", func() {
		authorizer, err := authenticator.NewAuthorizer(signedToken(signingKey, AdminScope))
		Expect(err).ToNot(HaveOccurred())
		Expect(authorizer.Admin()).To(BeTrue())
	})

	It("grants read-only access to a token with only the read scope", func() {
		authorizer, err := authenticator.NewAuthorizer(signedToken(signingKey, ReadScope))
		Expect(err).ToNot(HaveOccurred())
		Expect(authorizer.Admin()).To(BeFalse())
	})

	It("rejects an empty token", func() {
		_, err := authenticator.NewAuthorizer("")
		Expect(err).To(MatchError("no auth token: unauthorized"))
	})

	It("rejects a token signed with a different key", func() {
		_, err := authenticator.NewAuthorizer(signedToken([]byte("other-key"), AdminScope))
		Expect(err).To(MatchError(ContainSubstring("invalid token")))
	})

	It("rejects a token carrying none of the console scopes", func() {
		_, err := authenticator.NewAuthorizer(signedToken(signingKey, "something.else"))
		Expect(err).To(MatchError(ContainSubstring("none of the required scopes")))
	})

	It("rejects garbage that is not a JWT", func() {
		_, err := authenticator.NewAuthorizer("not-a-jwt")
		Expect(err).To(MatchError(ContainSubstring("invalid token")))
	})
})
