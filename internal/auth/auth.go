// Package auth provides the header credentials that guard data plane
// endpoints.
//
// It intentionally avoids policy decisions and storage concerns.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// DefaultHeader carries the credential when an issuer does not choose one.
const DefaultHeader = "Authorization"

var ErrUnauthorized = errors.New("auth: unauthorized")

// Validator validates an authentication token.
type Validator interface {
	Validate(token string) error
}

// StaticToken validates against a single shared token.
type StaticToken struct {
	Token string
}

func (s StaticToken) Validate(token string) error {
	if s.Token == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(s.Token), []byte(token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// FuncValidator adapts a function into a Validator.
type FuncValidator func(token string) error

func (f FuncValidator) Validate(token string) error {
	return f(token)
}

// Credential is a header name and the secret sent under it.
type Credential struct {
	Key  string
	Code string
}

// Issue mints a credential with a random code under key.
func Issue(key string) Credential {
	if strings.TrimSpace(key) == "" {
		key = DefaultHeader
	}
	return Credential{Key: key, Code: uuid.NewString()}
}

func (c Credential) Apply(h http.Header) {
	if c.Key == "" {
		return
	}
	h.Set(c.Key, c.Code)
}

func (c Credential) Validator() Validator {
	return StaticToken{Token: c.Code}
}

// Check validates the credential presented in h.
func (c Credential) Check(h http.Header) error {
	if c.Key == "" {
		return ErrUnauthorized
	}
	return c.Validator().Validate(h.Get(c.Key))
}
