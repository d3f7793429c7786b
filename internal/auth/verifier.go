package auth

import (
	"context"
	"crypto/subtle"
	"errors"
)

var (
	// ErrMissingCredentials is returned when the username or password is empty
	ErrMissingCredentials = errors.New("missing username or password")
	// ErrInvalidCredentials is returned when the pair is not accepted
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Verifier decides whether a username/password pair may log in
type Verifier interface {
	Verify(ctx context.Context, username, password string) error
}

// StaticVerifier accepts exactly one username/password pair
type StaticVerifier struct {
	username string
	password string
}

func NewStaticVerifier(username, password string) *StaticVerifier {
	return &StaticVerifier{username: username, password: password}
}

// Verify returns ErrMissingCredentials, ErrInvalidCredentials, or nil.
func (v *StaticVerifier) Verify(_ context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrMissingCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(v.password)) == 1
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}
