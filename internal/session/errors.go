package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken matches every token decode failure
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a token decodes but its expiry has passed
	ErrTokenExpired = errors.New("token expired")
	// ErrSignInRequired is returned by operations that need a logged-in user
	ErrSignInRequired = errors.New("sign in required")
)

// DecodeError describes why a token could not be decoded
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode token: %s: %v", e.Reason, e.Err)
	}
	return "decode token: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidToken) hold for any DecodeError
func (e *DecodeError) Is(target error) bool { return target == ErrInvalidToken }
