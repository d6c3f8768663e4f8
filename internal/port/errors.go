package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrSessionExpired    = errors.New("session expired")
	ErrTooManyAuthProbes = errors.New("too many authentication attempts")
	ErrNoDraft           = errors.New("no draft to enhance")
	ErrAngleNotFound     = errors.New("angle not found")
	ErrBriefNotFound     = errors.New("brief not found")
	ErrUserNotFound      = errors.New("user not found")
)
