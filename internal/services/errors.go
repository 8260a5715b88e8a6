package services

import "errors"

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrCodeRequired       = errors.New("code is required")
	ErrPasswordRequired   = errors.New("new password is required")
	ErrWeakPassword       = errors.New("password is too short")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrUserNotFound       = errors.New("user not found")
	ErrRateLimited        = errors.New("too many requests")
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrContentNotFound    = errors.New("content not found")
)
