package service

import "errors"

var (
	// ErrInvalidURL rejects a registration before any store access.
	ErrInvalidURL = errors.New("original url must be an absolute http(s) url")
	// ErrInvalidEmail rejects a malformed signup email before any store access.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrPasswordTooShort rejects weak signup passwords.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	// ErrInvalidCredentials covers both unknown email and wrong password on login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken signals a missing, malformed or expired auth token.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrForbidden signals an authenticated caller acting on a link they do not own.
	ErrForbidden = errors.New("not the owner of this link")
)
