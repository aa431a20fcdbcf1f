package app

import "errors"

var (
	// ErrInvalidCredentials is returned when no account matches the
	// supplied username/password pair.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	ErrUsernameRequired = errors.New("username must not be blank")
	ErrPasswordTooShort = errors.New("password must be at least 4 characters")
	ErrUsernameTaken    = errors.New("username already taken")

	ErrMessageTextRequired = errors.New("message_text must not be blank")
	ErrMessageTextTooLong  = errors.New("message_text must be at most 255 characters")
	ErrUnknownAccount      = errors.New("posted_by does not reference an existing account")
	ErrMessageNotFound     = errors.New("message not found")
)
