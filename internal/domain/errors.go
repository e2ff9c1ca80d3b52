package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuizData indicates the quiz document is missing questions or
	// otherwise unusable after sanitization.
	ErrInvalidQuizData = errors.New("invalid quiz data")
	// ErrUserNotFound indicates the user directory has no such user.
	ErrUserNotFound = errors.New("user not found")
	// ErrResultNotFound indicates no stored result matches the lookup.
	ErrResultNotFound = errors.New("result not found")
)
