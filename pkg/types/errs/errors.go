package errs

import (
	"errors"
	"fmt"
)

// Categories. Handlers map them to status codes.
var (
	ErrValidation     = errors.New("validation error")
	ErrAuth           = errors.New("auth error")
	ErrRecordNotFound = errors.New("record not found")
)

var (
	ErrMissingToken = fmt.Errorf("%w: missing or malformed authorization header", ErrAuth)
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrAuth)
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrAuth)

	ErrUsernameTaken = fmt.Errorf("%w: username already taken", ErrAuth)
	ErrPhoneTaken    = fmt.Errorf("%w: phone number already exist", ErrAuth)
	ErrUserNotFound  = fmt.Errorf("%w: user not found", ErrAuth)
	ErrWrongPassword = fmt.Errorf("%w: password verification failed", ErrAuth)

	ErrEmptyFilename        = fmt.Errorf("%w: filename is required", ErrValidation)
	ErrUnsupportedExtension = fmt.Errorf("%w: unsupported file extension", ErrValidation)
	ErrTooManyFiles         = fmt.Errorf("%w: too many files", ErrValidation)
	ErrNoFiles              = fmt.Errorf("%w: no files", ErrValidation)

	ErrAlreadyExists    = errors.New("record already exists")
	ErrUnsupportedImage = errors.New("unsupported image")
)
