package errs

// FieldError is a client error tied to one request field.
// It unwraps to the sentinel it was built from.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func NewFieldError(field, message string, err error) *FieldError {
	return &FieldError{Field: field, Message: message, Err: err}
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
