package response

// Error is the body of every 4xx response.
type Error struct {
	Message string `json:"message"           example:"Username already taken."`
	Field   string `json:"field,omitempty"   example:"username"`
}

// InternalError is the body of 5xx responses.
type InternalError struct {
	Error string `json:"error" example:"internal server error"`
}
