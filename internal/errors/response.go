package errors

// ErrorDetail is the inner error body rendered to API clients.
type ErrorDetail struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse is the standard error envelope for the REST layer.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewErrorResponse builds the wire representation of an error. The hint is
// preferred over the raw message so internals never leak to clients.
func NewErrorResponse(err error) *ErrorResponse {
	if err == nil {
		return nil
	}

	message := Hint(err)
	if message == "" {
		message = err.Error()
	}

	return &ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Message: message,
			Details: Details(err),
		},
	}
}
