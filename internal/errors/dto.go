package errors

// ErrorResponse is the body rendered for every failed API request
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewErrorResponse builds a failed response. Empty details are omitted.
func NewErrorResponse(display string, details map[string]any) ErrorResponse {
	if len(details) == 0 {
		details = nil
	}
	return ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Display: display,
			Details: details,
		},
	}
}
