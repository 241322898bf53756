package errors

import (
	stderrors "errors"
)

// ErrorResponse is the flat JSON body returned to clients on failure.
// Error always holds the human-readable message; Step is set for stage failures.
type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      ErrorCode      `json:"code,omitempty"`
	Step      string         `json:"step,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
// The step is lifted out of the details into its own field.
func (e *AppError) ToResponse() ErrorResponse {
	resp := ErrorResponse{
		Error:     e.Message,
		Code:      e.Code,
		Step:      e.Step(),
		Retryable: e.Retryable,
	}
	for k, v := range e.Details {
		if k == DetailStep {
			continue
		}
		if resp.Details == nil {
			resp.Details = make(map[string]any, len(e.Details))
		}
		resp.Details[k] = v
	}
	return resp
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether any AppError in the chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}
