package models

// ErrorResponse represents an error response returned by the console
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MessageResponse is returned by console actions that only report an outcome
type MessageResponse struct {
	Message string `json:"message"`
}

// BackendError is the error envelope the backend API returns on failure
type BackendError struct {
	Detail string `json:"detail"`
}
