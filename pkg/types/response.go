package types

// SuccessEnvelope wraps every successful JSON payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every error JSON payload.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
