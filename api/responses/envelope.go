package responses

// SuccessEnvelope wraps every 2xx payload.
type SuccessEnvelope[T any] struct {
	Data T `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every error payload.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
