package http

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ErrorEnvelope is the body of every non-2xx API response.
type ErrorEnvelope struct {
	Status  string            `json:"status" example:"error"`
	Message string            `json:"message" example:"no data available"`
	Code    string            `json:"code,omitempty" example:"ERR_NO_DATA"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_ONEOF"`
	Field   string                 `json:"field,omitempty" example:"group"`
	Message string                 `json:"message,omitempty" example:"group must be one of: stocks, crypto"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
