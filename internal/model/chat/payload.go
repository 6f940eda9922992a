package chat

// RelayRequest is the body accepted by the relay endpoint.
type RelayRequest struct {
	Message string `json:"message"`
}

// RelayResponse wraps a successful assistant reply.
type RelayResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is returned for every non-success status.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
