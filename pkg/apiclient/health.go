package apiclient

import "context"

// HealthResponse is the server's health envelope.
type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Ready fetches the readiness check. A server that is not ready yields an
// *APIError with status 503.
func (c *Client) Ready(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/health/ready", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
