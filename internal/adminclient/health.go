package adminclient

// Health mirrors the control plane's /health liveness payload.
type Health struct {
	Service   string `json:"service"`
	StartedAt string `json:"started_at"`
	Uptime    string `json:"uptime"`
}

// Health calls GET /health. It does not require authentication.
func (c *Client) Health() (*Health, error) {
	var h Health
	if err := c.get("/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Ready calls GET /health/ready, returning nil if the SMB2 listener is
// accepting connections and the *APIError otherwise.
func (c *Client) Ready() error {
	return c.get("/health/ready", nil)
}
