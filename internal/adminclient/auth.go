package adminclient

import "time"

// TokenPair mirrors internal/controlplane/auth.TokenPair.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Login calls POST /api/v1/auth/login.
func (c *Client) Login(username, password string) (*TokenPair, error) {
	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}

	var resp TokenPair
	if err := c.post("/api/v1/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh calls POST /api/v1/auth/refresh.
func (c *Client) Refresh(refreshToken string) (*TokenPair, error) {
	req := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}

	var resp TokenPair
	if err := c.post("/api/v1/auth/refresh", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
