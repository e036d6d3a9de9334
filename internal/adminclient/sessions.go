package adminclient

import "time"

// Tree mirrors the control plane's treeView.
type Tree struct {
	TreeID    uint32    `json:"tree_id"`
	ShareName string    `json:"share_name"`
	SharePath string    `json:"share_path"`
	ReadOnly  bool      `json:"read_only"`
	CreatedAt time.Time `json:"created_at"`
}

// Session mirrors the control plane's sessionView.
type Session struct {
	SessionID  uint64    `json:"session_id"`
	ClientAddr string    `json:"client_addr"`
	Username   string    `json:"username"`
	Domain     string    `json:"domain"`
	IsGuest    bool      `json:"is_guest"`
	CreatedAt  time.Time `json:"created_at"`
	Trees      []Tree    `json:"trees"`
}

// OpenFile mirrors the control plane's openFileView.
type OpenFile struct {
	PersistentID  uint64    `json:"persistent_id"`
	VolatileID    uint64    `json:"volatile_id"`
	TreeID        uint32    `json:"tree_id"`
	SessionID     uint64    `json:"session_id"`
	Path          string    `json:"path"`
	IsDirectory   bool      `json:"is_directory"`
	IsPipe        bool      `json:"is_pipe"`
	OpenedAt      time.Time `json:"opened_at"`
	DeletePending bool      `json:"delete_pending"`
}

// ListSessions calls GET /api/v1/sessions.
func (c *Client) ListSessions() ([]Session, error) {
	var sessions []Session
	if err := c.get("/api/v1/sessions", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListOpens calls GET /api/v1/opens.
func (c *Client) ListOpens() ([]OpenFile, error) {
	var opens []OpenFile
	if err := c.get("/api/v1/opens", &opens); err != nil {
		return nil, err
	}
	return opens, nil
}
