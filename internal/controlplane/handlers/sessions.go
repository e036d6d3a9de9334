package handlers

import (
	"net/http"
	"time"

	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/session"
)

// SessionProvider is the subset of *server.Server the admin API reads
// from, so this package doesn't need to import internal/smb2/server
// directly.
type SessionProvider interface {
	Sessions() []*session.Session
	OpenFiles() []*handle.OpenFile
}

// SessionHandler lists live sessions, their tree connects, and open
// files for the admin API.
type SessionHandler struct {
	provider SessionProvider
}

func NewSessionHandler(provider SessionProvider) *SessionHandler {
	return &SessionHandler{provider: provider}
}

type sessionView struct {
	SessionID  uint64     `json:"session_id"`
	ClientAddr string     `json:"client_addr"`
	Username   string     `json:"username"`
	Domain     string     `json:"domain"`
	IsGuest    bool       `json:"is_guest"`
	CreatedAt  time.Time  `json:"created_at"`
	Trees      []treeView `json:"trees"`
}

type treeView struct {
	TreeID    uint32    `json:"tree_id"`
	ShareName string    `json:"share_name"`
	SharePath string    `json:"share_path"`
	ReadOnly  bool      `json:"read_only"`
	CreatedAt time.Time `json:"created_at"`
}

// List handles GET /api/v1/sessions: every live session and its tree
// connects.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.provider.Sessions()
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		trees := s.Trees()
		treeViews := make([]treeView, 0, len(trees))
		for _, t := range trees {
			treeViews = append(treeViews, treeView{
				TreeID:    t.TreeID,
				ShareName: t.ShareName,
				SharePath: t.SharePath,
				ReadOnly:  t.ReadOnly,
				CreatedAt: t.CreatedAt,
			})
		}
		views = append(views, sessionView{
			SessionID:  s.SessionID,
			ClientAddr: s.ClientAddr,
			Username:   s.Username,
			Domain:     s.Domain,
			IsGuest:    s.IsGuest,
			CreatedAt:  s.CreatedAt,
			Trees:      treeViews,
		})
	}
	writeJSON(w, http.StatusOK, okResponse(views))
}

type openFileView struct {
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

// ListOpens handles GET /api/v1/opens: every open handle across every
// accepted connection.
func (h *SessionHandler) ListOpens(w http.ResponseWriter, r *http.Request) {
	opens := h.provider.OpenFiles()
	views := make([]openFileView, 0, len(opens))
	for _, of := range opens {
		views = append(views, openFileView{
			PersistentID:  of.ID.Persistent,
			VolatileID:    of.ID.Volatile,
			TreeID:        of.TreeID,
			SessionID:     of.SessionID,
			Path:          of.Path,
			IsDirectory:   of.IsDirectory,
			IsPipe:        of.IsPipe,
			OpenedAt:      of.OpenedAt,
			DeletePending: of.DeletePending,
		})
	}
	writeJSON(w, http.StatusOK, okResponse(views))
}
