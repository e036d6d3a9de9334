// Package handlers implements the control plane's HTTP endpoints:
// health checks, admin login, and read-only listings of sessions, tree
// connects, and open files, grounded on the teacher's
// controlplane/api/handlers package trimmed to this server's scope.
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/smbdfs/smbd/internal/logx"
)

// Response is the envelope every endpoint responds with.
type Response struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logx.Error("controlplane: failed to encode JSON response", "error", err)
		http.Error(w, `{"status":"error","error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func okResponse(data interface{}) Response {
	return Response{Status: "ok", Timestamp: time.Now().UTC(), Data: data}
}

func errorResponse(status int, w http.ResponseWriter, err error) {
	writeJSON(w, status, Response{Status: "error", Timestamp: time.Now().UTC(), Error: err.Error()})
}
