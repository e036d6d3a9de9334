package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/smbdfs/smbd/internal/controlplane/auth"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler authenticates the single admin principal the control
// plane recognizes and issues/refreshes its JWT bearer tokens.
type AuthHandler struct {
	adminUsername     string
	adminPasswordHash string
	jwtService        *auth.JWTService
}

func NewAuthHandler(adminUsername, adminPasswordHash string, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		adminUsername:     adminUsername,
		adminPasswordHash: adminPasswordHash,
		jwtService:        jwtService,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(http.StatusBadRequest, w, err)
		return
	}

	if req.Username != h.adminUsername {
		writeJSON(w, http.StatusUnauthorized, Response{Status: "error", Error: "invalid username or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.adminPasswordHash), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, Response{Status: "error", Error: "invalid username or password"})
		return
	}

	tokens, err := h.jwtService.GenerateTokenPair(h.adminUsername)
	if err != nil {
		errorResponse(http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(tokens))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(http.StatusBadRequest, w, err)
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, Response{Status: "error", Error: err.Error()})
		return
	}

	tokens, err := h.jwtService.GenerateTokenPair(claims.Username)
	if err != nil {
		errorResponse(http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(tokens))
}

// Me handles GET /api/v1/auth/me, behind JWTAuth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse(map[string]string{"username": h.adminUsername}))
}
