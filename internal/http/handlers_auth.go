package http

import (
	"net/http"

	"kosht/internal/core"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	TrackingMode string `json:"tracking_mode"`
	IsPremium    bool   `json:"is_premium"`
}

func toUserResponse(u *core.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Email:        u.Email,
		TrackingMode: string(u.TrackingMode),
		IsPremium:    u.IsPremium,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

type trackingModeRequest struct {
	Mode          string `json:"mode"`
	BankToken     string `json:"bank_token,omitempty"`
	BankAccountID string `json:"bank_account_id,omitempty"`
}

func (s *Server) handleSwitchTrackingMode(w http.ResponseWriter, r *http.Request) {
	var req trackingModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := userIDFrom(r)
	var err error
	switch core.TrackingMode(req.Mode) {
	case core.TrackingManual:
		err = s.users.SwitchToManualMode(r.Context(), userID)
	case core.TrackingAutoBank:
		err = s.users.SwitchToAutoMode(r.Context(), userID, req.BankToken, req.BankAccountID)
	default:
		writeError(w, http.StatusBadRequest, "unknown tracking mode")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tracking_mode": req.Mode})
}
