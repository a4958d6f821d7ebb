package handlers

import (
	"encoding/json"
	"net/http"

	"task-management-service/middleware"
	"task-management-service/models"
	"task-management-service/services"
)

type LoginHandler struct {
	UserService    *services.UserService
	TokenBlacklist *services.TokenBlacklist
}

type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Data        models.UserResource `json:"data"`
	AccessToken string              `json:"access_token"`
}

// Register creates an account with the default user role.
func (h *LoginHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request data", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.RegisterUser(r.Context(), req.Name, req.Email, req.Password, req.PasswordConfirmation)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"data": models.NewUserResource(user)})
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	user, token, err := h.UserService.LoginUser(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Data:        models.NewUserResource(user),
		AccessToken: token,
	})
}

// Logout revokes the presented token for the remainder of its lifetime.
func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r)
	if token == "" {
		http.Error(w, "Authorization header missing", http.StatusUnauthorized)
		return
	}

	h.TokenBlacklist.Revoke(token)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully!"})
}
