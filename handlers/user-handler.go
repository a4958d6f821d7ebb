package handlers

import (
	"encoding/json"
	"net/http"

	"task-management-service/models"
	"task-management-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserHandler struct {
	UserService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{UserService: userService}
}

// GetLoggedInUser returns the caller's own profile.
func (h *UserHandler) GetLoggedInUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	user, err := h.UserService.GetUserByID(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": models.NewUserResource(user)})
}

// UpdateUser updates the caller's own name and/or password.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req struct {
		Name                 string `json:"name"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request data", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.UpdateProfile(r.Context(), p, req.Name, req.Password, req.PasswordConfirmation)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": models.NewUserResource(user)})
}

// ChangeUserRole reassigns a user's role. Route is admin-gated; the service
// applies the self/other-admin guards on top.
func (h *UserHandler) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req struct {
		UserID   string `json:"user_id"`
		RoleName string `json:"role_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request data", http.StatusBadRequest)
		return
	}

	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		http.Error(w, "Invalid user ID format", http.StatusUnprocessableEntity)
		return
	}

	user, err := h.UserService.ChangeUserRole(r.Context(), p, targetID, req.RoleName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": models.NewUserResource(user)})
}

func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.GetAllUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resources := make([]models.UserResource, 0, len(users))
	for _, u := range users {
		resources = append(resources, models.NewUserResource(u))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": resources})
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid user ID format", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": models.NewUserResource(user)})
}
