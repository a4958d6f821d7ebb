package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"task-management-service/middleware"
	"task-management-service/models"
	"task-management-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
	}
	return p, ok
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// GetTasks lists tasks inside the caller's visibility scope, with the
// optional filters applied conjunctively.
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := services.TaskFilter{
		Status: models.TaskStatus(q.Get("status")),
		Title:  q.Get("title"),
	}

	if s := q.Get("owner_id"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			http.Error(w, "Invalid owner ID format", http.StatusUnprocessableEntity)
			return
		}
		filter.OwnerID = &id
	}

	if s := q.Get("assignee_id"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			http.Error(w, "Invalid assignee ID format", http.StatusUnprocessableEntity)
			return
		}
		filter.AssigneeID = &id
	}

	var err error
	if filter.DueFrom, err = parseDate(q.Get("due_date_from")); err != nil {
		http.Error(w, "Invalid due_date_from format", http.StatusUnprocessableEntity)
		return
	}
	if filter.DueTo, err = parseDate(q.Get("due_date_to")); err != nil {
		http.Error(w, "Invalid due_date_to format", http.StatusUnprocessableEntity)
		return
	}

	filter.Page, _ = strconv.ParseInt(q.Get("page"), 10, 64)
	filter.PerPage, _ = strconv.ParseInt(q.Get("per_page"), 10, 64)

	tasks, err := h.service.ListTasks(r.Context(), p, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": tasks})
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	task, err := h.service.GetTask(r.Context(), p, taskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": task})
}

// CreateTask creates a new pending task with its assignee set. Any status in
// the payload is ignored.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var request struct {
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		DueDate      string   `json:"due_date"`
		AssigneesIDs []string `json:"assignees_ids"`
		DependsOnIDs []string `json:"depends_on_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	dueDate, err := parseDate(request.DueDate)
	if err != nil {
		http.Error(w, "Invalid due_date format", http.StatusUnprocessableEntity)
		return
	}

	input := services.CreateTaskInput{
		Title:       request.Title,
		Description: request.Description,
		DueDate:     dueDate,
	}

	for _, s := range request.AssigneesIDs {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			http.Error(w, "Invalid assignee ID format", http.StatusUnprocessableEntity)
			return
		}
		input.AssigneeIDs = append(input.AssigneeIDs, id)
	}
	for _, s := range request.DependsOnIDs {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			http.Error(w, "Invalid dependency ID format", http.StatusUnprocessableEntity)
			return
		}
		input.DependsOnIDs = append(input.DependsOnIDs, id)
	}

	task, err := h.service.CreateTask(r.Context(), p, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"data": task})
}

func (h *TaskHandler) ChangeTaskStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	var request struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := h.service.ChangeTaskStatus(r.Context(), p, taskID, request.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": task})
}

func (h *TaskHandler) AddDependency(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	var request struct {
		DependsOnTaskID string `json:"depends_on_task_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	dependsOnID, err := primitive.ObjectIDFromHex(request.DependsOnTaskID)
	if err != nil {
		http.Error(w, "Invalid dependency ID format", http.StatusUnprocessableEntity)
		return
	}

	task, err := h.service.AddDependency(r.Context(), p, taskID, dependsOnID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": task})
}

func (h *TaskHandler) RemoveDependency(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	taskID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}
	dependsOnID, err := primitive.ObjectIDFromHex(vars["dependsOnId"])
	if err != nil {
		http.Error(w, "Invalid dependency ID format", http.StatusBadRequest)
		return
	}

	task, err := h.service.RemoveDependency(r.Context(), p, taskID, dependsOnID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": task})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteTask(r.Context(), p, taskID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

func (h *TaskHandler) RestoreTask(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	task, err := h.service.RestoreTask(r.Context(), p, taskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": task})
}

func (h *TaskHandler) ForceDeleteTask(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	if err := h.service.ForceDeleteTask(r.Context(), p, taskID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Task permanently deleted"})
}
