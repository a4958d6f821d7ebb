package models

import "time"

// UserResource is the user summary exposed by the API.
type UserResource struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func NewUserResource(u User) UserResource {
	return UserResource{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// TaskLink is the short rendering of a related task in the dependency lists.
type TaskLink struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Link  string `json:"link"`
}

// TaskResource is the full task representation returned to callers.
type TaskResource struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      TaskStatus     `json:"status"`
	OwnerName   string         `json:"owner_name"`
	OwnerID     string         `json:"owner_id"`
	Assignees   []UserResource `json:"assignees"`
	DependsOn   []TaskLink     `json:"depends_on"`
	Dependents  []TaskLink     `json:"dependents"`
	DueDate     *time.Time     `json:"due_date"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	IsOwner     bool           `json:"is_owner"`
}
