package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// ValidStatus reports whether s is one of the four known statuses.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Open reports whether the status still counts as unfinished work. The
// dependent gate on status transitions keys off this.
func (s TaskStatus) Open() bool {
	return s == StatusPending || s == StatusInProgress
}

type Task struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Status      TaskStatus           `bson:"status" json:"status"`
	OwnerID     primitive.ObjectID   `bson:"ownerId" json:"ownerId"`
	AssigneeIDs []primitive.ObjectID `bson:"assigneeIds" json:"assigneeIds"`
	DueDate     *time.Time           `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
	DeletedAt   *time.Time           `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
}

// HasAssignee reports whether userID is attached to the task.
func (t *Task) HasAssignee(userID primitive.ObjectID) bool {
	for _, id := range t.AssigneeIDs {
		if id == userID {
			return true
		}
	}
	return false
}
