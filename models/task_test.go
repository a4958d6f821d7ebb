package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidStatus(t *testing.T) {
	for _, s := range []TaskStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled} {
		if !ValidStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}

	for _, s := range []TaskStatus{"", "done", "Pending", "in progress"} {
		if ValidStatus(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestStatusOpen(t *testing.T) {
	if !StatusPending.Open() || !StatusInProgress.Open() {
		t.Error("pending and in_progress should count as open")
	}
	if StatusCompleted.Open() || StatusCancelled.Open() {
		t.Error("completed and cancelled should count as closed")
	}
}

func TestHasAssignee(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	task := Task{AssigneeIDs: []primitive.ObjectID{a}}

	if !task.HasAssignee(a) {
		t.Error("expected a to be an assignee")
	}
	if task.HasAssignee(b) {
		t.Error("did not expect b to be an assignee")
	}
}
