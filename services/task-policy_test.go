package services

import (
	"testing"

	"task-management-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPolicyView(t *testing.T) {
	var policy TaskPolicy
	assignee := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	task := &models.Task{AssigneeIDs: []primitive.ObjectID{assignee}}

	if !policy.CanView(models.Principal{ID: stranger, Role: models.RoleAdmin}, task) {
		t.Error("admin should view any task")
	}
	if !policy.CanView(models.Principal{ID: stranger, Role: models.RoleManager}, task) {
		t.Error("manager should view any task")
	}
	if !policy.CanView(models.Principal{ID: assignee, Role: models.RoleUser}, task) {
		t.Error("assignee should view their task")
	}
	if policy.CanView(models.Principal{ID: stranger, Role: models.RoleUser}, task) {
		t.Error("non-assignee user should not view the task")
	}
}

func TestPolicyCreate(t *testing.T) {
	var policy TaskPolicy

	if policy.CanCreate(models.Principal{Role: models.RoleUser}) {
		t.Error("user should not create tasks")
	}
	if !policy.CanCreate(models.Principal{Role: models.RoleManager}) {
		t.Error("manager should create tasks")
	}
	if !policy.CanCreate(models.Principal{Role: models.RoleAdmin}) {
		t.Error("admin should create tasks")
	}
}

func TestPolicyUpdate(t *testing.T) {
	var policy TaskPolicy
	assignee := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	task := &models.Task{AssigneeIDs: []primitive.ObjectID{assignee}}

	manager := models.Principal{ID: stranger, Role: models.RoleManager}
	if !policy.CanUpdate(manager, task, []string{"title", "status"}) {
		t.Error("manager should update any field")
	}

	user := models.Principal{ID: assignee, Role: models.RoleUser}
	if !policy.CanUpdate(user, task, []string{"status"}) {
		t.Error("assignee should update status only")
	}
	if policy.CanUpdate(user, task, []string{"title"}) {
		t.Error("assignee should not update other fields")
	}
	if policy.CanUpdate(user, task, []string{"status", "title"}) {
		t.Error("assignee change set must touch exactly the status field")
	}

	outsider := models.Principal{ID: stranger, Role: models.RoleUser}
	if policy.CanUpdate(outsider, task, []string{"status"}) {
		t.Error("non-assignee user should not update at all")
	}
}

func TestPolicyDeleteRestoreForce(t *testing.T) {
	var policy TaskPolicy
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	task := &models.Task{OwnerID: owner}

	ownerPrincipal := models.Principal{ID: owner, Role: models.RoleUser}
	strangerPrincipal := models.Principal{ID: stranger, Role: models.RoleUser}
	managerPrincipal := models.Principal{ID: stranger, Role: models.RoleManager}

	if !policy.CanDelete(ownerPrincipal, task) || !policy.CanRestore(ownerPrincipal, task) || !policy.CanForceDelete(ownerPrincipal, task) {
		t.Error("owner should delete, restore and force-delete their task")
	}
	if policy.CanDelete(strangerPrincipal, task) || policy.CanRestore(strangerPrincipal, task) || policy.CanForceDelete(strangerPrincipal, task) {
		t.Error("unrelated user should not delete, restore or force-delete")
	}
	if !policy.CanDelete(managerPrincipal, task) || !policy.CanRestore(managerPrincipal, task) || !policy.CanForceDelete(managerPrincipal, task) {
		t.Error("manager should delete, restore and force-delete any task")
	}
}
