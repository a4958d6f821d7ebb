package services

import (
	"errors"
	"testing"

	"task-management-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidateRoleChangeGuards(t *testing.T) {
	adminID := primitive.NewObjectID()
	otherAdminID := primitive.NewObjectID()
	targetID := primitive.NewObjectID()

	admin := models.Principal{ID: adminID, Role: models.RoleAdmin}
	manager := models.Principal{ID: primitive.NewObjectID(), Role: models.RoleManager}

	// Non-admin actors are rejected outright.
	err := validateRoleChange(manager, models.User{ID: targetID, Role: models.RoleUser}, models.RoleManager, true)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("manager changing roles: got %v, want forbidden", err)
	}

	// An admin may not change their own role.
	err = validateRoleChange(admin, models.User{ID: adminID, Role: models.RoleAdmin}, models.RoleUser, true)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("admin changing own role: got %v, want forbidden", err)
	}

	// An admin may not change another admin's role.
	err = validateRoleChange(admin, models.User{ID: otherAdminID, Role: models.RoleAdmin}, models.RoleUser, true)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("admin changing another admin: got %v, want forbidden", err)
	}

	// Unknown role names are a validation failure.
	err = validateRoleChange(admin, models.User{ID: targetID, Role: models.RoleUser}, "", false)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("unknown role: got %v, want validation error", err)
	}
}

func TestValidateRoleChangeAllowed(t *testing.T) {
	admin := models.Principal{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	target := models.User{ID: primitive.NewObjectID(), Role: models.RoleManager}

	// Manager to user and back are both legal single-role replacements.
	if err := validateRoleChange(admin, target, models.RoleUser, true); err != nil {
		t.Errorf("demoting manager: unexpected error %v", err)
	}

	target.Role = models.RoleUser
	if err := validateRoleChange(admin, target, models.RoleManager, true); err != nil {
		t.Errorf("promoting user: unexpected error %v", err)
	}
}
