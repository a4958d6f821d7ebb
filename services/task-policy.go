package services

import (
	"task-management-service/models"
)

// TaskPolicy is the per-action authorization gate. All decisions are pure
// functions of the principal and the already-loaded task.
type TaskPolicy struct{}

func (TaskPolicy) CanView(p models.Principal, task *models.Task) bool {
	return p.Role.IsPrivileged() || task.HasAssignee(p.ID)
}

func (TaskPolicy) CanCreate(p models.Principal) bool {
	return p.Role.IsPrivileged()
}

// CanUpdate allows privileged roles to change any field. An assignee may only
// submit a change set touching exactly the status field.
func (TaskPolicy) CanUpdate(p models.Principal, task *models.Task, changedFields []string) bool {
	if p.Role.IsPrivileged() {
		return true
	}

	if task.HasAssignee(p.ID) {
		return len(changedFields) == 1 && changedFields[0] == "status"
	}

	return false
}

func (TaskPolicy) CanDelete(p models.Principal, task *models.Task) bool {
	return p.ID == task.OwnerID || p.Role.IsPrivileged()
}

func (TaskPolicy) CanRestore(p models.Principal, task *models.Task) bool {
	return p.ID == task.OwnerID || p.Role.IsPrivileged()
}

func (TaskPolicy) CanForceDelete(p models.Principal, task *models.Task) bool {
	return p.ID == task.OwnerID || p.Role.IsPrivileged()
}
