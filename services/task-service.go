package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"task-management-service/logging"
	"task-management-service/models"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultPerPage = 10

type TaskService struct {
	TasksCollection *mongo.Collection
	UserCollection  *mongo.Collection
	Graph           *GraphService
	GraphBreaker    *gobreaker.CircuitBreaker
	Policy          TaskPolicy
	BaseURL         string
}

func NewTaskService(tasksCollection, userCollection *mongo.Collection, graph *GraphService, graphBreaker *gobreaker.CircuitBreaker, baseURL string) *TaskService {
	return &TaskService{
		TasksCollection: tasksCollection,
		UserCollection:  userCollection,
		Graph:           graph,
		GraphBreaker:    graphBreaker,
		BaseURL:         baseURL,
	}
}

// TaskFilter carries the optional list predicates. All of them compose
// conjunctively, after visibility narrowing.
type TaskFilter struct {
	Status     models.TaskStatus
	Title      string
	OwnerID    *primitive.ObjectID
	AssigneeID *primitive.ObjectID
	DueFrom    *time.Time
	DueTo      *time.Time
	Page       int64
	PerPage    int64
}

// CreateTaskInput is the payload for task creation. Any submitted status is
// ignored; new tasks always start pending.
type CreateTaskInput struct {
	Title        string
	Description  string
	DueDate      *time.Time
	AssigneeIDs  []primitive.ObjectID
	DependsOnIDs []primitive.ObjectID
}

func notDeleted() bson.M {
	return bson.M{"deletedAt": bson.M{"$exists": false}}
}

// buildListFilter narrows the queryable set to the principal's visibility
// scope and then layers the caller's predicates on top. A plain user only
// ever sees tasks they are assigned to.
func buildListFilter(p models.Principal, f TaskFilter) bson.M {
	filter := notDeleted()

	var assigneeMembers []primitive.ObjectID
	if p.Role == models.RoleUser {
		assigneeMembers = append(assigneeMembers, p.ID)
	}
	if f.AssigneeID != nil {
		assigneeMembers = append(assigneeMembers, *f.AssigneeID)
	}
	switch len(assigneeMembers) {
	case 1:
		filter["assigneeIds"] = assigneeMembers[0]
	case 2:
		filter["assigneeIds"] = bson.M{"$all": assigneeMembers}
	}

	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Title != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Title), Options: "i"}
	}
	if f.OwnerID != nil {
		filter["ownerId"] = *f.OwnerID
	}

	dueRange := bson.M{}
	if f.DueFrom != nil {
		dueRange["$gte"] = *f.DueFrom
	}
	if f.DueTo != nil {
		dueRange["$lte"] = *f.DueTo
	}
	if len(dueRange) > 0 {
		filter["dueDate"] = dueRange
	}

	return filter
}

// visibilityFilter is the narrowing applied to single-item lookups. A miss
// and an out-of-scope task are indistinguishable to the caller.
func visibilityFilter(p models.Principal, taskID primitive.ObjectID) bson.M {
	filter := notDeleted()
	filter["_id"] = taskID
	if p.Role == models.RoleUser {
		filter["assigneeIds"] = p.ID
	}
	return filter
}

// hasUnclosedDependents reports whether any of the given dependent tasks is
// still open. Dependents are the tasks that depend on the task being
// transitioned, not the tasks it depends on itself.
func hasUnclosedDependents(dependents []models.Task) bool {
	for _, dep := range dependents {
		if dep.Status.Open() {
			return true
		}
	}
	return false
}

// dedupeIDs collapses duplicate ids while preserving first-seen order.
func dedupeIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ListTasks returns the visibility-scoped, filtered, paginated task list.
func (s *TaskService) ListTasks(ctx context.Context, p models.Principal, f TaskFilter) ([]models.TaskResource, error) {
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetSkip((page - 1) * perPage).
		SetLimit(perPage)

	cursor, err := s.TasksCollection.Find(ctx, buildListFilter(p, f), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}

	return s.buildTaskResources(ctx, p, tasks)
}

// GetTask returns a single task after the same visibility narrowing as the
// list. Out-of-scope ids surface as not found.
func (s *TaskService) GetTask(ctx context.Context, p models.Principal, taskID primitive.ObjectID) (*models.TaskResource, error) {
	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, visibilityFilter(p, taskID)).Decode(&task); err != nil {
		return nil, fmt.Errorf("%w: task not found", ErrNotFound)
	}

	resources, err := s.buildTaskResources(ctx, p, []models.Task{task})
	if err != nil {
		return nil, err
	}
	return &resources[0], nil
}

// CreateTask creates a task owned by the principal with its assignee set.
// Every assignee id is resolved before anything is written, so an unknown id
// fails the whole request without leaving a partial attach behind.
func (s *TaskService) CreateTask(ctx context.Context, p models.Principal, input CreateTaskInput) (*models.TaskResource, error) {
	if !s.Policy.CanCreate(p) {
		return nil, fmt.Errorf("%w: only managers may create tasks", ErrForbidden)
	}
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	assigneeIDs := dedupeIDs(input.AssigneeIDs)
	for _, id := range assigneeIDs {
		var assignee models.User
		if err := s.UserCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&assignee); err != nil {
			return nil, fmt.Errorf("%w: assignee id not found", ErrNotFound)
		}
	}

	dependsOnIDs := dedupeIDs(input.DependsOnIDs)
	for _, id := range dependsOnIDs {
		filter := notDeleted()
		filter["_id"] = id
		var dep models.Task
		if err := s.TasksCollection.FindOne(ctx, filter).Decode(&dep); err != nil {
			return nil, fmt.Errorf("%w: dependency task not found", ErrNotFound)
		}
	}

	now := time.Now()
	task := models.Task{
		ID:          primitive.NewObjectID(),
		Title:       input.Title,
		Description: input.Description,
		Status:      models.StatusPending,
		OwnerID:     p.ID,
		AssigneeIDs: assigneeIDs,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.TasksCollection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	if err := s.execGraph(func() error { return s.Graph.EnsureTaskNode(ctx, task.ID.Hex()) }); err != nil {
		return nil, fmt.Errorf("failed to mirror task into graph: %v", err)
	}
	for _, depID := range dependsOnIDs {
		if err := s.execGraph(func() error { return s.Graph.AddDependency(ctx, task.ID.Hex(), depID.Hex()) }); err != nil {
			return nil, err
		}
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s with %d assignees", task.ID.Hex(), p.ID.Hex(), len(assigneeIDs))

	resources, err := s.buildTaskResources(ctx, p, []models.Task{task})
	if err != nil {
		return nil, err
	}
	return &resources[0], nil
}

// ChangeTaskStatus applies a status transition. There is no fixed transition
// graph between the four states; the guards are the update policy, the
// manager-only cancellation rule, and the dependent gate for plain users.
func (s *TaskService) ChangeTaskStatus(ctx context.Context, p models.Principal, taskID primitive.ObjectID, newStatus models.TaskStatus) (*models.TaskResource, error) {
	filter := notDeleted()
	filter["_id"] = taskID

	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, filter).Decode(&task); err != nil {
		return nil, fmt.Errorf("%w: task not found", ErrNotFound)
	}

	if !models.ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: invalid status", ErrValidation)
	}

	if !s.Policy.CanUpdate(p, &task, []string{"status"}) {
		return nil, fmt.Errorf("%w: you are not allowed to update this task", ErrForbidden)
	}

	if newStatus == models.StatusCancelled && !p.Role.IsPrivileged() {
		return nil, fmt.Errorf("%w: only managers may cancel tasks", ErrForbidden)
	}

	if p.Role == models.RoleUser {
		dependents, err := s.loadDependents(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		if hasUnclosedDependents(dependents) {
			return nil, fmt.Errorf("%w: action cannot be taken, please check for unclosed dependent tasks", ErrValidation)
		}
	}

	update := bson.M{"$set": bson.M{"status": newStatus, "updatedAt": time.Now()}}
	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update); err != nil {
		return nil, fmt.Errorf("failed to update task status: %v", err)
	}

	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, fmt.Errorf("failed to retrieve updated task: %v", err)
	}

	logging.Logger.Infof("Event ID: TASK_STATUS_CHANGED, Description: Task %s moved to %s by %s", taskID.Hex(), newStatus, p.ID.Hex())

	resources, err := s.buildTaskResources(ctx, p, []models.Task{task})
	if err != nil {
		return nil, err
	}
	return &resources[0], nil
}

// AddDependency declares that taskID depends on dependsOnID. Duplicate edges
// are no-ops; self edges and cycles are rejected.
func (s *TaskService) AddDependency(ctx context.Context, p models.Principal, taskID, dependsOnID primitive.ObjectID) (*models.TaskResource, error) {
	if !p.Role.IsPrivileged() {
		return nil, fmt.Errorf("%w: only managers may declare dependencies", ErrForbidden)
	}

	for _, id := range []primitive.ObjectID{taskID, dependsOnID} {
		filter := notDeleted()
		filter["_id"] = id
		var task models.Task
		if err := s.TasksCollection.FindOne(ctx, filter).Decode(&task); err != nil {
			return nil, fmt.Errorf("%w: task not found", ErrNotFound)
		}
	}

	if err := s.execGraph(func() error { return s.Graph.AddDependency(ctx, taskID.Hex(), dependsOnID.Hex()) }); err != nil {
		return nil, err
	}

	return s.GetTask(ctx, p, taskID)
}

// RemoveDependency drops the edge if it exists.
func (s *TaskService) RemoveDependency(ctx context.Context, p models.Principal, taskID, dependsOnID primitive.ObjectID) (*models.TaskResource, error) {
	if !p.Role.IsPrivileged() {
		return nil, fmt.Errorf("%w: only managers may remove dependencies", ErrForbidden)
	}

	filter := notDeleted()
	filter["_id"] = taskID
	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, filter).Decode(&task); err != nil {
		return nil, fmt.Errorf("%w: task not found", ErrNotFound)
	}

	if err := s.execGraph(func() error { return s.Graph.RemoveDependency(ctx, taskID.Hex(), dependsOnID.Hex()) }); err != nil {
		return nil, err
	}

	return s.GetTask(ctx, p, taskID)
}

// DeleteTask soft-deletes the task. Only the owner or a privileged role may
// delete; the graph keeps the node so a restore recovers the edges.
func (s *TaskService) DeleteTask(ctx context.Context, p models.Principal, taskID primitive.ObjectID) error {
	filter := notDeleted()
	filter["_id"] = taskID

	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, filter).Decode(&task); err != nil {
		return fmt.Errorf("%w: task not found", ErrNotFound)
	}

	if !s.Policy.CanDelete(p, &task) {
		return fmt.Errorf("%w: you are not allowed to delete this task", ErrForbidden)
	}

	update := bson.M{"$set": bson.M{"deletedAt": time.Now(), "updatedAt": time.Now()}}
	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update); err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s soft-deleted by %s", taskID.Hex(), p.ID.Hex())
	return nil
}

// RestoreTask brings a soft-deleted task back.
func (s *TaskService) RestoreTask(ctx context.Context, p models.Principal, taskID primitive.ObjectID) (*models.TaskResource, error) {
	filter := bson.M{"_id": taskID, "deletedAt": bson.M{"$exists": true}}

	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, filter).Decode(&task); err != nil {
		return nil, fmt.Errorf("%w: task not found", ErrNotFound)
	}

	if !s.Policy.CanRestore(p, &task) {
		return nil, fmt.Errorf("%w: you are not allowed to restore this task", ErrForbidden)
	}

	update := bson.M{
		"$unset": bson.M{"deletedAt": ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	}
	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update); err != nil {
		return nil, fmt.Errorf("failed to restore task: %v", err)
	}

	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, fmt.Errorf("failed to retrieve restored task: %v", err)
	}

	resources, err := s.buildTaskResources(ctx, p, []models.Task{task})
	if err != nil {
		return nil, err
	}
	return &resources[0], nil
}

// ForceDeleteTask permanently removes the task document and its graph node,
// which detaches every edge pointing at it.
func (s *TaskService) ForceDeleteTask(ctx context.Context, p models.Principal, taskID primitive.ObjectID) error {
	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return fmt.Errorf("%w: task not found", ErrNotFound)
	}

	if !s.Policy.CanForceDelete(p, &task) {
		return fmt.Errorf("%w: you are not allowed to delete this task", ErrForbidden)
	}

	if _, err := s.TasksCollection.DeleteOne(ctx, bson.M{"_id": taskID}); err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}

	if err := s.execGraph(func() error { return s.Graph.DeleteTaskNode(ctx, taskID.Hex()) }); err != nil {
		return err
	}

	logging.Logger.Infof("Event ID: TASK_FORCE_DELETED, Description: Task %s permanently removed by %s", taskID.Hex(), p.ID.Hex())
	return nil
}

// loadDependents resolves the dependent edge set from the graph and loads the
// current status of each dependent from the task store. Soft-deleted
// dependents no longer block anything.
func (s *TaskService) loadDependents(ctx context.Context, taskID primitive.ObjectID) ([]models.Task, error) {
	ids, err := s.dependentIDs(ctx, taskID.Hex())
	if err != nil {
		return nil, err
	}
	return s.loadTasksByHexIDs(ctx, ids)
}

func (s *TaskService) dependentIDs(ctx context.Context, taskID string) ([]string, error) {
	var ids []string
	err := s.execGraph(func() error {
		var err error
		ids, err = s.Graph.GetDependentIDs(ctx, taskID)
		return err
	})
	return ids, err
}

func (s *TaskService) dependencyIDs(ctx context.Context, taskID string) ([]string, error) {
	var ids []string
	err := s.execGraph(func() error {
		var err error
		ids, err = s.Graph.GetDependencyIDs(ctx, taskID)
		return err
	})
	return ids, err
}

func (s *TaskService) loadTasksByHexIDs(ctx context.Context, hexIDs []string) ([]models.Task, error) {
	if len(hexIDs) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, hex := range hexIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	filter := notDeleted()
	filter["_id"] = bson.M{"$in": ids}

	cursor, err := s.TasksCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load related tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode related tasks: %v", err)
	}
	return tasks, nil
}

// execGraph routes a graph-store call through the circuit breaker.
func (s *TaskService) execGraph(fn func() error) error {
	if s.GraphBreaker == nil {
		return fn()
	}
	_, err := s.GraphBreaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (s *TaskService) taskLink(hexID string) string {
	return fmt.Sprintf("%s/api/tasks/%s", s.BaseURL, hexID)
}

// buildTaskResources assembles the API representation: owner and assignee
// summaries from the user store, dependency and dependent links from the
// graph, and is_owner relative to the requesting principal.
func (s *TaskService) buildTaskResources(ctx context.Context, p models.Principal, tasks []models.Task) ([]models.TaskResource, error) {
	userIDs := make([]primitive.ObjectID, 0, len(tasks))
	for _, task := range tasks {
		userIDs = append(userIDs, task.OwnerID)
		userIDs = append(userIDs, task.AssigneeIDs...)
	}
	users, err := s.loadUsers(ctx, dedupeIDs(userIDs))
	if err != nil {
		return nil, err
	}

	resources := make([]models.TaskResource, 0, len(tasks))
	for _, task := range tasks {
		depIDs, err := s.dependencyIDs(ctx, task.ID.Hex())
		if err != nil {
			return nil, err
		}
		dependentIDs, err := s.dependentIDs(ctx, task.ID.Hex())
		if err != nil {
			return nil, err
		}

		depLinks, err := s.buildTaskLinks(ctx, depIDs)
		if err != nil {
			return nil, err
		}
		dependentLinks, err := s.buildTaskLinks(ctx, dependentIDs)
		if err != nil {
			return nil, err
		}

		assignees := make([]models.UserResource, 0, len(task.AssigneeIDs))
		for _, id := range task.AssigneeIDs {
			if u, ok := users[id]; ok {
				assignees = append(assignees, models.NewUserResource(u))
			}
		}

		ownerName := ""
		if owner, ok := users[task.OwnerID]; ok {
			ownerName = owner.Name
		}

		resources = append(resources, models.TaskResource{
			ID:          task.ID.Hex(),
			Title:       task.Title,
			Description: task.Description,
			Status:      task.Status,
			OwnerName:   ownerName,
			OwnerID:     task.OwnerID.Hex(),
			Assignees:   assignees,
			DependsOn:   depLinks,
			Dependents:  dependentLinks,
			DueDate:     task.DueDate,
			CreatedAt:   task.CreatedAt,
			UpdatedAt:   task.UpdatedAt,
			IsOwner:     task.OwnerID == p.ID,
		})
	}

	return resources, nil
}

func (s *TaskService) buildTaskLinks(ctx context.Context, hexIDs []string) ([]models.TaskLink, error) {
	related, err := s.loadTasksByHexIDs(ctx, hexIDs)
	if err != nil {
		return nil, err
	}

	links := make([]models.TaskLink, 0, len(related))
	for _, t := range related {
		links = append(links, models.TaskLink{
			ID:    t.ID.Hex(),
			Title: t.Title,
			Link:  s.taskLink(t.ID.Hex()),
		})
	}
	return links, nil
}

func (s *TaskService) loadUsers(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	users := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	cursor, err := s.UserCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %v", err)
	}
	defer cursor.Close(ctx)

	var list []models.User
	if err := cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}
	for _, u := range list {
		users[u.ID] = u
	}
	return users, nil
}
