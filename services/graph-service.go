package services

import (
	"context"
	"fmt"

	"task-management-service/logging"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphService owns the directed task dependency graph. Task documents live
// in MongoDB; each task is mirrored as a (:Task {id}) node here and an edge
// (dependent)-[:DEPENDS_ON]->(dependency) records that the dependent cannot
// be closed before the dependency completes.
type GraphService struct {
	Driver neo4j.DriverWithContext
}

func NewGraphService(driver neo4j.DriverWithContext) *GraphService {
	return &GraphService{Driver: driver}
}

// EnsureTaskNode mirrors a task into the graph. Safe to call repeatedly.
func (s *GraphService) EnsureTaskNode(ctx context.Context, taskID string) error {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `MERGE (t:Task {id: $id})`, map[string]any{"id": taskID})
		return nil, err
	})
	return err
}

// AddDependency records that taskID depends on dependsOnID. A duplicate edge
// is a no-op; a self edge or an edge that would close a cycle is rejected.
func (s *GraphService) AddDependency(ctx context.Context, taskID, dependsOnID string) error {
	if taskID == dependsOnID {
		return fmt.Errorf("%w: task cannot depend on itself", ErrValidation)
	}

	exists, err := s.DependencyExists(ctx, taskID, dependsOnID)
	if err != nil {
		return fmt.Errorf("failed to check if dependency exists: %v", err)
	}
	if exists {
		return nil
	}

	hasCycle, err := s.CreatesCycle(ctx, taskID, dependsOnID)
	if err != nil {
		return fmt.Errorf("failed to check cycle: %v", err)
	}
	if hasCycle {
		return fmt.Errorf("%w: dependency would create a cycle", ErrValidation)
	}

	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MERGE (t:Task {id: $taskId})
			MERGE (d:Task {id: $dependsOnId})
			MERGE (t)-[:DEPENDS_ON]->(d)
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"taskId":      taskID,
			"dependsOnId": dependsOnID,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to create dependency relation: %v", err)
	}

	logging.Logger.Infof("Event ID: DEPENDENCY_ADDED, Description: Task %s now depends on %s", taskID, dependsOnID)
	return nil
}

// RemoveDependency deletes the edge if present.
func (s *GraphService) RemoveDependency(ctx context.Context, taskID, dependsOnID string) error {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (t:Task {id: $taskId})-[r:DEPENDS_ON]->(d:Task {id: $dependsOnId})
			DELETE r
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"taskId":      taskID,
			"dependsOnId": dependsOnID,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to remove dependency relation: %v", err)
	}
	return nil
}

// CreatesCycle reports whether adding taskID -> dependsOnID would close a
// cycle, i.e. whether dependsOnID already reaches taskID through the graph.
func (s *GraphService) CreatesCycle(ctx context.Context, taskID, dependsOnID string) (bool, error) {
	if taskID == dependsOnID {
		return true, nil
	}
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (d:Task {id: $dependsOnId}), (t:Task {id: $taskId})
			RETURN EXISTS((d)-[:DEPENDS_ON*1..]->(t)) AS hasCycle
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"taskId":      taskID,
			"dependsOnId": dependsOnID,
		})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			val, ok := res.Record().Values[0].(bool)
			if !ok {
				return false, fmt.Errorf("unexpected result type")
			}
			return val, nil
		}
		return false, nil
	})
	if err != nil {
		return false, fmt.Errorf("cycle detection failed: %v", err)
	}

	return result.(bool), nil
}

// DependencyExists reports whether the exact edge is already present.
func (s *GraphService) DependencyExists(ctx context.Context, taskID, dependsOnID string) (bool, error) {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (t:Task {id: $taskId})-[r:DEPENDS_ON]->(d:Task {id: $dependsOnId})
			RETURN COUNT(r) > 0 AS exists
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"taskId":      taskID,
			"dependsOnId": dependsOnID,
		})
		if err != nil {
			return false, err
		}
		if res.Next(ctx) {
			return res.Record().Values[0].(bool), nil
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// GetDependencyIDs returns the ids of tasks that taskID depends on.
func (s *GraphService) GetDependencyIDs(ctx context.Context, taskID string) ([]string, error) {
	return s.collectIDs(ctx, `
		MATCH (t:Task {id: $taskId})-[:DEPENDS_ON]->(d:Task)
		RETURN d.id AS id
	`, taskID)
}

// GetDependentIDs returns the ids of tasks that depend on taskID.
func (s *GraphService) GetDependentIDs(ctx context.Context, taskID string) ([]string, error) {
	return s.collectIDs(ctx, `
		MATCH (x:Task)-[:DEPENDS_ON]->(t:Task {id: $taskId})
		RETURN x.id AS id
	`, taskID)
}

func (s *GraphService) collectIDs(ctx context.Context, query, taskID string) ([]string, error) {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"taskId": taskID})
		if err != nil {
			return nil, err
		}

		var ids []string
		for res.Next(ctx) {
			id, _ := res.Record().Get("id")
			ids = append(ids, id.(string))
		}
		return ids, res.Err()
	})
	if err != nil {
		return nil, err
	}

	return result.([]string), nil
}

// DeleteTaskNode removes the task node together with all of its edges.
func (s *GraphService) DeleteTaskNode(ctx context.Context, taskID string) error {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `MATCH (t:Task {id: $id}) DETACH DELETE t`, map[string]any{"id": taskID})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to delete task node: %v", err)
	}
	return nil
}
