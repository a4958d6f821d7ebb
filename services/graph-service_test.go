package services

import (
	"context"
	"errors"
	"testing"
)

// The transitive reachability half of the cycle guard runs as a Cypher query
// against the graph store; the checks below cover the decisions made before
// any session is opened.

func TestAddDependencyRejectsSelfEdge(t *testing.T) {
	s := NewGraphService(nil)

	err := s.AddDependency(context.Background(), "abc", "abc")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("self edge: got %v, want validation error", err)
	}
}

func TestCreatesCycleSelf(t *testing.T) {
	s := NewGraphService(nil)

	hasCycle, err := s.CreatesCycle(context.Background(), "abc", "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasCycle {
		t.Error("a task depending on itself is a cycle")
	}
}
