package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestGraphError_UnwrapsToInvalidGraph(t *testing.T) {
	ge := &GraphError{ProjectID: "p1", Cycle: []string{"a", "b", "a"}}
	wrapped := fmt.Errorf("analyze: %w", ge)

	if !errors.Is(wrapped, ErrInvalidGraph) {
		t.Fatal("expected wrapped GraphError to match ErrInvalidGraph")
	}
	var target *GraphError
	if !errors.As(wrapped, &target) || len(target.Cycle) != 3 {
		t.Fatalf("expected to recover cycle, got %+v", target)
	}
	if got := ge.Error(); got != "project p1: dependency cycle detected: a -> b -> a" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrProjectNotFound, http.StatusNotFound},
		{"expired token", ErrTokenExpired, http.StatusUnauthorized},
		{"not member", ErrNotProjectMember, http.StatusForbidden},
		{"snapshot", fmt.Errorf("x: %w", ErrInvalidSnapshot), http.StatusBadRequest},
		{"range too long", fmt.Errorf("workload: %w", ErrRangeTooLong), http.StatusBadRequest},
		{"cycle", fmt.Errorf("cpm: %w", &GraphError{Cycle: []string{"a", "b", "a"}}), http.StatusUnprocessableEntity},
		{"self dep", &GraphError{Cycle: []string{"a", "a"}}, http.StatusUnprocessableEntity},
		{"app error", BadRequest("nope"), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInvalidGraph_CarriesCycleDetails(t *testing.T) {
	appErr := InvalidGraph(&GraphError{Cycle: []string{"x", "y", "x"}})
	if appErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", appErr.StatusCode)
	}
	if !errors.Is(appErr, ErrInvalidGraph) {
		t.Error("expected AppError to unwrap to ErrInvalidGraph")
	}
	if _, ok := appErr.Details["cycle"]; !ok {
		t.Error("expected cycle in details")
	}
}
