package store

import (
	"context"
	"errors"
	"testing"

	"ecss/internal/jobs"
)

func TestMemStoreCreateGetUpdateDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemStore()

	job := &jobs.Job{ID: "a", TaskDefinition: "t", Schedule: "0 0 0"}
	if err := s.Create(ctx, job); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := s.Create(ctx, job); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.TaskDefinition != "t" {
		t.Fatalf("got %+v", got)
	}

	job.TaskDefinition = "updated"
	if err := s.Update(ctx, job); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	got, _ = s.Get(ctx, "a")
	if got.TaskDefinition != "updated" {
		t.Fatalf("update did not persist: %+v", got)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemStoreUpdateMissingJob(t *testing.T) {
	t.Parallel()
	s := NewMemStore()
	err := s.Update(context.Background(), &jobs.Job{ID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStoreLoadAllReturnsIndependentCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemStore()
	if err := s.Create(ctx, &jobs.Job{ID: "a", TaskDefinition: "t"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	all, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d jobs, want 1", len(all))
	}
	all[0].TaskDefinition = "mutated"

	got, _ := s.Get(ctx, "a")
	if got.TaskDefinition != "t" {
		t.Fatalf("mutating a LoadAll result leaked into storage: %+v", got)
	}
}
