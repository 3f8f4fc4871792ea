package repository

import (
	"testing"

	"github.com/opencourse/opencourse/backend/go-services/internal/enrollment"
)

func TestMemoryRepo_CreateGetDelete(t *testing.T) {
	repo := NewMemoryRepo()

	id, err := repo.Create(&enrollment.Enrollment{UserID: "u1", CourseID: "go-101", Title: "Go Basics"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	e, err := repo.Get("u1", "go-101")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if e.Title != "Go Basics" || e.EnrolledAt.IsZero() {
		t.Fatalf("unexpected enrollment: %+v", e)
	}

	if err := repo.Delete("u1", "go-101"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get("u1", "go-101"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryRepo_ListByUser(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Create(&enrollment.Enrollment{UserID: "u1", CourseID: "a"})
	repo.Create(&enrollment.Enrollment{UserID: "u1", CourseID: "b"})
	repo.Create(&enrollment.Enrollment{UserID: "u2", CourseID: "a"})

	list, err := repo.ListByUser("u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 enrollments for u1, got %d", len(list))
	}
}

func TestMemoryRepo_UpdateProgress(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Create(&enrollment.Enrollment{UserID: "u1", CourseID: "a"})

	if err := repo.UpdateProgress("u1", "a", 55, 3); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	e, _ := repo.Get("u1", "a")
	if e.Progress != 55 {
		t.Fatalf("expected progress 55, got %d", e.Progress)
	}
	if e.CompletedLessons != 3 {
		t.Fatalf("expected 3 completed lessons, got %d", e.CompletedLessons)
	}

	if err := repo.UpdateProgress("u1", "missing", 10, 0); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
