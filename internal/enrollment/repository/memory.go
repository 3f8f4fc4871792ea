package repository

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opencourse/opencourse/backend/go-services/internal/enrollment"
)

var (
	ErrNotFound = errors.New("enrollment not found")
)

// MemoryRepo is a simple in-memory repository used for unit tests and
// deployments without MongoDB.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*enrollment.Enrollment // key: userID + "/" + courseID
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*enrollment.Enrollment)}
}

func memKey(userID, courseID string) string { return userID + "/" + courseID }

func (m *MemoryRepo) Create(e *enrollment.Enrollment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.EnrolledAt = time.Now().UTC()
	e.UpdatedAt = e.EnrolledAt
	m.store[memKey(e.UserID, e.CourseID)] = e
	return e.ID, nil
}

func (m *MemoryRepo) Get(userID, courseID string) (*enrollment.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.store[memKey(userID, courseID)]; ok {
		return e, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ListByUser(userID string) ([]*enrollment.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*enrollment.Enrollment{}
	for _, e := range m.store {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryRepo) UpdateProgress(userID, courseID string, progress, completedLessons int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[memKey(userID, courseID)]
	if !ok {
		return ErrNotFound
	}
	e.Progress = progress
	e.CompletedLessons = completedLessons
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) Delete(userID, courseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[memKey(userID, courseID)]; !ok {
		return ErrNotFound
	}
	delete(m.store, memKey(userID, courseID))
	return nil
}
