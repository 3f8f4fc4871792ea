package service

import (
	"errors"

	"github.com/opencourse/opencourse/backend/go-services/internal/enrollment"
	"github.com/opencourse/opencourse/backend/go-services/internal/enrollment/repository"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyEnrolled = errors.New("already enrolled")
	ErrInvalidProgress = errors.New("progress out of range")
)

// Service defines the enrollment business operations used by the handler layer.
type Service interface {
	Enroll(userID, courseID, title string) (string, error)
	Get(userID, courseID string) (*enrollment.Enrollment, error)
	ListByUser(userID string) ([]*enrollment.Enrollment, error)
	UpdateProgress(userID, courseID string, progress, completedLessons int) (*enrollment.Enrollment, error)
	Unenroll(userID, courseID string) error
}

type repo interface {
	Create(e *enrollment.Enrollment) (string, error)
	Get(userID, courseID string) (*enrollment.Enrollment, error)
	ListByUser(userID string) ([]*enrollment.Enrollment, error)
	UpdateProgress(userID, courseID string, progress, completedLessons int) error
	Delete(userID, courseID string) error
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return &svc{repo: repository.NewMemoryRepo()}
}

// NewMongoService returns a Service backed by a MongoDB collection.
// Caller is responsible for creating the collection (and client) and passing it in.
func NewMongoService(col *mongo.Collection) Service {
	return &svc{repo: repository.NewMongoRepo(col)}
}

type svc struct {
	repo repo
}

func (s *svc) Enroll(userID, courseID, title string) (string, error) {
	if existing, err := s.repo.Get(userID, courseID); err == nil && existing != nil {
		return "", ErrAlreadyEnrolled
	}
	e := &enrollment.Enrollment{UserID: userID, CourseID: courseID, Title: title}
	return s.repo.Create(e)
}

func (s *svc) Get(userID, courseID string) (*enrollment.Enrollment, error) {
	e, err := s.repo.Get(userID, courseID)
	if err != nil {
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *svc) ListByUser(userID string) ([]*enrollment.Enrollment, error) {
	return s.repo.ListByUser(userID)
}

// UpdateProgress clamps to the valid range and never moves either counter
// backward; replays of stale clients must not wipe out completed lessons.
func (s *svc) UpdateProgress(userID, courseID string, progress, completedLessons int) (*enrollment.Enrollment, error) {
	if progress < 0 || progress > 100 || completedLessons < 0 {
		return nil, ErrInvalidProgress
	}
	e, err := s.repo.Get(userID, courseID)
	if err != nil {
		return nil, ErrNotFound
	}
	if progress < e.Progress {
		progress = e.Progress
	}
	if completedLessons < e.CompletedLessons {
		completedLessons = e.CompletedLessons
	}
	if progress != e.Progress || completedLessons != e.CompletedLessons {
		if err := s.repo.UpdateProgress(userID, courseID, progress, completedLessons); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(userID, courseID)
}

func (s *svc) Unenroll(userID, courseID string) error {
	if err := s.repo.Delete(userID, courseID); err != nil {
		return ErrNotFound
	}
	return nil
}
