package users

import (
	"context"

	"github.com/opencourse/opencourse/backend/go-services/internal/models"
)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// UpsertByPhone creates or updates the account for a phone number that just
// passed OTP verification. First login auto-provisions the account.
func (s *Service) UpsertByPhone(ctx context.Context, phone string) (*models.User, error) {
	u := &models.User{
		Phone:         phone,
		PhoneVerified: true,
	}
	return s.repo.UpsertByPhone(ctx, u)
}

// UpsertFromClaims creates or updates a user from verified social-login
// claims. Returns nil when the claims carry no usable email.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if email == "" {
		return nil, nil
	}
	verified, _ := claims["email_verified"].(bool)
	u := &models.User{
		Email:         email,
		Name:          name,
		EmailVerified: verified,
	}
	return s.repo.UpsertByEmail(ctx, u)
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}
