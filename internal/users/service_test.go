package users

import (
	"context"
	"testing"
	"time"

	"github.com/opencourse/opencourse/backend/go-services/internal/models"
)

type fakeRepo struct {
	lastUpsert *models.User
	upsertErr  error
}

func (f *fakeRepo) upsert(u *models.User) (*models.User, error) {
	f.lastUpsert = u
	// simulate repository behavior: ensure timestamps are set
	now := time.Now().UTC()
	if f.lastUpsert.CreatedAt.IsZero() {
		f.lastUpsert.CreatedAt = now
	}
	f.lastUpsert.UpdatedAt = now
	// return a copy with an ID set
	ret := *f.lastUpsert
	ret.ID = "abcd1234"
	return &ret, f.upsertErr
}

func (f *fakeRepo) UpsertByPhone(ctx context.Context, u *models.User) (*models.User, error) {
	return f.upsert(u)
}

func (f *fakeRepo) UpsertByEmail(ctx context.Context, u *models.User) (*models.User, error) {
	return f.upsert(u)
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return nil, nil
}

func TestUpsertByPhone(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	u, err := svc.UpsertByPhone(context.Background(), "09120000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.Phone != "09120000000" {
		t.Fatalf("unexpected phone: %s", u.Phone)
	}
	if !u.PhoneVerified {
		t.Fatal("expected phone to be marked verified after OTP login")
	}
	if u.ID == "" {
		t.Fatalf("expected returned user to have an ID set by repo")
	}
	if repo.lastUpsert.CreatedAt.IsZero() || repo.lastUpsert.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set: created=%v updated=%v", repo.lastUpsert.CreatedAt, repo.lastUpsert.UpdatedAt)
	}
}

func TestUpsertFromClaims(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()
	claims := map[string]interface{}{
		"email":          "x@example.com",
		"name":           "X User",
		"email_verified": true,
	}

	u, err := svc.UpsertFromClaims(ctx, claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.Email != "x@example.com" {
		t.Fatalf("unexpected email: %s", u.Email)
	}
	if u.Name != "X User" {
		t.Fatalf("unexpected name: %s", u.Name)
	}
	if !u.EmailVerified {
		t.Fatal("expected emailVerified to carry over from claims")
	}

	// Missing email => returns nil
	u2, err := svc.UpsertFromClaims(ctx, map[string]interface{}{"name": "No Email"})
	if err != nil {
		t.Fatalf("unexpected error on missing email: %v", err)
	}
	if u2 != nil {
		t.Fatalf("expected nil when email missing, got: %v", u2)
	}
}
