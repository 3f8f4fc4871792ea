package otp

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Verification failures callers are expected to branch on.
var (
	ErrNotFound     = errors.New("otp not found or expired")
	ErrCodeMismatch = errors.New("otp code mismatch")
	ErrMaxAttempts  = errors.New("otp max attempts exceeded")
)

// record is the persisted form of an issued code. Only the bcrypt hash is
// stored; the plain code leaves the process via the delivery channel only.
type record struct {
	CodeHash  string    `json:"codeHash"`
	Phone     string    `json:"phone"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store issues and verifies one-time passcodes backed by Redis.
// Codes are stored as JSON under key: "otp:<phone>" with TTL = configured OTP TTL.
type Store struct {
	client      *redis.Client
	prefix      string
	length      int
	ttl         time.Duration
	maxAttempts int
}

// NewStore creates a Redis-backed OTP store. Prefix may be empty.
func NewStore(client *redis.Client, prefix string, length int, ttl time.Duration, maxAttempts int) *Store {
	if prefix == "" {
		prefix = "otp:"
	}
	return &Store{client: client, prefix: prefix, length: length, ttl: ttl, maxAttempts: maxAttempts}
}

func (s *Store) key(phone string) string {
	return s.prefix + phone
}

// Issue generates a fresh code for the phone number, replacing any previous
// one, and returns the plain code for delivery.
func (s *Store) Issue(ctx context.Context, phone string) (string, error) {
	code, err := randomCode(s.length)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	rec := record{
		CodeHash:  string(hash),
		Phone:     phone,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.key(phone), b, s.ttl).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks the submitted code. A correct code consumes the record; a
// wrong code burns an attempt, and the record is deleted once attempts run out.
func (s *Store) Verify(ctx context.Context, phone, code string) error {
	b, err := s.client.Get(ctx, s.key(phone)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrNotFound
		}
		return err
	}
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	if time.Now().UTC().After(rec.ExpiresAt) {
		_ = s.client.Del(ctx, s.key(phone)).Err()
		return ErrNotFound
	}
	if rec.Attempts >= s.maxAttempts {
		_ = s.client.Del(ctx, s.key(phone)).Err()
		return ErrMaxAttempts
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		rec.Attempts++
		if updated, err := json.Marshal(rec); err == nil {
			_ = s.client.Set(ctx, s.key(phone), updated, time.Until(rec.ExpiresAt)).Err()
		}
		return ErrCodeMismatch
	}
	// consumed on success
	_ = s.client.Del(ctx, s.key(phone)).Err()
	return nil
}

func randomCode(length int) (string, error) {
	code := ""
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code += n.String()
	}
	return code, nil
}
