package oidc

import (
	"context"
	"fmt"
	"sync"

	"github.com/opencourse/opencourse/backend/go-services/pkg/middleware"
)

// Registry maps social-login provider ids ("google", ...) to their verifiers
// so handlers never hardcode which identity providers exist.
type Registry struct {
	mu        sync.RWMutex
	verifiers map[string]middleware.Verifier
}

func NewRegistry() *Registry {
	return &Registry{verifiers: map[string]middleware.Verifier{}}
}

// Register adds or replaces the verifier for a provider id.
func (r *Registry) Register(providerID string, v middleware.Verifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verifiers[providerID] = v
}

// Providers lists the registered provider ids.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.verifiers))
	for id := range r.verifiers {
		out = append(out, id)
	}
	return out
}

// VerifyGrant verifies a raw provider grant (id token) and returns its claims.
func (r *Registry) VerifyGrant(ctx context.Context, providerID, raw string) (map[string]interface{}, error) {
	r.mu.RLock()
	v, ok := r.verifiers[providerID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", providerID)
	}
	tok, err := v.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return nil, err
	}
	return claims, nil
}
