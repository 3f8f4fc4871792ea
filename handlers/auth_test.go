package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencourse/opencourse/backend/go-services/internal/config"
	"github.com/opencourse/opencourse/backend/go-services/internal/models"
	"github.com/opencourse/opencourse/backend/go-services/internal/oidc"
	"github.com/opencourse/opencourse/backend/go-services/internal/otp"
	"github.com/opencourse/opencourse/backend/go-services/internal/sessions"
	"github.com/opencourse/opencourse/backend/go-services/internal/tokens"
	"github.com/opencourse/opencourse/backend/go-services/internal/users"
	"github.com/opencourse/opencourse/backend/go-services/pkg/middleware"
)

type memUserRepo struct {
	mu      sync.Mutex
	byPhone map[string]*models.User
	byEmail map[string]*models.User
	byID    map[string]*models.User
	next    int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byPhone: map[string]*models.User{},
		byEmail: map[string]*models.User{},
		byID:    map[string]*models.User{},
	}
}

func (r *memUserRepo) UpsertByPhone(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byPhone[u.Phone]; ok {
		existing.PhoneVerified = true
		return existing, nil
	}
	r.next++
	u.ID = "user-" + strconv.Itoa(r.next)
	r.byPhone[u.Phone] = u
	r.byID[u.ID] = u
	return u, nil
}

func (r *memUserRepo) UpsertByEmail(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byEmail[u.Email]; ok {
		return existing, nil
	}
	r.next++
	u.ID = "user-" + strconv.Itoa(r.next)
	r.byEmail[u.Email] = u
	r.byID[u.ID] = u
	return u, nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
	}
}

type authFixture struct {
	router    *gin.Engine
	redis     *miniredis.Miniredis
	otp       *otp.Store
	users     *memUserRepo
	blacklist *sessions.Blacklist
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	blacklist := sessions.NewBlacklist(client)

	otpStore := otp.NewStore(client, "otp:", 5, 2*time.Minute, 5)
	repo := newMemUserRepo()
	usersSvc := users.NewService(repo)
	sessionsSvc := sessions.NewService(sessions.NewRedisRepository(client, "session:"))

	registry := oidc.NewRegistry()
	registry.Register("google", oidc.NewInsecureVerifier())

	cfg := testConfig()
	h := NewAuthHandler(cfg, usersSvc, sessionsSvc, otpStore, registry, blacklist)
	router := gin.New()
	h.Register(&router.RouterGroup)

	// authenticated routes, wired the way main.go wires them
	authed := router.Group("/")
	authed.Use(middleware.AuthMiddleware(tokens.NewHSVerifier(cfg.JWT.Secret), blacklist.Contains))
	NewProfileHandler(usersSvc, nil).Register(authed)

	return &authFixture{router: router, redis: mr, otp: otpStore, users: repo, blacklist: blacklist}
}

func (f *authFixture) post(t *testing.T, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// login runs send+verify for phone and returns the token pair.
func (f *authFixture) login(t *testing.T, phone string) (access, refresh string) {
	t.Helper()
	w := f.post(t, "/auth/users/send_otp/", gin.H{"phone": phone}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	code := f.issuedCode(t, phone)
	w = f.post(t, "/auth/users/verify_otp/", gin.H{"phone": phone, "code": code}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Access, resp.Refresh
}

// issuedCode reissues a code for phone and returns the plaintext. Only the
// bcrypt hash is persisted, so tests obtain a known code by replacing the
// record through the same store the handler uses.
func (f *authFixture) issuedCode(t *testing.T, phone string) string {
	t.Helper()
	code, err := f.otp.Issue(context.Background(), phone)
	require.NoError(t, err)
	return code
}

func TestSendOTPValidation(t *testing.T) {
	f := newAuthFixture(t)

	w := f.post(t, "/auth/users/send_otp/", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.post(t, "/auth/users/send_otp/", gin.H{"phone": "12345"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "detail")
}

func TestSendOTPNormalizesCountryCode(t *testing.T) {
	f := newAuthFixture(t)
	w := f.post(t, "/auth/users/send_otp/", gin.H{"phone": "+989120000000"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	// The code is stored under the canonical local form.
	require.True(t, f.redis.Exists("otp:09120000000"))
}

func TestVerifyOTPHappyPath(t *testing.T) {
	f := newAuthFixture(t)
	w := f.post(t, "/auth/users/send_otp/", gin.H{"phone": "09120000000"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	code := f.issuedCode(t, "09120000000")
	w = f.post(t, "/auth/users/verify_otp/", gin.H{"phone": "09120000000", "code": code}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Access    string      `json:"access"`
		Refresh   string      `json:"refresh"`
		ExpiresIn int         `json:"expires_in"`
		User      models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Access)
	assert.NotEmpty(t, resp.Refresh)
	assert.Equal(t, int((30 * time.Minute).Seconds()), resp.ExpiresIn)
	assert.Equal(t, "09120000000", resp.User.Phone)
	assert.True(t, resp.User.PhoneVerified)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	f := newAuthFixture(t)
	w := f.post(t, "/auth/users/send_otp/", gin.H{"phone": "09120000000"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.post(t, "/auth/users/verify_otp/", gin.H{"phone": "09120000000", "code": "00000"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "incorrect code")
}

func TestVerifyOTPWithoutRequest(t *testing.T) {
	f := newAuthFixture(t)
	w := f.post(t, "/auth/users/verify_otp/", gin.H{"phone": "09120000000", "code": "12345"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired or not requested")
}

func TestSocialAuthHappyPath(t *testing.T) {
	f := newAuthFixture(t)

	payload, _ := json.Marshal(map[string]interface{}{
		"email":          "sara@example.com",
		"email_verified": true,
		"name":           "Sara",
	})
	grant := "e30." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"

	w := f.post(t, "/auth/users/social-auth/", gin.H{"provider": "google", "id_token": grant}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Access string      `json:"access"`
		User   models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Access)
	assert.Equal(t, "sara@example.com", resp.User.Email)
}

func TestSocialAuthUnknownProvider(t *testing.T) {
	f := newAuthFixture(t)
	w := f.post(t, "/auth/users/social-auth/", gin.H{"provider": "myspace", "id_token": "x.y.z"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSocialAuthGrantWithoutEmail(t *testing.T) {
	f := newAuthFixture(t)
	payload, _ := json.Marshal(map[string]interface{}{"name": "No Email"})
	grant := "e30." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"

	w := f.post(t, "/auth/users/social-auth/", gin.H{"provider": "google", "id_token": grant}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "no email")
}

func TestRefreshHappyPath(t *testing.T) {
	f := newAuthFixture(t)
	_, refresh := f.login(t, "09120000000")

	w := f.post(t, "/auth/jwt/refresh/", gin.H{"refresh": refresh}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Access    string `json:"access"`
		ExpiresIn int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Access)
	assert.Equal(t, int((30 * time.Minute).Seconds()), resp.ExpiresIn)
	// The refresh token is not rotated; it keeps working.
	w = f.post(t, "/auth/jwt/refresh/", gin.H{"refresh": refresh}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefreshInvalidToken(t *testing.T) {
	f := newAuthFixture(t)
	w := f.post(t, "/auth/jwt/refresh/", gin.H{"refresh": "bogus"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid refresh token")
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	access, refresh := f.login(t, "09120000000")

	w := f.post(t, "/auth/users/logout/", gin.H{"refresh": refresh},
		map[string]string{"Authorization": "Bearer " + access})
	require.Equal(t, http.StatusOK, w.Code)

	// The refresh token is dead afterwards.
	w = f.post(t, "/auth/jwt/refresh/", gin.H{"refresh": refresh}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The access token landed on the blacklist.
	black, err := f.blacklist.Contains(context.Background(), access)
	require.NoError(t, err)
	assert.True(t, black)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	_, refresh := f.login(t, "09120000000")

	w := f.post(t, "/auth/users/logout/", gin.H{"refresh": refresh}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.post(t, "/auth/users/logout/", gin.H{"refresh": refresh}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	// Even with nothing to revoke it answers OK.
	w = f.post(t, "/auth/users/logout/", gin.H{}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
