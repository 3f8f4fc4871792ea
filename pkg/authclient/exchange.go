package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

var phonePattern = regexp.MustCompile(`^09\d{9}$`)

// Exchanger turns credentials (OTP codes, social grants) into sessions
// by calling the identity service.
type Exchanger struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// NewExchanger builds an Exchanger for baseURL. An empty baseURL falls
// back to the API_BASE_URL environment variable, then to localhost.
func NewExchanger(baseURL string, hc *http.Client) *Exchanger {
	if baseURL == "" {
		baseURL = os.Getenv("API_BASE_URL")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Exchanger{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		now:     time.Now,
	}
}

type loginResponse struct {
	Access    string  `json:"access"`
	Refresh   string  `json:"refresh"`
	User      Profile `json:"user"`
	ExpiresIn int     `json:"expires_in"`
}

// SendOTP asks the service to deliver a one-time code to phone.
func (e *Exchanger) SendOTP(ctx context.Context, phone string) error {
	phone = normalizePhone(phone)
	if !phonePattern.MatchString(phone) {
		return &ValidationError{Msg: "invalid phone number"}
	}
	_, err := e.post(ctx, "/auth/users/send_otp/", map[string]string{"phone": phone})
	return err
}

// VerifyOTP exchanges a phone / code pair for a session. Malformed
// input fails before any network call.
func (e *Exchanger) VerifyOTP(ctx context.Context, phone, code string) (*Session, error) {
	phone = normalizePhone(phone)
	if !phonePattern.MatchString(phone) {
		return nil, &ValidationError{Msg: "invalid phone number"}
	}
	if strings.TrimSpace(code) == "" {
		return nil, &ValidationError{Msg: "code is required"}
	}
	body, err := e.post(ctx, "/auth/users/verify_otp/", map[string]string{"phone": phone, "code": code})
	if err != nil {
		return nil, err
	}
	return e.sessionFromLogin(body)
}

// ExchangeGrant exchanges a social provider grant for a session.
func (e *Exchanger) ExchangeGrant(ctx context.Context, providerID, rawGrant string) (*Session, error) {
	if providerID == "" || rawGrant == "" {
		return nil, &ValidationError{Msg: "provider and grant are required"}
	}
	body, err := e.post(ctx, "/auth/users/social-auth/", map[string]string{
		"provider": providerID,
		"id_token": rawGrant,
	})
	if err != nil {
		return nil, err
	}
	return e.sessionFromLogin(body)
}

// Refresh trades a refresh token for a new access token.
func (e *Exchanger) Refresh(ctx context.Context, refreshToken string) (string, error) {
	body, err := e.post(ctx, "/auth/jwt/refresh/", map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", err
	}
	var out struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("authclient: decode refresh response: %w", err)
	}
	if out.Access == "" {
		return "", &AuthError{Detail: "refresh response carried no access token"}
	}
	return out.Access, nil
}

// Logout tells the service to revoke the pair. Errors are returned but
// callers typically drop the local session regardless.
func (e *Exchanger) Logout(ctx context.Context, accessToken, refreshToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/auth/users/logout/",
		bytes.NewReader(mustJSON(map[string]string{"refresh": refreshToken})))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}
	return nil
}

func (e *Exchanger) sessionFromLogin(body []byte) (*Session, error) {
	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("authclient: decode login response: %w", err)
	}
	if lr.Access == "" || lr.Refresh == "" {
		return nil, &AuthError{Detail: "login response missing tokens"}
	}
	ttl := AccessTokenTTL
	if lr.ExpiresIn > 0 {
		ttl = time.Duration(lr.ExpiresIn) * time.Second
	}
	return &Session{
		AccessToken:       lr.Access,
		RefreshToken:      lr.Refresh,
		AccessTokenExpiry: e.now().Add(ttl),
		Profile:           lr.User,
	}, nil
}

func (e *Exchanger) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(mustJSON(payload)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, errorFromBody(resp.StatusCode, body)
	}
	return body, nil
}

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return errorFromBody(resp.StatusCode, body)
}

// errorFromBody maps a non-2xx response onto the error taxonomy,
// reading the service's {"detail": ...} (or {"error": ...}) body.
func errorFromBody(status int, body []byte) error {
	var parsed struct {
		Detail string `json:"detail"`
		ErrMsg string `json:"error"`
	}
	_ = json.Unmarshal(body, &parsed)
	msg := parsed.Detail
	if msg == "" {
		msg = parsed.ErrMsg
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &AuthError{Detail: msg}
	}
	return &APIError{Status: status, Message: msg}
}

func mustJSON(v interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+98") {
		phone = "0" + phone[3:]
	} else if strings.HasPrefix(phone, "98") && len(phone) == 12 {
		phone = "0" + phone[2:]
	}
	return phone
}
