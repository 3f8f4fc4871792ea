package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client makes authenticated calls against the platform API. Every call
// goes through EnsureFresh first, so the bearer token attached is never
// knowingly stale.
type Client struct {
	store     *Store
	refresher *Refresher
	exchanger *Exchanger
	baseURL   string
	http      *http.Client
}

func NewClient(store *Store, ex *Exchanger) *Client {
	return &Client{
		store:     store,
		refresher: NewRefresher(ex),
		exchanger: ex,
		baseURL:   ex.baseURL,
		http:      ex.http,
	}
}

// Call performs an authenticated request against endpoint and returns
// the raw response body. It fails with ErrUnauthenticated when no
// session is held, ErrRefreshAccessToken when the token pair is dead,
// ErrSessionExpired when the backend still answers 401 with a fresh
// token, and APIError for any other non-2xx response.
func (c *Client) Call(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	if c.store.Read() == nil {
		return nil, ErrUnauthenticated
	}
	s, err := c.refresher.EnsureFresh(ctx, c.store)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		raw, merr := json.Marshal(body)
		if merr != nil {
			return nil, merr
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(endpoint, "/"), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	req.Header.Set("Cache-Control", "no-store")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrSessionExpired
	}
	if resp.StatusCode >= 300 {
		var parsed struct {
			Detail string `json:"detail"`
			ErrMsg string `json:"error"`
		}
		_ = json.Unmarshal(raw, &parsed)
		msg := parsed.Detail
		if msg == "" {
			msg = parsed.ErrMsg
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return raw, nil
}

// CallJSON is Call plus decoding the response into out.
func (c *Client) CallJSON(ctx context.Context, method, endpoint string, body, out interface{}) error {
	raw, err := c.Call(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// Login runs the OTP exchange and stores the resulting session.
func (c *Client) Login(ctx context.Context, phone, code string) (*Session, error) {
	s, err := c.exchanger.VerifyOTP(ctx, phone, code)
	if err != nil {
		return nil, err
	}
	if err := c.store.Replace(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Logout revokes the token pair server-side and drops the local
// session. It is idempotent: with no session held it returns nil.
func (c *Client) Logout(ctx context.Context) error {
	s := c.store.Read()
	if s == nil {
		return nil
	}
	// Best effort: the local session is dropped even when revocation fails.
	rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = c.exchanger.Logout(rctx, s.AccessToken, s.RefreshToken)
	return c.store.Logout(ctx)
}
