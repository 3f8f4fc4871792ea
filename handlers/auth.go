package handlers

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opencourse/opencourse/backend/go-services/internal/config"
	"github.com/opencourse/opencourse/backend/go-services/internal/models"
	"github.com/opencourse/opencourse/backend/go-services/internal/oidc"
	"github.com/opencourse/opencourse/backend/go-services/internal/otp"
	"github.com/opencourse/opencourse/backend/go-services/internal/sessions"
	"github.com/opencourse/opencourse/backend/go-services/internal/tokens"
	"github.com/opencourse/opencourse/backend/go-services/internal/users"
	"github.com/opencourse/opencourse/backend/go-services/pkg/logger"
	"github.com/opencourse/opencourse/backend/go-services/pkg/metrics"
)

var phonePattern = regexp.MustCompile(`^09\d{9}$`)

// SendOTPRequest starts an OTP login for a phone number
type SendOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// VerifyOTPRequest completes an OTP login
type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// SocialAuthRequest exchanges a third-party identity grant for a session
type SocialAuthRequest struct {
	Provider string `json:"provider" binding:"required"`
	IDToken  string `json:"id_token" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	otpStore    *otp.Store
	providers   *oidc.Registry
	blacklist   *sessions.Blacklist
}

func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, o *otp.Store, p *oidc.Registry, b *sessions.Blacklist) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s, otpStore: o, providers: p, blacklist: b}
}

// Register routes under /auth. Paths mirror the public API the storefront
// clients already speak (Djoser-style trailing slashes included).
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/users/send_otp/", h.SendOTP)
	a.POST("/users/verify_otp/", h.VerifyOTP)
	a.POST("/users/social-auth/", h.SocialAuth)
	a.POST("/jwt/refresh/", h.Refresh)
	a.POST("/users/logout/", h.Logout)
}

// normalizePhone maps accepted input forms ("+989...", "989...", "09...")
// onto the canonical local "09..." form before validation.
func normalizePhone(phone string) string {
	p := strings.TrimSpace(phone)
	if strings.HasPrefix(p, "+98") {
		p = "0" + p[3:]
	} else if strings.HasPrefix(p, "98") && len(p) == 12 {
		p = "0" + p[2:]
	}
	return p
}

// SendOTP issues a one-time passcode for the submitted phone number
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "phone is required"})
		return
	}
	phone := normalizePhone(req.Phone)
	if !phonePattern.MatchString(phone) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid phone number"})
		return
	}

	code, err := h.otpStore.Issue(c.Request.Context(), phone)
	if err != nil {
		logger.Errorf("failed to issue otp: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to send code"})
		return
	}
	metrics.OTPIssued.Inc()

	// Delivery is out of band (SMS gateway). Development builds log the code.
	if h.cfg.Server.Environment == "development" {
		logger.Infof("otp issued for %s: %s", phone, code)
	}

	c.JSON(http.StatusOK, gin.H{"detail": "code sent"})
}

// VerifyOTP exchanges a phone/code pair for an access/refresh token pair
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "phone and code are required"})
		return
	}
	phone := normalizePhone(req.Phone)
	if !phonePattern.MatchString(phone) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid phone number"})
		return
	}

	if err := h.otpStore.Verify(c.Request.Context(), phone, req.Code); err != nil {
		metrics.OTPVerified.WithLabelValues("rejected").Inc()
		switch err {
		case otp.ErrNotFound:
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "code expired or not requested"})
		case otp.ErrCodeMismatch:
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "incorrect code"})
		case otp.ErrMaxAttempts:
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "too many attempts, request a new code"})
		default:
			logger.Errorf("otp verification error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "verification failed"})
		}
		return
	}
	metrics.OTPVerified.WithLabelValues("accepted").Inc()

	u, err := h.usersSvc.UpsertByPhone(c.Request.Context(), phone)
	if err != nil || u == nil {
		logger.Errorf("user upsert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "account provisioning failed"})
		return
	}

	h.issueTokenPair(c, u, "otp")
}

// SocialAuth exchanges a verified third-party identity grant for a token pair
func (h *AuthHandler) SocialAuth(c *gin.Context) {
	var req SocialAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "provider and id_token are required"})
		return
	}

	claims, err := h.providers.VerifyGrant(c.Request.Context(), req.Provider, req.IDToken)
	if err != nil {
		logger.Warnf("social grant rejected (provider=%s): %v", req.Provider, err)
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid identity grant"})
		return
	}

	u, err := h.usersSvc.UpsertFromClaims(c.Request.Context(), claims)
	if err != nil {
		logger.Errorf("user upsert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "account provisioning failed"})
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "identity grant carries no email"})
		return
	}

	h.issueTokenPair(c, u, req.Provider)
}

// issueTokenPair creates a refresh session plus access token and writes the
// login response. Response field names match the storefront clients.
func (h *AuthHandler) issueTokenPair(c *gin.Context, u *models.User, method string) {
	refresh, err := h.sessionsSvc.CreateSession(c.Request.Context(), u.ID, h.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to create session"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to create access token"})
		return
	}
	metrics.Logins.WithLabelValues(method).Inc()
	c.JSON(http.StatusOK, gin.H{
		"access":     access,
		"refresh":    refresh,
		"user":       u,
		"expires_in": int(h.cfg.JWT.AccessTokenTTL.Seconds()),
	})
}

// Refresh accepts a refresh token and returns a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "refresh is required"})
		return
	}
	sess, err := h.sessionsSvc.ValidateRefresh(c.Request.Context(), req.Refresh)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "validation failed"})
		return
	}
	if sess == nil {
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid refresh token"})
		return
	}
	// load user
	u, err := h.usersSvc.GetByID(c.Request.Context(), sess.UserID)
	if err != nil || u == nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "user lookup failed"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to create access token"})
		return
	}
	metrics.TokenRefreshes.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"access": access, "expires_in": int(h.cfg.JWT.AccessTokenTTL.Seconds())})
}

// Logout invalidates the refresh token and (optionally) blacklists the current
// access token. Calling it again for the same tokens is a harmless no-op.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	_ = c.ShouldBindJSON(&req)

	// If the client supplied an Authorization Bearer token, attempt to blacklist it
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		at := strings.TrimPrefix(auth, "Bearer ")
		if exp, err := tokens.ParseExp(at); err == nil {
			if err := h.blacklist.Revoke(c.Request.Context(), at, time.Until(exp)); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to revoke access token"})
				return
			}
		}
	}

	if req.Refresh != "" {
		if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.Refresh); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to remove session"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"detail": "logged out"})
}
