package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opencourse/opencourse/backend/go-services/internal/storage"
	"github.com/opencourse/opencourse/backend/go-services/internal/users"
	"github.com/opencourse/opencourse/backend/go-services/pkg/logger"
)

const maxAvatarBytes = 2 << 20 // 2 MiB

// ProfileHandler serves the authenticated account endpoints on the dashboard.
type ProfileHandler struct {
	usersSvc *users.Service
	avatars  *storage.MinIOStorage
}

func NewProfileHandler(u *users.Service, avatars *storage.MinIOStorage) *ProfileHandler {
	return &ProfileHandler{usersSvc: u, avatars: avatars}
}

// Register mounts profile routes on an already-authenticated router group.
func (h *ProfileHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/me", h.Me)
	rg.POST("/profile/avatar", h.UploadAvatar)
	rg.GET("/profile/avatar", h.AvatarURL)
	rg.DELETE("/profile/avatar", h.RemoveAvatar)
}

func subjectFromClaims(c *gin.Context) string {
	v, ok := c.Get("claims")
	if !ok {
		return ""
	}
	cm, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	sub, _ := cm["sub"].(string)
	return sub
}

// Me returns the current account, falling back to bare claims when the user
// service is unavailable (redis-only deployments).
func (h *ProfileHandler) Me(c *gin.Context) {
	sub := subjectFromClaims(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "no subject in token"})
		return
	}
	if h.usersSvc != nil {
		if u, err := h.usersSvc.GetByID(c.Request.Context(), sub); err == nil && u != nil {
			c.JSON(http.StatusOK, gin.H{"user": u})
			return
		}
	}
	claims, _ := c.Get("claims")
	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

// UploadAvatar stores the uploaded image under a per-user object key.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	if h.avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "avatar storage not configured"})
		return
	}
	sub := subjectFromClaims(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "no subject in token"})
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "avatar file is required"})
		return
	}
	if file.Size > maxAvatarBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "avatar exceeds 2 MiB"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "cannot read upload"})
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("avatars/%s", sub)
	if err := h.avatars.UploadFile(c.Request.Context(), key, src, file.Size, contentType); err != nil {
		logger.Errorf("avatar upload failed for %s: %v", sub, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}

// AvatarURL returns a short-lived presigned URL for the caller's avatar.
func (h *ProfileHandler) AvatarURL(c *gin.Context) {
	if h.avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "avatar storage not configured"})
		return
	}
	sub := subjectFromClaims(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "no subject in token"})
		return
	}
	key := fmt.Sprintf("avatars/%s", sub)
	url, err := h.avatars.GetPresignedURL(c.Request.Context(), key, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "no avatar"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// RemoveAvatar deletes the caller's avatar. Removing a missing object is
// not an error, so the endpoint is idempotent.
func (h *ProfileHandler) RemoveAvatar(c *gin.Context) {
	if h.avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "avatar storage not configured"})
		return
	}
	sub := subjectFromClaims(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "no subject in token"})
		return
	}
	key := fmt.Sprintf("avatars/%s", sub)
	if err := h.avatars.RemoveFile(c.Request.Context(), key); err != nil {
		logger.Errorf("avatar removal failed for %s: %v", sub, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "removal failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "avatar removed"})
}
