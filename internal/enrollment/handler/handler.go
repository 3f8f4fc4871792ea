package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opencourse/opencourse/backend/go-services/internal/enrollment/service"
	"github.com/opencourse/opencourse/backend/go-services/internal/progress"
	"github.com/opencourse/opencourse/backend/go-services/pkg/logger"
)

// SnapshotSink persists progress checkpoints; empty MongoURI disables it.
type SnapshotSink struct {
	MongoURI string
	Database string
}

func subject(c *gin.Context) string {
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

// RegisterEnrollmentRoutes mounts the course-enrollment API on an
// already-authenticated router group.
func RegisterEnrollmentRoutes(rg *gin.RouterGroup, svc service.Service, sink SnapshotSink) {
	rg.GET("/courses/my-courses", func(c *gin.Context) {
		sub := subject(c)
		if sub == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "no subject in token"})
			return
		}
		list, err := svc.ListByUser(sub)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "listing failed"})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	rg.POST("/courses/:id/enroll", func(c *gin.Context) {
		sub := subject(c)
		if sub == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "no subject in token"})
			return
		}
		var req struct {
			Title string `json:"title"`
		}
		_ = c.ShouldBindJSON(&req)
		id, err := svc.Enroll(sub, c.Param("id"), req.Title)
		if err != nil {
			if err == service.ErrAlreadyEnrolled {
				c.JSON(http.StatusConflict, gin.H{"detail": "already enrolled"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "enroll failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id, "courseId": c.Param("id")})
	})

	rg.PATCH("/courses/:id/progress", func(c *gin.Context) {
		sub := subject(c)
		if sub == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "no subject in token"})
			return
		}
		var req struct {
			Progress         *int `json:"progress" binding:"required"`
			CompletedLessons *int `json:"completedLessons"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Progress == nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "progress is required"})
			return
		}
		lessons := 0
		if req.CompletedLessons != nil {
			lessons = *req.CompletedLessons
		}
		e, err := svc.UpdateProgress(sub, c.Param("id"), *req.Progress, lessons)
		if err != nil {
			switch err {
			case service.ErrInvalidProgress:
				c.JSON(http.StatusBadRequest, gin.H{"detail": "progress must be between 0 and 100"})
			case service.ErrNotFound:
				c.JSON(http.StatusNotFound, gin.H{"detail": "not enrolled"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"detail": "update failed"})
			}
			return
		}
		// best-effort checkpoint; the live record is already updated
		snap := &progress.Snapshot{UserID: sub, CourseID: e.CourseID, Progress: e.Progress, RecordedAt: time.Now().UTC()}
		if err := progress.Save(c.Request.Context(), sink.MongoURI, sink.Database, snap); err != nil {
			logger.Warnf("progress snapshot save failed: %v", err)
		}
		c.JSON(http.StatusOK, e)
	})

	rg.DELETE("/courses/:id/enroll", func(c *gin.Context) {
		sub := subject(c)
		if sub == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "no subject in token"})
			return
		}
		if err := svc.Unenroll(sub, c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "not enrolled"})
			return
		}
		c.Status(http.StatusNoContent)
	})
}
