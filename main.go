package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/opencourse/opencourse/backend/go-services/handlers"
	"github.com/opencourse/opencourse/backend/go-services/internal/config"
	"github.com/opencourse/opencourse/backend/go-services/internal/database"
	enrollhandler "github.com/opencourse/opencourse/backend/go-services/internal/enrollment/handler"
	enrollservice "github.com/opencourse/opencourse/backend/go-services/internal/enrollment/service"
	"github.com/opencourse/opencourse/backend/go-services/internal/oidc"
	"github.com/opencourse/opencourse/backend/go-services/internal/otp"
	"github.com/opencourse/opencourse/backend/go-services/internal/sessions"
	"github.com/opencourse/opencourse/backend/go-services/internal/storage"
	"github.com/opencourse/opencourse/backend/go-services/internal/tokens"
	"github.com/opencourse/opencourse/backend/go-services/internal/users"
	"github.com/opencourse/opencourse/backend/go-services/pkg/logger"
	"github.com/opencourse/opencourse/backend/go-services/pkg/metrics"
	"github.com/opencourse/opencourse/backend/go-services/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v social=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Social.GoogleClientID != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// shared runtime vars used by handlers/readiness
	var userSvc *users.Service
	var sessionsSvc *sessions.Service
	var otpStore *otp.Store

	// Connect to Redis early so the OTP store, session blacklist and
	// rate-limiter can use it when configured.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			otpStore = otp.NewStore(redisClient, "otp:", cfg.OTP.Length, cfg.OTP.TTL, cfg.OTP.MaxAttempts)
			logger.Infof("connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}
	// no-op over a nil client, so logout still works without revocation
	blacklist := sessions.NewBlacklist(redisClient)

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint — 200 only when the service can actually log users in
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["otp"] = otpStore != nil
		deps["sessions"] = sessionsSvc != nil
		deps["users"] = userSvc != nil
		if otpStore == nil || sessionsSvc == nil || userSvc == nil {
			ready = false
		}

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": time.Since(startTime).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()})
	})

	ctx := context.Background()

	// Social login providers. Google via OIDC discovery when configured; an
	// insecure verifier can be enabled for integration tests only.
	registry := oidc.NewRegistry()
	if cfg.Social.GoogleIssuer != "" && cfg.Social.GoogleClientID != "" {
		ver, err := oidc.NewVerifier(ctx, strings.TrimRight(cfg.Social.GoogleIssuer, "/"), cfg.Social.GoogleClientID)
		if err != nil {
			logger.Warnf("failed to initialize google verifier: %v", err)
		} else {
			registry.Register("google", ver)
		}
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure grant verifier (integration mode)")
		registry.Register("insecure", oidc.NewInsecureVerifier())
	}

	// Prefer Redis-based sessions when available (fast, self-expiring)
	if redisClient != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(redisClient, "session:"))
		logger.Infof("using Redis for session storage")
	}

	// MongoDB-backed services (users + fallback sessions + enrollments)
	enrollSvc := enrollservice.NewMemoryService()
	if cfg.MongoDB.URI != "" {
		// Retry/backoff when connecting to MongoDB to tolerate startup races
		const maxAttempts = 5
		backoff := time.Second
		var client *mongo.Client
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			db := client.Database(cfg.MongoDB.Database)
			userSvc = users.NewService(users.NewMongoUserRepository(db.Collection("users")))
			if sessionsSvc == nil {
				srepo := sessions.NewMongoRepository(db.Collection("sessions"))
				if err := srepo.EnsureIndexes(ctx); err != nil {
					logger.Warnf("could not create session indexes: %v", err)
				}
				sessionsSvc = sessions.NewService(srepo)
			}
			enrollSvc = enrollservice.NewMongoService(db.Collection("enrollments"))
		}
	}

	// Register auth handlers when the login path is fully wired
	if userSvc != nil && sessionsSvc != nil && otpStore != nil {
		h := handlers.NewAuthHandler(cfg, userSvc, sessionsSvc, otpStore, registry, blacklist)
		h.Register(&r.RouterGroup)
	} else {
		logger.Warnf("auth handlers not registered: users=%v sessions=%v otp=%v", userSvc != nil, sessionsSvc != nil, otpStore != nil)
	}
	handlers.RegisterSwagger(r)

	// Everything past this point needs a valid, non-blacklisted access token
	authed := r.Group("/")
	authed.Use(middleware.AuthMiddleware(tokens.NewHSVerifier(cfg.JWT.Secret), blacklist.Contains))

	if userSvc != nil {
		var avatars *storage.MinIOStorage
		if s, err := storage.NewMinIOStorage(storage.LoadMinIOConfig()); err != nil {
			logger.Warnf("minio unavailable, avatar endpoints disabled: %v", err)
		} else {
			avatars = s
		}
		handlers.NewProfileHandler(userSvc, avatars).Register(authed)
	}

	enrollhandler.RegisterEnrollmentRoutes(authed, enrollSvc, enrollhandler.SnapshotSink{
		MongoURI: cfg.MongoDB.URI,
		Database: cfg.MongoDB.Database,
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting identity service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
