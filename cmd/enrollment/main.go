package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/opencourse/opencourse/backend/go-services/internal/database"
	"github.com/opencourse/opencourse/backend/go-services/internal/enrollment/handler"
	"github.com/opencourse/opencourse/backend/go-services/internal/enrollment/service"
	"github.com/opencourse/opencourse/backend/go-services/internal/sessions"
	"github.com/opencourse/opencourse/backend/go-services/internal/tokens"
	"github.com/opencourse/opencourse/backend/go-services/pkg/middleware"
)

// Standalone enrollment service. The identity service mounts the same routes;
// this binary exists so enrollments can be scaled and deployed on their own.
func main() {
	port := os.Getenv("ENROLLMENT_SERVICE_PORT")
	if port == "" {
		port = "5020"
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// Prefer Mongo-backed service when MONGODB_URI is provided; fall back to
	// memory so the service still works in local development.
	var svc service.Service
	mongoURI := os.Getenv("MONGODB_URI")
	dbName := os.Getenv("MONGODB_DATABASE")
	if mongoURI != "" {
		client, err := database.ConnectMongo(context.Background(), mongoURI, 10*time.Second)
		if err != nil {
			log.Printf("warning: cannot connect to MongoDB (%v) — using memory-backed repo", err)
			svc = service.NewMemoryService()
		} else {
			svc = service.NewMongoService(client.Database(dbName).Collection("enrollments"))
		}
	} else {
		svc = service.NewMemoryService()
	}

	// Share the identity service's token blacklist when Redis is reachable;
	// without it tokens stay valid here until their JWT expiry.
	var blacklist *sessions.Blacklist
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		blacklist = sessions.NewBlacklist(redis.NewClient(&redis.Options{Addr: addr}))
	}

	authed := r.Group("/")
	authed.Use(middleware.AuthMiddleware(tokens.NewHSVerifier(secret), blacklist.Contains))
	handler.RegisterEnrollmentRoutes(authed, svc, handler.SnapshotSink{MongoURI: mongoURI, Database: dbName})

	log.Printf("enrollment service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
