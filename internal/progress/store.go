package progress

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opencourse/opencourse/backend/go-services/internal/database"
)

// Snapshot is the Mongo representation of a course-progress checkpoint,
// kept separately from the live enrollment record for audit/history.
type Snapshot struct {
	UserID     string    `bson:"userId" json:"userId"`
	CourseID   string    `bson:"courseId" json:"courseId"`
	Progress   int       `bson:"progress" json:"progress"`
	RecordedAt time.Time `bson:"recordedAt" json:"recordedAt"`
}

// Save persists (upsert) the latest progress snapshot for a user/course pair.
// If mongoURI is empty the function is a no-op.
func Save(ctx context.Context, mongoURI, databaseName string, s *Snapshot) error {
	if mongoURI == "" {
		return nil
	}
	client, err := database.ConnectMongo(ctx, mongoURI, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer client.Disconnect(ctx)

	col := client.Database(databaseName).Collection("progress_snapshots")
	filter := bson.M{"userId": s.UserID, "courseId": s.CourseID}
	opts := options.Update().SetUpsert(true)
	rec := bson.M{"$set": s}
	if _, err := col.UpdateOne(ctx, filter, rec, opts); err != nil {
		return fmt.Errorf("save progress snapshot: %w", err)
	}
	return nil
}

// Load fetches the persisted snapshot for a user/course pair. Returns nil when not found.
func Load(ctx context.Context, mongoURI, databaseName, userID, courseID string) (*Snapshot, error) {
	if mongoURI == "" {
		return nil, nil
	}
	client, err := database.ConnectMongo(ctx, mongoURI, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	defer client.Disconnect(ctx)
	col := client.Database(databaseName).Collection("progress_snapshots")
	var s Snapshot
	if err := col.FindOne(ctx, bson.M{"userId": userID, "courseId": courseID}).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
