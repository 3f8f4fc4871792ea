package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opencourse/opencourse/backend/go-services/internal/enrollment"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements a MongoDB-backed repository for enrollments.
// One document per (userId, courseId) pair, enforced by a compound index.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	idxModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "courseId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	col.Indexes().CreateOne(context.Background(), idxModel)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(e *enrollment.Enrollment) (string, error) {
	now := time.Now().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.EnrolledAt = now
	e.UpdatedAt = now
	_, err := m.col.InsertOne(context.Background(), e)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

func (m *MongoRepo) Get(userID, courseID string) (*enrollment.Enrollment, error) {
	var e enrollment.Enrollment
	err := m.col.FindOne(context.Background(), bson.M{"userId": userID, "courseId": courseID}).Decode(&e)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (m *MongoRepo) ListByUser(userID string) ([]*enrollment.Enrollment, error) {
	cur, err := m.col.Find(context.Background(), bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(context.Background())
	out := []*enrollment.Enrollment{}
	for cur.Next(context.Background()) {
		var e enrollment.Enrollment
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, nil
}

func (m *MongoRepo) UpdateProgress(userID, courseID string, progress, completedLessons int) error {
	set := bson.M{"progress": progress, "completedLessons": completedLessons, "updatedAt": time.Now().UTC()}
	res, err := m.col.UpdateOne(context.Background(), bson.M{"userId": userID, "courseId": courseID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Delete(userID, courseID string) error {
	res, err := m.col.DeleteOne(context.Background(), bson.M{"userId": userID, "courseId": courseID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
