package enrollment

import "time"

// Enrollment records one learner's membership and progress in a course.
type Enrollment struct {
	ID               string    `json:"id" bson:"_id,omitempty"`
	UserID           string    `json:"userId" bson:"userId"`
	CourseID         string    `json:"courseId" bson:"courseId"`
	Title            string    `json:"title" bson:"title"`
	Progress         int       `json:"progress" bson:"progress"` // percent, 0..100
	CompletedLessons int       `json:"completedLessons" bson:"completedLessons"`
	EnrolledAt       time.Time `json:"enrolledAt" bson:"enrolledAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}
