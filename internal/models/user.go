package models

import "time"

// User represents a learner account. Phone is the primary login identifier
// (OTP flow); social logins are keyed on the provider-supplied email.
type User struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Phone         string    `bson:"phone" json:"phone"`
	Name          string    `bson:"name" json:"name"`
	Email         string    `bson:"email,omitempty" json:"email,omitempty"`
	PhoneVerified bool      `bson:"phoneVerified" json:"phoneVerified"`
	EmailVerified bool      `bson:"emailVerified" json:"emailVerified"`
	Staff         bool      `bson:"staff" json:"staff"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}
