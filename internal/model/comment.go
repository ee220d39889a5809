package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinRating and MaxRating bound a comment rating.
const (
	MinRating = 1
	MaxRating = 5
)

// Comment is a reader comment on a blog post. Email, IP and UserAgent are
// stored for moderation only and never serialized.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID    primitive.ObjectID `bson:"postId" json:"postId"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email,omitempty" json:"-"`
	Message   string             `bson:"message" json:"message"`
	Rating    *int               `bson:"rating,omitempty" json:"rating,omitempty"`
	Approved  bool               `bson:"approved" json:"approved"`
	IP        string             `bson:"ip,omitempty" json:"-"`
	UserAgent string             `bson:"userAgent,omitempty" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
