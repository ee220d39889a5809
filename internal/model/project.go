package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a portfolio entry.
type Project struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Slug            string             `bson:"slug" json:"slug"`
	Description     string             `bson:"description" json:"description"`
	LongDescription string             `bson:"longDescription,omitempty" json:"longDescription,omitempty"`
	Image           string             `bson:"image,omitempty" json:"image,omitempty"`
	Images          []string           `bson:"images" json:"images"`
	Category        string             `bson:"category,omitempty" json:"category,omitempty"`
	Tags            []string           `bson:"tags" json:"tags"`
	Technologies    []string           `bson:"technologies" json:"technologies"`
	LiveURL         string             `bson:"liveUrl,omitempty" json:"liveUrl,omitempty"`
	RepoURL         string             `bson:"repoUrl,omitempty" json:"repoUrl,omitempty"`
	Featured        bool               `bson:"featured" json:"featured"`
	Order           int                `bson:"order" json:"order"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Service is an offering listed on the services page.
type Service struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description" json:"description"`
	Icon        string             `bson:"icon,omitempty" json:"icon,omitempty"`
	Features    []string           `bson:"features" json:"features"`
	Price       string             `bson:"price,omitempty" json:"price,omitempty"`
	Featured    bool               `bson:"featured" json:"featured"`
	Active      bool               `bson:"active" json:"active"`
	Order       int                `bson:"order" json:"order"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
