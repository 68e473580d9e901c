// internal/domain/models/page.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageDocument is the stored form of a section-based page, keyed by page_name.
type PageDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	PageName        string             `bson:"page_name"`
	PageTitle       string             `bson:"page_title"`
	MetaDescription string             `bson:"meta_description"`
	MetaKeywords    []string           `bson:"meta_keywords"`
	Sections        []SectionDocument  `bson:"sections"`

	CreatedAt     time.Time           `bson:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at"`
	UpdatedByID   *primitive.ObjectID `bson:"updated_by_id,omitempty"`
	UpdatedByName string              `bson:"updated_by_name,omitempty"`
}

// SectionDocument is one stored section. Fields holds plain values: strings,
// booleans, string arrays and arrays of sub-documents.
type SectionDocument struct {
	ID     string `bson:"id"`
	Type   string `bson:"type"`
	Order  int    `bson:"order"`
	Fields bson.M `bson:"fields"`
}
