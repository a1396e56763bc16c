package models

import "time"

// Document is the partial view of a file_document record the pipeline reads and updates
type Document struct {
	ID             string    `bson:"_id" json:"id"`
	Path           string    `bson:"path" json:"path"`
	NumberOfChecks *int      `bson:"numberOfChecks,omitempty" json:"numberOfChecks,omitempty"`
	UpdatedAt      time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
