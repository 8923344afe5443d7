// internal/domain/models/ids.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a new identifier for any stored entity.
//
// Identifiers are 24-character hex strings. They sort by creation time,
// which the history cursors rely on as a tie-breaker, and they are stored
// as plain strings in every backend.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
