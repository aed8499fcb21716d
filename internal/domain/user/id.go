package user

import "go.mongodb.org/mongo-driver/bson/primitive"

// ValidID reports whether id has the shape of a store-assigned identifier
// (a 24 character hex ObjectID).
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
