package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents an item in the catalog. Orders never reference these
// fields directly after creation; they keep their own snapshot.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Price       float64            `bson:"price" json:"price"`
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
}
