package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one line in a cart, by reference only. Snapshotting happens
// at order time, not here.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Cart represents a user's shopping cart
type Cart struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID primitive.ObjectID `bson:"user_id" json:"user"`
	Items  []CartItem         `bson:"items" json:"items"`
}
