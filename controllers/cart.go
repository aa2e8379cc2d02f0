package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"go-storefront/db"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/utils"
)

// CartController handles cart requests. Carts reference products only;
// prices are snapshotted at order time, not here.
type CartController struct {
	DB *db.DB
}

// NewCartController creates a new CartController
func NewCartController(database *db.DB) *CartController {
	return &CartController{DB: database}
}

type cartItemRequest struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// AddToCart adds a product to the user's cart, merging quantities for a
// product already present
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, utils.Unauthenticated("Unauthorized"))
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		utils.WriteError(w, utils.Unauthenticated("Unauthorized"))
		return
	}

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, utils.InvalidInput("Invalid input"))
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.Product)
	if err != nil {
		utils.WriteError(w, utils.InvalidInput("Invalid product ID"))
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Reject products that are not in the catalog
	products, err := cc.DB.Collection(ctx, "products")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := products.FindOne(ctx, bson.M{"_id": productID}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.WriteError(w, utils.InvalidInput("Product not found: "+req.Product))
			return
		}
		utils.WriteError(w, err)
		return
	}

	carts, err := cc.DB.Collection(ctx, "carts")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var cart models.Cart
	err = carts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cart = models.Cart{
			UserID: userID,
			Items:  []models.CartItem{{ProductID: productID, Quantity: req.Quantity}},
		}
		result, err := carts.InsertOne(ctx, cart)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		cart.ID = result.InsertedID.(primitive.ObjectID)
		utils.WriteJSON(w, http.StatusCreated, cart)
		return
	}
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	merged := false
	for i, item := range cart.Items {
		if item.ProductID == productID {
			cart.Items[i].Quantity += req.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: req.Quantity})
	}

	_, err = carts.UpdateOne(ctx, bson.M{"_id": cart.ID}, bson.M{"$set": bson.M{"items": cart.Items}})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

// GetCart retrieves the user's cart. A user without one gets an empty cart
// rather than a 404.
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, utils.Unauthenticated("Unauthorized"))
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		utils.WriteError(w, utils.Unauthenticated("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	carts, err := cc.DB.Collection(ctx, "carts")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var cart models.Cart
	err = carts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cart = models.Cart{UserID: userID, Items: []models.CartItem{}}
	} else if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

// RemoveFromCart removes a product line from the user's cart
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, utils.Unauthenticated("Unauthorized"))
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		utils.WriteError(w, utils.Unauthenticated("Unauthorized"))
		return
	}
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["product_id"])
	if err != nil {
		utils.WriteError(w, utils.InvalidInput("Invalid product ID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	carts, err := cc.DB.Collection(ctx, "carts")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var cart models.Cart
	err = carts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.WriteError(w, utils.NotFound("Cart not found"))
		return
	}
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	updated := []models.CartItem{}
	for _, item := range cart.Items {
		if item.ProductID != productID {
			updated = append(updated, item)
		}
	}
	cart.Items = updated

	_, err = carts.UpdateOne(ctx, bson.M{"_id": cart.ID}, bson.M{"$set": bson.M{"items": cart.Items}})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}
