// controllers/order.go
package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-storefront/db"
	"go-storefront/events"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/utils"
)

// OrderController handles order placement and the status workflow
type OrderController struct {
	DB           *db.DB
	EmailService *utils.EmailService
	Events       *events.Publisher
}

// NewOrderController creates a new OrderController
func NewOrderController(database *db.DB, emailService *utils.EmailService, publisher *events.Publisher) *OrderController {
	return &OrderController{
		DB:           database,
		EmailService: emailService,
		Events:       publisher,
	}
}

type orderLine struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type createOrderRequest struct {
	Items           []orderLine            `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

// productLookup resolves a catalog product by id. The assembler depends on
// nothing else from the catalog.
type productLookup func(ctx context.Context, id primitive.ObjectID) (models.Product, error)

// assembleItems validates the submitted lines against the catalog and
// snapshots name and price per line. A missing product aborts the whole
// order.
func assembleItems(ctx context.Context, lookup productLookup, lines []orderLine) ([]models.OrderItem, error) {
	if len(lines) == 0 {
		return nil, utils.InvalidInput("Order items required")
	}
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Product == "" || line.Quantity == 0 {
			return nil, utils.InvalidInput("Each item needs product and quantity")
		}
		id, err := primitive.ObjectIDFromHex(line.Product)
		if err != nil {
			return nil, utils.InvalidInput("Invalid product ID: " + line.Product)
		}
		product, err := lookup(ctx, id)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, utils.InvalidInput("Product not found: " + line.Product)
			}
			return nil, err
		}
		items = append(items, models.NewOrderItem(product, line.Quantity))
	}
	return items, nil
}

// payUpdate builds the one-document update recording payment on an order.
// The history entry rides in the same update as the status write, so the
// two can never be observed apart; an order already in "paid" gets no new
// entry.
func payUpdate(order models.Order, now time.Time) bson.M {
	update := bson.M{"$set": bson.M{
		"is_paid":    true,
		"paid_at":    now,
		"status":     models.StatusPaid,
		"updated_at": now,
	}}
	if order.Status != models.StatusPaid {
		update["$push"] = bson.M{"status_history": models.StatusChange{Status: models.StatusPaid, ChangedAt: now}}
	}
	return update
}

// statusUpdate builds the one-document update moving an order to status,
// with the history append in the same write. Reaching "delivered" also sets
// the delivered flag and timestamp.
func statusUpdate(order models.Order, status models.OrderStatus, now time.Time) bson.M {
	set := bson.M{"status": status, "updated_at": now}
	if status == models.StatusDelivered {
		set["is_delivered"] = true
		set["delivered_at"] = now
	}
	update := bson.M{"$set": set}
	if order.Status != status {
		update["$push"] = bson.M{"status_history": models.StatusChange{Status: status, ChangedAt: now}}
	}
	return update
}

// CreateOrder places a new order for the authenticated user
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
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

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, utils.InvalidInput("Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	products, err := oc.DB.Collection(ctx, "products")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	lookup := func(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
		var product models.Product
		err := products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
		return product, err
	}

	items, err := assembleItems(ctx, lookup, req.Items)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	order := models.NewOrder(userID, items, req.ShippingAddress, req.PaymentMethod, time.Now().UTC())

	orders, err := oc.DB.Collection(ctx, "orders")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	result, err := orders.InsertOne(ctx, order)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	order.ID = result.InsertedID.(primitive.ObjectID)

	go func(email string, order models.Order) {
		if err := oc.EmailService.SendOrderConfirmationEmail(email, order); err != nil {
			log.Printf("failed to send confirmation email to %s: %v", email, err)
		}
	}(claims.Email, order)
	oc.Events.OrderCreated(order)

	utils.WriteJSON(w, http.StatusCreated, order)
}

// GetMyOrders retrieves the authenticated user's orders, newest first
func (oc *OrderController) GetMyOrders(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := oc.findOrders(ctx, bson.M{"user_id": userID})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// GetOrderByID retrieves a single order, owner or admin only
func (oc *OrderController) GetOrderByID(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := oc.loadOrder(ctx, mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if !order.CanAccess(userID, claims.Role) {
		utils.WriteError(w, utils.Forbidden("Forbidden"))
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// PayOrder marks an order as paid (simulated payment), owner or admin only
func (oc *OrderController) PayOrder(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := oc.loadOrder(ctx, mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if !order.CanAccess(userID, claims.Role) {
		utils.WriteError(w, utils.Forbidden("Forbidden"))
		return
	}

	now := time.Now().UTC()
	statusChanged := order.Status != models.StatusPaid
	update := payUpdate(order, now)

	orders, err := oc.DB.Collection(ctx, "orders")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if _, err := orders.UpdateOne(ctx, bson.M{"_id": order.ID}, update); err != nil {
		utils.WriteError(w, err)
		return
	}
	order.MarkPaid(now)

	if statusChanged {
		oc.Events.OrderStatusUpdated(order, models.StatusPaid)
		go oc.emailOwner(order, func(email string) error {
			return oc.EmailService.SendPaymentReceiptEmail(email, order)
		})
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus sets an order's status (admin only). Any known status
// is accepted; transition legality is not checked.
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, utils.InvalidInput("Invalid request body"))
		return
	}
	if req.Status == "" {
		utils.WriteError(w, utils.InvalidInput("Status required"))
		return
	}
	if !models.ValidStatus(req.Status) {
		utils.WriteError(w, utils.InvalidInput("Invalid status: "+req.Status))
		return
	}
	status := models.OrderStatus(req.Status)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := oc.loadOrder(ctx, mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	now := time.Now().UTC()
	update := statusUpdate(order, status, now)
	changed := order.SetStatus(status, now)
	order.UpdatedAt = now
	if status == models.StatusDelivered {
		order.IsDelivered = true
		order.DeliveredAt = &now
	}

	orders, err := oc.DB.Collection(ctx, "orders")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if _, err := orders.UpdateOne(ctx, bson.M{"_id": order.ID}, update); err != nil {
		utils.WriteError(w, err)
		return
	}

	if changed {
		oc.Events.OrderStatusUpdated(order, status)
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// ListOrders retrieves every order, newest first (admin only)
func (oc *OrderController) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	orders, err := oc.findOrders(ctx, bson.M{})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// loadOrder fetches one order by its hex id.
func (oc *OrderController) loadOrder(ctx context.Context, idHex string) (models.Order, error) {
	var order models.Order
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return order, utils.InvalidInput("Invalid order ID")
	}
	orders, err := oc.DB.Collection(ctx, "orders")
	if err != nil {
		return order, err
	}
	err = orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return order, utils.NotFound("Order not found")
	}
	return order, err
}

// findOrders runs a filtered query sorted newest first.
func (oc *OrderController) findOrders(ctx context.Context, filter bson.M) ([]models.Order, error) {
	collection, err := oc.DB.Collection(ctx, "orders")
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// emailOwner resolves the order owner's address and sends through fn. Mail
// failures are logged, never surfaced.
func (oc *OrderController) emailOwner(order models.Order, fn func(email string) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users, err := oc.DB.Collection(ctx, "users")
	if err != nil {
		log.Printf("email owner of order %s: %v", order.ID.Hex(), err)
		return
	}
	var user models.User
	if err := users.FindOne(ctx, bson.M{"_id": order.UserID}).Decode(&user); err != nil {
		log.Printf("email owner of order %s: %v", order.ID.Hex(), err)
		return
	}
	if err := fn(user.Email); err != nil {
		log.Printf("failed to send email to %s: %v", user.Email, err)
	}
}
