package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusPaid       OrderStatus = "paid"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s string) bool {
	switch OrderStatus(s) {
	case StatusPending, StatusProcessing, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Pricing constants
const (
	TaxRate               = 0.10
	FlatShippingFee       = 10.0
	FreeShippingThreshold = 100.0
	DefaultCurrency       = "USD"
	DefaultPaymentMethod  = "cod"
)

// OrderItem is a snapshot of a product taken at order time. Name and price
// are denormalized so later catalog edits never change past orders.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Subtotal  float64            `bson:"subtotal" json:"subtotal"`
}

// ShippingAddress is the delivery address captured with an order.
type ShippingAddress struct {
	FullName     string `bson:"full_name,omitempty" json:"fullName,omitempty"`
	AddressLine1 string `bson:"address_line1,omitempty" json:"addressLine1,omitempty"`
	AddressLine2 string `bson:"address_line2,omitempty" json:"addressLine2,omitempty"`
	City         string `bson:"city,omitempty" json:"city,omitempty"`
	State        string `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode   string `bson:"postal_code,omitempty" json:"postalCode,omitempty"`
	Country      string `bson:"country,omitempty" json:"country,omitempty"`
	Phone        string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Pricing is the computed money breakdown of an order.
type Pricing struct {
	ItemsTotal float64 `bson:"items_total" json:"itemsTotal"`
	Tax        float64 `bson:"tax" json:"tax"`
	Shipping   float64 `bson:"shipping" json:"shipping"`
	GrandTotal float64 `bson:"grand_total" json:"grandTotal"`
	Currency   string  `bson:"currency" json:"currency"`
}

// StatusChange is one entry in an order's append-only status history.
type StatusChange struct {
	Status    OrderStatus `bson:"status" json:"status"`
	ChangedAt time.Time   `bson:"changed_at" json:"changedAt"`
}

// Order represents a placed order. Items and pricing are immutable after
// creation; only status-changing operations mutate the document.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user"`
	Items           []OrderItem        `bson:"items" json:"items"`
	ShippingAddress ShippingAddress    `bson:"shipping_address" json:"shippingAddress"`
	PaymentMethod   string             `bson:"payment_method" json:"paymentMethod"`
	Pricing         Pricing            `bson:"pricing" json:"pricing"`
	Status          OrderStatus        `bson:"status" json:"status"`
	StatusHistory   []StatusChange     `bson:"status_history" json:"statusHistory"`
	IsPaid          bool               `bson:"is_paid" json:"isPaid"`
	PaidAt          *time.Time         `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	IsDelivered     bool               `bson:"is_delivered" json:"isDelivered"`
	DeliveredAt     *time.Time         `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Round2 rounds a money amount to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NewOrderItem snapshots a product into an order line. Quantity is clamped
// to a minimum of 1.
func NewOrderItem(p Product, quantity int) OrderItem {
	if quantity < 1 {
		quantity = 1
	}
	return OrderItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  quantity,
		Subtotal:  p.Price * float64(quantity),
	}
}

// ComputePricing aggregates line subtotals into the order totals: 10% tax
// on the items total, flat shipping waived above the free threshold.
func ComputePricing(items []OrderItem) Pricing {
	itemsTotal := 0.0
	for _, item := range items {
		itemsTotal += item.Subtotal
	}
	tax := Round2(itemsTotal * TaxRate)
	shipping := FlatShippingFee
	if itemsTotal > FreeShippingThreshold {
		shipping = 0
	}
	return Pricing{
		ItemsTotal: itemsTotal,
		Tax:        tax,
		Shipping:   shipping,
		GrandTotal: Round2(itemsTotal + tax + shipping),
		Currency:   DefaultCurrency,
	}
}

// NewOrder assembles an order in its initial state, with the status history
// seeded by the initial "pending" entry.
func NewOrder(userID primitive.ObjectID, items []OrderItem, address ShippingAddress, paymentMethod string, now time.Time) Order {
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}
	return Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   paymentMethod,
		Pricing:         ComputePricing(items),
		Status:          StatusPending,
		StatusHistory:   []StatusChange{{Status: StatusPending, ChangedAt: now}},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// SetStatus moves the order to status and appends a history entry. It
// returns false when the order is already in that status, in which case
// nothing changes.
func (o *Order) SetStatus(status OrderStatus, now time.Time) bool {
	if o.Status == status {
		return false
	}
	o.Status = status
	o.StatusHistory = append(o.StatusHistory, StatusChange{Status: status, ChangedAt: now})
	o.UpdatedAt = now
	return true
}

// MarkPaid records payment and moves the order to "paid".
func (o *Order) MarkPaid(now time.Time) {
	o.IsPaid = true
	o.PaidAt = &now
	o.UpdatedAt = now
	o.SetStatus(StatusPaid, now)
}

// CanAccess reports whether the given identity may read or mutate this
// order: the owning user, or any admin.
func (o *Order) CanAccess(userID primitive.ObjectID, role string) bool {
	return o.UserID == userID || role == RoleAdmin
}
