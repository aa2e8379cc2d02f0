package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-storefront/models"
)

func product(price float64) models.Product {
	return models.Product{
		ID:       primitive.NewObjectID(),
		Name:     "Widget",
		Price:    price,
		Category: "gadgets",
	}
}

func TestNewOrderItemSnapshotsProduct(t *testing.T) {
	p := product(50)
	item := models.NewOrderItem(p, 3)

	require.Equal(t, p.ID, item.ProductID)
	require.Equal(t, p.Name, item.Name)
	require.Equal(t, 50.0, item.Price)
	require.Equal(t, 3, item.Quantity)
	require.Equal(t, 150.0, item.Subtotal)
}

func TestNewOrderItemClampsQuantity(t *testing.T) {
	for _, quantity := range []int{0, -5} {
		item := models.NewOrderItem(product(20), quantity)
		require.Equal(t, 1, item.Quantity)
		require.Equal(t, 20.0, item.Subtotal)
	}
}

func TestComputePricingFreeShippingOverThreshold(t *testing.T) {
	// items=[{price 50, qty 3}] -> 150 / 15 / 0 / 165
	items := []models.OrderItem{models.NewOrderItem(product(50), 3)}
	pricing := models.ComputePricing(items)

	require.Equal(t, 150.0, pricing.ItemsTotal)
	require.Equal(t, 15.0, pricing.Tax)
	require.Equal(t, 0.0, pricing.Shipping)
	require.Equal(t, 165.0, pricing.GrandTotal)
	require.Equal(t, "USD", pricing.Currency)
}

func TestComputePricingFlatShippingUnderThreshold(t *testing.T) {
	// items=[{price 20, qty 2}] -> 40 / 4 / 10 / 54
	items := []models.OrderItem{models.NewOrderItem(product(20), 2)}
	pricing := models.ComputePricing(items)

	require.Equal(t, 40.0, pricing.ItemsTotal)
	require.Equal(t, 4.0, pricing.Tax)
	require.Equal(t, 10.0, pricing.Shipping)
	require.Equal(t, 54.0, pricing.GrandTotal)
}

func TestComputePricingSumsLineSubtotals(t *testing.T) {
	items := []models.OrderItem{
		models.NewOrderItem(product(19.99), 2),
		models.NewOrderItem(product(5.25), 1),
	}
	pricing := models.ComputePricing(items)

	require.InDelta(t, 45.23, pricing.ItemsTotal, 1e-9)
	require.Equal(t, 4.52, pricing.Tax)
	require.Equal(t, 10.0, pricing.Shipping)
	require.Equal(t, 59.75, pricing.GrandTotal)
}

func TestComputePricingExactThresholdPaysShipping(t *testing.T) {
	// Shipping is waived strictly above the threshold, not at it.
	items := []models.OrderItem{models.NewOrderItem(product(100), 1)}
	pricing := models.ComputePricing(items)

	require.Equal(t, 10.0, pricing.Shipping)
	require.Equal(t, 120.0, pricing.GrandTotal)
}

func TestNewOrderSeedsPendingHistory(t *testing.T) {
	now := time.Now().UTC()
	order := models.NewOrder(primitive.NewObjectID(), []models.OrderItem{models.NewOrderItem(product(10), 1)}, models.ShippingAddress{}, "", now)

	require.Equal(t, models.StatusPending, order.Status)
	require.Len(t, order.StatusHistory, 1)
	require.Equal(t, models.StatusPending, order.StatusHistory[0].Status)
	require.Equal(t, now, order.StatusHistory[0].ChangedAt)
	require.Equal(t, "cod", order.PaymentMethod)
	require.False(t, order.IsPaid)
	require.False(t, order.IsDelivered)
}

func TestSetStatusAppendsOneEntryPerChange(t *testing.T) {
	now := time.Now().UTC()
	order := models.NewOrder(primitive.NewObjectID(), nil, models.ShippingAddress{}, "cod", now)

	transitions := []models.OrderStatus{
		models.StatusProcessing,
		models.StatusPaid,
		models.StatusShipped,
		models.StatusDelivered,
	}
	for i, status := range transitions {
		require.True(t, order.SetStatus(status, now.Add(time.Duration(i)*time.Minute)))
	}

	// N transitions -> N+1 entries including the initial pending
	require.Len(t, order.StatusHistory, len(transitions)+1)
	require.Equal(t, models.StatusDelivered, order.Status)
	for i, status := range transitions {
		require.Equal(t, status, order.StatusHistory[i+1].Status)
	}
}

func TestSetStatusNoOpOnSameValue(t *testing.T) {
	now := time.Now().UTC()
	order := models.NewOrder(primitive.NewObjectID(), nil, models.ShippingAddress{}, "cod", now)

	require.False(t, order.SetStatus(models.StatusPending, now))
	require.Len(t, order.StatusHistory, 1)
}

func TestMarkPaid(t *testing.T) {
	now := time.Now().UTC()
	order := models.NewOrder(primitive.NewObjectID(), nil, models.ShippingAddress{}, "cod", now)

	paidAt := now.Add(time.Hour)
	order.MarkPaid(paidAt)

	require.True(t, order.IsPaid)
	require.NotNil(t, order.PaidAt)
	require.Equal(t, paidAt, *order.PaidAt)
	require.Equal(t, models.StatusPaid, order.Status)
	require.Len(t, order.StatusHistory, 2)

	// Paying again must not grow the history
	order.MarkPaid(paidAt.Add(time.Hour))
	require.Len(t, order.StatusHistory, 2)
}

func TestCanAccess(t *testing.T) {
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	order := models.Order{UserID: owner}

	require.True(t, order.CanAccess(owner, models.RoleUser))
	require.True(t, order.CanAccess(stranger, models.RoleAdmin))
	require.False(t, order.CanAccess(stranger, models.RoleUser))
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{"pending", "processing", "paid", "shipped", "delivered", "cancelled"} {
		require.True(t, models.ValidStatus(s), s)
	}
	require.False(t, models.ValidStatus(""))
	require.False(t, models.ValidStatus("refunded"))
	require.False(t, models.ValidStatus("Pending"))
}

func TestRound2(t *testing.T) {
	require.Equal(t, 4.52, models.Round2(4.523))
	require.Equal(t, 4.53, models.Round2(4.525000001))
	require.Equal(t, 0.0, models.Round2(0))
}
