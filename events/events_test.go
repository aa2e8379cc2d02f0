package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-storefront/events"
	"go-storefront/models"
)

func TestDisabledPublisherIsNoOp(t *testing.T) {
	p := events.NewPublisher(nil)

	order := models.NewOrder(primitive.NewObjectID(), nil, models.ShippingAddress{}, "cod", time.Now())
	order.ID = primitive.NewObjectID()

	// Must not panic or block with no brokers configured.
	p.OrderCreated(order)
	p.OrderStatusUpdated(order, models.StatusPaid)
	require.NoError(t, p.Close())
}
