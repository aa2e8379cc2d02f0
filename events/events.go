// events publishes order lifecycle notifications to Kafka. The publisher
// is optional: with no brokers configured every publish is a no-op, so the
// storefront runs standalone.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"go-storefront/models"
)

const (
	TopicOrderCreated       = "order-created"
	TopicOrderStatusUpdated = "order-status-updated"
)

const publishTimeout = 5 * time.Second

// Publisher writes keyed order events.
type Publisher struct {
	created *kafka.Writer
	updated *kafka.Writer
}

// NewPublisher builds a publisher for the given brokers. An empty broker
// list yields a disabled publisher.
func NewPublisher(brokers []string) *Publisher {
	if len(brokers) == 0 {
		return &Publisher{}
	}
	return &Publisher{
		created: newWriter(brokers, TopicOrderCreated),
		updated: newWriter(brokers, TopicOrderStatusUpdated),
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
}

// OrderCreated announces a freshly placed order.
func (p *Publisher) OrderCreated(order models.Order) {
	p.publish(p.created, order.ID.Hex(), map[string]interface{}{
		"orderId":    order.ID.Hex(),
		"userId":     order.UserID.Hex(),
		"grandTotal": order.Pricing.GrandTotal,
		"currency":   order.Pricing.Currency,
		"status":     order.Status,
		"createdAt":  order.CreatedAt,
	})
}

// OrderStatusUpdated announces a status transition.
func (p *Publisher) OrderStatusUpdated(order models.Order, status models.OrderStatus) {
	p.publish(p.updated, order.ID.Hex(), map[string]interface{}{
		"orderId": order.ID.Hex(),
		"userId":  order.UserID.Hex(),
		"status":  status,
	})
}

// publish is fire-and-forget; a broker outage must never fail the request
// that triggered the event. Messages are keyed by order id so updates for
// one order stay in partition order.
func (p *Publisher) publish(writer *kafka.Writer, key string, payload interface{}) {
	if writer == nil {
		return
	}
	value, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: marshal payload: %v", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		err := writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(key),
			Value: value,
			Time:  time.Now(),
		})
		if err != nil {
			log.Printf("events: write %s: %v", writer.Topic, err)
		}
	}()
}

// Close flushes and closes the underlying writers.
func (p *Publisher) Close() error {
	for _, w := range []*kafka.Writer{p.created, p.updated} {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}
