package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// EventType represents the type of order event.
type EventType string

const (
	EventTypeOrderPlaced        EventType = "order.placed"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
)

// OrderEvent is the envelope published for order lifecycle changes.
type OrderEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Publisher publishes order lifecycle events.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error
	Close() error
}

// KafkaPublisher publishes order events to Kafka.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *logging.Logger
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *logging.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrdersTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		logger: logger,
	}
}

// PublishOrderPlaced publishes an event for a newly placed order.
func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	return p.publish(ctx, &OrderEvent{
		ID:        generateEventID(),
		Type:      EventTypeOrderPlaced,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// PublishOrderStatusChanged publishes an event for an admin status overwrite.
func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error {
	payload := struct {
		OrderID        string             `json:"order_id"`
		PreviousStatus models.OrderStatus `json:"previous_status"`
		NewStatus      models.OrderStatus `json:"new_status"`
	}{
		OrderID:        order.ID,
		PreviousStatus: previousStatus,
		NewStatus:      order.Status,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.publish(ctx, &OrderEvent{
		ID:        generateEventID(),
		Type:      EventTypeOrderStatusChanged,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, event *OrderEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"order_id":   event.OrderID,
			"error":      err.Error(),
		})
		return err
	}

	p.logger.Info("Event published", logging.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"order_id":   event.OrderID,
	})

	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher")
	return p.writer.Close()
}

func generateEventID() string {
	return "evt_" + uuid.NewString()
}

// MockPublisher records events for tests.
type MockPublisher struct {
	Events []*OrderEvent
}

// NewMockPublisher creates an event publisher that records instead of sending.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Events: make([]*OrderEvent, 0)}
}

func (m *MockPublisher) PublishOrderPlaced(ctx context.Context, order *models.Order) error {
	m.Events = append(m.Events, &OrderEvent{
		Type:    EventTypeOrderPlaced,
		OrderID: order.ID,
		UserID:  order.UserID,
	})
	return nil
}

func (m *MockPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error {
	m.Events = append(m.Events, &OrderEvent{
		Type:    EventTypeOrderStatusChanged,
		OrderID: order.ID,
		UserID:  order.UserID,
	})
	return nil
}

func (m *MockPublisher) Close() error { return nil }
