package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// Defaults used by quick checkout when the profile has no address.
const (
	defaultShippingAddress = "Default shipping address"
	defaultPaymentMethod   = "Cash on Delivery"
)

// OrderService handles checkout and order management.
type OrderService struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	users     clients.UserClient
	notifier  clients.NotificationSender
	publisher events.Publisher
	features  config.FeatureFlags
	logger    *logging.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	users clients.UserClient,
	notifier clients.NotificationSender,
	publisher events.Publisher,
	features config.FeatureFlags,
) *OrderService {
	return &OrderService{
		orders:    orders,
		carts:     carts,
		users:     users,
		notifier:  notifier,
		publisher: publisher,
		features:  features,
		logger:    logging.NewLogger("order-service"),
	}
}

// PlaceOrder runs the standard checkout: snapshot the user's cart into an
// immutable order and clear the cart, as one unit.
func (s *OrderService) PlaceOrder(ctx context.Context, userID, shippingAddress, paymentMethod string) (*models.Order, error) {
	if shippingAddress == "" {
		return nil, apperrors.NewValidationError("shipping_address", "shipping address is required")
	}
	if paymentMethod == "" {
		return nil, apperrors.NewValidationError("payment_method", "payment method is required")
	}
	return s.checkout(ctx, userID, shippingAddress, paymentMethod)
}

// QuickCheckout places an order using the profile's address and the default
// payment label, skipping the checkout form.
func (s *OrderService) QuickCheckout(ctx context.Context, userID string) (*models.Order, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	shippingAddress := defaultShippingAddress
	if user, err := s.users.GetUser(ctx, userID); err == nil && user != nil && user.Address != "" {
		shippingAddress = user.Address
	}

	return s.checkout(ctx, userID, shippingAddress, defaultPaymentMethod)
}

// checkout converts a non-empty cart into a Pending order.
//
// Each order line captures the product's current price; that snapshot is
// permanent and never revisited when the product later changes. Order
// persistence and cart clearing are one repository transaction.
func (s *OrderService) checkout(ctx context.Context, userID, shippingAddress, paymentMethod string) (*models.Order, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	lines, err := s.carts.GetLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperrors.ErrEmptyCart
	}

	order := &models.Order{
		UserID:          userID,
		PlacedAt:        time.Now(),
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
		Status:          models.OrderStatusPending,
		Lines:           make([]models.OrderLine, 0, len(lines)),
	}

	for _, line := range lines {
		order.Lines = append(order.Lines, models.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
		})
	}
	order.CalculateTotal()

	order, err = s.orders.CreateWithLines(ctx, order, userID)
	if err != nil {
		s.logger.Error("Checkout failed", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	metrics.OrdersPlaced.Inc()

	if s.features.EnableOrderEvents {
		if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
			// Log but don't fail: the order is already committed.
			s.logger.Error("Failed to publish order placed event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	if s.features.EnableNotifications {
		go s.sendOrderConfirmation(context.WithoutCancel(ctx), order)
	}

	s.logger.Info("Order placed", logging.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.Total.String(),
	})

	return order, nil
}

// GetUserOrders returns the user's order history, newest first.
func (s *OrderService) GetUserOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	return s.orders.GetByUserID(ctx, userID)
}

// GetOrder returns an order with its lines, scoped to the owning user.
// Another user's order is indistinguishable from a missing one.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID string) (*models.Order, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return order, nil
}

// AdminGetOrder returns any order with its lines, without an owner filter.
func (s *OrderService) AdminGetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// AdminListOrders returns all orders, newest first.
func (s *OrderService) AdminListOrders(ctx context.Context, limit, offset int) ([]*models.Order, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.orders.List(ctx, limit, offset)
}

// UpdateStatus overwrites an order's status with the given value. The value
// must be a member of the enumeration, but any member-to-member overwrite is
// accepted: the status is a label, not a guarded state machine.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, statusValue string) (*models.Order, error) {
	status, ok := models.ParseOrderStatus(statusValue)
	if !ok {
		return nil, apperrors.NewValidationError("status", "invalid order status")
	}

	current, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	previousStatus := current.Status

	order, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}

	if s.features.EnableOrderEvents {
		if err := s.publisher.PublishOrderStatusChanged(ctx, order, previousStatus); err != nil {
			s.logger.Error("Failed to publish status change event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	if s.features.EnableNotifications {
		go s.sendStatusChangeNotification(context.WithoutCancel(ctx), order)
	}

	return order, nil
}

func (s *OrderService) sendOrderConfirmation(ctx context.Context, order *models.Order) {
	notification := &models.Notification{
		UserID:  order.UserID,
		Type:    models.NotificationTypeOrderConfirmation,
		Subject: "Order Confirmation",
		Body:    fmt.Sprintf("Your order %s has been received.", order.ID),
		Metadata: map[string]string{
			"order_id": order.ID,
			"total":    order.Total.String(),
		},
	}

	if err := s.notifier.Send(ctx, notification); err != nil {
		s.logger.Error("Failed to send order confirmation", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}

func (s *OrderService) sendStatusChangeNotification(ctx context.Context, order *models.Order) {
	var notificationType, subject, body string

	switch order.Status {
	case models.OrderStatusShipped:
		notificationType = models.NotificationTypeOrderShipped
		subject = "Order Shipped"
		body = fmt.Sprintf("Your order %s has been shipped.", order.ID)
	case models.OrderStatusDelivered:
		notificationType = models.NotificationTypeOrderDelivered
		subject = "Order Delivered"
		body = fmt.Sprintf("Your order %s has been delivered.", order.ID)
	default:
		return
	}

	notification := &models.Notification{
		UserID:  order.UserID,
		Type:    notificationType,
		Subject: subject,
		Body:    body,
	}

	if err := s.notifier.Send(ctx, notification); err != nil {
		s.logger.Error("Failed to send status change notification", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}
