package models

import (
	"fmt"
	"math"
	"time"
)

// Money represents a monetary amount in minor units (cents).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// NewMoney creates a Money value from a float amount in major units.
func NewMoney(amount float64, currency string) Money {
	return Money{
		Amount:   int64(math.Round(amount * 100)),
		Currency: currency,
	}
}

// ToFloat converts the amount back to major units.
func (m Money) ToFloat() float64 {
	return float64(m.Amount) / 100
}

// MulQty multiplies the amount by a line quantity.
func (m Money) MulQty(qty int) Money {
	return Money{Amount: m.Amount * int64(qty), Currency: m.Currency}
}

// Add returns the sum of two amounts. Currencies are expected to match;
// the left currency wins if they do not.
func (m Money) Add(other Money) Money {
	currency := m.Currency
	if currency == "" {
		currency = other.Currency
	}
	return Money{Amount: m.Amount + other.Amount, Currency: currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.ToFloat(), m.Currency)
}

// Product is a catalog item. Referenced, never owned, by cart and order lines.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       Money     `json:"price"`
	ImageURL    string    `json:"image_url"`
	CategoryID  int64     `json:"category_id"`
	Stock       int       `json:"stock"`
	Available   bool      `json:"available"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InStock reports whether the product can be added to a cart.
// Stock is checked for existence only, not against requested quantities.
func (p *Product) InStock() bool {
	return p.Available && p.Stock > 0
}

// Category groups products. Deletion is blocked while products reference it.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     int    `json:"version"`
}

// CartLine is one row mapping a cart identity to a product and quantity.
// At most one line exists per (cart identity, product).
type CartLine struct {
	ID           int64     `json:"id"`
	CartIdentity string    `json:"-"`
	ProductID    int64     `json:"product_id"`
	Quantity     int       `json:"quantity"`
	CreatedAt    time.Time `json:"created_at"`

	// Product is attached on reads; never persisted with the line.
	Product *Product `json:"product,omitempty"`
}

// LineTotal is the live price of the line: current product price times quantity.
func (l *CartLine) LineTotal() Money {
	if l.Product == nil {
		return Money{}
	}
	return l.Product.Price.MulQty(l.Quantity)
}

// OrderStatus is a label on an order. Transitions are not validated:
// an admin overwrite to any known status is accepted.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus validates a status value from the API.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

// Order is an immutable snapshot of a cart at checkout time.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	PlacedAt        time.Time   `json:"placed_at"`
	Total           Money       `json:"total"`
	ShippingAddress string      `json:"shipping_address"`
	PaymentMethod   string      `json:"payment_method"`
	Status          OrderStatus `json:"status"`
	Lines           []OrderLine `json:"lines,omitempty"`
}

// CalculateTotal recomputes the order total from its lines' captured prices.
func (o *Order) CalculateTotal() {
	var total Money
	for _, line := range o.Lines {
		total = total.Add(line.UnitPrice.MulQty(line.Quantity))
	}
	o.Total = total
}

// OrderLine captures product id, quantity, and unit price at order-creation
// time. The price is frozen and never recomputed from the product.
type OrderLine struct {
	ID        int64  `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unit_price"`
}

// Cart is the view of a cart returned to callers: lines with product data,
// the live total, and the summed item count.
type Cart struct {
	Identity string      `json:"-"`
	Lines    []*CartLine `json:"lines"`
	Total    Money       `json:"total"`
	Count    int         `json:"count"`
}

// User is the profile shape returned by the user service.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

// UserStatusActive marks a user that may place orders.
const UserStatusActive = "active"

// CreateProductRequest is the admin payload for creating a product.
type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	ImageURL    string  `json:"image_url"`
	CategoryID  int64   `json:"category_id"`
	Stock       int     `json:"stock"`
	Available   bool    `json:"available"`
}

// UpdateProductRequest carries the expected row version for the optimistic
// concurrency check on admin edits.
type UpdateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	ImageURL    string  `json:"image_url"`
	CategoryID  int64   `json:"category_id"`
	Stock       int     `json:"stock"`
	Available   bool    `json:"available"`
	Version     int     `json:"version"`
}

// CreateCategoryRequest is the admin payload for creating a category.
type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateCategoryRequest carries the expected row version, like product edits.
type UpdateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     int    `json:"version"`
}

// Notification is the payload accepted by the notification service.
type Notification struct {
	UserID   string            `json:"user_id"`
	Type     string            `json:"type"`
	Subject  string            `json:"subject"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

const (
	NotificationTypeOrderConfirmation = "order_confirmation"
	NotificationTypeOrderShipped      = "order_shipped"
	NotificationTypeOrderDelivered    = "order_delivered"
)
