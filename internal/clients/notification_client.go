package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// NotificationSender delivers user-facing notifications.
type NotificationSender interface {
	Send(ctx context.Context, notification *models.Notification) error
}

// HTTPNotificationClient implements NotificationSender against the
// notification service.
type HTTPNotificationClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *logging.Logger
}

// NewHTTPNotificationClient creates a new HTTP-based notification client.
func NewHTTPNotificationClient(cfg config.ServiceConfig, logger *logging.Logger) *HTTPNotificationClient {
	return &HTTPNotificationClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

// Send delivers a notification.
func (c *HTTPNotificationClient) Send(ctx context.Context, notification *models.Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v2/notifications", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to send notification", logging.Fields{
			"user_id": notification.UserID,
			"type":    notification.Type,
			"error":   err.Error(),
		})
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	c.logger.Info("Notification sent", logging.Fields{
		"user_id": notification.UserID,
		"type":    notification.Type,
	})

	return nil
}

// MockNotificationSender records notifications for tests.
type MockNotificationSender struct {
	mu   sync.Mutex
	Sent []*models.Notification
}

// NewMockNotificationSender creates a recording notification sender.
func NewMockNotificationSender() *MockNotificationSender {
	return &MockNotificationSender{Sent: make([]*models.Notification, 0)}
}

func (m *MockNotificationSender) Send(ctx context.Context, notification *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, notification)
	return nil
}

// Count returns how many notifications were recorded.
func (m *MockNotificationSender) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
