package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// UserClient provides operations for fetching user profile data.
type UserClient interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	ValidateUser(ctx context.Context, userID string) (bool, error)
}

// HTTPUserClient implements UserClient against the user service.
type HTTPUserClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *logging.Logger
}

// NewHTTPUserClient creates a new HTTP-based user client.
func NewHTTPUserClient(cfg config.ServiceConfig, logger *logging.Logger) *HTTPUserClient {
	return &HTTPUserClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

// GetUser retrieves a user profile by id. A missing user is (nil, nil).
func (c *HTTPUserClient) GetUser(ctx context.Context, userID string) (*models.User, error) {
	url := fmt.Sprintf("%s/api/v2/users/%s", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch user", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user service returned status %d", resp.StatusCode)
	}

	var user models.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

// ValidateUser checks that a user exists and is active.
func (c *HTTPUserClient) ValidateUser(ctx context.Context, userID string) (bool, error) {
	user, err := c.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	return user.Status == models.UserStatusActive, nil
}

func (c *HTTPUserClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// MockUserClient is an in-memory UserClient for tests.
type MockUserClient struct {
	Users map[string]*models.User
}

// NewMockUserClient creates a mock user client.
func NewMockUserClient() *MockUserClient {
	return &MockUserClient{Users: make(map[string]*models.User)}
}

func (m *MockUserClient) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if user, ok := m.Users[userID]; ok {
		return user, nil
	}
	return nil, nil
}

func (m *MockUserClient) ValidateUser(ctx context.Context, userID string) (bool, error) {
	user, _ := m.GetUser(ctx, userID)
	return user != nil && user.Status == models.UserStatusActive, nil
}

// AddUser registers a user in the mock.
func (m *MockUserClient) AddUser(user *models.User) {
	m.Users[user.ID] = user
}
