package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const (
	productKeyPrefix = "product:"
	defaultCacheTTL  = 5 * time.Minute
)

// RedisProductCache implements ProductCache using Redis. The catalog is
// read-mostly, so a short TTL plus invalidation on admin writes is enough.
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedisProductCache creates a new Redis-based product cache.
func NewRedisProductCache(cfg config.RedisConfig) *RedisProductCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	return &RedisProductCache{
		client: client,
		ttl:    ttl,
		logger: logging.NewLogger("product-cache"),
	}
}

// Get retrieves a product from cache. A miss returns (nil, nil).
func (c *RedisProductCache) Get(ctx context.Context, id int64) (*models.Product, error) {
	key := productKeyPrefix + strconv.FormatInt(id, 10)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.logger.Debug("Cache miss", logging.Fields{"product_id": id})
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Cache get error", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, err
	}

	c.logger.Debug("Cache hit", logging.Fields{"product_id": id})
	return &product, nil
}

// Set stores a product in cache.
func (c *RedisProductCache) Set(ctx context.Context, product *models.Product) error {
	key := productKeyPrefix + strconv.FormatInt(product.ID, 10)

	data, err := json.Marshal(product)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("Cache set error", logging.Fields{
			"product_id": product.ID,
			"error":      err.Error(),
		})
		return err
	}

	return nil
}

// Delete removes a product from cache, used after admin writes.
func (c *RedisProductCache) Delete(ctx context.Context, id int64) error {
	key := productKeyPrefix + strconv.FormatInt(id, 10)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Cache delete error", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return err
	}
	return nil
}
