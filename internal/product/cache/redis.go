// Package cache provides a Redis-backed read-through cache for product
// snapshots. It is best effort: every Redis failure is logged and
// treated as a miss, so the store of record stays authoritative.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"custos/internal/product/models"
	id "custos/pkg/domain"
)

const keyPrefix = "custos:snapshot:"

// Snapshot caches the latest product state keyed by product id.
// Entries are invalidated on transfer, so a hit is never staler than
// the last committed mutation plus the eventual delete.
type Snapshot struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewSnapshot(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Snapshot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Snapshot{client: client, ttl: ttl, logger: logger}
}

func (c *Snapshot) Get(ctx context.Context, productID id.ProductID) (*models.Product, bool) {
	raw, err := c.client.Get(ctx, key(productID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "snapshot cache get failed", "product_id", productID.String(), "error", err)
		}
		return nil, false
	}
	var product models.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		c.logger.WarnContext(ctx, "snapshot cache entry corrupt", "product_id", productID.String(), "error", err)
		c.client.Del(ctx, key(productID))
		return nil, false
	}
	return &product, true
}

func (c *Snapshot) Set(ctx context.Context, product *models.Product) {
	raw, err := json.Marshal(product)
	if err != nil {
		c.logger.WarnContext(ctx, "snapshot cache encode failed", "product_id", product.ID.String(), "error", err)
		return
	}
	if err := c.client.Set(ctx, key(product.ID), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "snapshot cache set failed", "product_id", product.ID.String(), "error", err)
	}
}

func (c *Snapshot) Invalidate(ctx context.Context, productID id.ProductID) {
	if err := c.client.Del(ctx, key(productID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "snapshot cache invalidate failed", "product_id", productID.String(), "error", err)
	}
}

func key(productID id.ProductID) string {
	return keyPrefix + productID.String()
}
