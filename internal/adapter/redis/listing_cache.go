package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
	"github.com/redis/go-redis/v9"
)

const (
	listingCacheKeyPrefix = "rental:listing:"
)

type listingCache struct {
	client redis.Cmdable
}

func NewListingCache(client redis.Cmdable) repository.ListingCache {
	return &listingCache{client: client}
}

func (c *listingCache) key(listingID string) string {
	return listingCacheKeyPrefix + listingID
}

func (c *listingCache) Get(ctx context.Context, listingID string) (*entity.Listing, error) {
	val, err := c.client.Get(ctx, c.key(listingID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing %s from redis: %w", listingID, err)
	}

	var listing entity.Listing
	if err := json.Unmarshal(val, &listing); err != nil {
		_ = c.Delete(ctx, listingID)
		return nil, fmt.Errorf("failed to unmarshal cached listing %s: %w", listingID, err)
	}
	return &listing, nil
}

func (c *listingCache) Set(ctx context.Context, listing *entity.Listing, ttl time.Duration) error {
	if listing == nil || listing.ID == "" {
		return errors.New("cannot cache nil listing or listing with empty ID")
	}
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to marshal listing %s: %w", listing.ID, err)
	}
	if err := c.client.Set(ctx, c.key(listing.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set listing %s to redis: %w", listing.ID, err)
	}
	return nil
}

func (c *listingCache) Delete(ctx context.Context, listingID string) error {
	if err := c.client.Del(ctx, c.key(listingID)).Err(); err != nil {
		return fmt.Errorf("failed to delete listing %s from redis: %w", listingID, err)
	}
	return nil
}
