package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	approvalLockKeyPrefix = "rental:lock:approval:"
)

// releaseScript deletes the lock only while it still carries our owner value.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type listingLock struct {
	client redis.Cmdable
}

func NewListingLock(client redis.Cmdable) repository.ListingLock {
	return &listingLock{client: client}
}

func (l *listingLock) Acquire(ctx context.Context, listingID string, ttl time.Duration) (func(context.Context) error, error) {
	key := approvalLockKeyPrefix + listingID
	owner := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire approval lock for listing %s: %w", listingID, err)
	}
	if !acquired {
		return nil, repository.ErrLockNotAcquired
	}

	release := func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.client, []string{key}, owner).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release approval lock for listing %s: %w", listingID, err)
		}
		return nil
	}
	return release, nil
}
