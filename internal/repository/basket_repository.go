package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// BasketRepo stores each user's redemption basket in Redis as a hash
// of item ID → quantity under basket:{userID}.  Baskets are session
// state: they carry a sliding TTL, are wiped on logout and checkout,
// and are never visible to another identity.  A nil client disables
// the basket (callers receive empty results), mirroring how the rate
// limiter and response cache degrade when Redis is down.
type BasketRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBasketRepo returns a repo bound to the given Redis client.  The
// ttl bounds how long an untouched basket survives.
func NewBasketRepo(rdb *redis.Client, ttl time.Duration) *BasketRepo {
	return &BasketRepo{rdb: rdb, ttl: ttl}
}

// ErrBasketUnavailable is returned when Redis is not configured.
var ErrBasketUnavailable = fmt.Errorf("basket storage unavailable")

func basketKey(userID uint64) string {
	return fmt.Sprintf("basket:%d", userID)
}

// Add inserts the item with quantity 1, or increments an existing
// entry.  Each touch refreshes the basket TTL.
func (r *BasketRepo) Add(ctx context.Context, userID, itemID uint64) error {
	if r.rdb == nil {
		return ErrBasketUnavailable
	}
	key := basketKey(userID)
	pipe := r.rdb.TxPipeline()
	pipe.HIncrBy(ctx, key, strconv.FormatUint(itemID, 10), 1)
	pipe.Expire(ctx, key, r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Remove drops the item's entry regardless of quantity.  Removing an
// absent item is a no-op.
func (r *BasketRepo) Remove(ctx context.Context, userID, itemID uint64) error {
	if r.rdb == nil {
		return ErrBasketUnavailable
	}
	return r.rdb.HDel(ctx, basketKey(userID), strconv.FormatUint(itemID, 10)).Err()
}

// Clear empties the basket.  Called on logout and after a successful
// checkout.
func (r *BasketRepo) Clear(ctx context.Context, userID uint64) error {
	if r.rdb == nil {
		return ErrBasketUnavailable
	}
	return r.rdb.Del(ctx, basketKey(userID)).Err()
}

// Quantities returns the raw item ID → quantity mapping.  Handlers
// hydrate the IDs against the item repository before responding.
func (r *BasketRepo) Quantities(ctx context.Context, userID uint64) (map[uint64]uint32, error) {
	if r.rdb == nil {
		return nil, ErrBasketUnavailable
	}
	raw, err := r.rdb.HGetAll(ctx, basketKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]uint32, len(raw))
	for field, val := range raw {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.ParseUint(val, 10, 32)
		if err != nil || qty == 0 {
			continue
		}
		out[id] = uint32(qty)
	}
	return out, nil
}
