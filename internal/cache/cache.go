package cache

import (
	"context"
	"crypto/sha1"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/brigade/pkg/booking"
	"go.uber.org/zap"
)

const (
	keyPrefix  = "brigade:availability"
	tagAll     = "all"
	defaultTTL = 5 * time.Minute
)

// Store is the backing key-value layer for availability views. Entries are
// grouped under tags so that one state change can drop every view it touched
// without knowing which users hold cached copies.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, tags []string, ttl time.Duration)
	Invalidate(ctx context.Context, tags []string)
}

// ViewKey derives the deterministic cache key for one user's availability
// view. The user id is hashed so keys stay fixed-length and opaque.
func ViewKey(userID booking.UserID, filter booking.ReservationFilter) string {
	sum := sha1.Sum([]byte(userID.String()))
	return fmt.Sprintf("%s:%s:%x", keyPrefix, tagFor(filter), sum[:])
}

func tagFor(filter booking.ReservationFilter) string {
	if filter.Status != nil {
		return filter.Status.String()
	}
	return tagAll
}

// Availability caches rendered availability views and implements
// booking.CacheInvalidator for the engine.
type Availability struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// New returns an Availability cache over the given store. A non-positive ttl
// falls back to a bounded default.
func New(store Store, ttl time.Duration, logger *zap.Logger) *Availability {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Availability{store: store, ttl: ttl, logger: logger}
}

// Remember returns the cached view for the user and filter, or renders it via
// fetch and stores the result. Fetch errors are returned uncached.
func (availability *Availability) Remember(ctx context.Context, userID booking.UserID, filter booking.ReservationFilter, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	key := ViewKey(userID, filter)
	if cached, found := availability.store.Get(ctx, key); found {
		return cached, nil
	}
	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	availability.store.Set(ctx, key, value, []string{tagFor(filter)}, availability.ttl)
	return value, nil
}

// InvalidateAvailability drops the unfiltered views plus the views filtered
// by each listed status. Repeated invalidation of absent entries is a no-op.
func (availability *Availability) InvalidateAvailability(ctx context.Context, statuses ...booking.Status) {
	tags := make([]string, 0, len(statuses)+1)
	tags = append(tags, tagAll)
	seen := map[string]struct{}{tagAll: {}}
	for _, status := range statuses {
		tag := status.String()
		if _, duplicate := seen[tag]; duplicate {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	availability.store.Invalidate(ctx, tags)
	availability.logger.Debug("availability cache invalidated", zap.Strings("tags", tags))
}
