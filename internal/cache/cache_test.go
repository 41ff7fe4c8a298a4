package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/brigade/internal/cache"
	"github.com/MarkoPoloResearchLab/brigade/pkg/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUserID(test *testing.T, raw string) booking.UserID {
	test.Helper()
	userID, err := booking.NewUserID(raw)
	require.NoError(test, err)
	return userID
}

func TestViewKeyIsDeterministic(test *testing.T) {
	test.Parallel()
	userID := mustUserID(test, "user-1")
	pending := booking.StatusPending
	filtered := booking.ReservationFilter{Status: &pending}

	assert.Equal(test, cache.ViewKey(userID, filtered), cache.ViewKey(userID, filtered))
	assert.NotEqual(test, cache.ViewKey(userID, filtered), cache.ViewKey(userID, booking.ReservationFilter{}))
	assert.NotEqual(test, cache.ViewKey(userID, filtered), cache.ViewKey(mustUserID(test, "user-2"), filtered))
}

func TestRememberCachesFetchResult(test *testing.T) {
	test.Parallel()
	availability := cache.New(cache.NewMemoryStore(time.Minute), time.Minute, nil)
	userID := mustUserID(test, "user-1")
	fetchCalls := 0
	fetch := func(context.Context) ([]byte, error) {
		fetchCalls++
		return []byte(`[{"table":1}]`), nil
	}

	first, err := availability.Remember(context.Background(), userID, booking.ReservationFilter{}, fetch)
	require.NoError(test, err)
	second, err := availability.Remember(context.Background(), userID, booking.ReservationFilter{}, fetch)
	require.NoError(test, err)
	assert.Equal(test, first, second)
	assert.Equal(test, 1, fetchCalls)
}

func TestRememberDoesNotCacheFetchErrors(test *testing.T) {
	test.Parallel()
	availability := cache.New(cache.NewMemoryStore(time.Minute), time.Minute, nil)
	userID := mustUserID(test, "user-1")
	fetchErr := errors.New("store down")
	fetchCalls := 0
	failing := func(context.Context) ([]byte, error) {
		fetchCalls++
		return nil, fetchErr
	}

	_, err := availability.Remember(context.Background(), userID, booking.ReservationFilter{}, failing)
	require.ErrorIs(test, err, fetchErr)
	_, err = availability.Remember(context.Background(), userID, booking.ReservationFilter{}, failing)
	require.ErrorIs(test, err, fetchErr)
	assert.Equal(test, 2, fetchCalls)
}

func TestInvalidateDropsTouchedViews(test *testing.T) {
	test.Parallel()
	availability := cache.New(cache.NewMemoryStore(time.Minute), time.Minute, nil)
	userID := mustUserID(test, "user-1")
	pending := booking.StatusPending
	confirmed := booking.StatusConfirmed

	fetchCalls := 0
	fetch := func(context.Context) ([]byte, error) {
		fetchCalls++
		return []byte("view"), nil
	}
	_, err := availability.Remember(context.Background(), userID, booking.ReservationFilter{}, fetch)
	require.NoError(test, err)
	_, err = availability.Remember(context.Background(), userID, booking.ReservationFilter{Status: &pending}, fetch)
	require.NoError(test, err)
	_, err = availability.Remember(context.Background(), userID, booking.ReservationFilter{Status: &confirmed}, fetch)
	require.NoError(test, err)
	require.Equal(test, 3, fetchCalls)

	availability.InvalidateAvailability(context.Background(), booking.StatusPending)

	_, err = availability.Remember(context.Background(), userID, booking.ReservationFilter{}, fetch)
	require.NoError(test, err)
	_, err = availability.Remember(context.Background(), userID, booking.ReservationFilter{Status: &pending}, fetch)
	require.NoError(test, err)
	assert.Equal(test, 5, fetchCalls, "unfiltered and pending views must be refetched")

	_, err = availability.Remember(context.Background(), userID, booking.ReservationFilter{Status: &confirmed}, fetch)
	require.NoError(test, err)
	assert.Equal(test, 5, fetchCalls, "confirmed view must survive a pending invalidation")
}

func TestInvalidateIsIdempotent(test *testing.T) {
	test.Parallel()
	availability := cache.New(cache.NewMemoryStore(time.Minute), time.Minute, nil)

	availability.InvalidateAvailability(context.Background(), booking.StatusPending, booking.StatusPending)
	availability.InvalidateAvailability(context.Background())
}
