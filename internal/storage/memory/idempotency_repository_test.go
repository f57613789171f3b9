package memory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

const placedOrderBody = `{"data":{"order_id":"o-1","status":"pending_confirmation","total_minor":5810}}`

func TestIdempotencyRepository_OwnersDoNotShareKeys(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)

	anna := domain.ScopedIdempotencyKey("u-anna", "checkout-1")
	boris := domain.ScopedIdempotencyKey("u-boris", "checkout-1")

	_, err := repo.CreateProcessing(anna, "hash-anna", ttl)
	require.NoError(t, err)
	_, err = repo.CreateProcessing(boris, "hash-boris", ttl)
	require.NoError(t, err, "same client key of another owner must not collide")

	require.NoError(t, repo.MarkDone(anna, []byte(placedOrderBody), 201))

	got, err := repo.Get(boris)
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyStatusProcessing, got.Status)
	assert.Empty(t, got.ResponseBody)
}

func TestIdempotencyRepository_RepeatedCheckoutReplaysOrder(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	key := domain.ScopedIdempotencyKey("u-anna", "checkout-2")
	ttl := time.Now().UTC().Add(2 * time.Hour).Round(time.Second)

	created, err := repo.CreateProcessing(key, "hash-cart", ttl)
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyStatusProcessing, created.Status)
	assert.False(t, created.Replayable())

	// Повтор, пока первый запрос ещё оформляется.
	inFlight, err := repo.CreateProcessing(key, "hash-cart", ttl)
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyAlreadyExists)
	assert.Equal(t, domain.IdempotencyStatusProcessing, inFlight.Status)

	require.NoError(t, repo.MarkDone(key, []byte(placedOrderBody), 201))

	replay, err := repo.CreateProcessing(key, "hash-cart", ttl)
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyAlreadyExists)
	require.True(t, replay.Replayable())
	assert.Equal(t, 201, replay.HTTPStatus)
	assert.JSONEq(t, placedOrderBody, string(replay.ResponseBody))
	assert.True(t, replay.TTLAt.Equal(ttl))

	_, err = repo.CreateProcessing(key, "hash-other-cart", ttl)
	assert.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)
}

func TestIdempotencyRepository_RejectedCheckoutIsReplayedToo(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	key := domain.ScopedIdempotencyKey("u-anna", "checkout-3")
	conflict := []byte(`{"error":{"code":"conflict","message":"only 1 available","available":1}}`)

	_, err := repo.CreateProcessing(key, "hash", time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.MarkFailed(key, conflict, 409))

	got, err := repo.Get(key)
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyStatusFailed, got.Status)
	assert.True(t, got.Replayable())
	assert.Equal(t, 409, got.HTTPStatus)

	// Сохранённый ответ не должен меняться через возвращённую копию.
	got.ResponseBody[0] = 'X'
	again, err := repo.Get(key)
	require.NoError(t, err)
	assert.JSONEq(t, string(conflict), string(again.ResponseBody))
}

func TestIdempotencyRepository_Validation(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	_, err := repo.CreateProcessing("  ", "hash", time.Time{})
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyRequired)
	_, err = repo.CreateProcessing("u-1:k", " ", time.Time{})
	assert.ErrorIs(t, err, domain.ErrIdempotencyRequestHashRequired)

	_, err = repo.Get("u-1:missing")
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)

	created, err := repo.CreateProcessing("u-1:k", "hash", time.Time{})
	require.NoError(t, err)
	assert.False(t, created.Expired(time.Now().UTC()), "zero ttl falls back to the default retention")
}

func TestIdempotencyRepository_DeleteExpiredOldestFirst(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	now := time.Now().UTC()

	keys := []string{"u-1:oldest", "u-1:middle", "u-1:newest"}
	for i, ttl := range []time.Duration{-3 * time.Hour, -2 * time.Hour, -time.Hour} {
		_, err := repo.CreateProcessing(keys[i], "hash", now.Add(ttl))
		require.NoError(t, err)
	}
	_, err := repo.CreateProcessing("u-1:alive", "hash", now.Add(time.Hour))
	require.NoError(t, err)

	removed, err := repo.DeleteExpired(now, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = repo.Get("u-1:oldest")
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
	_, err = repo.Get("u-1:newest")
	assert.NoError(t, err, "limited sweep keeps the newest expired key")

	removed, err = repo.DeleteExpired(now, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = repo.Get("u-1:alive")
	assert.NoError(t, err)
}
