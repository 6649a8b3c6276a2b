package joblock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/testutil"
)

func TestDBJobLock_AcquireAndRefuse(t *testing.T) {
	ctx := context.Background()
	lock := NewDBJobLock(testutil.NewTestDB(t), logger.NewNopLogger())

	ok, err := lock.Acquire(ctx, "poll-gmail", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "poll-gmail", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held lock must not be acquired twice")

	ok, err = lock.Acquire(ctx, "other-job", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "locks are per job name")
}

func TestDBJobLock_ReleaseMakesAcquirable(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	lock := NewDBJobLock(db, logger.NewNopLogger())

	ok, err := lock.Acquire(ctx, "poll-gmail", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	lock.Release(ctx, "poll-gmail")

	var row models.JobLock
	require.NoError(t, db.Where("name = ?", "poll-gmail").Take(&row).Error)
	assert.Equal(t, int64(0), row.LockedUntil.Unix())

	ok, err = lock.Acquire(ctx, "poll-gmail", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDBJobLock_ExpiredLeaseIsTakenOver(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	lock := NewDBJobLock(db, logger.NewNopLogger()).(*dbLock)

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lock.now = func() time.Time { return start }
	ok, err := lock.Acquire(ctx, "poll-gmail", 5*time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	lock.now = func() time.Time { return start.Add(4 * time.Minute) }
	ok, err = lock.Acquire(ctx, "poll-gmail", 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	lock.now = func() time.Time { return start.Add(6 * time.Minute) }
	ok, err = lock.Acquire(ctx, "poll-gmail", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDBJobLock_ConcurrentAcquireHasOneWinner(t *testing.T) {
	ctx := context.Background()
	lock := NewDBJobLock(testutil.NewTestDB(t), logger.NewNopLogger())

	var winners int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := lock.Acquire(ctx, "poll-gmail", time.Minute)
			if err == nil && ok {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}
