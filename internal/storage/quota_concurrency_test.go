package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/easeaico/liveroom/internal/apperr"
	"github.com/easeaico/liveroom/internal/usage"
)

const concurrentSenders = 60

// sendConcurrently fires concurrentSenders messages at once for userID and
// returns how many the gate let through and how many it refused.
func sendConcurrently(t *testing.T, gate *usage.Gate, userID int) (allowed, refused int64) {
	t.Helper()
	ctx := context.Background()

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		unexpected error
	)
	start := make(chan struct{})
	for i := 0; i < concurrentSenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := gate.ConsumeMessage(ctx, userID)
			switch {
			case err == nil:
				atomic.AddInt64(&allowed, 1)
			case apperr.Is(err, apperr.KindQuotaExceeded):
				atomic.AddInt64(&refused, 1)
			default:
				mu.Lock()
				unexpected = err
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if unexpected != nil {
		t.Fatalf("unexpected consume error: %v", unexpected)
	}
	return allowed, refused
}

func TestConcurrentMessagesOverAccountRepo(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	day := usage.Day(time.Now())

	_, err := store.Accounts.GetOrCreateAccount(ctx, 11, day)
	require.NoError(t, err)

	allowed, refused := sendConcurrently(t, usage.NewGate(store.Accounts, store.Accounts), 11)
	require.EqualValues(t, 20, allowed)
	require.EqualValues(t, concurrentSenders-20, refused)

	u, err := store.Accounts.Usage(ctx, 11, day)
	require.NoError(t, err)
	require.Equal(t, 20, u.Messages)

	account, err := store.Accounts.GetOrCreateAccount(ctx, 11, day)
	require.NoError(t, err)
	require.Equal(t, 20, account.TotalMessagesSent)
}

func TestConcurrentMessagesOverRedisCounters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	counters, _ := newTestRedisCounters(t)
	day := usage.Day(time.Now())

	_, err := store.Accounts.GetOrCreateAccount(ctx, 12, day)
	require.NoError(t, err)

	allowed, refused := sendConcurrently(t, usage.NewGate(store.Accounts, counters), 12)
	require.EqualValues(t, 20, allowed)
	require.EqualValues(t, concurrentSenders-20, refused)

	u, err := counters.Usage(ctx, 12, day)
	require.NoError(t, err)
	require.Equal(t, 20, u.Messages)
}
