package authority

import (
	"context"
	"sync"
	"testing"

	mredisv2 "github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisAuthority_MiniRedis(t *testing.T) {
	require.NotEmpty(t, luaReserveBlockScript)

	mredis := mredisv2.RunT(t)
	rclient := redisv9.NewClient(&redisv9.Options{
		Addr: mredis.Addr(),
	})
	defer func() { _ = rclient.Close() }()

	auth, err := NewRedisAuthority(func() redisv9.Scripter {
		return rclient
	})
	require.NoError(t, err)

	for i := int64(0); i < 4; i++ {
		start, rerr := auth.ReserveBlock("orders", 25)
		require.NoError(t, rerr)
		require.Equal(t, i*25, start)
	}

	val, err := mredis.Get("xgen:seq:orders")
	require.NoError(t, err)
	require.Equal(t, "100", val)
}

func TestRedisAuthority_InitialValueAndPrefix(t *testing.T) {
	mredis := mredisv2.RunT(t)
	rclient := redisv9.NewClient(&redisv9.Options{Addr: mredis.Addr()})
	defer func() { _ = rclient.Close() }()

	auth, err := NewRedisAuthority(
		func() redisv9.Scripter { return rclient },
		WithRedisKeyPrefix("app:ids:"),
		WithRedisInitialValue(500),
	)
	require.NoError(t, err)

	start, err := auth.ReserveBlockContext(context.Background(), "orders", 10)
	require.NoError(t, err)
	require.Equal(t, int64(500), start)

	val, err := mredis.Get("app:ids:orders")
	require.NoError(t, err)
	require.Equal(t, "510", val)
}

func TestRedisAuthority_ConcurrentReserveNoOverlap(t *testing.T) {
	mredis := mredisv2.RunT(t)
	rclient := redisv9.NewClient(&redisv9.Options{Addr: mredis.Addr()})
	defer func() { _ = rclient.Close() }()

	auth, err := NewRedisAuthority(func() redisv9.Scripter { return rclient })
	require.NoError(t, err)

	const (
		reservers = 16
		blockSize = int64(7)
	)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		starts = make(map[int64]struct{}, reservers)
	)
	wg.Add(reservers)
	for i := 0; i < reservers; i++ {
		go func() {
			defer wg.Done()
			start, rerr := auth.ReserveBlock("orders", blockSize)
			require.NoError(t, rerr)
			mu.Lock()
			starts[start] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, starts, reservers)
	for start := range starts {
		require.Zero(t, start%blockSize)
	}
}

func TestRedisAuthority_InvalidArgs(t *testing.T) {
	mredis := mredisv2.RunT(t)
	rclient := redisv9.NewClient(&redisv9.Options{Addr: mredis.Addr()})
	defer func() { _ = rclient.Close() }()

	_, err := NewRedisAuthority(nil)
	require.Error(t, err)

	auth, err := NewRedisAuthority(func() redisv9.Scripter { return rclient })
	require.NoError(t, err)
	_, err = auth.ReserveBlock("", 4)
	require.ErrorIs(t, err, ErrEmptySequenceName)
	_, err = auth.ReserveBlock("orders", -1)
	require.ErrorIs(t, err, ErrInvalidBlockSize)
}
