package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/molscore/pkg/errors"
)

func TestNewClient_Standalone(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(&RedisConfig{Mode: "standalone", Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
	assert.False(t, client.IsCluster())
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := NewClient(&RedisConfig{Addr: addr, MaxRetries: -1}, nil)
	assert.Nil(t, client)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeServiceUnavailable))
}

func TestClient_Operations(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "foo", "bar", 0).Err())

	val, err := client.Get(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, "bar", val)

	n, err := client.Del(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClient_CloseRejectsCommands(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, nil)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.NoError(t, client.Close())
	assert.Equal(t, ErrClientClosed, client.Get(context.Background(), "foo").Err())
	assert.Equal(t, ErrClientClosed, client.Ping(context.Background()))
}

func TestScoreCache_RoundTripOnMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	defer client.Close()

	sc := NewScoreCache(NewRedisCache(client, nil), 0)
	calls := 0
	compute := func(context.Context) (string, error) {
		calls++
		return "312.4", nil
	}

	v, hit, err := sc.GetOrCompute(context.Background(), "fp", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "312.4", v)

	v, hit, err = sc.GetOrCompute(context.Background(), "fp", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "312.4", v)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists("molscore:fp"))
}

func TestScoreCache_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	defer client.Close()

	sc := NewScoreCache(NewRedisCache(client, nil, WithLoadTimeout(5*time.Second)), 0)

	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) (string, error) {
		close(started)
		select {
		case <-release:
			return "0.42", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	var (
		wg         sync.WaitGroup
		errA, errB error
		valB       string
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, errA = sc.GetOrCompute(ctxA, "shared", compute)
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		valB, _, errB = sc.GetOrCompute(context.Background(), "shared", func(context.Context) (string, error) {
			t.Error("second caller must join the in-flight load")
			return "", nil
		})
	}()

	// B has joined once it is blocked on the shared call; give it a moment.
	time.Sleep(50 * time.Millisecond)
	cancelA()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.True(t, pkgerrors.IsCode(errA, pkgerrors.ErrCodeServiceUnavailable))
	require.NoError(t, errB)
	assert.Equal(t, "0.42", valB)

	v, hit, err := sc.GetOrCompute(context.Background(), "shared", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "0.42", v)
}

func TestScoreCache_LoadTimeoutBoundsDetachedLoad(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	defer client.Close()

	sc := NewScoreCache(NewRedisCache(client, nil, WithLoadTimeout(30*time.Millisecond)), 0)
	_, _, err = sc.GetOrCompute(context.Background(), "slow", func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

//Personal.AI order the ending
