//go:build unit

package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu    sync.Mutex
	items map[string][]byte
	err   error
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.items[key], nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items[key] = value
	return nil
}

func TestLimiter_AllowsUpToMax(t *testing.T) {
	l := New(newMemStore(), 3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "submission %d should be allowed", i+1)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	// Other clients have their own window.
	d, err = l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_WindowRolls(t *testing.T) {
	l := New(newMemStore(), 3, time.Hour)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		at := start.Add(time.Duration(i) * 10 * time.Minute)
		l.now = func() time.Time { return at }
		d, err := l.Allow(ctx, "addr")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	l.now = func() time.Time { return start.Add(59 * time.Minute) }
	d, err := l.Allow(ctx, "addr")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, start.Add(time.Hour), d.ResetAt.UTC())

	// The first submission has left the window.
	l.now = func() time.Time { return start.Add(61 * time.Minute) }
	d, err = l.Allow(ctx, "addr")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestLimiter_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("disk full")
	l := New(store, 3, time.Hour)

	_, err := l.Allow(context.Background(), "addr")
	assert.Error(t, err)
}

func TestLimiter_CorruptWindowIsReset(t *testing.T) {
	store := newMemStore()
	store.items["ratelimit:addr"] = []byte("not json")
	l := New(store, 1, time.Hour)

	d, err := l.Allow(context.Background(), "addr")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

type fakeDynamo struct {
	items map[string]map[string]dynamodbtypes.AttributeValue
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	key := in.Key["key"].(*dynamodbtypes.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[key]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key := in.Item["key"].(*dynamodbtypes.AttributeValueMemberS).Value
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoStore_SetGetExpiry(t *testing.T) {
	fake := &fakeDynamo{items: make(map[string]map[string]dynamodbtypes.AttributeValue)}
	s := NewDynamoStore(fake, "review_rate_limits")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	got, err := s.Get(ctx, "ratelimit:addr")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Set(ctx, "ratelimit:addr", []byte("[1]"), time.Hour))
	got, err = s.Get(ctx, "ratelimit:addr")
	require.NoError(t, err)
	assert.Equal(t, []byte("[1]"), got)

	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	got, err = s.Get(ctx, "ratelimit:addr")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLimiter_WithDynamoStore(t *testing.T) {
	fake := &fakeDynamo{items: make(map[string]map[string]dynamodbtypes.AttributeValue)}
	l := New(NewDynamoStore(fake, "t"), 2, time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "addr")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := l.Allow(ctx, "addr")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}
