package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	TotalCount int64  `json:"totalCount"`
	Average    string `json:"averageRating"`
}

func TestRedisStatsCacheRoundTrip(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisStatsCache(client, time.Minute)
	ctx := context.Background()

	mock.ExpectSet("feedback:stats:9", `{"totalCount":3,"averageRating":"4.7"}`, time.Minute).SetVal("OK")
	require.NoError(t, c.Set(ctx, 9, sample{TotalCount: 3, Average: "4.7"}))

	mock.ExpectGet("feedback:stats:9").SetVal(`{"totalCount":3,"averageRating":"4.7"}`)
	var got sample
	found, err := c.Get(ctx, 9, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{TotalCount: 3, Average: "4.7"}, got)

	mock.ExpectDel("feedback:stats:9").SetVal(1)
	require.NoError(t, c.Invalidate(ctx, 9))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStatsCacheMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisStatsCache(client, time.Minute)

	mock.ExpectGet("feedback:stats:1").RedisNil()
	var got sample
	found, err := c.Get(context.Background(), 1, &got)
	require.NoError(t, err)
	assert.False(t, found)

	mock.ExpectGet("feedback:stats:2").SetErr(errors.New("connection refused"))
	found, err = c.Get(context.Background(), 2, &got)
	assert.Error(t, err)
	assert.False(t, found)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoopStatsCache(t *testing.T) {
	var c StatsCache = NoopStatsCache{}
	found, err := c.Get(context.Background(), 1, &sample{})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Set(context.Background(), 1, sample{}))
	assert.NoError(t, c.Invalidate(context.Background(), 1))
}
