package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"event-booking-server/models"
)

type recordingPusher struct {
	mu     sync.Mutex
	pushed []models.Notification
}

func (p *recordingPusher) PushNotifications(notifications []models.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, notifications...)
}

func (p *recordingPusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushed)
}

// memoryStatsCache keeps values in a map and records invalidations
type memoryStatsCache struct {
	values      map[uint]FeedbackStats
	invalidated []uint
	hits        int
}

func newMemoryStatsCache() *memoryStatsCache {
	return &memoryStatsCache{values: map[uint]FeedbackStats{}}
}

func (c *memoryStatsCache) Get(_ context.Context, postID uint, dest interface{}) (bool, error) {
	v, ok := c.values[postID]
	if !ok {
		return false, nil
	}
	c.hits++
	*dest.(*FeedbackStats) = v
	return true, nil
}

func (c *memoryStatsCache) Set(_ context.Context, postID uint, value interface{}) error {
	c.values[postID] = *value.(*FeedbackStats)
	return nil
}

func (c *memoryStatsCache) Invalidate(_ context.Context, postID uint) error {
	delete(c.values, postID)
	c.invalidated = append(c.invalidated, postID)
	return nil
}

func proofHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("paymentProof", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["paymentProof"][0]
}
