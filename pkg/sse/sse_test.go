package sse_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsmarket/storefront/pkg/sse"
)

func TestBrokerDropsForSlowSubscribers(t *testing.T) {
	b := sse.NewBroker()
	events, cancel := b.Subscribe()
	assert.Equal(t, 1, b.Subscribers())

	for i := 0; i < 100; i++ {
		require.NoError(t, b.Publish("order.created", map[string]int{"n": i}))
	}
	assert.Len(t, events, 32)

	msg := <-events
	assert.Equal(t, "order.created", msg.Event)
	assert.JSONEq(t, `{"n":0}`, string(msg.Data))

	cancel()
	cancel()
	assert.Zero(t, b.Subscribers())
}

func TestServeWritesFrames(t *testing.T) {
	b := sse.NewBroker()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = b.Serve(w, r, time.Hour)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, b.Publish("order.status_changed", map[string]string{"status": "shipped"}))

	sc := bufio.NewScanner(resp.Body)
	var frame []string
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "event:") || strings.HasPrefix(line, "data:") {
			frame = append(frame, line)
		}
		if len(frame) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"event: order.status_changed", `data: {"status":"shipped"}`}, frame)
}
