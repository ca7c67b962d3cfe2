package utils

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic(t *testing.T) {
	topic := NewTopic[int](1)
	a := topic.Subscribe()
	b := topic.Subscribe()
	require.Equal(t, 2, topic.Len())

	assert.Equal(t, 2, topic.Publish(1))
	assert.Equal(t, 1, <-a.Recv())

	// b never drained its buffer
	assert.Equal(t, 1, topic.Publish(2))
	assert.Equal(t, 2, <-a.Recv())
	assert.Equal(t, 1, <-b.Recv())

	b.Done()
	assert.Equal(t, 1, topic.Len())
	a.Done()
	assert.Equal(t, 0, topic.Publish(3))
}

func TestSession(t *testing.T) {
	session := NewSession(context.Background())
	assert.False(t, session.IsDone())
	assert.GreaterOrEqual(t, session.Uptime(), time.Duration(0))

	var stopped atomic.Int32
	for i := 0; i < 3; i++ {
		session.Go(func(ctx context.Context) {
			<-ctx.Done()
			stopped.Add(1)
		})
	}

	session.Shutdown()
	assert.True(t, session.IsDone())
	assert.Equal(t, int32(3), stopped.Load())
	<-session.Done()
}
