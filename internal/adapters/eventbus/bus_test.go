package eventbus

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/taskgraph/internal/domain"
)

func TestPublishReachesTopicSubscribers(t *testing.T) {
	bus := NewSimpleEventBus(zerolog.Nop())
	defer bus.Stop()

	completed, err := bus.Subscribe(domain.GroupCompleted, 4)
	require.NoError(t, err)
	ready, err := bus.Subscribe(domain.GroupReadied, 4)
	require.NoError(t, err)

	bus.Publish(domain.NewEvent(domain.GroupCompleted, domain.GroupEvent{ID: 7, Subtasks: 3}))

	require.Len(t, completed, 1)
	ev := <-completed
	assert.Equal(t, domain.GroupCompleted, ev.Topic)
	assert.Equal(t, domain.TaskID(7), ev.Data.(domain.GroupEvent).ID)
	assert.Empty(t, ready)
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	bus := NewSimpleEventBus(zerolog.Nop())
	defer bus.Stop()

	sub, err := bus.Subscribe(domain.GroupSubmitted, 1)
	require.NoError(t, err)

	for range 3 {
		bus.Publish(domain.NewEvent(domain.GroupSubmitted, nil))
	}
	assert.Len(t, sub, 1)
	assert.Equal(t, 2, bus.Dropped(domain.GroupSubmitted))
}

func TestSubscribeDefaultBuffer(t *testing.T) {
	bus := NewSimpleEventBus(zerolog.Nop())
	sub, err := bus.Subscribe("x", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultBufferSize, cap(sub))
}

func TestUnsubscribe(t *testing.T) {
	bus := NewSimpleEventBus(zerolog.Nop())
	sub, err := bus.Subscribe("x", 1)
	require.NoError(t, err)

	require.NoError(t, bus.Unsubscribe("x", sub))
	assert.Error(t, bus.Unsubscribe("x", sub), "topic removed with its last subscriber")

	other, err := bus.Subscribe("y", 1)
	require.NoError(t, err)
	assert.Error(t, bus.Unsubscribe("y", make(Subscriber)))

	bus.Publish(domain.NewEvent("x", nil))
	assert.Empty(t, sub)
	assert.Empty(t, other)
}

func TestStoppedBus(t *testing.T) {
	bus := NewSimpleEventBus(zerolog.Nop())
	sub, err := bus.Subscribe("x", 1)
	require.NoError(t, err)

	bus.Stop()
	bus.Stop()

	bus.Publish(domain.NewEvent("x", nil))
	assert.Empty(t, sub)

	_, err = bus.Subscribe("x", 1)
	assert.Error(t, err)
}
