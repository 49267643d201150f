package domain

import "time"

// Event topics published by the sleeping engine.
const (
	GroupSubmitted = "group.submitted"
	GroupReadied   = "group.ready"
	GroupCompleted = "group.completed"
)

// Event represents a message passed through the event bus.
type Event struct {
	Topic     string      // e.g. "group.completed"
	Data      interface{} // Payload of the event
	Timestamp time.Time
}

// NewEvent creates a new event.
func NewEvent(topic string, data interface{}) Event {
	return Event{
		Topic:     topic,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// GroupEvent is the payload of every group.* event.
type GroupEvent struct {
	ID          TaskID
	Subtasks    int
	SubmittedAt time.Time
	CompletedAt time.Time // zero until the group completes
}

// NewGroupEvent captures the immutable fields of g. CompletedAt is left for
// the completion hook to fill in, since only that goroutine may read it.
func NewGroupEvent(g *TaskGroup) GroupEvent {
	return GroupEvent{
		ID:          g.ID,
		Subtasks:    g.Total(),
		SubmittedAt: g.SubmittedAt,
	}
}

// EventBus is the publishing side of the event bus as seen by the engine.
type EventBus interface {
	Publish(event Event)
	Subscribe(topic string, bufferSize int) (chan Event, error)
	Unsubscribe(topic string, ch chan Event) error
}
