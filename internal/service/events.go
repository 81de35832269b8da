package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event types published after a successful step mutation.
const (
	EventStepCreated = "step.created"
	EventStepDeleted = "step.deleted"
	EventStepMoved   = "step.moved"
)

// Event describes a committed change to a recipe's steps.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	RecipeID  string    `json:"recipe_id"`
	StepID    string    `json:"step_id"`
	StepNum   int       `json:"step_num"`
	Direction string    `json:"direction,omitempty"`
	Time      time.Time `json:"time"`
}

// Publisher receives events after mutations commit.
type Publisher interface {
	Publish(evt Event)
}

func newEvent(typ, recipeID, stepID string, stepNum int) Event {
	return Event{
		ID:       uuid.NewString(),
		Type:     typ,
		RecipeID: recipeID,
		StepID:   stepID,
		StepNum:  stepNum,
		Time:     time.Now().UTC(),
	}
}

type subscriber struct {
	recipeID string
	ch       chan Event
}

// Dispatcher is an in-process Publisher that fans events out to
// subscribers of one recipe.
type Dispatcher struct {
	nextID      uint64
	mu          sync.RWMutex
	subscribers map[uint64]subscriber
	buffer      int
}

// NewDispatcher constructs a dispatcher with the provided per-subscriber buffer.
func NewDispatcher(buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 16
	}
	return &Dispatcher{
		subscribers: make(map[uint64]subscriber),
		buffer:      buffer,
	}
}

// Subscribe registers a listener for recipeID's events. The channel is
// closed once ctx is done.
func (d *Dispatcher) Subscribe(ctx context.Context, recipeID string) <-chan Event {
	ch := make(chan Event, d.buffer)
	id := atomic.AddUint64(&d.nextID, 1)

	d.mu.Lock()
	d.subscribers[id] = subscriber{recipeID: recipeID, ch: ch}
	d.mu.Unlock()

	go func() {
		<-ctx.Done()
		d.mu.Lock()
		delete(d.subscribers, id)
		close(ch)
		d.mu.Unlock()
	}()

	return ch
}

// Publish implements Publisher without blocking. Slow subscribers miss
// events rather than stall the mutation path.
func (d *Dispatcher) Publish(evt Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, sub := range d.subscribers {
		if sub.recipeID != evt.RecipeID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (d *Dispatcher) Subscribers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}
