package audit

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type memorySink struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
}

func (m *memorySink) Log(_ context.Context, ev Event) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func TestDispatcherDeliversAndDrains(t *testing.T) {
	sink := &memorySink{}
	d := NewDispatcher(sink)

	for i := 0; i < 5; i++ {
		d.Dispatch(Event{BarbershopID: 1, Action: "appointment_created"})
	}
	d.Close()

	assert.Len(t, sink.events, 5)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &memorySink{block: make(chan struct{})}
	d := NewDispatcherSize(sink, 1)

	// worker takes the first and blocks, the second fills the queue
	for i := 0; i < 10; i++ {
		d.Dispatch(Event{Action: "x"})
	}

	close(sink.block)
	d.Close()

	assert.LessOrEqual(t, len(sink.events), 2)
	assert.GreaterOrEqual(t, len(sink.events), 1)
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() { d.Dispatch(Event{Action: "x"}) })
}
