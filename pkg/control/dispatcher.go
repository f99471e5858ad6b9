package control

import (
	"context"

	"github.com/rs/zerolog"
)

// Handler is a deferred handler. It runs to completion at a tick boundary
// and may block in bounded motions.
type Handler func(ctx context.Context)

// Interrupt is a handler that runs at the next yield point, even in the
// middle of a running motion. It must only flip flags or issue
// non-blocking actuator commands.
type Interrupt func()

// HandlerObserver is notified for every handler invocation.
type HandlerObserver interface {
	ObserveHandler(b Button, e Edge)
}

type edgeKey struct {
	button Button
	edge   Edge
}

type binding struct {
	handler   Handler
	interrupt Interrupt
}

type pending struct {
	name string
	fn   Handler
}

// Dispatcher binds button edges to handlers and drains the event channel.
//
// Poll applies every queued event to the Input, runs interrupt bindings
// immediately and queues deferred bindings. RunPending runs the queued
// handlers one after another, each to completion.
type Dispatcher struct {
	events   <-chan Event
	input    *Input
	log      zerolog.Logger
	observer HandlerObserver

	bindings map[edgeKey][]binding
	queue    []pending
}

// NewDispatcher returns a dispatcher reading from events.
func NewDispatcher(events <-chan Event, input *Input, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		events:   events,
		input:    input,
		log:      log.With().Str("component", "dispatcher").Logger(),
		bindings: make(map[edgeKey][]binding),
	}
}

// WithObserver sets the handler observer.
func (d *Dispatcher) WithObserver(o HandlerObserver) *Dispatcher {
	d.observer = o
	return d
}

// Input returns the input state the dispatcher maintains.
func (d *Dispatcher) Input() *Input { return d.input }

// OnPress binds a deferred handler to the press of b.
func (d *Dispatcher) OnPress(b Button, h Handler) { d.bind(b, Press, binding{handler: h}) }

// OnRelease binds a deferred handler to the release of b.
func (d *Dispatcher) OnRelease(b Button, h Handler) { d.bind(b, Release, binding{handler: h}) }

// InterruptOnPress binds an interrupt to the press of b.
func (d *Dispatcher) InterruptOnPress(b Button, i Interrupt) {
	d.bind(b, Press, binding{interrupt: i})
}

// InterruptOnRelease binds an interrupt to the release of b.
func (d *Dispatcher) InterruptOnRelease(b Button, i Interrupt) {
	d.bind(b, Release, binding{interrupt: i})
}

func (d *Dispatcher) bind(b Button, e Edge, bd binding) {
	k := edgeKey{b, e}
	d.bindings[k] = append(d.bindings[k], bd)
}

// Defer queues h to run at the next tick boundary.
func (d *Dispatcher) Defer(name string, h Handler) {
	d.queue = append(d.queue, pending{name: name, fn: h})
}

// Pending returns the number of queued handlers.
func (d *Dispatcher) Pending() int { return len(d.queue) }

// Poll drains all events currently in the channel without blocking.
func (d *Dispatcher) Poll() {
	for {
		select {
		case ev, ok := <-d.events:
			if !ok {
				return
			}
			d.handle(ev)
		default:
			return
		}
	}
}

// Handle applies a single event as if it had been drained from the channel.
func (d *Dispatcher) Handle(ev Event) { d.handle(ev) }

func (d *Dispatcher) handle(ev Event) {
	d.input.Apply(ev)
	if ev.IsAxis {
		return
	}
	d.log.Debug().Stringer("button", ev.Button).Stringer("edge", ev.Edge).Msg("event")
	for _, bd := range d.bindings[edgeKey{ev.Button, ev.Edge}] {
		if d.observer != nil {
			d.observer.ObserveHandler(ev.Button, ev.Edge)
		}
		if bd.interrupt != nil {
			bd.interrupt()
			continue
		}
		d.Defer(ev.String(), bd.handler)
	}
}

// RunPending runs the handlers queued so far, in arrival order. Handlers
// queued while these run wait for the next call.
func (d *Dispatcher) RunPending(ctx context.Context) error {
	n := len(d.queue)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := d.queue[0]
		d.queue = d.queue[1:]
		d.log.Debug().Str("handler", p.name).Msg("run handler")
		p.fn(ctx)
	}
	return ctx.Err()
}
