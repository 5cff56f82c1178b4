package action

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-skillpath/internal/participation"
)

var (
	ErrActionDisabled = errors.New("action not available")
	ErrActionMismatch = errors.New("requested action does not match current state")
	ErrNoHandler      = errors.New("no handler for action")
)

type Request struct {
	StudentID string
	Record    participation.Record
	Body      []byte
}

type Outcome struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	// Refresh tells the caller to re-fetch the participation list.
	Refresh bool `json:"refresh"`
}

type Handler interface {
	Handle(ctx context.Context, req Request) (Outcome, error)
}

type HandlerFunc func(ctx context.Context, req Request) (Outcome, error)

func (f HandlerFunc) Handle(ctx context.Context, req Request) (Outcome, error) {
	return f(ctx, req)
}

// Dispatcher routes a record's current action to the handler registered for its kind.
type Dispatcher struct {
	handlers map[Kind]Handler
	now      func() time.Time
}

type DispatcherOption func(*Dispatcher)

func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handlers: map[Kind]Handler{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Register(kind Kind, h Handler) {
	d.handlers[kind] = h
}

// Dispatch re-derives the action for req.Record and runs its handler. When
// requested is non-empty it must equal the derived kind.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, requested Kind) (Outcome, error) {
	_, act := ResolveRecord(d.now(), req.Record)
	if requested != "" && requested != act.Kind {
		return Outcome{}, fmt.Errorf("%w: requested %s, current %s", ErrActionMismatch, requested, act.Kind)
	}
	if !act.Enabled {
		return Outcome{}, fmt.Errorf("%w: %s", ErrActionDisabled, act.Reason)
	}
	h, ok := d.handlers[act.Kind]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrNoHandler, act.Kind)
	}
	out, err := h.Handle(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	out.Kind = act.Kind
	return out, nil
}
