package stream

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// State tracks a relay through its lifecycle. Completed and Failed are
// terminal; a relay never leaves a terminal state.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by Send after the relay has reached a terminal state.
var ErrClosed = errors.New("stream relay closed")

// Relay forwards generation tokens to an HTTP response in emission order.
// All writes happen through Send under one mutex, so tokens can never be
// reordered, and the terminal transition fires exactly once regardless of
// whether it comes from completion, a generation failure or a write failure.
type Relay struct {
	mu    sync.Mutex
	state State
	w     io.Writer
	flush func()
	err   error
	done  chan struct{}
}

// NewRelay wraps a response writer that supports incremental flushing.
func NewRelay(w http.ResponseWriter) (*Relay, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}
	return &Relay{
		w:     w,
		flush: flusher.Flush,
		done:  make(chan struct{}),
	}, nil
}

// Send forwards one token and flushes it to the client. A write failure
// moves the relay to Failed and is reported as a transport error.
func (r *Relay) Send(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateCompleted, StateFailed:
		return ErrClosed
	case StateIdle:
		r.state = StateStreaming
	}

	if _, err := io.WriteString(r.w, token); err != nil {
		r.terminate(StateFailed, fmt.Errorf("write token: %w", err))
		return r.err
	}
	r.flush()
	return nil
}

// Complete marks the stream finished. Tokens already sent stay valid; later
// Send, Complete or Fail calls are no-ops.
func (r *Relay) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminate(StateCompleted, nil)
}

// Fail marks the stream failed. Tokens already forwarded are not retracted.
func (r *Relay) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminate(StateFailed, err)
}

// terminate performs the single terminal transition. Callers hold r.mu.
func (r *Relay) terminate(state State, err error) {
	if r.state == StateCompleted || r.state == StateFailed {
		return
	}
	r.state = state
	r.err = err
	close(r.done)
}

func (r *Relay) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Relay) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Done is closed when the relay reaches a terminal state, so a consumer
// waiting on the boundary can never block on a relay that already ended.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}
