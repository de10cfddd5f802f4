package pulse

import (
	"sync"
	"sync/atomic"
)

// StopToken is the cooperative stop flag of a batch. Any goroutine may set
// it; the runner checks it once before each contract, so a stop never
// interrupts the contract in flight.
//
// A nil *StopToken is valid and never stops.
type StopToken struct {
	stopped atomic.Bool
	once    sync.Once
	reason  atomic.Pointer[string]
	done    chan struct{}
}

// NewStopToken returns an unset token.
func NewStopToken() *StopToken {
	return &StopToken{done: make(chan struct{})}
}

// Stop sets the token. Only the first call records its reason; it reports
// whether this call was that first one.
func (t *StopToken) Stop(reason string) bool {
	if t == nil {
		return false
	}
	first := false
	t.once.Do(func() {
		t.reason.Store(&reason)
		t.stopped.Store(true)
		close(t.done)
		first = true
	})
	return first
}

// Stopped reports whether Stop has been called.
func (t *StopToken) Stopped() bool {
	return t != nil && t.stopped.Load()
}

// Reason returns the reason given to the first Stop call, or "".
func (t *StopToken) Reason() string {
	if t == nil {
		return ""
	}
	if r := t.reason.Load(); r != nil {
		return *r
	}
	return ""
}

// Done is closed when the token is set. A nil token returns a nil channel,
// which blocks forever.
func (t *StopToken) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.done
}
