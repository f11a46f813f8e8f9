package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const debounceDelay = 20 * time.Millisecond

// settle waits long enough for any pending timer to have fired.
func settle() { time.Sleep(5 * debounceDelay) }

type firedLog struct {
	mu    sync.Mutex
	calls []int
}

func (l *firedLog) record(v int) func() {
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.calls = append(l.calls, v)
	}
}

func (l *firedLog) got() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]int, len(l.calls))
	copy(out, l.calls)
	return out
}

func TestDebouncer_latestWins(t *testing.T) {
	deb := NewDebouncer(debounceDelay)
	defer deb.Close()
	var log firedLog

	deb.Schedule(1, log.record(10))
	deb.Schedule(1, log.record(20))
	deb.Schedule(1, log.record(30))
	settle()

	assert.Equal(t, []int{30}, log.got())
}

func TestDebouncer_keysAreIndependent(t *testing.T) {
	deb := NewDebouncer(debounceDelay)
	defer deb.Close()
	var log firedLog

	deb.Schedule(1, log.record(10))
	deb.Schedule(2, log.record(20))
	// rescheduling key 1 must not touch key 2's pending call
	deb.Schedule(1, log.record(11))
	settle()

	assert.ElementsMatch(t, []int{11, 20}, log.got())
}

func TestDebouncer_cancel(t *testing.T) {
	deb := NewDebouncer(debounceDelay)
	defer deb.Close()
	var log firedLog

	deb.Schedule(1, log.record(10))
	deb.Cancel(1)
	settle()

	assert.Empty(t, log.got())
}

func TestDebouncer_flushRunsPendingNow(t *testing.T) {
	deb := NewDebouncer(time.Hour) // would never fire on its own
	defer deb.Close()
	var log firedLog

	deb.Schedule(1, log.record(10))
	deb.Schedule(2, log.record(20))
	deb.Flush()

	assert.ElementsMatch(t, []int{10, 20}, log.got())

	// flushed entries are gone; a second flush is a no-op
	deb.Flush()
	assert.Len(t, log.got(), 2)
}

func TestDebouncer_close(t *testing.T) {
	deb := NewDebouncer(debounceDelay)
	var log firedLog

	deb.Schedule(1, log.record(10))
	deb.Close()
	deb.Schedule(2, log.record(20)) // ignored after Close
	settle()

	assert.Empty(t, log.got())
}
