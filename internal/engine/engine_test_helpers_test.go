package engine

import (
	"context"
	"sync"
	"time"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/ports"
)

// fakeClock is a manually-advanced ports.Clock: Sleep advances the clock
// instead of actually blocking, so adaptive-loop and settle-interval tests
// run instantly.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var _ ports.Clock = (*fakeClock)(nil)

// nopLogger discards every call; engine tests only assert on return values
// and store state, not log output.
type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...interface{}) {}
func (nopLogger) Info(context.Context, string, ...interface{})  {}
func (nopLogger) Warn(context.Context, string, ...interface{})  {}
func (nopLogger) Error(context.Context, string, ...interface{}) {}
func (n nopLogger) With(...interface{}) ports.Logger             { return n }

var _ ports.Logger = nopLogger{}

// fakeCounter is a scripted Source/Target double: each call pops the
// next value off its queue (or repeats the last one once exhausted), and
// can be made to fail a fixed number of times before succeeding.
type fakeCounter struct {
	mu        sync.Mutex
	counts    []int64
	failTimes int
	calls     int
	loads     int
	deletes   int
}

func (f *fakeCounter) Count(context.Context, orchestrator.Identity, ports.Window) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failTimes > 0 {
		f.failTimes--
		return 0, errTransient
	}
	if len(f.counts) == 0 {
		return 0, nil
	}
	idx := f.calls - 1
	if idx >= len(f.counts) {
		idx = len(f.counts) - 1
	}
	return f.counts[idx], nil
}

func (f *fakeCounter) CheckExists(context.Context, orchestrator.Identity, ports.Window) (bool, error) {
	return true, nil
}

func (f *fakeCounter) Delete(context.Context, orchestrator.Identity, ports.Window) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return nil
}

func (f *fakeCounter) Load(context.Context, *orchestrator.PipelineRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return nil
}

var _ ports.Source = (*fakeCounter)(nil)
var _ ports.Target = (*fakeCounter)(nil)

type fakeStage struct {
	deletes int
}

func (s *fakeStage) Count(context.Context, string) (int64, error) { return 0, nil }
func (s *fakeStage) Delete(context.Context, string) error {
	s.deletes++
	return nil
}

var _ ports.Stage = (*fakeStage)(nil)

type errString string

func (e errString) Error() string { return string(e) }

const errTransient = errString("transient failure")

type fakeTransfer struct {
	calls int
	fail  bool
}

func (f *fakeTransfer) Transfer(context.Context, *orchestrator.PipelineRecord) error {
	f.calls++
	if f.fail {
		return errString("transfer failed")
	}
	return nil
}

var _ ports.SourceToStageTransfer = (*fakeTransfer)(nil)

func noRetry() RetryOptions {
	return RetryOptions{MaxAttempts: 1, BaseDelay: time.Millisecond, Multiplier: 1}
}
