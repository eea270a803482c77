package build

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/dtsgen/dts"
	"github.com/teranos/dtsgen/errors"
)

// recordingEmitter tracks emitted inputs and peak concurrency
type recordingEmitter struct {
	fail  map[string]error
	delay time.Duration

	mu       sync.Mutex
	emitted  []string
	inFlight int32
	peak     int32
}

func (e *recordingEmitter) Emit(ctx context.Context, target dts.BuildTarget) error {
	n := atomic.AddInt32(&e.inFlight, 1)
	defer atomic.AddInt32(&e.inFlight, -1)
	for {
		p := atomic.LoadInt32(&e.peak)
		if n <= p || atomic.CompareAndSwapInt32(&e.peak, p, n) {
			break
		}
	}

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := e.fail[target.Input]; err != nil {
		return err
	}

	e.mu.Lock()
	e.emitted = append(e.emitted, target.Input)
	e.mu.Unlock()
	return nil
}

func targetsFor(inputs ...string) []dts.BuildTarget {
	targets := make([]dts.BuildTarget, len(inputs))
	for i, in := range inputs {
		targets[i] = dts.BuildTarget{Input: in, Output: dts.Output{File: in + ".out"}}
	}
	return targets
}

func TestRunner_Run(t *testing.T) {
	em := &recordingEmitter{delay: 10 * time.Millisecond}
	r := NewRunner(em, 2)

	report, err := r.Run(context.Background(), targetsFor("a", "b", "c", "d", "e"))
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 5, report.Built())
	assert.Empty(t, report.Failed())
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, em.emitted)
	assert.LessOrEqual(t, atomic.LoadInt32(&em.peak), int32(2))

	for i, res := range report.Results {
		assert.Equal(t, targetsFor("a", "b", "c", "d", "e")[i], res.Target)
		assert.True(t, res.Done)
	}
}

func TestRunner_FirstFailureReturned(t *testing.T) {
	boom := errors.New("boom")
	em := &recordingEmitter{fail: map[string]error{"b": boom}}
	r := NewRunner(em, 1)

	report, err := r.Run(context.Background(), targetsFor("a", "b", "c"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), report.RunID)

	// Sequential run: c never starts after b fails
	assert.Equal(t, []string{"a"}, em.emitted)
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "b", report.Failed()[0].Target.Input)
	assert.Equal(t, 1, report.Built())
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	em := &recordingEmitter{}
	_, err := NewRunner(em, 4).Run(ctx, targetsFor("a", "b"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, em.emitted)
}

func TestRunner_NoTargets(t *testing.T) {
	report, err := NewRunner(&recordingEmitter{}, 0).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Built())
}
