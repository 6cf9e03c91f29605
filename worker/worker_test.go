//go:build headless

package worker

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/dsoalgo/dsoalgo/internal/alc"
	"github.com/dsoalgo/dsoalgo/share"
)

type countingBuffer struct {
	ticks int32
}

func (c *countingBuffer) Tick() { atomic.AddInt32(&c.ticks, 1) }

type panickyBuffer struct{}

func (panickyBuffer) Tick() { panic("boom") }

func TestRunTicksRegisteredBuffers(t *testing.T) {
	r := share.NewRegistry()
	backend := alc.NewFakeBackend(alc.CapSet(0), 1000, 4)
	s, err := r.Acquire(backend, "worker-guid", "", Run)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer r.Release(s)

	cb := &countingBuffer{}
	s.RegisterBuffer(cb)

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&cb.ticks) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for worker to tick the buffer")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestTickOnceSurvivesPanickingBuffer(t *testing.T) {
	r := share.NewRegistry()
	backend := alc.NewFakeBackend(alc.CapSet(0), 50, 4)
	s, err := r.Acquire(backend, "worker-guid-2", "", nil)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer r.Release(s)

	s.RegisterBuffer(panickyBuffer{})
	cb := &countingBuffer{}
	s.RegisterBuffer(cb)

	tickOnce(s)

	if atomic.LoadInt32(&cb.ticks) != 1 {
		t.Errorf("ticks = %d, want 1 (panicking buffer must not stop the pass)", cb.ticks)
	}
}

func TestTickPeriodDefaultsWhenRefreshZero(t *testing.T) {
	if got := tickPeriod(0); got != 20*time.Millisecond {
		t.Errorf("tickPeriod(0) = %v, want 20ms (50Hz default)", got)
	}
}
