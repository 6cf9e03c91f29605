// Package worker implements the C7 per-share worker/notifier thread
// (spec.md §3, §4.7): one goroutine per device share that periodically
// ticks every live secondary buffer, driving streaming refill and
// position-notification delivery without the caller ever polling.
package worker

import (
	"time"

	"github.com/dsoalgo/dsoalgo/internal/dlog"
	"github.com/dsoalgo/dsoalgo/share"
)

// Run is a share.StartTicker: it fires once per refresh period for the
// life of the share, calling Tick on every registered buffer while the
// share's lock is held and its context is current (spec.md §4.7, "tick
// period = 1000ms / refresh_count").
//
// Wire it in at Acquire time:
//
//	s, err := registry.Acquire(backend, guid, deviceName, worker.Run)
func Run(s *share.Share, stop <-chan struct{}) {
	period := tickPeriod(s.RefreshRate())
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			tickOnce(s)
		}
	}
}

func tickPeriod(refreshHz int) time.Duration {
	if refreshHz <= 0 {
		refreshHz = 50
	}
	return time.Second / time.Duration(refreshHz)
}

// tickOnce runs one pass over every live buffer. Panics from a single
// buffer's Tick must not take down the worker goroutine or any other
// buffer's notifications; recovered and logged, mirroring the teacher's
// top-level goroutine recover idiom in its mixer loop.
func tickOnce(s *share.Share) {
	bufs := s.Buffers()
	s.Lock()
	defer s.Unlock()

	for _, b := range bufs {
		tickBuffer(b)
	}
}

func tickBuffer(b share.Notifiable) {
	defer func() {
		if r := recover(); r != nil {
			dlog.Errorf("worker: buffer tick panicked: %v", r)
		}
	}()
	b.Tick()
}
