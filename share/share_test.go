//go:build headless

package share

import (
	"testing"

	"github.com/dsoalgo/dsoalgo/internal/alc"
)

func newTestBackend(maxSources int) *alc.FakeBackend {
	caps := alc.CapSet(0).With(alc.CapBufferSubData).With(alc.CapEFX)
	return alc.NewFakeBackend(caps, 50, maxSources)
}

func TestAcquireSharesSameGUID(t *testing.T) {
	r := NewRegistry()
	backend := newTestBackend(16)

	s1, err := r.Acquire(backend, "guid-a", "", nil)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	s2, err := r.Acquire(backend, "guid-a", "", nil)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if s1 != s2 {
		t.Fatal("expected Acquire with the same guid to return the same share")
	}

	r.Release(s1)
	r.Release(s2)
}

func TestSourcePoolConservation(t *testing.T) {
	r := NewRegistry()
	backend := newTestBackend(8)
	s, err := r.Acquire(backend, "guid-b", "", nil)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer r.Release(s)

	total := s.MaxSources()
	var borrowed []alc.Source
	for i := 0; i < total; i++ {
		id, err := s.CheckoutSource()
		if err != nil {
			t.Fatalf("CheckoutSource: %v", err)
		}
		borrowed = append(borrowed, id)
		free, held := s.SourcePoolCounts()
		if free+held != total {
			t.Fatalf("pool conservation violated: free=%d held=%d total=%d", free, held, total)
		}
	}

	if _, err := s.CheckoutSource(); err == nil {
		t.Fatal("expected pool exhaustion error")
	}

	for _, id := range borrowed {
		s.ReturnSource(id)
	}
	free, held := s.SourcePoolCounts()
	if free != total || held != 0 {
		t.Fatalf("expected all sources returned, got free=%d held=%d", free, held)
	}
}

func TestNotifyListAtMostOnce(t *testing.T) {
	r := NewRegistry()
	backend := newTestBackend(4)
	s, err := r.Acquire(backend, "guid-c", "", nil)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer r.Release(s)

	b := &fakeNotifiable{}
	s.MarkNotify(b)
	s.MarkNotify(b)
	if got := len(s.NotifyList()); got != 1 {
		t.Errorf("NotifyList length = %d, want 1", got)
	}
	s.UnmarkNotify(b)
	if got := len(s.NotifyList()); got != 0 {
		t.Errorf("NotifyList length after unmark = %d, want 0", got)
	}
}

func TestStrategySelection(t *testing.T) {
	r := NewRegistry()

	staticBackend := alc.NewFakeBackend(alc.CapSet(0).With(alc.CapStaticBuffer), 50, 8)
	s1, _ := r.Acquire(staticBackend, "static", "", nil)
	defer r.Release(s1)
	if got := s1.Strategy(false); got != StrategyStatic {
		t.Errorf("Strategy() = %v, want StrategyStatic", got)
	}

	noExtBackend := alc.NewFakeBackend(alc.CapSet(0), 50, 8)
	s2, _ := r.Acquire(noExtBackend, "none", "", nil)
	defer r.Release(s2)
	if got := s2.Strategy(false); got != StrategyStreaming {
		t.Errorf("Strategy() = %v, want StrategyStreaming", got)
	}
}

type fakeNotifiable struct{}

func (f *fakeNotifiable) Tick() {}
