//go:build headless

package primary

import (
	"testing"

	"github.com/dsoalgo/dsoalgo/ds"
	"github.com/dsoalgo/dsoalgo/internal/alc"
	"github.com/dsoalgo/dsoalgo/share"
)

func newTestShare(t *testing.T, caps alc.CapSet) *share.Share {
	t.Helper()
	r := share.NewRegistry()
	backend := alc.NewFakeBackend(caps, 50, 16)
	s, err := r.Acquire(backend, t.Name(), "", nil)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	t.Cleanup(func() { r.Release(s) })
	return s
}

func TestNewAllocatesReverbAndAuxSlotsWhenEFXPresent(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapEFX))
	b, err := New(s, 0, AuxSlotsEAX2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.ReverbEffect() == alc.NoEffect {
		t.Error("expected a reverb effect to be allocated")
	}
	if len(b.AuxSlots()) != 1 {
		t.Errorf("len(AuxSlots()) = %d, want 1", len(b.AuxSlots()))
	}
}

func TestNewSkipsEFXWhenUnsupported(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0))
	b, err := New(s, 0, AuxSlotsEAX2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.ReverbEffect() != alc.NoEffect {
		t.Error("expected no reverb effect without EFX support")
	}
}

func TestSetFormatRequiresWritePrimary(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0))
	b, _ := New(s, 0, AuxSlotsEAX2)
	if err := b.SetFormat(ds.WaveFormat{}); err == nil {
		t.Fatal("expected SetFormat without DSSCL_WRITEPRIMARY to fail")
	}
	b.SetCooperativeLevel(ds.CooperativeWritePrimary)
	if err := b.SetFormat(ds.WaveFormat{Channels: 2}); err != nil {
		t.Fatalf("SetFormat: %v", err)
	}
}

func TestDeferredListenerCommit(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0))
	b, _ := New(s, 0, AuxSlotsEAX2)
	b.SetDeferred(true)
	b.SetPosition(ds.Vec3{X: 1, Y: 2, Z: 3}, ds.ApplyDeferred)
	if b.dirty == 0 {
		t.Fatal("expected dirty bit after deferred SetPosition")
	}
	b.CommitDeferredSettings()
	if b.dirty != 0 {
		t.Error("expected CommitDeferredSettings to clear dirty bits")
	}
	if b.pos.Z != -3 {
		t.Errorf("pos.Z = %v, want -3 (flipped)", b.pos.Z)
	}
}

func TestSpeakerConfigRoundTrip(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0))
	b, _ := New(s, 0, AuxSlotsEAX2)
	if err := b.SetSpeakerConfig(ds.SpeakerGeometry5Dot1); err != nil {
		t.Fatalf("SetSpeakerConfig: %v", err)
	}
	if got := b.SpeakerConfig(); got != ds.SpeakerGeometry5Dot1 {
		t.Errorf("SpeakerConfig() = %v, want 5Dot1", got)
	}
}

func TestDestroyReleasesEFXObjects(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapEFX))
	b, _ := New(s, 0, AuxSlotsEAX4)
	if len(b.AuxSlots()) != 4 {
		t.Fatalf("len(AuxSlots()) = %d, want 4", len(b.AuxSlots()))
	}
	b.Destroy()
	if b.ReverbEffect() != alc.NoEffect {
		t.Error("expected reverb effect cleared after Destroy")
	}
	if len(b.AuxSlots()) != 0 {
		t.Error("expected aux slots cleared after Destroy")
	}
}
