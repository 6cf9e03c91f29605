package eax

import (
	"testing"

	"github.com/dsoalgo/dsoalgo/internal/alc"
)

type fakeReverbSink struct {
	applied int
	last    alc.ReverbParams
}

func (f *fakeReverbSink) ApplyReverb(p alc.ReverbParams) error {
	f.applied++
	f.last = p
	return nil
}

func TestBridgeSetDeferredDoesNotCommit(t *testing.T) {
	sink := &fakeReverbSink{}
	b := NewBridge(sink, Gen3)
	sink.applied = 0 // NewBridge doesn't commit on construction

	if err := b.Set(uint32(FieldRoom)|DeferredBit, -500); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if sink.applied != 0 {
		t.Errorf("deferred Set committed %d times, want 0", sink.applied)
	}
	if err := b.CommitDeferredSettings(); err != nil {
		t.Fatalf("CommitDeferredSettings: %v", err)
	}
	if sink.applied != 1 {
		t.Errorf("CommitDeferredSettings committed %d times, want 1", sink.applied)
	}
	if b.Environment().Room != -500 {
		t.Errorf("Room after commit = %d, want -500", b.Environment().Room)
	}
}

func TestBridgeSetImmediateCommitsRightAway(t *testing.T) {
	sink := &fakeReverbSink{}
	b := NewBridge(sink, Gen3)
	if err := b.Set(uint32(FieldRoom), -500); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if sink.applied != 1 {
		t.Errorf("immediate Set committed %d times, want 1", sink.applied)
	}
}

func TestBridgeEnvironmentAlwaysCommitsEvenWhenDeferred(t *testing.T) {
	sink := &fakeReverbSink{}
	b := NewBridge(sink, Gen3)
	if err := b.Set(uint32(FieldEnvironment)|DeferredBit, 3); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if sink.applied != 1 {
		t.Errorf("ENVIRONMENT with deferred bit committed %d times, want 1 (always-immediate exception)", sink.applied)
	}
}

func TestBridgeSetEnvironmentSizeConverges(t *testing.T) {
	sink := &fakeReverbSink{}
	b := NewBridge(sink, Gen3)
	if err := b.Set(uint32(FieldEnvironmentSize), float32(15)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if b.Environment().EnvironmentSize != 15 {
		t.Fatalf("EnvironmentSize = %v, want 15", b.Environment().EnvironmentSize)
	}
	// A second identical call must be a no-op on top of the new size, not
	// double-apply the old size->15 ratio again.
	before := b.Environment().ReflectionsDelay
	if err := b.Set(uint32(FieldEnvironmentSize), float32(15)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if b.Environment().ReflectionsDelay != before {
		t.Errorf("ReflectionsDelay changed on a no-op resize: got %v, want %v", b.Environment().ReflectionsDelay, before)
	}
}

func TestBridgeGen2MasksUnsupportedFlags(t *testing.T) {
	sink := &fakeReverbSink{}
	b := NewBridge(sink, Gen2)
	env := Presets[0]
	env.Flags = FlagDecayTimeScale | FlagEchoTimeScale | FlagModTimeScale
	if err := b.Set(uint32(FieldAllParameters), env); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got := b.Environment().Flags
	if got&FlagEchoTimeScale != 0 || got&FlagModTimeScale != 0 {
		t.Errorf("Flags = %#x, want EchoTimeScale/ModTimeScale masked out for EAX2", got)
	}
	if got&FlagDecayTimeScale == 0 {
		t.Error("expected DecayTimeScale (an EAX2-supported bit) to survive masking")
	}
}

func TestBridgeGen2FieldIDsMapToDifferentOrdering(t *testing.T) {
	sink := &fakeReverbSink{}
	b := NewBridge(sink, Gen2)
	// EAX2's DSPROPERTY_EAX20LISTENER_ROOM is id 2, unlike EAX3's id 5.
	if err := b.Set(2, -777); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if b.Environment().Room != -777 {
		t.Errorf("Room = %d, want -777 via EAX2 field id 2", b.Environment().Room)
	}
}

func TestBridgeEAX1EnvironmentLoadsPresetAndVolume(t *testing.T) {
	sink := &fakeReverbSink{}
	b := NewBridge(sink, Gen1)
	if err := b.SetEAX1Environment(5); err != nil {
		t.Fatalf("SetEAX1Environment: %v", err)
	}
	if b.Environment().Environment != 5 {
		t.Errorf("Environment = %d, want 5", b.Environment().Environment)
	}
	if sink.applied != 1 {
		t.Errorf("SetEAX1Environment committed %d times, want 1", sink.applied)
	}
}

func TestBridgeEAX1VolumeOffsetsRoom(t *testing.T) {
	sink := &fakeReverbSink{}
	b := NewBridge(sink, Gen1)
	if err := b.SetEAX1Environment(0); err != nil {
		t.Fatalf("SetEAX1Environment: %v", err)
	}
	baseRoom := b.Environment().Room
	if err := b.SetEAX1Volume(eax1EnvVolume[0] * 2); err != nil {
		t.Fatalf("SetEAX1Volume: %v", err)
	}
	if b.Environment().Room <= baseRoom {
		t.Errorf("Room after doubling EAX1 volume = %d, want > %d", b.Environment().Room, baseRoom)
	}
}

type fakeFilterSink struct {
	applied int
	last    SourceOcclusion
}

func (f *fakeFilterSink) ApplyOcclusion(o SourceOcclusion, slot alc.AuxSlot) error {
	f.applied++
	f.last = o
	return nil
}

func TestSourceBridgeSetAppliesImmediately(t *testing.T) {
	sink := &fakeFilterSink{}
	b := NewSourceBridge(sink, alc.AuxSlot(1), Gen3)
	if err := b.Set(uint32(BufferFieldOcclusion), -3000); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if sink.applied != 1 {
		t.Errorf("applied = %d, want 1", sink.applied)
	}
	if sink.last.Occlusion != -3000 {
		t.Errorf("Occlusion = %d, want -3000", sink.last.Occlusion)
	}
}

func TestSourceBridgeGen2FieldIDsMapToDifferentOrdering(t *testing.T) {
	sink := &fakeFilterSink{}
	b := NewSourceBridge(sink, alc.AuxSlot(1), Gen2)
	// EAX2's DSPROPERTY_EAX20BUFFER_OCCLUSION is id 9, unlike EAX3's id 11.
	if err := b.Set(9, -2000); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if sink.last.Occlusion != -2000 {
		t.Errorf("Occlusion = %d, want -2000 via EAX2 field id 9", sink.last.Occlusion)
	}
}

func TestFXSlotRouterAddressesSlotsIndependently(t *testing.T) {
	r := NewFXSlotRouter([]alc.AuxSlot{1, 2, 3, 4})
	if r.NumSlots() != 4 {
		t.Fatalf("NumSlots() = %d, want 4", r.NumSlots())
	}
	if err := r.SetVolume(2, -1234); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	slot, err := r.Slot(2)
	if err != nil {
		t.Fatalf("Slot: %v", err)
	}
	if slot.Volume != -1234 {
		t.Errorf("slot 2 Volume = %d, want -1234", slot.Volume)
	}
	other, _ := r.Slot(0)
	if other.Volume != 0 {
		t.Errorf("slot 0 Volume = %d, want untouched 0", other.Volume)
	}
}

func TestFXSlotRouterRejectsOutOfRangeIndex(t *testing.T) {
	r := NewFXSlotRouter([]alc.AuxSlot{1})
	if err := r.SetVolume(5, 0); err == nil {
		t.Error("expected out-of-range slot index to error")
	}
}
