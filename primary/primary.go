// Package primary implements the C5 primary buffer / listener (spec.md
// §3, §4.5): global listener parameters with deferred commit, the EAX
// reverb effect and its auxiliary send slot(s), and speaker-geometry
// persistence.
package primary

import (
	"sync"

	"github.com/dsoalgo/dsoalgo/ds"
	"github.com/dsoalgo/dsoalgo/internal/alc"
	"github.com/dsoalgo/dsoalgo/internal/speakercfg"
	"github.com/dsoalgo/dsoalgo/share"
)

// dirty bits for the listener's deferred-commit pattern (spec.md §4.5).
type dirtyBit uint32

const (
	dirtyPosition dirtyBit = 1 << iota
	dirtyVelocity
	dirtyOrientation
	dirtyGain
	dirtyDistanceFactor
	dirtyRolloffFactor
	dirtyDopplerFactor
)

// NumAuxSlots is how many EFX auxiliary effect slots the primary buffer
// owns: one for EAX2/EAX3 (a single global reverb), four for EAX4's
// per-slot FXSlot addressing (SPEC_FULL.md §D.1).
type NumAuxSlots int

const (
	AuxSlotsEAX2 NumAuxSlots = 1
	AuxSlotsEAX4 NumAuxSlots = 4
)

// Buffer is the C5 primary sound buffer / listener owner.
type Buffer struct {
	share *share.Share
	caps  ds.BufferCaps
	level ds.CooperativeLevel

	mu sync.Mutex

	format ds.WaveFormat

	pos         ds.Vec3
	vel         ds.Vec3
	orientAt    ds.Vec3
	orientUp    ds.Vec3
	gain        float32
	distFactor  float32
	rolloff     float32
	doppler     float32
	dirty       dirtyBit
	deferred    bool

	auxSlots []alc.AuxSlot
	reverb   alc.Effect

	geometry ds.SpeakerGeometry
	playing  bool
}

// New constructs a primary buffer in its default listener state (unit
// gain, identity orientation, distance/rolloff factor 1) and allocates the
// EFX reverb effect and aux slot(s) when the backend advertises EFX
// support, per spec.md §4.5 and §4.6.
func New(s *share.Share, caps ds.BufferCaps, numAux NumAuxSlots) (*Buffer, error) {
	b := &Buffer{
		share:      s,
		caps:       caps,
		level:      ds.CooperativeNormal,
		orientAt:   ds.Vec3{X: 0, Y: 0, Z: -1},
		orientUp:   ds.Vec3{X: 0, Y: 1, Z: 0},
		gain:       1,
		distFactor: 1,
		rolloff:    1,
		doppler:    1,
	}

	b.geometry = speakercfg.Load()

	if s.Caps().Has(alc.CapEFX) {
		s.Lock()
		defer s.Unlock()
		backend := s.Backend()

		effects, err := backend.GenEffects(1)
		if err != nil {
			return nil, ds.Wrap("New", ds.KindOutOfMemory, err)
		}
		b.reverb = effects[0]

		slots, err := backend.GenAuxSlots(int(numAux))
		if err != nil {
			backend.DeleteEffects(effects)
			return nil, ds.Wrap("New", ds.KindOutOfMemory, err)
		}
		b.auxSlots = slots
		for _, slot := range slots {
			backend.AuxSlotSetEffect(slot, b.reverb)
		}
	}

	return b, nil
}

// SetFormat records the primary buffer's mix format, valid only under
// DSSCL_WRITEPRIMARY (spec.md §4.5's format-control row).
func (b *Buffer) SetFormat(format ds.WaveFormat) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.level != ds.CooperativeWritePrimary {
		return ds.New("SetFormat", ds.KindPrioLevelNeeded)
	}
	b.format = format
	return nil
}

// Format returns the current primary mix format.
func (b *Buffer) Format() ds.WaveFormat {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.format
}

// Play marks the primary buffer as actively mixing, mirroring
// IDirectSoundBuffer::Play called on a CreateSoundBuffer(DSBCAPS_
// PRIMARYBUFFER) handle (spec.md §4.8). The backend mixes continuously
// once any secondary buffer plays, so this only tracks state for the
// Play/Stop symmetry a caller expects from the handle; looping is always
// implied for the primary mix.
func (b *Buffer) Play(looping bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playing = true
	return nil
}

// Stop clears the primary buffer's playing state.
func (b *Buffer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playing = false
}

// SetCooperativeLevel records the device's cooperative level (spec.md §4.8,
// owned by the device object but mirrored here since the primary buffer's
// SetFormat privilege depends on it).
func (b *Buffer) SetCooperativeLevel(level ds.CooperativeLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level = level
}

// AuxSlots exposes the owned EFX aux slots, e.g. for the eax bridge to
// route a source's send or retarget FXSlot N in EAX4 mode.
func (b *Buffer) AuxSlots() []alc.AuxSlot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]alc.AuxSlot(nil), b.auxSlots...)
}

// ReverbEffect exposes the owned EFX reverb effect handle.
func (b *Buffer) ReverbEffect() alc.Effect {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reverb
}

// ApplyReverb pushes reverb parameters computed by the eax package to the
// backend effect object.
func (b *Buffer) ApplyReverb(p alc.ReverbParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reverb == alc.NoEffect {
		return ds.New("ApplyReverb", ds.KindControlUnavail)
	}
	b.share.Lock()
	defer b.share.Unlock()
	return b.share.Backend().EffectSetReverb(b.reverb, p)
}

// SetDeferred toggles whether subsequent listener writes defer their
// backend commit until CommitDeferredSettings, mirroring DS3D's
// DS3D_DEFERRED apply flag (spec.md §4.5).
func (b *Buffer) SetDeferred(deferred bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deferred = deferred
}

func (b *Buffer) set(bit dirtyBit, apply ds.Apply, mutate func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	mutate()
	b.dirty |= bit
	if apply == ds.ApplyImmediate {
		b.commitLocked()
	}
}

// SetPosition/SetVelocity/SetOrientation/SetDistanceFactor/
// SetRolloffFactor/SetDopplerFactor/SetGain set one listener property,
// Z-flipped where the value is a 3D vector, per spec.md §4.5.
func (b *Buffer) SetPosition(v ds.Vec3, apply ds.Apply) {
	b.set(dirtyPosition, apply, func() { b.pos = ds.FlipZ(v) })
}

func (b *Buffer) SetVelocity(v ds.Vec3, apply ds.Apply) {
	b.set(dirtyVelocity, apply, func() { b.vel = ds.FlipZ(v) })
}

func (b *Buffer) SetOrientation(at, up ds.Vec3, apply ds.Apply) {
	b.set(dirtyOrientation, apply, func() {
		b.orientAt = ds.FlipZ(at)
		b.orientUp = ds.FlipZ(up)
	})
}

func (b *Buffer) SetDistanceFactor(f float32, apply ds.Apply) {
	f = ds.Clampf(f, ds.DS3DMinDistanceFactor, ds.DS3DMaxDistanceFactor)
	b.set(dirtyDistanceFactor, apply, func() { b.distFactor = f })
}

func (b *Buffer) SetRolloffFactor(f float32, apply ds.Apply) {
	f = ds.Clampf(f, ds.DS3DMinRolloffFactor, ds.DS3DMaxRolloffFactor)
	b.set(dirtyRolloffFactor, apply, func() { b.rolloff = f })
}

func (b *Buffer) SetDopplerFactor(f float32, apply ds.Apply) {
	f = ds.Clampf(f, ds.DS3DMinDopplerFactor, ds.DS3DMaxDopplerFactor)
	b.set(dirtyDopplerFactor, apply, func() { b.doppler = f })
}

func (b *Buffer) SetGain(gain float32) {
	b.set(dirtyGain, ds.ApplyImmediate, func() { b.gain = gain })
}

// CommitDeferredSettings applies the dirty listener properties to the
// backend in one pass, per spec.md §4.5. The rolloff factor is kept on the
// buffer but not sent to the backend: a rolloff change only selects the
// inverse-clamped distance model.
func (b *Buffer) CommitDeferredSettings() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commitLocked()
}

func (b *Buffer) commitLocked() {
	if b.dirty == 0 {
		return
	}
	b.share.Lock()
	defer b.share.Unlock()
	backend := b.share.Backend()

	backend.SetListener(alc.ListenerParams{
		Position:      b.pos,
		Velocity:      b.vel,
		OrientationAt: b.orientAt,
		OrientationUp: b.orientUp,
		Gain:          b.gain,
		MetersPerUnit: 1 / b.distFactor,
	})
	if b.dirty&dirtyRolloffFactor != 0 {
		backend.SetDistanceModel(alc.DistanceInverseClamped)
	}
	if b.dirty&dirtyDopplerFactor != 0 {
		backend.SetDopplerFactor(b.doppler)
	}
	b.dirty = 0
}

// SetSpeakerConfig persists the speaker geometry used on the next device
// open, per spec.md's supplemented speaker-config feature
// (SPEC_FULL.md §D, grounded on internal/speakercfg and the original
// dsoal voiceman.c's speaker-config registry key).
func (b *Buffer) SetSpeakerConfig(geometry ds.SpeakerGeometry) error {
	b.mu.Lock()
	b.geometry = geometry
	b.mu.Unlock()
	return speakercfg.Save(geometry)
}

// SpeakerConfig returns the active speaker geometry.
func (b *Buffer) SpeakerConfig() ds.SpeakerGeometry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.geometry
}

// Destroy releases the owned EFX reverb effect and aux slots.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.auxSlots) == 0 && b.reverb == alc.NoEffect {
		return
	}
	b.share.Lock()
	defer b.share.Unlock()
	backend := b.share.Backend()
	backend.DeleteAuxSlots(b.auxSlots)
	backend.DeleteEffects([]alc.Effect{b.reverb})
	b.auxSlots = nil
	b.reverb = alc.NoEffect
}
