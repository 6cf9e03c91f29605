// Package device implements the C8 device object (spec.md §3, §4.8): GUID
// resolution, cooperative-level enforcement, and CreateSoundBuffer /
// DuplicateSoundBuffer dispatch across the primary and secondary buffer
// objects, wiring share, sampledata, soundbuffer, primary, eax, and worker
// together into the single entry point a client program uses.
package device

import (
	"strings"
	"sync"

	"github.com/dsoalgo/dsoalgo/ds"
	"github.com/dsoalgo/dsoalgo/eax"
	"github.com/dsoalgo/dsoalgo/internal/alc"
	"github.com/dsoalgo/dsoalgo/internal/dlog"
	"github.com/dsoalgo/dsoalgo/primary"
	"github.com/dsoalgo/dsoalgo/sampledata"
	"github.com/dsoalgo/dsoalgo/share"
	"github.com/dsoalgo/dsoalgo/soundbuffer"
	"github.com/dsoalgo/dsoalgo/worker"
)

// DefaultGUID is the sentinel meaning "use the system's default playback
// device", mirroring a nil GUID pointer to IDirectSound8::Initialize.
const DefaultGUID = ""

// Device is the C8 device object, the public entry point a client program
// constructs per logical DirectSound device.
type Device struct {
	backend  alc.Backend
	registry *share.Registry
	share    *share.Share

	mu        sync.Mutex
	level     ds.CooperativeLevel
	primary   *primary.Buffer
	eaxBridge *eax.Bridge
}

// Open resolves guid to a backend device name, acquires (or joins) its
// share, and brings up the primary buffer/listener, per spec.md §4.8
// "Initialize" and §4.2's Acquire.
//
// numAux selects how many EFX aux slots the primary buffer owns: pass
// primary.AuxSlotsEAX2 for EAX2/3 callers, primary.AuxSlotsEAX4 for an
// EAX4-capable client (SPEC_FULL.md §D.1).
func Open(backend alc.Backend, registry *share.Registry, guid string, numAux primary.NumAuxSlots) (*Device, error) {
	if registry == nil {
		registry = share.Default
	}

	deviceName := resolveGUID(guid)

	s, err := registry.Acquire(backend, guid, deviceName, worker.Run)
	if err != nil {
		return nil, ds.Wrap("Open", ds.KindNoDriver, err)
	}

	prim, err := primary.New(s, ds.CapsPrimaryBuffer, numAux)
	if err != nil {
		registry.Release(s)
		return nil, err
	}

	return &Device{
		backend:   backend,
		registry:  registry,
		share:     s,
		level:     ds.CooperativeNormal,
		primary:   prim,
		eaxBridge: eax.NewBridge(prim, eax.Gen3),
	}, nil
}

// EAXBridge exposes the device's EAX1-4 listener property-set router,
// wired to the primary buffer's reverb effect (spec.md §4.6).
func (d *Device) EAXBridge() *eax.Bridge { return d.eaxBridge }

// NewSourceBridge constructs an EAX2/3 per-source occlusion/obstruction/
// exclusion router for b, sending to the primary buffer's first aux slot
// (spec.md §4.6). EAX4 callers address additional slots through
// FXSlotRouter instead.
func (d *Device) NewSourceBridge(b *soundbuffer.Buffer, gen eax.Generation) *eax.SourceBridge {
	var slot alc.AuxSlot
	if slots := d.primary.AuxSlots(); len(slots) > 0 {
		slot = slots[0]
	}
	return eax.NewSourceBridge(b, slot, gen)
}

// FXSlotRouter exposes the EAX4 per-slot FXSlot property-set router over
// the primary buffer's aux slot array (spec.md §4.6, SPEC_FULL.md §D.1).
func (d *Device) FXSlotRouter() *eax.FXSlotRouter {
	return eax.NewFXSlotRouter(d.primary.AuxSlots())
}

// resolveGUID maps a requested GUID string to a backend device name.
// spec.md §4.8 leaves device enumeration to the host platform; this core
// only distinguishes "default" (empty/unknown guid) from an explicit
// platform device-name string a caller already resolved via its own
// enumeration (e.g. the cmd/dsoalctl CLI's `--device`/`-d` flag).
func resolveGUID(guid string) string {
	if guid == DefaultGUID || strings.EqualFold(guid, "default") {
		return ""
	}
	return guid
}

// SetCooperativeLevel records the device's cooperative level, enforcing
// that only DSSCL_WRITEPRIMARY unlocks primary-buffer format control
// (spec.md §4.8).
func (d *Device) SetCooperativeLevel(level ds.CooperativeLevel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.level = level
	d.primary.SetCooperativeLevel(level)
}

// CooperativeLevel reports the current level.
func (d *Device) CooperativeLevel() ds.CooperativeLevel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.level
}

// PrimaryBuffer exposes the device's primary buffer/listener object.
func (d *Device) PrimaryBuffer() *primary.Buffer { return d.primary }

// GetCaps reports device capabilities derived from the backend's
// capability bitset and source pool, the Go stand-in for
// IDirectSound8::GetCaps (spec.md §4.8).
type Caps struct {
	PrimaryBuffers  int
	MaxHWMixing     int
	FreeHWMixing    int
	FreeHWSources3D int
	CertifiedDriver bool
}

func (d *Device) GetCaps() Caps {
	free, held := d.share.SourcePoolCounts()
	return Caps{
		PrimaryBuffers:  1,
		MaxHWMixing:     free + held,
		FreeHWMixing:    free,
		FreeHWSources3D: free,
		CertifiedDriver: true,
	}
}

// SoundBuffer is the common surface CreateSoundBuffer returns: a
// DSBCAPS_PRIMARYBUFFER request hands back the device's shared primary
// buffer instead of allocating a new secondary one, so the two cases need
// a shared return type (spec.md §4.8, original_source/dsound8.c's
// CreateSoundBuffer dispatch).
type SoundBuffer interface {
	Play(looping bool) error
	Stop()
}

// CreateSoundBuffer builds either the primary buffer wrapper (when caps
// includes DSBCAPS_PRIMARYBUFFER) or a new secondary buffer over freshly
// allocated sample-data, per spec.md §4.8's dispatch and §4.3/§4.4's
// object construction. CTRL3D and CTRLPAN are mutually exclusive on a
// single buffer (spec.md §4.4 edge case).
func (d *Device) CreateSoundBuffer(format ds.WaveFormat, sizeBytes int, caps ds.BufferCaps) (SoundBuffer, error) {
	if caps&ds.CapsCtrl3D != 0 && caps&ds.CapsCtrlPan != 0 {
		return nil, ds.New("CreateSoundBuffer", ds.KindInvalidParam)
	}

	if caps&ds.CapsPrimaryBuffer != 0 {
		return d.primary, nil
	}

	markedStatic := caps&ds.CapsStatic != 0
	sd, err := sampledata.New(d.share, format, sizeBytes, markedStatic)
	if err != nil {
		return nil, err
	}

	return soundbuffer.New(d.share, sd, caps), nil
}

// DuplicateSoundBuffer wraps Buffer.Duplicate; the duplicate shares b's
// sample-data and is registered with the same device's share.
func (d *Device) DuplicateSoundBuffer(b *soundbuffer.Buffer) (*soundbuffer.Buffer, error) {
	return b.Duplicate()
}

// Close tears the device down, releasing the primary buffer's EFX objects
// and the share (spec.md §4.2's Release, reached at refcount zero).
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.primary.Destroy()
	d.registry.Release(d.share)
	dlog.Infof("device: closed")
}
