// Package soundbuffer implements the C4 secondary sound buffer (spec.md
// §3, §4.4): the state machine, 3D/pan/volume/frequency parameter writes,
// position-notification registration, and DuplicateSoundBuffer semantics.
package soundbuffer

import (
	"math"
	"sync"

	"github.com/dsoalgo/dsoalgo/ds"
	"github.com/dsoalgo/dsoalgo/eax"
	"github.com/dsoalgo/dsoalgo/internal/alc"
	"github.com/dsoalgo/dsoalgo/internal/dlog"
	"github.com/dsoalgo/dsoalgo/sampledata"
	"github.com/dsoalgo/dsoalgo/share"
)

// State is the secondary-buffer state machine of spec.md §4.4.
type State int

const (
	StateUninitialized State = iota
	StateStopped
	StatePlaying
	StateLost
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StateLost:
		return "Lost"
	default:
		return "Uninitialized"
	}
}

// dirty bits for the deferred 3D-parameter commit (spec.md §4.5's pattern,
// reused here for a buffer's own 3D parameters).
type dirtyBit uint32

const (
	dirtyPosition dirtyBit = 1 << iota
	dirtyVelocity
	dirtyCone
	dirtyMinMaxDistance
	dirtyMode
)

// Notification is one entry of SetNotificationPositions.
type Notification struct {
	Offset int // ds.NotifyOffsetStop fires on Stop
	Signal func()
}

// Buffer is the C4 secondary sound buffer.
type Buffer struct {
	share *share.Share
	data  *sampledata.SampleData
	caps  ds.BufferCaps

	mu    sync.Mutex
	state State
	src   alc.Source
	held  bool

	looping    bool
	frequency  int
	volumeMB   int
	pan        int
	writeSeg   int // streaming: next segment index to enqueue
	lastOffset int // byte offset of last known play position, for wrap detection

	mode3D   ds.Mode3D
	pos      ds.Vec3
	vel      ds.Vec3
	minDist  float32
	maxDist  float32
	coneIn   float32
	coneOut  float32
	coneGain float32
	dirty    dirtyBit
	deferred bool

	notifications []Notification
	registered    bool

	occlusion    eax.SourceOcclusion
	directFilter alc.Filter
	sendFilter   alc.Filter
}

// New constructs a stopped secondary buffer bound to data, per spec.md
// §4.4's "Creation" row. caps mirrors the DSBCAPS flags requested at
// CreateSoundBuffer time.
func New(s *share.Share, data *sampledata.SampleData, caps ds.BufferCaps) *Buffer {
	b := &Buffer{
		share:     s,
		data:      data,
		caps:      caps,
		state:     StateStopped,
		frequency: data.Format.SamplesPerSec,
		maxDist:   1.0e6,
		minDist:   1.0,
		coneIn:    360,
		coneOut:   360,
		coneGain:  1,
	}
	s.RegisterBuffer(b)
	b.registered = true
	return b
}

// Play starts playback, acquiring a free source from the share's pool if
// one is not already held, per spec.md §4.4.
func (b *Buffer) Play(looping bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateLost {
		return ds.New("Play", ds.KindBufferLost)
	}

	b.looping = looping
	if !b.held {
		src, err := b.share.CheckoutSource()
		if err != nil {
			return err
		}
		b.src = src
		b.held = true
		b.writeSeg = 0
	}

	b.share.Lock()
	defer b.share.Unlock()

	backend := b.share.Backend()
	if b.data.Layout == sampledata.LayoutStreaming {
		b.primeStreamingQueue(backend)
		backend.SourceSetLooping(b.src, false) // loop handled by the worker's refill
	} else {
		backend.SourceSetBuffer(b.src, b.data.Segments[0])
		backend.SourceSetLooping(b.src, looping)
	}
	backend.SourcePlay(b.src)
	b.state = StatePlaying
	return nil
}

func (b *Buffer) primeStreamingQueue(backend alc.Backend) {
	n := b.data.NumSegments()
	queue := ds.QBuffers
	if queue > n {
		queue = n
	}
	bufs := make([]alc.Buffer, 0, queue)
	for i := 0; i < queue; i++ {
		bufs = append(bufs, b.data.Segments[i])
	}
	backend.SourceQueueBuffers(b.src, bufs)
	b.writeSeg = queue % n
}

// Stop halts playback and fires any DSBPN_OFFSETSTOP notification,
// keeping the source checked out so a later Play resumes cheaply.
func (b *Buffer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StatePlaying {
		return
	}
	b.share.Lock()
	b.share.Backend().SourcePause(b.src)
	b.share.Unlock()
	b.state = StateStopped
	b.fireStopNotifications()
}

func (b *Buffer) fireStopNotifications() {
	for _, n := range b.notifications {
		if n.Offset == ds.NotifyOffsetStop && n.Signal != nil {
			n.Signal()
		}
	}
}

// Restore clears the Lost state, per spec.md §4.4's Lost->Restored edge.
// A buffer becomes Lost when the share's device is lost (spec.md §9); this
// core never loses a device on its own, so Restore is reachable only via
// an explicit device-level reset that a device package can trigger.
func (b *Buffer) Restore() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateLost {
		b.state = StateStopped
	}
}

// MarkLost transitions the buffer to Lost (called by the owning device on
// device-loss, spec.md §4.4).
func (b *Buffer) MarkLost() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateLost
}

// SetCurrentPosition seeks playback to a byte offset, valid while
// Stopped or Playing once the buffer holds a source (spec.md §4.4).
func (b *Buffer) SetCurrentPosition(offset int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateLost {
		return ds.New("SetCurrentPosition", ds.KindBufferLost)
	}
	if !b.held {
		return ds.New("SetCurrentPosition", ds.KindInvalidCall)
	}
	b.share.Lock()
	defer b.share.Unlock()
	b.share.Backend().SourceSetByteOffset(b.src, offset)
	b.lastOffset = offset
	return nil
}

// GetCurrentPosition reports (play, write) cursor byte offsets, per
// spec.md §4.4's position-reporting row: streaming buffers derive both
// cursors from the queue's segment arithmetic, static buffers with the
// RW-offset extension read both directly from the backend, and plain
// static buffers extrapolate the write cursor ahead of play by one
// 10ms block at the current rate while playing.
func (b *Buffer) GetCurrentPosition() (play, write int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateLost {
		return 0, 0, ds.New("GetCurrentPosition", ds.KindBufferLost)
	}
	if !b.held {
		return 0, 0, nil
	}
	b.share.Lock()
	defer b.share.Unlock()
	play, write = b.currentPositionLocked(b.share.Backend())
	return play, write, nil
}

// currentPositionLocked computes (play, write) per spec.md §4.4's
// per-layout formulas. Must be called with b.mu and b.share held.
func (b *Buffer) currentPositionLocked(backend alc.Backend) (play, write int) {
	if b.data.Layout == sampledata.LayoutStreaming {
		n := b.data.NumSegments()
		queued := backend.BuffersQueued(b.src)
		play = ((b.writeSeg + n - queued) % n) * b.data.SegSize
		write = b.writeSeg * b.data.SegSize
		return play, write
	}

	if b.share.Caps().Has(alc.CapMapBuffer) {
		return backend.SourceByteRWOffsets(b.src)
	}

	play = backend.SourceByteOffset(b.src)
	if b.state != StatePlaying {
		return play, play
	}
	lookahead := (b.data.Format.SamplesPerSec / 100) * b.data.Format.BlockAlign
	write = (play + lookahead) % b.data.Size
	return play, write
}

// ApplyOcclusion implements eax.FilterSink: it stages o and, while the
// buffer holds a source, pushes the resulting direct-path and aux-send
// low-pass filters to the backend (spec.md §4.6, per-source occlusion/
// obstruction/exclusion).
func (b *Buffer) ApplyOcclusion(o eax.SourceOcclusion, slot alc.AuxSlot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.occlusion = o
	if !b.held {
		return nil
	}

	b.share.Lock()
	defer b.share.Unlock()
	backend := b.share.Backend()

	if b.directFilter == alc.NoFilter {
		filters, err := backend.GenFilters(2)
		if err != nil {
			return ds.Wrap("ApplyOcclusion", ds.KindOutOfMemory, err)
		}
		b.directFilter, b.sendFilter = filters[0], filters[1]
	}

	if err := backend.FilterSetLowpass(b.directFilter, o.DirectFilter()); err != nil {
		return err
	}
	if err := backend.FilterSetLowpass(b.sendFilter, o.SendFilter()); err != nil {
		return err
	}
	backend.SourceSetDirectFilter(b.src, b.directFilter)
	backend.SourceSetAuxSend(b.src, slot, b.sendFilter)
	return nil
}

// Lock delegates to the underlying sample-data, per spec.md §4.4 (a
// secondary buffer's Lock/Unlock IS its sample-data's Lock/Unlock; the
// spec keeps them distinct objects only so DuplicateSoundBuffer can share
// one sample-data across many buffer instances).
func (b *Buffer) Lock(offset, length int, fromWriteCursor bool) (span1, span2 []byte, err error) {
	_, write, _ := b.GetCurrentPosition()
	return b.data.Lock(offset, length, fromWriteCursor, write)
}

// Unlock delegates to the underlying sample-data.
func (b *Buffer) Unlock(p1, p2 []byte) error {
	return b.data.Unlock(p1, p2)
}

// SetVolume applies a millibel volume, converted to backend gain
// (spec.md §4.4, §6). Requires DSBCAPS_CTRLVOLUME.
func (b *Buffer) SetVolume(mB int) error {
	if b.caps&ds.CapsCtrlVolume == 0 {
		return ds.New("SetVolume", ds.KindControlUnavail)
	}
	mB = ds.ClampInt(mB, ds.DSBVolumeMin, ds.DSBVolumeMax)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.volumeMB = mB
	return b.applyGainPan()
}

// SetPan applies a DSBPAN value, combined with volume via the curved-path
// formula y = sqrt(1 - x^2) from spec.md §4.4's pan row. Requires
// DSBCAPS_CTRLPAN.
func (b *Buffer) SetPan(pan int) error {
	if b.caps&ds.CapsCtrlPan == 0 {
		return ds.New("SetPan", ds.KindControlUnavail)
	}
	pan = ds.ClampInt(pan, ds.DSBPanLeft, ds.DSBPanRight)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.pan = pan
	return b.applyGainPan()
}

// applyGainPan recomputes the per-channel gain from volume+pan and pushes
// it to the backend. Must be called with b.mu held.
func (b *Buffer) applyGainPan() error {
	if !b.held {
		return nil
	}
	// Pan only attenuates overall gain here, by y = sqrt(1 - x^2) with
	// x = pan/10000; no source position is set, so there is no left/right
	// split between channels.
	gain := ds.MillibelToGain(float64(b.volumeMB))
	x := float64(b.pan) / 10000.0
	gain *= math.Sqrt(1 - x*x)

	b.share.Lock()
	defer b.share.Unlock()
	b.share.Backend().SourceApplyParams(b.src, alc.SourceParams{Gain: float32(gain)})
	return nil
}

// SetFrequency applies a playback frequency, clamped per spec.md §6.
// ds.DSBFrequencyOriginal (0) resets to the sample-data's native rate.
// Requires DSBCAPS_CTRLFREQUENCY.
func (b *Buffer) SetFrequency(freq int) error {
	if b.caps&ds.CapsCtrlFrequency == 0 {
		return ds.New("SetFrequency", ds.KindControlUnavail)
	}
	if freq == ds.DSBFrequencyOriginal {
		freq = b.data.Format.SamplesPerSec
	} else {
		freq = ds.ClampInt(freq, ds.DSBFrequencyMin, ds.DSBFrequencyMax)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.frequency = freq
	if !b.held {
		return nil
	}
	pitch := float32(freq) / float32(b.data.Format.SamplesPerSec)
	b.share.Lock()
	defer b.share.Unlock()
	b.share.Backend().SourceApplyParams(b.src, alc.SourceParams{Pitch: pitch})
	return nil
}

// SetPosition/SetVelocity/SetConeAngles/SetMinMaxDistance/SetMode set 3D
// parameters on a CTRL3D buffer. When deferred mode is active (spec.md
// §4.5 "deferred vs immediate"), the write only marks a dirty bit; Commit
// applies every marked bit to the backend in one pass.
func (b *Buffer) SetPosition(v ds.Vec3, apply ds.Apply) error {
	return b.set3D(dirtyPosition, apply, func() { b.pos = ds.FlipZ(v) })
}

func (b *Buffer) SetVelocity(v ds.Vec3, apply ds.Apply) error {
	return b.set3D(dirtyVelocity, apply, func() { b.vel = ds.FlipZ(v) })
}

func (b *Buffer) SetConeAngles(inner, outer int, apply ds.Apply) error {
	return b.set3D(dirtyCone, apply, func() {
		b.coneIn = float32(inner)
		b.coneOut = float32(outer)
	})
}

func (b *Buffer) SetMinMaxDistance(min, max float32, apply ds.Apply) error {
	return b.set3D(dirtyMinMaxDistance, apply, func() {
		b.minDist = min
		b.maxDist = max
	})
}

func (b *Buffer) SetMode(mode ds.Mode3D) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode3D = mode
	b.dirty |= dirtyMode
	if !b.deferred {
		b.commitLocked()
	}
}

func (b *Buffer) set3D(bit dirtyBit, apply ds.Apply, mutate func()) error {
	if b.caps&ds.CapsCtrl3D == 0 {
		return ds.New("Set3D", ds.KindControlUnavail)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	mutate()
	b.dirty |= bit
	if apply == ds.ApplyImmediate {
		b.commitLocked()
	}
	return nil
}

// SetDeferred toggles whether subsequent 3D writes defer their backend
// commit until an explicit Commit call.
func (b *Buffer) SetDeferred(deferred bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deferred = deferred
}

// Commit applies every dirty 3D parameter to the backend, per spec.md
// §4.5's deferred-settings commit.
func (b *Buffer) Commit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commitLocked()
}

func (b *Buffer) commitLocked() {
	if b.dirty == 0 || !b.held {
		b.dirty = 0
		return
	}
	b.share.Lock()
	defer b.share.Unlock()
	p := alc.SourceParams{
		Position:       b.pos,
		Velocity:       b.vel,
		ConeInnerAngle: b.coneIn,
		ConeOuterAngle: b.coneOut,
		ConeOuterGain:  b.coneGain,
		ReferenceDist:  b.minDist,
		MaxDistance:    b.maxDist,
		Relative:       b.mode3D == ds.Mode3DHeadRelative,
	}
	b.share.Backend().SourceApplyParams(b.src, p)
	b.dirty = 0
}

// SetNotificationPositions replaces the buffer's notification list,
// rejecting the call while Playing per spec.md §4.4.
func (b *Buffer) SetNotificationPositions(ns []Notification) error {
	if b.caps&ds.CapsCtrlPositionNotify == 0 {
		return ds.New("SetNotificationPositions", ds.KindControlUnavail)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StatePlaying {
		return ds.New("SetNotificationPositions", ds.KindInvalidCall)
	}
	b.notifications = ns
	if len(ns) > 0 {
		b.share.MarkNotify(b)
	} else {
		b.share.UnmarkNotify(b)
	}
	return nil
}

// Tick implements share.Notifiable: the worker calls this once per pass
// while the share lock is held, to refill a streaming queue and fire
// position notifications that the play cursor has crossed since the last
// tick (spec.md §4.7).
func (b *Buffer) Tick() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StatePlaying {
		return
	}

	backend := b.share.Backend()
	if b.data.Layout == sampledata.LayoutStreaming {
		b.refillStreaming(backend)
	}

	play, _ := b.currentPositionLocked(backend)

	for _, n := range b.notifications {
		if n.Offset == ds.NotifyOffsetStop {
			continue
		}
		if crossed(b.lastOffset, play, n.Offset, b.data.Size) && n.Signal != nil {
			n.Signal()
		}
	}
	b.lastOffset = play

	if backend.SourceState(b.src) == alc.StateStopped && b.looping && b.data.Layout != sampledata.LayoutStreaming {
		backend.SourcePlay(b.src)
	} else if backend.SourceState(b.src) == alc.StateStopped && !b.looping && b.data.Layout != sampledata.LayoutStreaming {
		b.state = StateStopped
		b.fireStopNotifications()
	}
}

// crossed reports whether the play cursor advanced from prev to cur
// (handling wraparound at size) such that it passed target.
func crossed(prev, cur, target, size int) bool {
	if cur >= prev {
		return target >= prev && target <= cur
	}
	// wrapped
	return target >= prev || target <= cur
}

func (b *Buffer) refillStreaming(backend alc.Backend) {
	processed := backend.BuffersProcessed(b.src)
	if processed == 0 {
		return
	}
	done := backend.SourceUnqueueBuffers(b.src, processed)
	n := b.data.NumSegments()
	refilled := make([]alc.Buffer, 0, len(done))
	for range done {
		seg := b.writeSeg
		data := b.data.SegmentBytes(seg)
		buf := b.data.Segments[seg]
		if err := backend.BufferData(buf, b.data.Format, data); err != nil {
			dlog.Warnf("soundbuffer: streaming refill failed: %v", err)
			continue
		}
		refilled = append(refilled, buf)
		b.writeSeg = (seg + 1) % n
		if b.writeSeg == 0 && !b.looping {
			break
		}
	}
	if len(refilled) > 0 {
		backend.SourceQueueBuffers(b.src, refilled)
	}
	if backend.BuffersQueued(b.src) == 0 {
		b.state = StateStopped
		b.fireStopNotifications()
	}
}

// Destroy stops playback, returns the source to the pool, and releases
// the sample-data reference, per spec.md §4.4 "Destruction".
func (b *Buffer) Destroy() {
	b.mu.Lock()
	b.share.Lock()
	if b.held {
		b.share.Backend().SourceStop(b.src)
		b.share.Backend().SourceSetBuffer(b.src, alc.NoBuffer)
	}
	if b.directFilter != alc.NoFilter {
		b.share.Backend().DeleteFilters([]alc.Filter{b.directFilter, b.sendFilter})
		b.directFilter, b.sendFilter = alc.NoFilter, alc.NoFilter
	}
	b.share.Unlock()

	if b.registered {
		b.share.UnregisterBuffer(b)
	}
	b.share.UnmarkNotify(b)
	if b.held {
		b.share.ReturnSource(b.src)
		b.held = false
	}
	b.mu.Unlock()

	b.share.Lock()
	b.data.Release()
	b.share.Unlock()
}

// Duplicate implements DuplicateSoundBuffer: a new Buffer sharing the same
// sample-data (ref-counted), copying pan/frequency/3D parameters but NOT
// volume, and rejecting CTRLFX sources per spec.md §4.4's Duplicate row.
func (b *Buffer) Duplicate() (*Buffer, error) {
	if b.caps&ds.CapsCtrlFX != 0 {
		return nil, ds.New("Duplicate", ds.KindInvalidCall)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.data.Retain()
	dup := &Buffer{
		share:     b.share,
		data:      b.data,
		caps:      b.caps,
		state:     StateStopped,
		frequency: b.frequency,
		pan:       b.pan,
		mode3D:    b.mode3D,
		pos:       b.pos,
		vel:       b.vel,
		minDist:   b.minDist,
		maxDist:   b.maxDist,
		coneIn:    b.coneIn,
		coneOut:   b.coneOut,
		coneGain:  b.coneGain,
		// volume intentionally NOT copied: DirectSound resets a duplicate
		// to full volume (spec.md §4.4).
	}
	b.share.RegisterBuffer(dup)
	dup.registered = true
	return dup, nil
}

// State reports the buffer's current lifecycle state.
func (b *Buffer) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
