//go:build headless

// alc_headless.go - in-memory fake OpenAL/EFX backend for headless test
// runs, mirroring the teacher's audio_backend_headless.go stub: same
// build tag, same "no audio actually renders" contract, just enough state
// tracking for the rest of the core to be exercised deterministically.
package alc

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dsoalgo/dsoalgo/ds"
)

var nextHandle uint32

func newHandle() uint32 { return atomic.AddUint32(&nextHandle, 1) }

type fakeSource struct {
	state     SourceState
	buffer    Buffer
	queue     []Buffer
	processed int
	looping   bool
	byteOff   int
	params    SourceParams
	direct    Filter
	sends     map[AuxSlot]Filter
}

type fakeBuffer struct {
	format ds.WaveFormat
	data   []byte
	static bool
}

// FakeBackend is the headless Backend implementation. It is exported so
// tests outside this package can construct one directly (e.g. share's
// tests pre-seed extension support).
type FakeBackend struct {
	mu sync.Mutex

	caps       CapSet
	refresh    int
	current    Context
	tlsCurrent map[uint32]Context // per goroutine-id-less "thread local" emulation keyed by a token the caller provides via SetThreadLocalContext on distinct contexts
	threadLocalSupported bool

	sources map[Source]*fakeSource
	buffers map[Buffer]*fakeBuffer
	effects map[Effect]ReverbOrChorus
	aux     map[AuxSlot]Effect
	filters map[Filter]FilterParams

	listener ListenerParams
	model    DistanceModel
	doppler  float32
	speed    float32

	maxSources int
}

// ReverbOrChorus holds whichever effect kind was last set on an Effect ID.
type ReverbOrChorus struct {
	IsChorus bool
	Reverb   ReverbParams
	Chorus   ChorusParams
}

// NewFakeBackend builds a headless backend. maxSources bounds GenSources
// the way a real device bounds the number of mixer voices; 0 means
// "effectively unlimited" for tests that don't care.
func NewFakeBackend(caps CapSet, refreshHz, maxSources int) *FakeBackend {
	return &FakeBackend{
		caps:       caps,
		refresh:    refreshHz,
		sources:    make(map[Source]*fakeSource),
		buffers:    make(map[Buffer]*fakeBuffer),
		effects:    make(map[Effect]ReverbOrChorus),
		aux:        make(map[AuxSlot]Effect),
		filters:    make(map[Filter]FilterParams),
		maxSources: maxSources,
	}
}

func (b *FakeBackend) OpenDevice(name string) (Device, error) {
	return Device{ptr: uintptr(newHandle())}, nil
}

func (b *FakeBackend) CloseDevice(d Device) error { return nil }

func (b *FakeBackend) CreateContext(d Device) (Context, error) {
	return Context{ptr: uintptr(newHandle())}, nil
}

func (b *FakeBackend) DestroyContext(c Context) error { return nil }

func (b *FakeBackend) MakeCurrent(c Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = c
	return nil
}

func (b *FakeBackend) CurrentContext() Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *FakeBackend) IsExtension(d Device, name string) bool { return false }

func (b *FakeBackend) Capabilities(d Device) CapSet { return b.caps }

func (b *FakeBackend) RefreshRate(d Device) int {
	if b.refresh <= 0 {
		return 50
	}
	return b.refresh
}

func (b *FakeBackend) HasThreadLocalContext() bool { return b.threadLocalSupported }

func (b *FakeBackend) SetThreadLocalContext(c Context) error {
	return b.MakeCurrent(c)
}

func (b *FakeBackend) DeferUpdates(c Context)   {}
func (b *FakeBackend) ProcessUpdates(c Context) {}

func (b *FakeBackend) GenSources(n int) ([]Source, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxSources > 0 && len(b.sources)+n > b.maxSources {
		return nil, fmt.Errorf("out of sources")
	}
	out := make([]Source, n)
	for i := range out {
		s := Source(newHandle())
		b.sources[s] = &fakeSource{state: StateInitial, sends: make(map[AuxSlot]Filter)}
		out[i] = s
	}
	return out, nil
}

func (b *FakeBackend) DeleteSources(s []Source) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range s {
		delete(b.sources, id)
	}
}

func (b *FakeBackend) SourcePlay(s Source) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		src.state = StatePlaying
	}
}

func (b *FakeBackend) SourcePause(s Source) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		src.state = StateStopped
	}
}

func (b *FakeBackend) SourceStop(s Source) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		src.state = StateStopped
		src.byteOff = 0
	}
}

func (b *FakeBackend) SourceState(s Source) SourceState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		return src.state
	}
	return StateInitial
}

func (b *FakeBackend) SourceSetBuffer(s Source, buf Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		src.buffer = buf
		src.byteOff = 0
	}
}

func (b *FakeBackend) SourceQueueBuffers(s Source, bufs []Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		src.queue = append(src.queue, bufs...)
	}
}

func (b *FakeBackend) SourceUnqueueBuffers(s Source, n int) []Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	src := b.sources[s]
	if src == nil || n <= 0 {
		return nil
	}
	if n > src.processed {
		n = src.processed
	}
	out := append([]Buffer(nil), src.queue[:n]...)
	src.queue = src.queue[n:]
	src.processed -= n
	return out
}

func (b *FakeBackend) BuffersQueued(s Source) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		return len(src.queue)
	}
	return 0
}

func (b *FakeBackend) BuffersProcessed(s Source) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		return src.processed
	}
	return 0
}

// MarkProcessed is a test-only hook simulating the backend finishing
// playback of the oldest `n` queued buffers, since the fake backend never
// actually advances a play cursor on its own.
func (b *FakeBackend) MarkProcessed(s Source, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		src.processed += n
		if src.processed > len(src.queue) {
			src.processed = len(src.queue)
		}
	}
}

func (b *FakeBackend) SourceSetLooping(s Source, looping bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		src.looping = looping
	}
}

func (b *FakeBackend) SourceSetByteOffset(s Source, offset int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		src.byteOff = offset
	}
}

func (b *FakeBackend) SourceByteOffset(s Source) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		return src.byteOff
	}
	return 0
}

func (b *FakeBackend) SourceByteRWOffsets(s Source) (int, int) {
	off := b.SourceByteOffset(s)
	return off, off
}

func (b *FakeBackend) SourceApplyParams(s Source, p SourceParams) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		src.params = p
	}
}

func (b *FakeBackend) SourceSetDirectFilter(s Source, f Filter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		src.direct = f
	}
}

func (b *FakeBackend) SourceSetAuxSend(s Source, slot AuxSlot, f Filter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		src.sends[slot] = f
	}
}

func (b *FakeBackend) GenBuffers(n int) ([]Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Buffer, n)
	for i := range out {
		id := Buffer(newHandle())
		b.buffers[id] = &fakeBuffer{}
		out[i] = id
	}
	return out, nil
}

func (b *FakeBackend) DeleteBuffers(bufs []Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range bufs {
		delete(b.buffers, id)
	}
}

func (b *FakeBackend) BufferData(buf Buffer, format ds.WaveFormat, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fb := b.buffers[buf]
	if fb == nil {
		return fmt.Errorf("unknown buffer")
	}
	fb.format = format
	fb.data = append([]byte(nil), data...)
	return nil
}

func (b *FakeBackend) BufferDataStatic(buf Buffer, format ds.WaveFormat, data []byte) error {
	if err := b.BufferData(buf, format, data); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffers[buf].static = true
	return nil
}

func (b *FakeBackend) BufferSamplesSOFT(buf Buffer, format ds.WaveFormat, samples int, data []byte) error {
	return b.BufferData(buf, format, data)
}

func (b *FakeBackend) BufferSubSamplesSOFT(buf Buffer, offsetSamples int, data []byte) error {
	return b.bufferSubBytes(buf, offsetSamples*4, data)
}

func (b *FakeBackend) BufferSubDataSOFT(buf Buffer, offsetBytes int, data []byte) error {
	return b.bufferSubBytes(buf, offsetBytes, data)
}

func (b *FakeBackend) bufferSubBytes(buf Buffer, offset int, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fb := b.buffers[buf]
	if fb == nil {
		return fmt.Errorf("unknown buffer")
	}
	end := offset + len(data)
	if end > len(fb.data) {
		grown := make([]byte, end)
		copy(grown, fb.data)
		fb.data = grown
	}
	copy(fb.data[offset:end], data)
	return nil
}

func (b *FakeBackend) IsFormatSupportedSOFT(d Device, format ds.WaveFormat) bool { return true }

func (b *FakeBackend) GenEffects(n int) ([]Effect, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Effect, n)
	for i := range out {
		id := Effect(newHandle())
		b.effects[id] = ReverbOrChorus{}
		out[i] = id
	}
	return out, nil
}

func (b *FakeBackend) DeleteEffects(e []Effect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range e {
		delete(b.effects, id)
	}
}

func (b *FakeBackend) EffectSetReverb(e Effect, p ReverbParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.effects[e]; !ok {
		return fmt.Errorf("unknown effect")
	}
	b.effects[e] = ReverbOrChorus{Reverb: p}
	return nil
}

func (b *FakeBackend) EffectSetChorus(e Effect, p ChorusParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.effects[e]; !ok {
		return fmt.Errorf("unknown effect")
	}
	b.effects[e] = ReverbOrChorus{IsChorus: true, Chorus: p}
	return nil
}

// EffectState returns what was last written to e, for test assertions.
func (b *FakeBackend) EffectState(e Effect) ReverbOrChorus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.effects[e]
}

func (b *FakeBackend) GenAuxSlots(n int) ([]AuxSlot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]AuxSlot, n)
	for i := range out {
		id := AuxSlot(newHandle())
		b.aux[id] = NoEffect
		out[i] = id
	}
	return out, nil
}

func (b *FakeBackend) DeleteAuxSlots(a []AuxSlot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range a {
		delete(b.aux, id)
	}
}

func (b *FakeBackend) AuxSlotSetEffect(a AuxSlot, e Effect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.aux[a]; !ok {
		return fmt.Errorf("unknown aux slot")
	}
	b.aux[a] = e
	return nil
}

func (b *FakeBackend) GenFilters(n int) ([]Filter, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Filter, n)
	for i := range out {
		id := Filter(newHandle())
		b.filters[id] = FilterParams{Gain: 1, GainHF: 1}
		out[i] = id
	}
	return out, nil
}

func (b *FakeBackend) DeleteFilters(f []Filter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range f {
		delete(b.filters, id)
	}
}

func (b *FakeBackend) FilterSetLowpass(f Filter, p FilterParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.filters[f]; !ok {
		return fmt.Errorf("unknown filter")
	}
	b.filters[f] = p
	return nil
}

// FilterState returns what was last written to f, for test assertions.
func (b *FakeBackend) FilterState(f Filter) FilterParams {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filters[f]
}

func (b *FakeBackend) SetListener(l ListenerParams) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listener = l
}

// Listener returns the last value passed to SetListener, for assertions.
func (b *FakeBackend) Listener() ListenerParams {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listener
}

// SourceParamsOf returns the last value passed to SourceApplyParams, for
// assertions (e.g. verifying the Z-flip and deferred-commit invariants).
func (b *FakeBackend) SourceParamsOf(s Source) SourceParams {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[s]; src != nil {
		return src.params
	}
	return SourceParams{}
}

func (b *FakeBackend) SetDistanceModel(m DistanceModel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = m
}

func (b *FakeBackend) SetDopplerFactor(f float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doppler = f
}

func (b *FakeBackend) SetSpeedOfSound(speed float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.speed = speed
}
