// Package alc is the C1 backend binding (spec.md §4.1): a thin façade over
// an OpenAL 1.1 + EFX implementation. It exposes device/context lifecycle,
// source/buffer/effect/aux-slot management, and extension probing — never
// a raw numeric AL error code to the rest of the core.
//
// Two implementations satisfy Backend: alc_cgo.go (build tag !headless)
// binds the real OpenAL ABI via cgo, grounded on the teacher's
// audio_backend_alsa.go cgo style and on the g3n-engine al.go OpenAL
// binding found in the reference pack. alc_headless.go (build tag
// headless) is a deterministic in-memory fake used by every package's
// tests, mirroring the teacher's own audio_backend_headless.go stub.
package alc

import "github.com/dsoalgo/dsoalgo/ds"

// Capability is one bit of the device capability bitset from spec.md §3.
type Capability int

const (
	CapFloat32 Capability = iota
	CapMultiChannelFormats
	CapDeferredUpdates
	CapBufferSubData
	CapBufferSamples
	CapStaticBuffer
	CapEFX
	CapThreadLocalContext
	CapMapBuffer
	capCount
)

// CapSet is a bitset over Capability.
type CapSet uint32

func (c CapSet) Has(cap Capability) bool { return c&(1<<uint(cap)) != 0 }
func (c CapSet) With(cap Capability) CapSet { return c | (1 << uint(cap)) }

// Device, Context, Source, Buffer, Effect, and AuxSlot are opaque handles;
// their concrete representation differs between the cgo and headless
// backends, so the core only ever stores and compares them.
type (
	Device  struct{ ptr uintptr }
	Context struct{ ptr uintptr }
	Source  uint32
	Buffer  uint32
	Effect  uint32
	AuxSlot uint32
	Filter  uint32
)

// NoSource / NoBuffer are the zero-value "no object" sentinels.
const (
	NoSource Source  = 0
	NoBuffer Buffer  = 0
	NoEffect Effect  = 0
	NoAux    AuxSlot = 0
	NoFilter Filter  = 0
)

// SourceState mirrors AL_SOURCE_STATE query results.
type SourceState int

const (
	StateInitial SourceState = iota
	StatePlaying
	StatePaused
	StateStopped
)

// DistanceModel mirrors alDistanceModel arguments.
type DistanceModel int

const (
	DistanceInverseClamped DistanceModel = iota
	DistanceLinearClamped
	DistanceExponentClamped
)

// FilterType selects which per-source low-pass filter is being configured.
type FilterType int

const (
	FilterLowpass FilterType = iota
)

// ReverbParams is the EFX AL_EFFECT_EAXREVERB / AL_EFFECT_REVERB parameter
// set, populated by the eax package per spec.md §4.6.
type ReverbParams struct {
	Density             float32
	Diffusion           float32
	Gain                float32
	GainHF              float32
	GainLF              float32
	DecayTime           float32
	DecayHFRatio        float32
	DecayLFRatio        float32
	ReflectionsGain     float32
	ReflectionsDelay    float32
	ReflectionsPan      ds.Vec3
	LateReverbGain      float32
	LateReverbDelay     float32
	LateReverbPan       ds.Vec3
	EchoTime            float32
	EchoDepth           float32
	ModulationTime      float32
	ModulationDepth     float32
	AirAbsorptionGainHF float32
	HFReference         float32
	LFReference         float32
	RoomRolloffFactor   float32
	DecayHFLimit        bool
}

// ChorusParams is the EFX AL_EFFECT_CHORUS parameter set (spec.md
// SPEC_FULL.md §D.2 / original_source/chorus.c).
type ChorusParams struct {
	Waveform int
	Phase    int
	Rate     float32
	Depth    float32
	Feedback float32
	Delay    float32
}

// FilterParams is an EFX AL_FILTER_LOWPASS parameter pair.
type FilterParams struct {
	Gain   float32
	GainHF float32
}

// SourceParams is every per-source backend property the core sets, bundled
// so Backend implementations can apply them without a long argument list.
type SourceParams struct {
	Position        ds.Vec3
	Velocity        ds.Vec3
	Direction       ds.Vec3
	ConeInnerAngle  float32
	ConeOuterAngle  float32
	ConeOuterGain   float32
	ReferenceDist   float32
	MaxDistance     float32
	RolloffFactor   float32
	Relative        bool
	Pitch           float32
	Gain            float32
}

// ListenerParams bundles the global listener properties (spec.md §4.5).
type ListenerParams struct {
	Position      ds.Vec3
	Velocity      ds.Vec3
	OrientationAt ds.Vec3
	OrientationUp ds.Vec3
	Gain          float32
	MetersPerUnit float32
}

// Backend is the full C1 surface. Every method may block on the backend
// lock (spec.md §5); callers are expected to hold a share's lock and have
// the share's context current before calling.
type Backend interface {
	OpenDevice(name string) (Device, error)
	CloseDevice(d Device) error

	CreateContext(d Device) (Context, error)
	DestroyContext(c Context) error
	MakeCurrent(c Context) error
	CurrentContext() Context

	IsExtension(d Device, name string) bool
	Capabilities(d Device) CapSet
	RefreshRate(d Device) int

	HasThreadLocalContext() bool
	SetThreadLocalContext(c Context) error

	DeferUpdates(c Context)
	ProcessUpdates(c Context)

	GenSources(n int) ([]Source, error)
	DeleteSources(s []Source)
	SourcePlay(s Source)
	SourcePause(s Source)
	SourceStop(s Source)
	SourceState(s Source) SourceState
	SourceSetBuffer(s Source, b Buffer)
	SourceQueueBuffers(s Source, bufs []Buffer)
	SourceUnqueueBuffers(s Source, n int) []Buffer
	BuffersQueued(s Source) int
	BuffersProcessed(s Source) int
	SourceSetLooping(s Source, looping bool)
	SourceSetByteOffset(s Source, offset int)
	SourceByteOffset(s Source) int
	SourceByteRWOffsets(s Source) (play, write int)
	SourceApplyParams(s Source, p SourceParams)
	SourceSetDirectFilter(s Source, f Filter)
	SourceSetAuxSend(s Source, slot AuxSlot, f Filter)

	GenBuffers(n int) ([]Buffer, error)
	DeleteBuffers(b []Buffer)
	BufferData(b Buffer, format ds.WaveFormat, data []byte) error
	BufferDataStatic(b Buffer, format ds.WaveFormat, data []byte) error
	BufferSamplesSOFT(b Buffer, format ds.WaveFormat, samples int, data []byte) error
	BufferSubSamplesSOFT(b Buffer, offsetSamples int, data []byte) error
	BufferSubDataSOFT(b Buffer, offsetBytes int, data []byte) error
	IsFormatSupportedSOFT(d Device, format ds.WaveFormat) bool

	GenEffects(n int) ([]Effect, error)
	DeleteEffects(e []Effect)
	EffectSetReverb(e Effect, p ReverbParams) error
	EffectSetChorus(e Effect, p ChorusParams) error

	GenAuxSlots(n int) ([]AuxSlot, error)
	DeleteAuxSlots(a []AuxSlot)
	AuxSlotSetEffect(a AuxSlot, e Effect) error

	GenFilters(n int) ([]Filter, error)
	DeleteFilters(f []Filter)
	FilterSetLowpass(f Filter, p FilterParams) error

	SetListener(l ListenerParams)
	SetDistanceModel(m DistanceModel)
	SetDopplerFactor(f float32)
	SetSpeedOfSound(speed float32)
}
