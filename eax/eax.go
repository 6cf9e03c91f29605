// Package eax implements the C6 EAX property-set bridge (spec.md §3,
// §4.6): EAX1/2/3/4 listener and buffer property routing (with the
// deferred high bit), the built-in environment preset table, environment
// size rescaling, and the mapping from EAX reverb parameters onto an EFX
// AL_EFFECT_EAXREVERB/AL_EFFECT_REVERB object. Grounded on
// original_source/eax.c, eax.h, eax4.c, eax-presets.h, and chorus.c
// (SPEC_FULL.md §D).
package eax

import (
	"math"

	"github.com/dsoalgo/dsoalgo/ds"
	"github.com/dsoalgo/dsoalgo/internal/alc"
)

// PropertySet identifies which EAX generation a property ID belongs to.
type PropertySet int

const (
	PropertySetListener PropertySet = iota // EAX2/3 listener environment
	PropertySetBuffer                      // EAX2/3 per-source occlusion/obstruction
	PropertySetContext4                    // EAX4 DSPROPSETID_EAX40_Context
	PropertySetFXSlot4                      // EAX4 DSPROPSETID_EAX40_FXSlotN
	PropertySetSource4                      // EAX4 DSPROPSETID_EAX40_Source
)

// DeferredBit is the high bit EAX ORs into a property ID to mean "set but
// don't commit yet" (original_source/eax.c's DSPROPERTY_EAXLISTENER_*
// vs ...|0x80000000 convention).
const DeferredBit uint32 = 0x80000000

// SplitProperty separates the deferred flag from the bare property ID.
func SplitProperty(id uint32) (bare uint32, deferred bool) {
	return id &^ DeferredBit, id&DeferredBit != 0
}

// Environment is the EAX listener reverb environment, in EAX's native
// units (original_source/eax.h's EAXLISTENERPROPERTIES, EAX2 subset kept
// plus the EAX3 extensions the core exercises).
type Environment struct {
	Environment         int
	EnvironmentSize     float32
	EnvironmentDiffusion float32
	Room                int
	RoomHF               int
	RoomLF               int
	DecayTime            float32
	DecayHFRatio         float32
	DecayLFRatio         float32
	Reflections          int
	ReflectionsDelay     float32
	ReflectionsPan       ds.Vec3
	Reverb               int
	ReverbDelay          float32
	ReverbPan            ds.Vec3
	EchoTime             float32
	EchoDepth            float32
	ModulationTime       float32
	ModulationDepth      float32
	AirAbsorptionHF      float32
	HFReference          float32
	LFReference          float32
	RoomRolloffFactor    float32
	Flags                uint32
}

// Flag bits for Environment.Flags (original_source/eax.h EAX30LISTENERFLAGS_*).
const (
	FlagDecayTimeScale        uint32 = 1 << iota
	FlagReflectionsScale
	FlagReflectionsDelayScale
	FlagReverbScale
	FlagReverbDelayScale
	FlagDecayHFLimit
	FlagEchoTimeScale
	FlagModTimeScale
)

// Presets is the built-in 26-entry EAX environment table (original_source/
// eax-presets.h). Index 0 is EAX_ENVIRONMENT_GENERIC; the row comments in
// buildPresets name all 26 environments in index order.
var Presets = buildPresets()

func buildPresets() [26]Environment {
	// Each row is {room, roomHF, decayTime, decayHFRatio, reflections,
	// reflectionsDelay, reverb, reverbDelay} taken from original_source/eax-presets.h's REVERB_PRESET_* macros.
	type row struct {
		room, roomHF                         int
		decayTime, decayHFRatio              float32
		reflections                          int
		reflectionsDelay                     float32
		reverb                               int
		reverbDelay                          float32
	}
	rows := [26]row{
		{-1000, -100, 1.49, 0.83, -2602, 0.007, 200, 0.011},   // Generic
		{-1000, -300, 1.49, 0.54, -449, 0.162, -166, 0.088},   // PaddedCell
		{-1000, -454, 1.49, 0.65, -1219, 0.007, 442, 0.011},   // Room
		{-1000, -1200, 1.49, 0.54, -647, 0.010, 186, 0.032},   // Bathroom
		{-1000, -100, 1.49, 0.28, -300, 0.020, 1713, 0.030},   // LivingRoom
		{-1000, -300, 2.5, 0.63, -1219, 0.012, 207, 0.017},    // StoneRoom
		{-1000, -400, 7.0, 0.51, -202, 0.017, 9, 0.062},       // Auditorium
		{-1000, -400, 10.0, 0.53, -101, 0.022, 61, 0.017},     // ConcertHall
		{-1000, -1500, 2.91, 1.06, -324, 0.020, 177, 0.03},    // Cave
		{-1000, -100, 1.49, 0.65, -1166, 0.007, 497, 0.011},   // Arena
		{-1000, -400, 4.62, 0.82, -711, 0.022, 107, 0.03},     // Hangar
		{-1000, -300, 3.14, 0.57, -1363, 0.010, -741, 0.012},  // CarpetedHallway
		{-1000, -300, 1.49, 0.59, -1153, 0.007, -452, 0.011},  // Hallway
		{-1000, -400, 2.70, 0.79, -1052, 0.015, -139, 0.03},   // StoneCorridor
		{-1000, -100, 1.49, 0.86, -1229, 0.007, -470, 0.011},  // Alley
		{-1000, -2000, 1.49, 0.54, -1149, 0.162, -8234, 0.088},// Forest
		{-1000, -1000, 1.49, 0.67, -1036, 0.007, -52, 0.011},  // City
		{-1000, -2500, 1.49, 0.21, -1000, 0.300, -6000, 0.1},  // Mountains
		{-1000, -400, 1.49, 0.65, -1434, 0.007, -1517, 0.011}, // Quarry
		{-1000, -2000, 1.49, 0.43, -2078, 0.300, -2001, 0.1},  // Plain
		{-1000, -300, 1.49, 0.17, -1166, 0.007, 16, 0.011},    // ParkingLot
		{-1000, -1000, 2.76, 0.18, 149, 0.025, -5, 0.02},      // SewerPipe
		{-1000, -1500, 1.49, 0.1, -449, 0.007, 1700, 0.011},   // Underwater
		{-10000, -10000, 1.49, 1.0, -10000, 0.007, -10000, 0.011}, // Drugged
		{-1000, -200, 2.68, 0.87, -150, 0.002, 300, 0.03},     // Dizzy
		{-1000, -100, 1.49, 0.82, 700, 0.020, 4000, 0.03},     // Psychotic
	}

	var out [26]Environment
	for i, r := range rows {
		out[i] = Environment{
			Environment:         i,
			EnvironmentSize:     7.5,
			EnvironmentDiffusion: 1,
			Room:                r.room,
			RoomHF:              r.roomHF,
			RoomLF:              0,
			DecayTime:           r.decayTime,
			DecayHFRatio:        r.decayHFRatio,
			Reflections:         r.reflections,
			ReflectionsDelay:    r.reflectionsDelay,
			Reverb:              r.reverb,
			ReverbDelay:         r.reverbDelay,
			AirAbsorptionHF:     -5,
			HFReference:         5000,
			LFReference:         250,
			RoomRolloffFactor:   0,
			Flags:               FlagDecayTimeScale | FlagReflectionsScale | FlagReverbScale | FlagDecayHFLimit,
		}
	}
	return out
}

// Rescale adjusts an environment's size-dependent fields when
// EnvironmentSize is changed, per original_source/eax.c's environment
// scaling logic driven by the Flags bits. ratio is newSize/oldSize; the
// level fields drop by the ratio expressed in mB, and every scaled field
// is clamped to its EAX range.
func Rescale(env *Environment, ratio float32) {
	scaleMB := ds.GainToMillibel(float64(ratio))
	if env.Flags&FlagReflectionsScale != 0 {
		env.Reflections = ds.ClampInt(env.Reflections-int(scaleMB), -10000, 1000)
	}
	if env.Flags&FlagReflectionsDelayScale != 0 {
		env.ReflectionsDelay = ds.Clampf(env.ReflectionsDelay*ratio, 0, 0.3)
	}
	if env.Flags&FlagReverbScale != 0 {
		reverbMB := scaleMB
		if env.Flags&FlagDecayTimeScale == 0 {
			reverbMB *= 1.5
		}
		env.Reverb = ds.ClampInt(env.Reverb-int(reverbMB), -10000, 2000)
	}
	if env.Flags&FlagReverbDelayScale != 0 {
		env.ReverbDelay = ds.Clampf(env.ReverbDelay*ratio, 0, 0.1)
	}
	if env.Flags&FlagDecayTimeScale != 0 {
		env.DecayTime = ds.Clampf(env.DecayTime*ratio, 0.1, 20)
	}
	if env.Flags&FlagEchoTimeScale != 0 {
		env.EchoTime = ds.Clampf(env.EchoTime*ratio, 0.075, 0.25)
	}
	if env.Flags&FlagModTimeScale != 0 {
		env.ModulationTime = ds.Clampf(env.ModulationTime*ratio, 0.04, 4)
	}
}

// ToReverbParams converts an EAX Environment (millibel room/reverb gains,
// seconds decay times) into the EFX ReverbParams gain-ratio representation
// the backend expects, per original_source/reverb.c's EAXReverb->ALreverb
// translation.
func ToReverbParams(env Environment) alc.ReverbParams {
	return alc.ReverbParams{
		Density:             ds.Clampf(float32(math.Pow(float64(env.EnvironmentSize), 3))/16, 0, 1),
		Diffusion:           ds.Clampf(env.EnvironmentDiffusion, 0, 1),
		Gain:                float32(ds.MillibelToGain(float64(env.Room))),
		GainHF:              float32(ds.MillibelToGain(float64(env.RoomHF))),
		GainLF:              float32(ds.MillibelToGain(float64(env.RoomLF))),
		DecayTime:           ds.Clampf(env.DecayTime, 0.1, 20),
		DecayHFRatio:        ds.Clampf(env.DecayHFRatio, 0.1, 2),
		DecayLFRatio:        ds.Clampf(env.DecayLFRatio, 0.1, 2),
		ReflectionsGain:     float32(ds.MillibelToGain(float64(env.Reflections))),
		ReflectionsDelay:    ds.Clampf(env.ReflectionsDelay, 0, 0.3),
		ReflectionsPan:      env.ReflectionsPan,
		LateReverbGain:      float32(ds.MillibelToGain(float64(env.Reverb))),
		LateReverbDelay:     ds.Clampf(env.ReverbDelay, 0, 0.1),
		LateReverbPan:       env.ReverbPan,
		EchoTime:            env.EchoTime,
		EchoDepth:           env.EchoDepth,
		ModulationTime:      env.ModulationTime,
		ModulationDepth:     env.ModulationDepth,
		AirAbsorptionGainHF: float32(ds.MillibelToGain(float64(env.AirAbsorptionHF))),
		HFReference:         env.HFReference,
		LFReference:         env.LFReference,
		RoomRolloffFactor:   env.RoomRolloffFactor,
		DecayHFLimit:        env.Flags&FlagDecayHFLimit != 0,
	}
}

// SourceOcclusion is the per-source EAX2/3 buffer property set
// (DSPROPSETID_EAX_BufferProperties): occlusion/obstruction/exclusion,
// expressed as EFX low-pass filter parameters on the source's direct path
// and aux send (original_source/eax.c's ApplyFilters).
type SourceOcclusion struct {
	Direct        int     // mB, overall direct-path gain
	DirectHF      int     // mB, direct-path HF gain
	Room          int     // mB, send gain
	RoomHF        int     // mB, send HF gain
	Obstruction   int     // mB
	ObstructionLF float32 // 0..1 HF-to-LF ratio
	Occlusion     int     // mB
	OcclusionLF   float32
	OcclusionRoom float32 // 0..1, how much the room send is also occluded
	Exclusion     int     // mB, room send only
	ExclusionLF   float32
}

// DirectFilter computes the source's direct-path low-pass filter from its
// occlusion/obstruction settings, per original_source/eax.c's combination
// of DSPROPERTY_EAXBUFFER_OBSTRUCTIONPARAMETERS and
// DSPROPERTY_EAXBUFFER_OCCLUSIONPARAMETERS onto one AL_FILTER_LOWPASS.
func (o SourceOcclusion) DirectFilter() alc.FilterParams {
	gain := ds.MillibelToGain(float64(o.Direct + o.Obstruction + o.Occlusion))
	gainHF := ds.MillibelToGain(float64(o.DirectHF)) *
		math.Pow(float64(o.ObstructionLF), 1) *
		math.Pow(float64(o.OcclusionLF), 1)
	return alc.FilterParams{Gain: float32(gain), GainHF: float32(gainHF)}
}

// SendFilter computes the source's aux-send (room) low-pass filter,
// applying OcclusionRoom and Exclusion but not direct-path obstruction
// (obstruction only affects the line-of-sight path, spec.md §4.6).
func (o SourceOcclusion) SendFilter() alc.FilterParams {
	occlusionRoom := float64(o.Occlusion) * float64(o.OcclusionRoom)
	gain := ds.MillibelToGain(float64(o.Room) + occlusionRoom + float64(o.Exclusion))
	gainHF := ds.MillibelToGain(float64(o.RoomHF)) *
		math.Pow(float64(o.OcclusionLF), float64(o.OcclusionRoom)) *
		math.Pow(float64(o.ExclusionLF), 1)
	return alc.FilterParams{Gain: float32(gain), GainHF: float32(gainHF)}
}

// ChorusWaveform mirrors original_source/chorus.c's AL_CHORUS_WAVEFORM
// enum (EAX4's secondary chorus/flanger effect, SPEC_FULL.md §D.2).
type ChorusWaveform int

const (
	ChorusWaveformSine ChorusWaveform = iota
	ChorusWaveformTriangle
)

// Chorus is the EAX4 per-FXSlot chorus property set
// (DSPROPSETID_EAX40_FXSlot's EAXCHORUSPROPERTIES).
type Chorus struct {
	Waveform ChorusWaveform
	Phase    int // degrees, -180..180
	Rate     float32
	Depth    float32
	Feedback float32
	Delay    float32
}

// ToChorusParams converts a Chorus property set to the EFX parameter
// struct, per original_source/chorus.c's ALchorusState parameter setters.
func ToChorusParams(c Chorus) alc.ChorusParams {
	return alc.ChorusParams{
		Waveform: int(c.Waveform),
		Phase:    c.Phase,
		Rate:     ds.Clampf(c.Rate, 0, 10),
		Depth:    ds.Clampf(c.Depth, 0, 1),
		Feedback: ds.Clampf(c.Feedback, -1, 1),
		Delay:    ds.Clampf(c.Delay, 0, 0.016),
	}
}

// FXSlot is one EAX4 auxiliary effect slot's routing state
// (DSPROPSETID_EAX40_FXSlot's EAXFXSLOTPROPERTIES): which effect it hosts
// and its overall send gain, per original_source/eax4.c.
type FXSlot struct {
	Slot      alc.AuxSlot
	LoadIsChorus bool
	Volume    int // mB
	LockedBy  alc.Effect
}

// SlotGain converts the FX slot's volume to backend gain for the per-
// source AuxSend filter (original_source/eax4.c's EAXFXSLOT_VOLUME).
func (s FXSlot) SlotGain() float32 {
	return float32(ds.MillibelToGain(float64(s.Volume)))
}
