package ds

// Numeric contracts from spec.md §6.
const (
	DSBSizeMin = 4
	DSBSizeMax = 0x0FFFFFFF

	DSBFrequencyMin      = 100
	DSBFrequencyMax      = 200000
	DSBFrequencyOriginal = 0

	DSBVolumeMin = -10000 // millibels
	DSBVolumeMax = 0

	DSBPanLeft  = -10000
	DSBPanRight = 10000

	DS3DMinDistanceFactor = 1.0e-6
	DS3DMaxDistanceFactor = 1.0e6
	DS3DMinDopplerFactor  = 0.0
	DS3DMaxDopplerFactor  = 10.0
	DS3DMinRolloffFactor  = 0.0
	DS3DMaxRolloffFactor  = 10.0
	DS3DMaxConeAngle      = 360

	QBuffers = 4 // streaming queue depth
)

// DSBPlay flags.
type PlayFlags uint32

const (
	PlayLooping PlayFlags = 1 << iota
	PlayLocHardware
	PlayLocSoftware
	PlayTerminateByTime
	PlayTerminateByDistance
	PlayTerminateByPriority
)

// DSBLock flags.
type LockFlags uint32

const (
	LockFromWriteCursor LockFlags = 1 << iota
	LockEntireBuffer
)

// DS3DMode.
type Mode3D int

const (
	Mode3DNormal Mode3D = iota
	Mode3DHeadRelative
	Mode3DDisable
)

// Deferred/immediate apply for 3D and listener parameters.
type Apply int

const (
	ApplyImmediate Apply = iota
	ApplyDeferred
)

// Location hints for a secondary buffer (DSBCAPS_LOC*).
type Location int

const (
	LocationDefer Location = iota
	LocationHardware
	LocationSoftware
)

// CooperativeLevel mirrors DSSCL_*.
type CooperativeLevel int

const (
	CooperativeNormal CooperativeLevel = iota + 1
	CooperativePriority
	CooperativeExclusive
	CooperativeWritePrimary
)

// BufferCaps mirrors the DSBCAPS_* flag bits relevant to the core.
type BufferCaps uint32

const (
	CapsPrimaryBuffer BufferCaps = 1 << iota
	CapsStatic
	CapsLocHardware
	CapsLocSoftware
	CapsLocDefer
	CapsCtrl3D
	CapsCtrlFrequency
	CapsCtrlPan
	CapsCtrlVolume
	CapsCtrlPositionNotify
	CapsCtrlFX
	CapsStickyFocus
	CapsGlobalFocus
	CapsGetCurrentPosition2
	CapsMute3DAtMaxDistance
	CapsLocDeferSoftware
)

// DSBPN sentinel offset: "fire this notification on Stop".
const NotifyOffsetStop = 0xFFFFFFFF

// WaveFormat tags.
type FormatTag int

const (
	FormatTagPCM FormatTag = iota + 1
	FormatTagIEEEFloat
	FormatTagExtensible = 0xFFFE
)

// Speaker configuration geometry/config nibbles (DSSPEAKER_*).
type SpeakerGeometry uint32

const (
	SpeakerGeometryMono SpeakerGeometry = iota + 1
	SpeakerGeometryStereo
	SpeakerGeometryQuad
	SpeakerGeometry5Dot1
	SpeakerGeometry7Dot1
	SpeakerGeometry5Dot1Surround
	SpeakerGeometry7Dot1Surround
)

// Channel masks (SPEAKER_* combinations), used to pick a backend format.
type ChannelMask uint32

const (
	ChannelMaskMono    ChannelMask = 0x4
	ChannelMaskStereo  ChannelMask = 0x3
	ChannelMaskRear    ChannelMask = 0x30
	ChannelMaskQuad    ChannelMask = 0x33
	ChannelMask5Dot1   ChannelMask = 0x3F
	ChannelMask6Dot1   ChannelMask = 0x1FF
	ChannelMask7Dot1   ChannelMask = 0x63F
	ChannelMaskDefault ChannelMask = 0
)
