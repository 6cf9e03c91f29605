package ds

import "fmt"

// WaveFormat is the Go equivalent of WAVEFORMATEXTENSIBLE, trimmed to the
// fields the core actually inspects.
type WaveFormat struct {
	Tag           FormatTag
	Channels      int
	SamplesPerSec int
	BitsPerSample int
	BlockAlign    int
	ChannelMask   ChannelMask
	SubFormat     FormatTag // only meaningful when Tag == FormatTagExtensible
	ValidBitsPerSample int  // only meaningful when Tag == FormatTagExtensible
}

// AvgBytesPerSec mirrors nAvgBytesPerSec = nSamplesPerSec * nBlockAlign.
func (f WaveFormat) AvgBytesPerSec() int {
	return f.SamplesPerSec * f.BlockAlign
}

// Validate applies the format-acceptance rules of spec.md §4.3 steps 1-3,
// given the capability bitset (float32 / multi-channel support) of the
// target backend. It does not decide static-vs-streaming layout — that is
// sampledata's job once the format itself is known to be acceptable.
func (f WaveFormat) Validate(floatSupported, multiChannelSupported bool) error {
	switch f.Tag {
	case FormatTagPCM, FormatTagIEEEFloat, FormatTagExtensible:
	default:
		return fmt.Errorf("unsupported format tag %d", f.Tag)
	}

	if f.BlockAlign <= 0 {
		return fmt.Errorf("block align must be > 0")
	}

	if f.Tag == FormatTagExtensible {
		if f.ValidBitsPerSample != f.BitsPerSample {
			return fmt.Errorf("padded samples (validBitsPerSample %d != bitsPerSample %d) are not supported", f.ValidBitsPerSample, f.BitsPerSample)
		}
		switch f.SubFormat {
		case FormatTagPCM, FormatTagIEEEFloat:
		default:
			return fmt.Errorf("unsupported extensible subformat %d", f.SubFormat)
		}
	}

	effectiveTag := f.Tag
	if f.Tag == FormatTagExtensible {
		effectiveTag = f.SubFormat
	}

	if effectiveTag == FormatTagIEEEFloat {
		if f.BitsPerSample != 32 {
			return fmt.Errorf("IEEE float format requires 32 bits per sample, got %d", f.BitsPerSample)
		}
		if !floatSupported {
			return fmt.Errorf("float32 formats are not supported by this backend")
		}
	} else {
		switch f.BitsPerSample {
		case 8, 16:
		case 24:
			return fmt.Errorf("24-bit PCM is rejected: backend byte offsets would not be sample-exact")
		default:
			return fmt.Errorf("unsupported PCM bit depth %d", f.BitsPerSample)
		}
	}

	switch f.Channels {
	case 1, 2:
	case 4, 6, 7, 8:
		if !multiChannelSupported {
			return fmt.Errorf("multi-channel format (%d channels) requires the multi-channel-formats extension", f.Channels)
		}
	default:
		return fmt.Errorf("unsupported channel count %d", f.Channels)
	}

	return nil
}

// Vec3 is a 3D vector shared by the 3D-buffer and listener parameter
// records. DirectSound is left-handed; the backend (OpenAL) is
// right-handed, so translation to/from the backend flips Z (see
// ds.FlipZ).
type Vec3 struct {
	X, Y, Z float32
}

// FlipZ negates the Z component, used on every position/velocity/
// orientation/direction value crossing the DirectSound<->backend
// boundary, in both directions.
func FlipZ(v Vec3) Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: -v.Z}
}
