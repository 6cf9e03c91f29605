// Package capture specifies the external interface of the DirectSound
// Capture object pair (IDirectSoundCapture / IDirectSoundCaptureBuffer).
// spec.md's Non-goals name the capture buffer's internals as explicitly
// out of scope ("a thin ring-buffer over the backend's capture device;
// its interface is specified, its internals are not") — this package
// carries only that interface, grounded on the shape of the playback
// objects it mirrors.
package capture

import "github.com/dsoalgo/dsoalgo/ds"

// Device is the capture-side counterpart of device.Device.
type Device interface {
	CreateCaptureBuffer(format ds.WaveFormat, sizeBytes int) (Buffer, error)
	Close()
}

// Buffer is the capture-side counterpart of soundbuffer.Buffer: a ring
// buffer the backend's capture device writes into and a client reads
// from via Lock/Unlock, with no mixing, 3D, or effects processing.
type Buffer interface {
	Start(looping bool) error
	Stop()
	CurrentPosition() (capture, read int, err error)
	Lock(offset, length int) (span1, span2 []byte, err error)
	Unlock(p1, p2 []byte) error
	Destroy()
}
