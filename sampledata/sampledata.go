// Package sampledata implements the C3 sample data object (spec.md §3,
// §4.3): format validation, static/streaming buffer layout, the host-side
// payload copy, and Lock/Unlock exclusivity.
package sampledata

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/dsoalgo/dsoalgo/ds"
	"github.com/dsoalgo/dsoalgo/internal/alc"
	"github.com/dsoalgo/dsoalgo/share"
)

// Layout describes how a sample-data's payload is split across backend
// buffer IDs.
type Layout int

const (
	LayoutStatic Layout = iota
	LayoutStreaming
)

// SampleData is the C3 object.
type SampleData struct {
	Format ds.WaveFormat
	Size   int // bytes, block-aligned

	Layout   Layout
	Segments []alc.Buffer
	SegSize  int // streaming only; last segment may be shorter

	payload []byte
	locked  int32 // atomic bool

	share *share.Share

	mu       sync.Mutex
	refCount int32
}

// New validates desc, picks a layout, allocates backend buffers, and
// fills them with silence, per spec.md §4.3.
func New(s *share.Share, format ds.WaveFormat, size int, markedStatic bool) (*SampleData, error) {
	caps := s.Caps()
	if err := format.Validate(caps.Has(alc.CapFloat32), caps.Has(alc.CapMultiChannelFormats)); err != nil {
		return nil, ds.Wrap("New", ds.KindBadFormat, err)
	}

	aligned := size - (size % format.BlockAlign)
	if aligned < ds.DSBSizeMin {
		return nil, ds.New("New", ds.KindBufferTooSmall)
	}
	if aligned > ds.DSBSizeMax {
		return nil, ds.New("New", ds.KindInvalidParam)
	}

	sd := &SampleData{
		Format:   format,
		Size:     aligned,
		share:    s,
		refCount: 1,
	}

	strategy := s.Strategy(markedStatic)
	if strategy == share.StrategyStreaming {
		sd.layoutStreaming(format, aligned)
	} else {
		sd.Layout = LayoutStatic
		sd.SegSize = aligned
	}

	numSegs := len(sd.Segments)
	if numSegs == 0 {
		numSegs = 1
	}

	s.Lock()
	defer s.Unlock()

	ids, err := s.Backend().GenBuffers(numSegs)
	if err != nil {
		return nil, ds.Wrap("New", ds.KindOutOfMemory, err)
	}
	sd.Segments = ids

	sd.payload = make([]byte, aligned)
	fillSilence(sd.payload, format)

	if sd.Layout == LayoutStatic {
		if err := sd.uploadStatic(strategy); err != nil {
			return nil, ds.Wrap("New", ds.KindGeneric, err)
		}
	} else {
		if err := sd.uploadAllSegments(); err != nil {
			return nil, ds.Wrap("New", ds.KindGeneric, err)
		}
	}

	return sd, nil
}

// layoutStreaming computes the segment count/size per spec.md §4.3 step 4:
// segsize = avg_bytes_per_sec / refresh_count + block_align - 1, rounded
// down to block align; require segsize*(QBUFFERS+2) <= total_bytes, else
// fall back to a single segment.
func (sd *SampleData) layoutStreaming(format ds.WaveFormat, total int) {
	refresh := sd.share.RefreshRate()
	if refresh <= 0 {
		refresh = 50
	}
	segsize := format.AvgBytesPerSec()/refresh + format.BlockAlign - 1
	segsize -= segsize % format.BlockAlign
	if segsize <= 0 || segsize*(ds.QBuffers+2) > total {
		sd.Layout = LayoutStatic
		sd.SegSize = total
		return
	}
	sd.Layout = LayoutStreaming
	sd.SegSize = segsize
	numSegs := (total + segsize - 1) / segsize
	sd.Segments = make([]alc.Buffer, numSegs)
}

func fillSilence(buf []byte, format ds.WaveFormat) {
	effective := format.Tag
	if format.Tag == ds.FormatTagExtensible {
		effective = format.SubFormat
	}
	if effective != ds.FormatTagIEEEFloat && format.BitsPerSample == 8 {
		for i := range buf {
			buf[i] = 0x80
		}
		return
	}
	for i := range buf {
		buf[i] = 0
	}
}

func (sd *SampleData) uploadStatic(strategy share.UploadStrategy) error {
	backend := sd.share.Backend()
	buf := sd.Segments[0]
	switch strategy {
	case share.StrategyStatic:
		return backend.BufferDataStatic(buf, sd.Format, sd.payload)
	default:
		return backend.BufferData(buf, sd.Format, sd.payload)
	}
}

func (sd *SampleData) uploadAllSegments() error {
	backend := sd.share.Backend()
	for i, buf := range sd.Segments {
		data := sd.segmentBytes(i)
		if err := backend.BufferData(buf, sd.Format, data); err != nil {
			return err
		}
	}
	return nil
}

// SegmentBytes returns the payload slice for streaming segment i, handling
// the possibly-shorter last segment.
func (sd *SampleData) segmentBytes(i int) []byte {
	start := i * sd.SegSize
	end := start + sd.SegSize
	if end > len(sd.payload) {
		end = len(sd.payload)
	}
	return sd.payload[start:end]
}

// SegmentBytes exports segmentBytes for the worker's streaming refill.
func (sd *SampleData) SegmentBytes(i int) []byte { return sd.segmentBytes(i) }

// NumSegments returns the streaming segment count (1 for static layout).
func (sd *SampleData) NumSegments() int {
	if sd.Layout == LayoutStatic {
		return 1
	}
	return len(sd.Segments)
}

// Retain increments the reference count (DuplicateSoundBuffer).
func (sd *SampleData) Retain() { atomic.AddInt32(&sd.refCount, 1) }

// Release decrements the reference count and frees backend buffers and
// host memory when it reaches zero. Must be called with the share lock
// already held (spec.md §4.3, "Destruction").
func (sd *SampleData) Release() {
	if atomic.AddInt32(&sd.refCount, -1) > 0 {
		return
	}
	sd.share.Backend().DeleteBuffers(sd.Segments)
	sd.payload = nil
}

// RefCount reports the current reference count, for the spec.md §8
// conservation-invariant tests.
func (sd *SampleData) RefCount() int32 { return atomic.LoadInt32(&sd.refCount) }

// Lock returns pointers (as byte slices backed by the host payload) for
// span1 (and span2 if the requested range wraps), per spec.md §4.4's
// Lock table row. It fails if a Lock is already outstanding.
func (sd *SampleData) Lock(offset, length int, fromWriteCursor bool, writeCursor int) (span1, span2 []byte, err error) {
	if !atomic.CompareAndSwapInt32(&sd.locked, 0, 1) {
		return nil, nil, ds.New("Lock", ds.KindInvalidParam)
	}

	sd.mu.Lock()
	defer sd.mu.Unlock()

	if fromWriteCursor {
		offset = writeCursor
	}
	if offset < 0 || offset > len(sd.payload) {
		atomic.StoreInt32(&sd.locked, 0)
		return nil, nil, ds.New("Lock", ds.KindInvalidParam)
	}
	if length == 0 {
		length = len(sd.payload)
	}

	end1 := offset + length
	if end1 > len(sd.payload) {
		end1 = len(sd.payload)
	}
	span1 = sd.payload[offset:end1]

	remainder := offset + length - len(sd.payload)
	if remainder > 0 {
		if remainder > len(sd.payload) {
			remainder = len(sd.payload)
		}
		span2 = sd.payload[0:remainder]
	}
	return span1, span2, nil
}

// IsLocked reports whether a Lock is currently outstanding.
func (sd *SampleData) IsLocked() bool { return atomic.LoadInt32(&sd.locked) != 0 }

// Unlock validates p1/p2 lie within the host payload, re-uploads the
// modified region using the share's upload strategy, and clears the lock.
// spec.md §4.4's Unlock row.
func (sd *SampleData) Unlock(p1 []byte, p2 []byte) error {
	if atomic.LoadInt32(&sd.locked) == 0 {
		return ds.New("Unlock", ds.KindInvalidParam)
	}

	sd.mu.Lock()
	off1, ok1 := sd.offsetOf(p1)
	off2, ok2 := sd.offsetOf(p2)
	sd.mu.Unlock()

	if (len(p1) > 0 && !ok1) || (len(p2) > 0 && !ok2) {
		return ds.New("Unlock", ds.KindInvalidParam)
	}

	strategy := sd.share.Strategy(sd.Layout == LayoutStatic)
	if err := sd.reupload(strategy, off1, p1); err != nil {
		return ds.Wrap("Unlock", ds.KindGeneric, err)
	}
	if len(p2) > 0 {
		if err := sd.reupload(strategy, off2, p2); err != nil {
			return ds.Wrap("Unlock", ds.KindGeneric, err)
		}
	}

	atomic.StoreInt32(&sd.locked, 0)
	return nil
}

func (sd *SampleData) offsetOf(span []byte) (int, bool) {
	if len(span) == 0 {
		return 0, true
	}
	base := uintptrOf(sd.payload)
	p := uintptrOf(span)
	if p < base || p+uintptr(len(span)) > base+uintptr(len(sd.payload)) {
		return 0, false
	}
	return int(p - base), true
}

func (sd *SampleData) reupload(strategy share.UploadStrategy, offset int, data []byte) error {
	backend := sd.share.Backend()
	sd.share.Lock()
	defer sd.share.Unlock()

	switch strategy {
	case share.StrategyStatic:
		// The static-buffer backend owns the payload directly; nothing
		// to re-upload (spec.md §4.4 Unlock row).
		return nil
	case share.StrategySubSamples:
		return backend.BufferSubSamplesSOFT(sd.Segments[0], offset/sd.Format.BlockAlign, data)
	case share.StrategySubData:
		return backend.BufferSubDataSOFT(sd.Segments[0], offset, data)
	case share.StrategyStreaming:
		segIdx := offset / sd.SegSize
		if segIdx >= len(sd.Segments) {
			segIdx = len(sd.Segments) - 1
		}
		return backend.BufferData(sd.Segments[segIdx], sd.Format, sd.segmentBytes(segIdx))
	default:
		return backend.BufferData(sd.Segments[0], sd.Format, sd.payload)
	}
}

func uintptrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
