// Package share implements the C2 device share (spec.md §3, §4.2): a
// ref-counted singleton per opened backend device, owning the context,
// the free-source pool, the capability bitset, and the worker thread.
package share

import (
	"sync"

	"github.com/dsoalgo/dsoalgo/ds"
	"github.com/dsoalgo/dsoalgo/internal/alc"
	"github.com/dsoalgo/dsoalgo/internal/dlog"
)

// UploadStrategy drives Unlock and worker behavior, so callers never need
// to branch on individual extensions (spec.md §9, "Extensions as
// capabilities").
type UploadStrategy int

const (
	StrategyStatic UploadStrategy = iota
	StrategySubData
	StrategySubSamples
	StrategyFullReupload
	StrategyStreaming
)

// Notifiable is the subset of a secondary buffer's behavior the worker and
// the notify list need; defined here (not imported from soundbuffer) to
// avoid an import cycle, since soundbuffer depends on share.
type Notifiable interface {
	// Tick is called once per worker iteration while the share lock is
	// held and the share's context is current.
	Tick()
}

// Share is the C2 device share.
type Share struct {
	GUID string

	backend alc.Backend
	device  alc.Device
	context alc.Context

	caps    alc.CapSet
	refresh int

	mu sync.Mutex

	free      []alc.Source
	borrowed  map[alc.Source]bool
	maxSource int

	buffers []Notifiable
	notify  map[Notifiable]bool

	quit    chan struct{}
	workerWG sync.WaitGroup

	refCount int
}

// Registry is the process-wide device-share table (spec.md §5, "process-
// wide device registry guarded by a single static lock").
type Registry struct {
	mu     sync.Mutex
	shares map[string]*Share
}

// NewRegistry constructs an empty process-wide registry. Production code
// uses a single package-level instance (see Default); tests construct
// their own to avoid cross-test interference.
func NewRegistry() *Registry {
	return &Registry{shares: make(map[string]*Share)}
}

// Default is the process-wide registry used by the device package.
var Default = NewRegistry()

// StartTicker is the worker body: Acquire runs it once, in its own
// goroutine, for the share's lifetime, and closes stop on the last
// Release. Callers that need a custom ticker (e.g. tests wanting manual
// control) pass it to Acquire; nil selects the default.
type StartTicker func(s *Share, stop <-chan struct{})

// Acquire resolves guid to a Share, opening a backend device/context and
// probing capabilities on first use, or bumping the refcount of an
// existing share (spec.md §4.2).
func (r *Registry) Acquire(backend alc.Backend, guid, deviceName string, ticker StartTicker) (*Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.shares[guid]; ok {
		s.mu.Lock()
		s.refCount++
		s.mu.Unlock()
		return s, nil
	}

	dev, err := backend.OpenDevice(deviceName)
	if err != nil {
		return nil, ds.Wrap("Acquire", ds.KindNoDriver, err)
	}
	ctx, err := backend.CreateContext(dev)
	if err != nil {
		backend.CloseDevice(dev)
		return nil, ds.Wrap("Acquire", ds.KindNoDriver, err)
	}
	if err := backend.MakeCurrent(ctx); err != nil {
		backend.DestroyContext(ctx)
		backend.CloseDevice(dev)
		return nil, ds.Wrap("Acquire", ds.KindNoDriver, err)
	}

	caps := backend.Capabilities(dev)
	refresh := backend.RefreshRate(dev)

	s := &Share{
		GUID:     guid,
		backend:  backend,
		device:   dev,
		context:  ctx,
		caps:     caps,
		refresh:  refresh,
		borrowed: make(map[alc.Source]bool),
		notify:   make(map[Notifiable]bool),
		quit:     make(chan struct{}),
		refCount: 1,
	}
	s.probeSourcePool()

	r.shares[guid] = s

	if ticker == nil {
		ticker = defaultTicker
	}
	s.workerWG.Add(1)
	go func() {
		defer s.workerWG.Done()
		ticker(s, s.quit)
	}()

	return s, nil
}

// probeSourcePool repeatedly creates sources until the backend refuses,
// then frees them all into the free list, per spec.md §4.2 "probe max-
// sources by repeatedly creating until failure then destroying".
func (s *Share) probeSourcePool() {
	const probeBatch = 1
	var all []alc.Source
	for {
		got, err := s.backend.GenSources(probeBatch)
		if err != nil || len(got) == 0 {
			break
		}
		all = append(all, got...)
		if len(all) > 1<<16 {
			// Backstop against a fake/misbehaving backend reporting
			// unlimited sources.
			break
		}
	}
	s.backend.DeleteSources(all)
	s.maxSource = len(all)

	refilled, err := s.backend.GenSources(s.maxSource)
	if err != nil {
		dlog.Errorf("share %s: failed to re-allocate probed source pool: %v", s.GUID, err)
		return
	}
	s.free = refilled
}

func defaultTicker(s *Share, stop <-chan struct{}) {
	// The real tick loop lives in package worker (C7); share only owns
	// the goroutine's lifecycle so soundbuffer (which worker depends on)
	// does not need to import share's internals. device wires the real
	// worker.Run in as the ticker when constructing shares.
	<-stop
}

// Release decrements the refcount, tearing the share down at zero
// (spec.md §4.2).
func (r *Registry) Release(s *Share) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.mu.Lock()
	s.refCount--
	dead := s.refCount <= 0
	s.mu.Unlock()

	if !dead {
		return
	}

	close(s.quit)
	s.workerWG.Wait()

	s.mu.Lock()
	s.backend.DeleteSources(append(append([]alc.Source(nil), s.free...), sourceKeys(s.borrowed)...))
	s.backend.DestroyContext(s.context)
	s.backend.CloseDevice(s.device)
	s.mu.Unlock()

	delete(r.shares, s.GUID)
}

func sourceKeys(m map[alc.Source]bool) []alc.Source {
	out := make([]alc.Source, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Backend returns the share's backend binding.
func (s *Share) Backend() alc.Backend { return s.backend }

// Device returns the share's backend device handle.
func (s *Share) Device() alc.Device { return s.device }

// Context returns the share's backend context handle.
func (s *Share) Context() alc.Context { return s.context }

// Caps returns the share's capability bitset.
func (s *Share) Caps() alc.CapSet { return s.caps }

// RefreshRate returns the backend's ticks/sec, used to size the worker
// tick period and streaming segments.
func (s *Share) RefreshRate() int { return s.refresh }

// Lock acquires the share's critical section and makes its context
// current, satisfying spec.md §3's invariant that every backend call is
// made with the context current and the lock held. Callers must call
// Unlock when done.
func (s *Share) Lock() {
	s.mu.Lock()
	s.backend.MakeCurrent(s.context)
}

// Unlock releases the share's critical section.
func (s *Share) Unlock() {
	s.mu.Unlock()
}

// CheckoutSource pops a source from the free list, or reports
// ErrAllocated if the pool is exhausted (spec.md §4.2).
func (s *Share) CheckoutSource() (alc.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.free) == 0 {
		return alc.NoSource, ds.New("CheckoutSource", ds.KindAllocated)
	}
	n := len(s.free) - 1
	id := s.free[n]
	s.free = s.free[:n]
	s.borrowed[id] = true
	return id, nil
}

// ReturnSource pushes id back onto the free list.
func (s *Share) ReturnSource(id alc.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.borrowed[id] {
		return
	}
	delete(s.borrowed, id)
	s.free = append(s.free, id)
}

// SourcePoolCounts reports (free, borrowed) for the conservation invariant
// tested in spec.md §8.
func (s *Share) SourcePoolCounts() (free, borrowed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.free), len(s.borrowed)
}

// MaxSources returns the pool size probed at Acquire time.
func (s *Share) MaxSources() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxSource
}

// MarkNotify adds b to the notify list if it is not already present
// (spec.md §3 invariant: at most once).
func (s *Share) MarkNotify(b Notifiable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify[b] = true
}

// UnmarkNotify removes b from the notify list.
func (s *Share) UnmarkNotify(b Notifiable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notify, b)
}

// NotifyList returns a snapshot of the current notify set, for the worker
// to iterate without holding the share lock across callbacks.
func (s *Share) NotifyList() []Notifiable {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notifiable, 0, len(s.notify))
	for b := range s.notify {
		out = append(out, b)
	}
	return out
}

// RegisterBuffer/UnregisterBuffer maintain the share's full buffer list
// (used by the worker's streaming-refill pass, which walks every playing
// streaming buffer, not just the notify subset).
func (s *Share) RegisterBuffer(b Notifiable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers = append(s.buffers, b)
}

func (s *Share) UnregisterBuffer(b Notifiable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, x := range s.buffers {
		if x == b {
			s.buffers = append(s.buffers[:i], s.buffers[i+1:]...)
			return
		}
	}
}

// Buffers returns a snapshot of every live secondary buffer on this share.
func (s *Share) Buffers() []Notifiable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notifiable(nil), s.buffers...)
}

// Strategy decides the upload strategy for a newly-created sample-data
// object, per spec.md §4.3 step 4 and §9 "Extensions as capabilities".
func (s *Share) Strategy(markedStatic bool) UploadStrategy {
	switch {
	case s.caps.Has(alc.CapStaticBuffer) || markedStatic:
		return StrategyStatic
	case s.caps.Has(alc.CapBufferSubData):
		return StrategySubData
	case s.caps.Has(alc.CapBufferSamples):
		return StrategySubSamples
	default:
		return StrategyStreaming
	}
}
