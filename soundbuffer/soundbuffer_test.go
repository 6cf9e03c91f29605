//go:build headless

package soundbuffer

import (
	"testing"

	"github.com/dsoalgo/dsoalgo/ds"
	"github.com/dsoalgo/dsoalgo/eax"
	"github.com/dsoalgo/dsoalgo/internal/alc"
	"github.com/dsoalgo/dsoalgo/sampledata"
	"github.com/dsoalgo/dsoalgo/share"
)

func newTestShare(t *testing.T, caps alc.CapSet) *share.Share {
	t.Helper()
	r := share.NewRegistry()
	backend := alc.NewFakeBackend(caps, 50, 16)
	s, err := r.Acquire(backend, t.Name(), "", nil)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	t.Cleanup(func() { r.Release(s) })
	return s
}

func newTestBuffer(t *testing.T, s *share.Share, caps ds.BufferCaps) *Buffer {
	t.Helper()
	format := ds.WaveFormat{
		Tag:           ds.FormatTagPCM,
		Channels:      2,
		SamplesPerSec: 44100,
		BitsPerSample: 16,
		BlockAlign:    4,
	}
	sd, err := sampledata.New(s, format, 4096, true)
	if err != nil {
		t.Fatalf("sampledata.New: %v", err)
	}
	return New(s, sd, caps)
}

func TestPlayStopStateTransitions(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b := newTestBuffer(t, s, ds.CapsCtrlVolume|ds.CapsCtrlPan|ds.CapsCtrlFrequency)

	if got := b.State(); got != StateStopped {
		t.Fatalf("initial State = %v, want Stopped", got)
	}
	if err := b.Play(false); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got := b.State(); got != StatePlaying {
		t.Fatalf("State after Play = %v, want Playing", got)
	}
	b.Stop()
	if got := b.State(); got != StateStopped {
		t.Fatalf("State after Stop = %v, want Stopped", got)
	}
}

func TestMarkLostRejectsPlay(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b := newTestBuffer(t, s, 0)
	b.MarkLost()
	if err := b.Play(false); err == nil {
		t.Fatal("expected Play on a lost buffer to fail")
	}
	b.Restore()
	if got := b.State(); got != StateStopped {
		t.Fatalf("State after Restore = %v, want Stopped", got)
	}
}

func TestSetVolumeRequiresCap(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b := newTestBuffer(t, s, 0)
	if err := b.SetVolume(-1000); err == nil {
		t.Fatal("expected SetVolume without DSBCAPS_CTRLVOLUME to fail")
	}
}

func TestSetVolumeClampsRange(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b := newTestBuffer(t, s, ds.CapsCtrlVolume)
	if err := b.SetVolume(-999999); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if b.volumeMB != ds.DSBVolumeMin {
		t.Errorf("volumeMB = %d, want clamped to %d", b.volumeMB, ds.DSBVolumeMin)
	}
}

func TestSetPositionRequiresCtrl3D(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b := newTestBuffer(t, s, 0)
	if err := b.SetPosition(ds.Vec3{X: 1}, ds.ApplyImmediate); err == nil {
		t.Fatal("expected SetPosition without DSBCAPS_CTRL3D to fail")
	}
}

func TestSetPositionFlipsZ(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b := newTestBuffer(t, s, ds.CapsCtrl3D)
	if err := b.SetPosition(ds.Vec3{X: 1, Y: 2, Z: 3}, ds.ApplyDeferred); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if b.pos.Z != -3 {
		t.Errorf("pos.Z = %v, want -3 (flipped)", b.pos.Z)
	}
	if b.dirty&dirtyPosition == 0 {
		t.Error("expected dirtyPosition bit set after a deferred write")
	}
}

func TestDeferredCommitAppliesOnlyOnCommit(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b := newTestBuffer(t, s, ds.CapsCtrl3D)
	b.Play(false)

	b.SetPosition(ds.Vec3{X: 5}, ds.ApplyDeferred)
	if b.dirty == 0 {
		t.Fatal("expected dirty bit to survive until Commit")
	}
	b.Commit()
	if b.dirty != 0 {
		t.Error("expected Commit to clear dirty bits")
	}
}

func TestSetNotificationPositionsRejectedWhilePlaying(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b := newTestBuffer(t, s, ds.CapsCtrlPositionNotify)
	b.Play(false)
	err := b.SetNotificationPositions([]Notification{{Offset: 100}})
	if err == nil {
		t.Fatal("expected SetNotificationPositions while Playing to fail")
	}
}

func TestDuplicateCopiesPanNotVolume(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b := newTestBuffer(t, s, ds.CapsCtrlVolume|ds.CapsCtrlPan)
	b.SetVolume(-5000)
	b.SetPan(2000)

	dup, err := b.Duplicate()
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if dup.pan != 2000 {
		t.Errorf("dup.pan = %d, want 2000 (copied)", dup.pan)
	}
	if dup.volumeMB != 0 {
		t.Errorf("dup.volumeMB = %d, want 0 (reset, not copied)", dup.volumeMB)
	}
	if dup.data.RefCount() != 2 {
		t.Errorf("shared sample-data RefCount = %d, want 2", dup.data.RefCount())
	}
}

func TestDuplicateRejectsCtrlFX(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b := newTestBuffer(t, s, ds.CapsCtrlFX)
	if _, err := b.Duplicate(); err == nil {
		t.Fatal("expected Duplicate of a CTRLFX buffer to fail")
	}
}

func TestApplyOcclusionPushesFilterPairToBackend(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer).With(alc.CapEFX))
	b := newTestBuffer(t, s, ds.CapsCtrlFX)
	if err := b.Play(false); err != nil {
		t.Fatalf("Play: %v", err)
	}

	occ := eax.SourceOcclusion{Direct: -1000, Occlusion: -2000, OcclusionLF: 0.5}
	if err := b.ApplyOcclusion(occ, alc.NoAux); err != nil {
		t.Fatalf("ApplyOcclusion: %v", err)
	}
	if b.directFilter == alc.NoFilter || b.sendFilter == alc.NoFilter {
		t.Fatal("expected ApplyOcclusion to allocate a direct/send filter pair")
	}

	backend := s.Backend().(*alc.FakeBackend)
	direct := backend.FilterState(b.directFilter)
	wantDirect := occ.DirectFilter()
	if direct.Gain != wantDirect.Gain {
		t.Errorf("direct filter Gain = %v, want %v", direct.Gain, wantDirect.Gain)
	}

	send := backend.FilterState(b.sendFilter)
	wantSend := occ.SendFilter()
	if send.Gain != wantSend.Gain {
		t.Errorf("send filter Gain = %v, want %v", send.Gain, wantSend.Gain)
	}
}

func TestGetCurrentPositionStaticRWOffsets(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer).With(alc.CapMapBuffer))
	b := newTestBuffer(t, s, 0)
	b.Play(false)
	s.Lock()
	s.Backend().SourceSetByteOffset(b.src, 123)
	s.Unlock()

	play, write, err := b.GetCurrentPosition()
	if err != nil {
		t.Fatalf("GetCurrentPosition: %v", err)
	}
	if play != 123 || write != 123 {
		t.Errorf("GetCurrentPosition() = (%d, %d), want (123, 123) from RW-offset query", play, write)
	}
}

func TestGetCurrentPositionStaticExtrapolatesWriteCursor(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b := newTestBuffer(t, s, 0)
	b.Play(false)
	s.Lock()
	s.Backend().SourceSetByteOffset(b.src, 100)
	s.Unlock()

	play, write, err := b.GetCurrentPosition()
	if err != nil {
		t.Fatalf("GetCurrentPosition: %v", err)
	}
	if play != 100 {
		t.Errorf("play = %d, want 100", play)
	}
	wantLookahead := (b.data.Format.SamplesPerSec / 100) * b.data.Format.BlockAlign
	if write != (100+wantLookahead)%b.data.Size {
		t.Errorf("write = %d, want %d (play + rate-derived lookahead)", write, (100+wantLookahead)%b.data.Size)
	}
}

func TestGetCurrentPositionStaticStoppedReportsPlayEqualsWrite(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b := newTestBuffer(t, s, 0)
	b.Play(false)
	s.Lock()
	s.Backend().SourceSetByteOffset(b.src, 200)
	s.Unlock()
	b.Stop()

	play, write, err := b.GetCurrentPosition()
	if err != nil {
		t.Fatalf("GetCurrentPosition: %v", err)
	}
	if play != 200 || write != 200 {
		t.Errorf("GetCurrentPosition() while stopped = (%d, %d), want (200, 200)", play, write)
	}
}

func TestGetCurrentPositionStreamingDerivesFromSegmentIndex(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0)) // no static/subdata/subsamples cap -> streaming
	format := ds.WaveFormat{
		Tag:           ds.FormatTagPCM,
		Channels:      2,
		SamplesPerSec: 44100,
		BitsPerSample: 16,
		BlockAlign:    4,
	}
	sd, err := sampledata.New(s, format, 65536, false)
	if err != nil {
		t.Fatalf("sampledata.New: %v", err)
	}
	if sd.Layout != sampledata.LayoutStreaming {
		t.Fatalf("Layout = %v, want LayoutStreaming", sd.Layout)
	}
	b := New(s, sd, 0)
	if err := b.Play(false); err != nil {
		t.Fatalf("Play: %v", err)
	}

	n := sd.NumSegments()
	play, write, err := b.GetCurrentPosition()
	if err != nil {
		t.Fatalf("GetCurrentPosition: %v", err)
	}
	queued := ds.QBuffers
	if queued > n {
		queued = n
	}
	wantWrite := (queued % n) * sd.SegSize
	wantPlay := ((queued%n + n - queued) % n) * sd.SegSize
	if write != wantWrite {
		t.Errorf("write = %d, want %d", write, wantWrite)
	}
	if play != wantPlay {
		t.Errorf("play = %d, want %d", play, wantPlay)
	}
}

func TestCrossedHandlesWrap(t *testing.T) {
	cases := []struct {
		prev, cur, target, size int
		want                    bool
	}{
		{0, 100, 50, 1000, true},
		{0, 100, 150, 1000, false},
		{900, 50, 950, 1000, true},
		{900, 50, 500, 1000, false},
	}
	for _, c := range cases {
		if got := crossed(c.prev, c.cur, c.target, c.size); got != c.want {
			t.Errorf("crossed(%d,%d,%d,%d) = %v, want %v", c.prev, c.cur, c.target, c.size, got, c.want)
		}
	}
}
