//go:build headless

package sampledata

import (
	"testing"

	"github.com/dsoalgo/dsoalgo/ds"
	"github.com/dsoalgo/dsoalgo/internal/alc"
	"github.com/dsoalgo/dsoalgo/share"
)

func newTestShare(t *testing.T, caps alc.CapSet, refreshHz int) *share.Share {
	t.Helper()
	r := share.NewRegistry()
	backend := alc.NewFakeBackend(caps, refreshHz, 16)
	s, err := r.Acquire(backend, t.Name(), "", nil)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	t.Cleanup(func() { r.Release(s) })
	return s
}

func pcmStereoFormat() ds.WaveFormat {
	return ds.WaveFormat{
		Tag:           ds.FormatTagPCM,
		Channels:      2,
		SamplesPerSec: 44100,
		BitsPerSample: 16,
		BlockAlign:    4,
	}
}

func TestNewRejectsBadFormat(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0), 50)
	bad := pcmStereoFormat()
	bad.BitsPerSample = 24
	if _, err := New(s, bad, 4096, true); err == nil {
		t.Fatal("expected 24-bit PCM to be rejected")
	}
}

func TestNewStaticLayoutFillsSilence(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer), 50)
	sd, err := New(s, pcmStereoFormat(), 4096, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sd.Layout != LayoutStatic {
		t.Errorf("Layout = %v, want LayoutStatic", sd.Layout)
	}
	for _, b := range sd.payload {
		if b != 0 {
			t.Fatalf("expected 16-bit silence to be zero-filled, found %d", b)
		}
	}
}

func TestNew8BitSilenceIsMidpoint(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer), 50)
	f := pcmStereoFormat()
	f.BitsPerSample = 8
	f.BlockAlign = 2
	sd, err := New(s, f, 4096, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, b := range sd.payload {
		if b != 0x80 {
			t.Fatalf("expected 8-bit silence to be 0x80, got %#x", b)
		}
	}
}

func TestNewStreamingLayoutWhenNotMarkedStaticAndNoStaticExt(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0), 50)
	sd, err := New(s, pcmStereoFormat(), 1<<20, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sd.Layout != LayoutStreaming {
		t.Fatalf("Layout = %v, want LayoutStreaming", sd.Layout)
	}
	if sd.NumSegments() <= 1 {
		t.Fatalf("expected multiple streaming segments, got %d", sd.NumSegments())
	}
}

func TestLockUnlockRoundTrip(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer), 50)
	sd, err := New(s, pcmStereoFormat(), 4096, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	span1, span2, err := sd.Lock(0, 512, false, 0)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if len(span1) != 512 || span2 != nil {
		t.Fatalf("Lock spans = (%d, %d), want (512, nil)", len(span1), len(span2))
	}
	for i := range span1 {
		span1[i] = 0x7F
	}
	if err := sd.Unlock(span1, span2); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if sd.IsLocked() {
		t.Fatal("IsLocked true after Unlock")
	}
}

func TestLockWhileLockedFails(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer), 50)
	sd, err := New(s, pcmStereoFormat(), 4096, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, err := sd.Lock(0, 0, false, 0); err != nil {
		t.Fatalf("first Lock: %v", err)
	}
	if _, _, err := sd.Lock(0, 0, false, 0); err == nil {
		t.Fatal("expected second concurrent Lock to fail")
	}
}

func TestLockWrappingRegionReturnsTwoSpans(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer), 50)
	sd, err := New(s, pcmStereoFormat(), 4096, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	span1, span2, err := sd.Lock(4000, 200, false, 0)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if len(span1) != 96 {
		t.Errorf("len(span1) = %d, want 96", len(span1))
	}
	if len(span2) != 104 {
		t.Errorf("len(span2) = %d, want 104", len(span2))
	}
}

func TestRetainReleaseConservesRefCount(t *testing.T) {
	s := newTestShare(t, alc.CapSet(0).With(alc.CapStaticBuffer), 50)
	sd, err := New(s, pcmStereoFormat(), 4096, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sd.Retain()
	if got := sd.RefCount(); got != 2 {
		t.Fatalf("RefCount after Retain = %d, want 2", got)
	}
	sd.Release()
	if got := sd.RefCount(); got != 1 {
		t.Fatalf("RefCount after one Release = %d, want 1", got)
	}
	sd.Release()
	if got := sd.RefCount(); got != 0 {
		t.Fatalf("RefCount after final Release = %d, want 0", got)
	}
}
