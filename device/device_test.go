//go:build headless

package device

import (
	"testing"

	"github.com/dsoalgo/dsoalgo/ds"
	"github.com/dsoalgo/dsoalgo/internal/alc"
	"github.com/dsoalgo/dsoalgo/primary"
	"github.com/dsoalgo/dsoalgo/share"
	"github.com/dsoalgo/dsoalgo/soundbuffer"
)

func openTestDevice(t *testing.T, caps alc.CapSet) *Device {
	t.Helper()
	r := share.NewRegistry()
	backend := alc.NewFakeBackend(caps, 50, 16)
	d, err := Open(backend, r, "", primary.AuxSlotsEAX2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func stereoFormat() ds.WaveFormat {
	return ds.WaveFormat{
		Tag:           ds.FormatTagPCM,
		Channels:      2,
		SamplesPerSec: 44100,
		BitsPerSample: 16,
		BlockAlign:    4,
	}
}

func TestOpenResolvesDefaultGUID(t *testing.T) {
	d := openTestDevice(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	if d.PrimaryBuffer() == nil {
		t.Fatal("expected a primary buffer to be created")
	}
}

func TestCreateSoundBufferRejectsCtrl3DAndPan(t *testing.T) {
	d := openTestDevice(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	_, err := d.CreateSoundBuffer(stereoFormat(), 4096, ds.CapsCtrl3D|ds.CapsCtrlPan)
	if err == nil {
		t.Fatal("expected CTRL3D|CTRLPAN to be rejected")
	}
}

func TestCreateSoundBufferDispatchesToPrimary(t *testing.T) {
	d := openTestDevice(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b, err := d.CreateSoundBuffer(stereoFormat(), 4096, ds.CapsPrimaryBuffer)
	if err != nil {
		t.Fatalf("CreateSoundBuffer(DSBCAPS_PRIMARYBUFFER): %v", err)
	}
	if b != SoundBuffer(d.PrimaryBuffer()) {
		t.Fatal("expected DSBCAPS_PRIMARYBUFFER to return the shared primary buffer")
	}
}

func TestCreateAndDuplicateSoundBuffer(t *testing.T) {
	d := openTestDevice(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	b, err := d.CreateSoundBuffer(stereoFormat(), 4096, ds.CapsStatic|ds.CapsCtrlVolume)
	if err != nil {
		t.Fatalf("CreateSoundBuffer: %v", err)
	}
	sb, ok := b.(*soundbuffer.Buffer)
	if !ok {
		t.Fatalf("expected a secondary buffer, got %T", b)
	}
	dup, err := d.DuplicateSoundBuffer(sb)
	if err != nil {
		t.Fatalf("DuplicateSoundBuffer: %v", err)
	}
	if dup == sb {
		t.Fatal("expected Duplicate to return a distinct buffer")
	}
}

func TestSetCooperativeLevelUnlocksWritePrimary(t *testing.T) {
	d := openTestDevice(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	if err := d.PrimaryBuffer().SetFormat(stereoFormat()); err == nil {
		t.Fatal("expected SetFormat to fail before DSSCL_WRITEPRIMARY")
	}
	d.SetCooperativeLevel(ds.CooperativeWritePrimary)
	if err := d.PrimaryBuffer().SetFormat(stereoFormat()); err != nil {
		t.Fatalf("SetFormat after WritePrimary: %v", err)
	}
}

func TestGetCapsReflectsSourcePool(t *testing.T) {
	d := openTestDevice(t, alc.CapSet(0).With(alc.CapStaticBuffer))
	caps := d.GetCaps()
	if caps.MaxHWMixing <= 0 {
		t.Errorf("MaxHWMixing = %d, want > 0", caps.MaxHWMixing)
	}
	if caps.FreeHWMixing != caps.MaxHWMixing {
		t.Errorf("FreeHWMixing = %d, want == MaxHWMixing (%d) before any Play", caps.FreeHWMixing, caps.MaxHWMixing)
	}
}
