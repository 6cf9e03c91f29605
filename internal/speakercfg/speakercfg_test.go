package speakercfg

import (
	"testing"

	"github.com/dsoalgo/dsoalgo/ds"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Save(ds.SpeakerGeometry5Dot1); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got := Load()
	if got != ds.SpeakerGeometry5Dot1 {
		t.Errorf("Load() = %v, want %v", got, ds.SpeakerGeometry5Dot1)
	}
}

func TestLoadDefaultsToStereoWhenAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if got := Load(); got != ds.SpeakerGeometryStereo {
		t.Errorf("Load() with no prior Save = %v, want %v", got, ds.SpeakerGeometryStereo)
	}
}
