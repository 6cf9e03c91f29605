package eax

import "testing"

func TestSplitPropertyExtractsDeferredBit(t *testing.T) {
	bare, deferred := SplitProperty(5 | DeferredBit)
	if bare != 5 {
		t.Errorf("bare = %d, want 5", bare)
	}
	if !deferred {
		t.Error("expected deferred = true")
	}

	bare, deferred = SplitProperty(7)
	if bare != 7 || deferred {
		t.Errorf("SplitProperty(7) = (%d, %v), want (7, false)", bare, deferred)
	}
}

func TestPresetsTableHas26Entries(t *testing.T) {
	if len(Presets) != 26 {
		t.Fatalf("len(Presets) = %d, want 26", len(Presets))
	}
	for i, p := range Presets {
		if p.DecayTime <= 0 {
			t.Errorf("preset %d: DecayTime = %v, want > 0", i, p.DecayTime)
		}
	}
}

func TestRescaleDoublingSizeIncreasesReflectionsDelay(t *testing.T) {
	env := Presets[2] // Room
	env.Flags |= FlagReflectionsDelayScale
	before := env.ReflectionsDelay
	Rescale(&env, 2.0)
	if env.ReflectionsDelay <= before {
		t.Errorf("ReflectionsDelay after doubling = %v, want > %v", env.ReflectionsDelay, before)
	}
}

func TestRescaleNoOpWithoutFlags(t *testing.T) {
	env := Environment{DecayTime: 2.0}
	Rescale(&env, 3.0)
	if env.DecayTime != 2.0 {
		t.Errorf("DecayTime changed without any scale flag set: got %v", env.DecayTime)
	}
}

func TestToReverbParamsClampsDecayTime(t *testing.T) {
	env := Environment{DecayTime: 100, DecayHFRatio: 1, EnvironmentDiffusion: 1}
	p := ToReverbParams(env)
	if p.DecayTime > 20 {
		t.Errorf("DecayTime = %v, want clamped to <= 20", p.DecayTime)
	}
}

func TestSourceOcclusionAttenuatesDirectGain(t *testing.T) {
	open := SourceOcclusion{Direct: 0}
	occluded := SourceOcclusion{Direct: 0, Occlusion: -4000}

	gOpen := open.DirectFilter().Gain
	gOccluded := occluded.DirectFilter().Gain
	if gOccluded >= gOpen {
		t.Errorf("occluded direct gain %v not less than open gain %v", gOccluded, gOpen)
	}
}

func TestSendFilterIgnoresObstruction(t *testing.T) {
	withObstruction := SourceOcclusion{Room: -1000, Obstruction: -5000}
	withoutObstruction := SourceOcclusion{Room: -1000}
	if withObstruction.SendFilter().Gain != withoutObstruction.SendFilter().Gain {
		t.Error("expected SendFilter to ignore direct-path Obstruction")
	}
}

func TestFXSlotGainMatchesMillibelConversion(t *testing.T) {
	s := FXSlot{Volume: 0}
	if got := s.SlotGain(); got != 1.0 {
		t.Errorf("SlotGain() at 0 mB = %v, want 1.0", got)
	}
}
