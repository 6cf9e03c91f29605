package ds

import "testing"

func TestMillibelToGain(t *testing.T) {
	cases := []struct {
		mb   float64
		want float64
	}{
		{0, 1.0},
		{DSBVolumeMin, 0},
		{DSBVolumeMin - 1, 0},
		{-2000, 0.1},
	}

	for _, c := range cases {
		got := MillibelToGain(c.mb)
		if diff := got - c.want; diff < -1e-9 || diff > 1e-9 {
			t.Errorf("MillibelToGain(%v) = %v, want %v", c.mb, got, c.want)
		}
	}
}

func TestGainToMillibelRoundTrip(t *testing.T) {
	t.Log("verifying gain->mB->gain round trips within floating point rounding")
	for _, gain := range []float64{1.0, 0.5, 0.1, 0.01} {
		mb := GainToMillibel(gain)
		back := MillibelToGain(mb)
		if diff := back - gain; diff < -1e-6 || diff > 1e-6 {
			t.Errorf("round trip for gain %v produced %v (via mB=%v)", gain, back, mb)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 1); got != 1 {
		t.Errorf("Clamp(5,0,1) = %v, want 1", got)
	}
	if got := Clamp(-5, 0, 1); got != 0 {
		t.Errorf("Clamp(-5,0,1) = %v, want 0", got)
	}
}

func TestFlipZRoundTrip(t *testing.T) {
	v := Vec3{X: 1, Y: 2, Z: 3}
	got := FlipZ(FlipZ(v))
	if got != v {
		t.Errorf("FlipZ(FlipZ(v)) = %+v, want %+v", got, v)
	}
}
