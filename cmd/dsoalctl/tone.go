package main

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// tonePlayer renders a sine wave through oto, grounded on the teacher's
// OtoPlayer (its audio_backend_oto.go): an atomic, lock-free hot path in
// Read plus a mutex guarding setup/control calls.
type tonePlayer struct {
	ctx    *oto.Context
	player *oto.Player

	sampleRate int
	freq       atomic.Uint64 // math.Float64bits(hz)
	phase      float64

	mu      sync.Mutex
	started bool
}

func newTonePlayer(sampleRate int, freqHz float64) (*tonePlayer, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4096,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	tp := &tonePlayer{ctx: ctx, sampleRate: sampleRate}
	tp.freq.Store(math.Float64bits(freqHz))
	tp.player = ctx.NewPlayer(tp)
	return tp, nil
}

func (tp *tonePlayer) Read(p []byte) (int, error) {
	hz := math.Float64frombits(tp.freq.Load())

	numSamples := len(p) / 4
	step := 2 * math.Pi * hz / float64(tp.sampleRate)
	for i := 0; i < numSamples; i++ {
		sample := float32(0.2 * math.Sin(tp.phase))
		tp.phase += step
		if tp.phase > 2*math.Pi {
			tp.phase -= 2 * math.Pi
		}
		putFloat32LE(p[i*4:], sample)
	}
	return numSamples * 4, nil
}

func putFloat32LE(b []byte, f float32) {
	bits := math.Float32bits(f)
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
}

func (tp *tonePlayer) Start() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if !tp.started {
		tp.player.Play()
		tp.started = true
	}
}

func (tp *tonePlayer) Stop() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.started {
		tp.player.Close()
		tp.started = false
	}
}

func runTone(deviceName string, freqHz float64) error {
	tp, err := newTonePlayer(44100, freqHz)
	if err != nil {
		return err
	}
	tp.Start()
	defer tp.Stop()

	time.Sleep(2 * time.Second)
	return nil
}
