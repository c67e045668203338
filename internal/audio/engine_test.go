package audio

import (
	"math"
	"strconv"
	"testing"

	"sightread/internal/config"
)

// Shared test fixtures.
var (
	lowThreshold  = int32(math.MaxInt32 / 1000)
	highThreshold = int32(float64(math.MaxInt32) * 0.9)

	quietBuffer = makeBuffer(1024, math.MaxInt32/10000)
	loudBuffer  = makeBuffer(1024, math.MaxInt32/2)
	testBuffer  = makeBuffer(1024, math.MaxInt32/100)
)

func makeBuffer(size int, peak int32) []int32 {
	buf := make([]int32, size)
	for i := range buf {
		if i%2 == 0 {
			buf[i] = peak
		} else {
			buf[i] = -peak
		}
	}
	return buf
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func absFloat(x float64) float64 {
	return math.Abs(x)
}

// testEngine builds an Engine without touching PortAudio.
func testEngine(cfg *config.Config, handler FrameHandler) *Engine {
	e := &Engine{
		config:      cfg,
		handler:     handler,
		inputBuffer: make([]int32, cfg.Audio.FramesPerBuffer*cfg.Audio.InputChannels),
		monoFrame:   make([]float64, cfg.Audio.FramesPerBuffer),
		running:     1,
	}
	if cfg.Audio.GateThreshold > 0 {
		e.gateEnabled = true
		e.SetGateThreshold(cfg.Audio.GateThreshold)
	}
	return e
}

func TestProcessBuffer_MonoNormalization(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.FramesPerBuffer = 4

	var got []float64
	e := testEngine(cfg, func(frame []float64) {
		got = append([]float64{}, frame...)
	})

	in := []int32{math.MaxInt32, math.MaxInt32 / 2, 0, -math.MaxInt32}
	e.processInputStream(in)

	want := []float64{1.0, 0.5, 0.0, -1.0}
	if len(got) != len(want) {
		t.Fatalf("frame length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("sample %d = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestProcessBuffer_StereoFoldDown(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.FramesPerBuffer = 2
	cfg.Audio.InputChannels = 2

	var got []float64
	e := testEngine(cfg, func(frame []float64) {
		got = append([]float64{}, frame...)
	})

	// Interleaved L/R pairs: (max, 0) and (max/2, max/2).
	in := []int32{math.MaxInt32, 0, math.MaxInt32 / 2, math.MaxInt32 / 2}
	e.processInputStream(in)

	if len(got) != 2 {
		t.Fatalf("frame length = %d, want 2", len(got))
	}
	if math.Abs(got[0]-0.5) > 1e-6 || math.Abs(got[1]-0.5) > 1e-6 {
		t.Errorf("folded frame = %v, want [0.5 0.5]", got)
	}
}

// Gated frames must still reach the handler, as empty frames: the
// session relies on seeing them to re-arm between notes.
func TestProcessBuffer_GateEmptiesQuietFrames(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.FramesPerBuffer = 1024
	cfg.Audio.GateThreshold = 0.1

	var lengths []int
	e := testEngine(cfg, func(frame []float64) {
		lengths = append(lengths, len(frame))
	})

	e.processInputStream(quietBuffer)
	if len(lengths) != 1 || lengths[0] != 0 {
		t.Fatalf("quiet frame lengths = %v, want [0]", lengths)
	}
	e.processInputStream(loudBuffer)
	if len(lengths) != 2 || lengths[1] != 1024 {
		t.Fatalf("loud frame lengths = %v, want a full second frame", lengths)
	}

	e.DisableGate()
	e.processInputStream(quietBuffer)
	if len(lengths) != 3 || lengths[2] != 1024 {
		t.Errorf("disabled gate lengths = %v, want a full third frame", lengths)
	}
}

// No frame may reach the handler once the engine has stopped, even if
// the capture callback fires while the stream drains.
func TestProcessInputStream_DroppedAfterStop(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.FramesPerBuffer = 1024

	calls := 0
	e := testEngine(cfg, func([]float64) { calls++ })

	e.processInputStream(loudBuffer)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	if err := e.StopInputStream(); err != nil {
		t.Fatalf("StopInputStream: %v", err)
	}
	e.processInputStream(loudBuffer)
	if calls != 1 {
		t.Errorf("frame delivered after stop (calls = %d)", calls)
	}
}

// TestBranchlessAbsPerformance verifies the branchless absolute value calculation has no allocations
func TestBranchlessAbsPerformance(t *testing.T) {
	samples := make([]int32, 1024)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = int32(i * 1000)
		} else {
			samples[i] = int32(-i * 1000)
		}
	}

	allocs := testing.AllocsPerRun(100, func() {
		for i, sample := range samples {
			mask := sample >> 31
			samples[i] = (sample ^ mask) - mask
		}
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in branchless abs, got %.1f", allocs)
	}
}

// TestNoiseGateHotPath tests the core noise gate algorithm for zero allocations
func TestNoiseGateHotPath(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.FramesPerBuffer = 1024
	cfg.Audio.GateThreshold = 0.25
	e := testEngine(cfg, func([]float64) {})

	allocs := testing.AllocsPerRun(100, func() {
		e.processBuffer(testBuffer)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in noise gate hot path, got %.1f", allocs)
	}
}

// BenchmarkHotPath benchmarks the gate-plus-normalize processing path.
func BenchmarkHotPath(b *testing.B) {
	cfg := config.Default()
	cfg.Audio.FramesPerBuffer = 1024
	cfg.Audio.GateThreshold = 0.001
	e := testEngine(cfg, func([]float64) {})

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		e.processBuffer(loudBuffer)
	}
}
