package progress

import (
	"time"

	"sightread/internal/config"
)

// TuningFromConfig converts the YAML-facing progression settings into
// engine durations. Empty interval tables fall back to the defaults so
// a sparse config file cannot strand the scheduler.
func TuningFromConfig(pc config.ProgressConfig) Tuning {
	t := DefaultTuning()
	if pc.RequiredStreak > 0 {
		t.RequiredStreak = pc.RequiredStreak
	}
	if pc.FastThresholdMs > 0 {
		t.FastThreshold = time.Duration(pc.FastThresholdMs) * time.Millisecond
	}
	if pc.SlowLevelCap > 0 {
		t.SlowLevelCap = pc.SlowLevelCap
	}
	if len(pc.IntervalsMinutes) > 0 {
		t.Intervals = make([]time.Duration, len(pc.IntervalsMinutes))
		for i, m := range pc.IntervalsMinutes {
			t.Intervals[i] = time.Duration(m) * time.Minute
		}
	}
	if pc.ShortDelaySec > 0 {
		t.ShortDelay = time.Duration(pc.ShortDelaySec) * time.Second
	}
	if pc.VeryShortDelay > 0 {
		t.VeryShortDelay = time.Duration(pc.VeryShortDelay) * time.Second
	}
	if pc.UnlockFloor > 0 {
		t.UnlockFloor = pc.UnlockFloor
	}
	if pc.HistorySize > 0 {
		t.HistorySize = pc.HistorySize
	}
	return t
}
