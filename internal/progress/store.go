/*
Package progress implements the adaptive scheduling engine: per-note
mastery records with spaced-repetition review times, the unlocked
cursor into the note curriculum, priority-weighted card selection and
the unlock/regress progression checks.

The Store is the single source of truth. Selector and Controller only
read and mutate through its methods; records are passed by value so no
caller can alias internal state. Every mutation persists synchronously,
because the very next selection must observe it.
*/
package progress

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sightread/internal/log"
	"sightread/internal/notes"
	"sightread/internal/storage"
)

// Outcome classifies one attempt.
type Outcome int

const (
	OutcomeFastCorrect Outcome = iota
	OutcomeSlowCorrect
	OutcomeWrong
)

// String returns the outcome name for logs and events.
func (o Outcome) String() string {
	switch o {
	case OutcomeFastCorrect:
		return "fast_correct"
	case OutcomeSlowCorrect:
		return "slow_correct"
	case OutcomeWrong:
		return "wrong"
	default:
		return "unknown"
	}
}

// Record is the per-note mastery state.
//
// Streak counts consecutive correct responses and resets to zero on
// any wrong answer. Level indexes the review interval table; wrong
// answers reset it to zero, slow answers cannot push it past the slow
// cap. Absent JSON fields default to zero values, which keeps old
// persisted schemas loadable.
type Record struct {
	Level        int       `json:"level"`
	Streak       int       `json:"streak"`
	NextReviewAt time.Time `json:"nextReviewAt"`
}

// Tuning holds the progression parameters.
type Tuning struct {
	RequiredStreak int           // Streak at which a note counts as mastered.
	FastThreshold  time.Duration // Response-time boundary between fast and slow.
	SlowLevelCap   int           // Highest level reachable through slow answers.
	Intervals      []time.Duration // Review interval per level.
	ShortDelay     time.Duration // Re-review delay after a slow answer.
	VeryShortDelay time.Duration // Re-review delay after a wrong answer.
	UnlockFloor    int           // Minimum unlocked curriculum prefix.
	HistorySize    int           // Rolling attempt history bound.
}

// DefaultTuning returns the trainer defaults.
func DefaultTuning() Tuning {
	return Tuning{
		RequiredStreak: 20,
		FastThreshold:  2500 * time.Millisecond,
		SlowLevelCap:   2,
		Intervals: []time.Duration{
			1 * time.Minute,
			5 * time.Minute,
			30 * time.Minute,
			120 * time.Minute,
			720 * time.Minute,
			2880 * time.Minute,
		},
		ShortDelay:     time.Minute,
		VeryShortDelay: 30 * time.Second,
		UnlockFloor:    3,
		HistorySize:    50,
	}
}

// progressKeyPrefix versions the persisted schema by key name; bumping
// the suffix abandons old state rather than migrating it.
const progressKeyPrefix = "sightread/progress/"
const progressKeySuffix = "_v3"

// clefState is the JSON document persisted per clef.
type clefState struct {
	Items    map[string]Record `json:"items"`
	Unlocked int               `json:"unlocked"`
	History  []bool            `json:"history"`
}

// Store owns mastery records, the unlocked cursor and the rolling
// attempt history, persisting through an injected key-value store.
type Store struct {
	kv     storage.KV
	tuning Tuning
	now    func() time.Time
	state  map[string]*clefState
}

// NewStore constructs a Store over kv. A nil clock uses time.Now; tests
// inject a fixed clock to pin review timing.
func NewStore(kv storage.KV, tuning Tuning, clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		kv:     kv,
		tuning: tuning,
		now:    clock,
		state:  make(map[string]*clefState),
	}
}

// Tuning returns the progression parameters the store was built with.
func (s *Store) Tuning() Tuning {
	return s.tuning
}

// Now returns the store's current time. Selector due-ness uses the
// same clock as review scheduling.
func (s *Store) Now() time.Time {
	return s.now()
}

// clefOf extracts the clef from a note id of the form "treble-C4".
func clefOf(noteID string) string {
	clef, _, _ := strings.Cut(noteID, "-")
	return clef
}

// load returns the state for clef, reading it from the key-value store
// on first access. Corrupt or missing documents fall back to defaults;
// missing fields inside a document default field-by-field.
func (s *Store) load(clef string) *clefState {
	if st, ok := s.state[clef]; ok {
		return st
	}
	st := &clefState{Items: make(map[string]Record)}
	raw, found, err := s.kv.Get(progressKeyPrefix + clef + progressKeySuffix)
	if err != nil {
		log.Errorf("progress: reading %s state: %v", clef, err)
	} else if found {
		if err := json.Unmarshal([]byte(raw), st); err != nil {
			log.Warnf("progress: corrupt %s state, starting fresh: %v", clef, err)
			st = &clefState{Items: make(map[string]Record)}
		}
		if st.Items == nil {
			st.Items = make(map[string]Record)
		}
	}
	st.Unlocked = s.clamp(clef, st.Unlocked)
	s.state[clef] = st
	return st
}

// save persists the clef state synchronously.
func (s *Store) save(clef string) {
	st := s.load(clef)
	raw, err := json.Marshal(st)
	if err != nil {
		log.Errorf("progress: encoding %s state: %v", clef, err)
		return
	}
	if err := s.kv.Set(progressKeyPrefix+clef+progressKeySuffix, string(raw)); err != nil {
		log.Errorf("progress: persisting %s state: %v", clef, err)
	}
}

// Get returns the record for noteID without creating it.
func (s *Store) Get(noteID string) (Record, bool) {
	st := s.load(clefOf(noteID))
	rec, ok := st.Items[noteID]
	return rec, ok
}

// GetOrCreate returns the record for noteID, creating a zero record on
// first access. Creation is the only implicit-write path.
func (s *Store) GetOrCreate(noteID string) Record {
	clef := clefOf(noteID)
	st := s.load(clef)
	rec, ok := st.Items[noteID]
	if !ok {
		rec = Record{NextReviewAt: s.now()}
		st.Items[noteID] = rec
		s.save(clef)
	}
	return rec
}

// RecordResult applies one attempt to noteID and returns its
// classification. The record and attempt history mutate and persist
// before the call returns.
func (s *Store) RecordResult(noteID string, correct bool, latency time.Duration) Outcome {
	clef := clefOf(noteID)
	st := s.load(clef)
	rec := st.Items[noteID] // zero record if absent; creation is lazy
	now := s.now()

	var outcome Outcome
	switch {
	case correct && latency <= s.tuning.FastThreshold:
		outcome = OutcomeFastCorrect
		rec.Streak++
		if rec.Level < len(s.tuning.Intervals)-1 {
			rec.Level++
		}
		rec.NextReviewAt = now.Add(s.tuning.Intervals[rec.Level])
	case correct:
		outcome = OutcomeSlowCorrect
		rec.Streak++
		if rec.Level < s.tuning.SlowLevelCap && rec.Level < len(s.tuning.Intervals)-1 {
			rec.Level++
		}
		rec.NextReviewAt = now.Add(s.tuning.ShortDelay)
	default:
		outcome = OutcomeWrong
		rec.Streak = 0
		rec.Level = 0
		rec.NextReviewAt = now.Add(s.tuning.VeryShortDelay)
	}

	st.Items[noteID] = rec
	st.History = append(st.History, correct)
	if overflow := len(st.History) - s.tuning.HistorySize; overflow > 0 {
		st.History = st.History[overflow:]
	}
	s.save(clef)

	log.Debugf("progress: %s %s streak=%d level=%d", noteID, outcome, rec.Streak, rec.Level)
	return outcome
}

// UnlockedCount returns the clamped unlocked-prefix length for clef.
func (s *Store) UnlockedCount(clef string) int {
	return s.load(clef).Unlocked
}

// SetUnlockedCount sets the unlocked-prefix length for clef, clamped
// to [floor, curriculum length], and persists.
func (s *Store) SetUnlockedCount(clef string, n int) {
	st := s.load(clef)
	st.Unlocked = s.clamp(clef, n)
	s.save(clef)
}

func (s *Store) clamp(clef string, n int) int {
	if n < s.tuning.UnlockFloor {
		n = s.tuning.UnlockFloor
	}
	if max := notes.ForClef(clef).Len(); n > max {
		n = max
	}
	return n
}

// History returns a copy of the rolling attempt history for clef.
func (s *Store) History(clef string) []bool {
	st := s.load(clef)
	out := make([]bool, len(st.History))
	copy(out, st.History)
	return out
}

// Accuracy returns the fraction of correct attempts in the rolling
// history, or 0 when there is none. Aggregate statistics only; unlock
// decisions never consult this.
func (s *Store) Accuracy(clef string) float64 {
	st := s.load(clef)
	if len(st.History) == 0 {
		return 0
	}
	correct := 0
	for _, ok := range st.History {
		if ok {
			correct++
		}
	}
	return float64(correct) / float64(len(st.History))
}

// Reset clears all mastery records, history and cursors. Explicit user
// action only.
func (s *Store) Reset() error {
	for _, clef := range []string{notes.ClefTreble, notes.ClefBass} {
		delete(s.state, clef)
		if err := s.kv.Delete(progressKeyPrefix + clef + progressKeySuffix); err != nil {
			return fmt.Errorf("failed to reset %s progress: %w", clef, err)
		}
	}
	return nil
}
