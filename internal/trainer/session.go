/*
Package trainer orchestrates a practice session: it presents cards,
turns detected pitches into attempt results, feeds the progression
engine and publishes events for attached UIs.

A session advances one card at a time. The first confident pitch after
a card is shown resolves the attempt; the session then waits for
silence before arming the next card, so a sustained note cannot bleed
into the following prompt.
*/
package trainer

import (
	"sync"
	"time"

	"sightread/internal/config"
	"sightread/internal/log"
	"sightread/internal/notes"
	"sightread/internal/pitch"
	"sightread/internal/progress"
	"sightread/internal/transport"
)

// Stats aggregates one session's attempts.
type Stats struct {
	Attempts    int
	Correct     int
	FastCorrect int
	Rounds      int
	StartedAt   time.Time
}

// Accuracy returns the fraction of correct attempts, or 0 with none.
func (s Stats) Accuracy() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempts)
}

// Result describes one resolved attempt, delivered to observers and
// published on the event transport.
type Result struct {
	Card      progress.Card
	Detected  notes.Note
	Correct   bool
	Latency   time.Duration
	Outcome   progress.Outcome
	Unlocked  bool // the cursor moved up after this attempt's round
	Regressed bool
}

// Session runs one practice sitting for a single clef and key.
type Session struct {
	cfg        *config.Config
	store      *progress.Store
	selector   *progress.Selector
	controller *progress.Controller
	estimator  pitch.Estimator
	publisher  transport.Publisher
	now        func() time.Time

	clef string
	key  string

	mu              sync.Mutex
	current         progress.Card
	cardShownAt     time.Time
	awaitingSilence bool
	roundAttempts   int
	roundCorrect    int
	stats           Stats
	onResult        func(Result)
	onCard          func(progress.Card)
	onPitch         func(freq float64)
}

// New builds a Session. A nil clock uses time.Now; a nil publisher
// falls back to the logging publisher.
func New(cfg *config.Config, store *progress.Store, selector *progress.Selector,
	controller *progress.Controller, estimator pitch.Estimator,
	publisher transport.Publisher, clock func() time.Time) *Session {

	if clock == nil {
		clock = time.Now
	}
	if publisher == nil {
		publisher = transport.NewLoggingPublisher()
	}
	return &Session{
		cfg:        cfg,
		store:      store,
		selector:   selector,
		controller: controller,
		estimator:  estimator,
		publisher:  publisher,
		now:        clock,
		clef:       cfg.Session.Clef,
		key:        cfg.Session.KeySignature,
	}
}

// OnResult registers a callback invoked after every resolved attempt.
// The TUI subscribes here. Must be set before Start.
func (s *Session) OnResult(fn func(Result)) {
	s.onResult = fn
}

// OnCard registers a callback invoked when a new card is presented.
// Must be set before Start.
func (s *Session) OnCard(fn func(progress.Card)) {
	s.onCard = fn
}

// OnPitch registers a callback invoked for every pitched frame,
// whether or not it resolves an attempt. Must be set before Start.
func (s *Session) OnPitch(fn func(freq float64)) {
	s.onPitch = fn
}

// Start presents the first card.
func (s *Session) Start() {
	s.mu.Lock()
	s.stats = Stats{StartedAt: s.now()}
	s.mu.Unlock()

	s.publisher.Publish(transport.NewEvent(transport.EventSession, map[string]any{
		"state": "started",
		"clef":  s.clef,
		"key":   s.key,
	}))
	s.nextCard()
}

// Stop publishes the final session summary.
func (s *Session) Stop() {
	s.mu.Lock()
	stats := s.stats
	s.mu.Unlock()

	s.publisher.Publish(transport.NewEvent(transport.EventSession, map[string]any{
		"state":    "ended",
		"attempts": stats.Attempts,
		"correct":  stats.Correct,
		"accuracy": stats.Accuracy(),
		"rounds":   stats.Rounds,
	}))
	log.Infof("trainer: session ended, %d attempts, %.0f%% accuracy",
		stats.Attempts, stats.Accuracy()*100)
}

// Current returns the card being prompted.
func (s *Session) Current() progress.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Stats returns a snapshot of the session statistics.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// HandleFrame consumes one analysis frame of mono samples. Called from
// the capture engine for every frame; the engine delivers gated frames
// empty, which count as silence here.
func (s *Session) HandleFrame(frame []float64) {
	freq := float64(pitch.NoPitch)
	if len(frame) > 0 {
		freq = s.estimator.Estimate(frame, s.cfg.Audio.SampleRate)
	}

	s.mu.Lock()
	if freq == pitch.NoPitch {
		// Silence re-arms the session after a resolution.
		s.awaitingSilence = false
		s.mu.Unlock()
		return
	}
	armed := !s.awaitingSilence
	s.mu.Unlock()

	s.publisher.Publish(transport.NewEvent(transport.EventPitch, map[string]any{
		"frequency": freq,
	}))
	if s.onPitch != nil {
		s.onPitch(freq)
	}

	if !armed {
		return
	}
	detected, ok := notes.MapFrequency(freq)
	if !ok {
		return
	}
	s.Submit(detected)
}

// Submit resolves the current card against a detected note. Exposed
// separately from HandleFrame so UIs and tests can drive attempts
// directly.
func (s *Session) Submit(detected notes.Note) {
	s.mu.Lock()
	card := s.current
	if card.NoteID == "" {
		s.mu.Unlock()
		return
	}
	latency := s.now().Sub(s.cardShownAt)
	s.awaitingSilence = true
	s.mu.Unlock()

	correct := matches(card, detected)
	outcome := s.store.RecordResult(card.NoteID, correct, latency)

	// Regression is evaluated on every attempt; unlocking only after a
	// clean round, so a hot streak cannot skip the round cadence.
	regressed := s.controller.CheckRegress(card.Clef)

	s.mu.Lock()
	s.stats.Attempts++
	s.roundAttempts++
	if correct {
		s.stats.Correct++
		s.roundCorrect++
	}
	if outcome == progress.OutcomeFastCorrect {
		s.stats.FastCorrect++
	}
	roundDone := s.roundAttempts >= s.cfg.Session.RoundSize
	cleanRound := roundDone && s.roundCorrect == s.roundAttempts
	if roundDone {
		s.stats.Rounds++
		s.roundAttempts = 0
		s.roundCorrect = 0
	}
	s.mu.Unlock()

	unlocked := false
	if cleanRound {
		unlocked = s.controller.CheckUnlock(card.Clef)
	}

	result := Result{
		Card:      card,
		Detected:  detected,
		Correct:   correct,
		Latency:   latency,
		Outcome:   outcome,
		Unlocked:  unlocked,
		Regressed: regressed,
	}

	s.publisher.Publish(transport.NewEvent(transport.EventResult, map[string]any{
		"note_id":    card.NoteID,
		"detected":   detected.Name(),
		"correct":    correct,
		"latency_ms": latency.Milliseconds(),
		"outcome":    outcome.String(),
	}))
	if unlocked || regressed {
		s.publisher.Publish(transport.NewEvent(transport.EventProgress, map[string]any{
			"clef":     card.Clef,
			"unlocked": s.store.UnlockedCount(card.Clef),
		}))
	}
	if s.onResult != nil {
		s.onResult(result)
	}

	s.nextCard()
}

// nextCard selects and presents the next prompt.
func (s *Session) nextCard() {
	card := s.selector.Next(s.clef, s.key)

	s.mu.Lock()
	s.current = card
	s.cardShownAt = s.now()
	s.mu.Unlock()

	s.publisher.Publish(transport.NewEvent(transport.EventCard, map[string]any{
		"note_id": card.NoteID,
		"letter":  card.Letter,
		"octave":  card.Octave,
		"sharp":   card.Sharp,
		"flat":    card.Flat,
	}))
	if s.onCard != nil {
		s.onCard(card)
	}
}

// matches reports whether a detected note sounds the card's target.
// Comparison happens on the chromatic pitch, so an F# detection
// answers a card showing F under a G-major key signature, and flats
// match their enharmonic sharps.
func matches(card progress.Card, detected notes.Note) bool {
	target := notes.Note{Letter: card.Letter, Sharp: card.Sharp, Octave: card.Octave}
	freq := target.Frequency()
	if freq <= 0 {
		return false
	}
	if card.Flat {
		// One semitone down from the natural.
		freq /= semitoneRatio
	}
	canonical, ok := notes.MapFrequency(freq)
	if !ok {
		return false
	}
	return canonical == detected
}

// semitoneRatio is 2^(1/12).
const semitoneRatio = 1.0594630943592953
