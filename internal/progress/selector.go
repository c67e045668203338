package progress

import (
	"math/rand"

	"sightread/internal/notes"
)

// Selection weights. Struggling notes get first claim on a card,
// unseen notes next, so practice stays focused without starving due
// reviews.
const (
	strugglingWeight = 0.4
	newNoteWeight    = 0.3
)

// Card is one prompt handed to the session: which staff position to
// show and which accidental the active key signature applies.
type Card struct {
	Clef   string
	Key    string
	NoteID string
	Letter string
	Octave int
	Sharp  bool
	Flat   bool
	Index  int // position in the clef curriculum
}

// Selector picks the next practice card from the unlocked curriculum
// prefix. Randomness comes from an injected source so tests can drive
// every branch deterministically.
type Selector struct {
	store *Store
	rng   *rand.Rand
}

// NewSelector builds a Selector over store. A nil rng falls back to a
// fixed-seed source.
func NewSelector(store *Store, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Selector{store: store, rng: rng}
}

// Next returns the next card for clef under key.
//
// Unlocked notes partition into struggling (low level or streak below
// the mastery bar), new (never attempted) and due (review time
// reached). Struggling notes win a weighted coin, then the first new
// note wins another, then a uniform due note; otherwise any unlocked
// note. Notes past the unlocked prefix are never produced.
func (s *Selector) Next(clef, key string) Card {
	curriculum := notes.ForClef(clef)
	clef = curriculum.Clef
	unlocked := s.store.UnlockedCount(clef)
	if unlocked > curriculum.Len() {
		unlocked = curriculum.Len()
	}
	if unlocked <= 0 {
		return s.card(curriculum, key, 0)
	}

	required := s.store.Tuning().RequiredStreak
	now := s.store.Now()

	var struggling, fresh, due []int
	for i := 0; i < unlocked; i++ {
		rec, ok := s.store.Get(curriculum.ID(i))
		if !ok {
			fresh = append(fresh, i)
			continue
		}
		if rec.Level == 0 || rec.Streak < required {
			struggling = append(struggling, i)
		}
		if !rec.NextReviewAt.After(now) {
			due = append(due, i)
		}
	}

	switch {
	case len(struggling) > 0 && s.rng.Float64() < strugglingWeight:
		return s.card(curriculum, key, struggling[s.rng.Intn(len(struggling))])
	case len(fresh) > 0 && s.rng.Float64() < newNoteWeight:
		// Curriculum order introduces notes, so always the first unseen.
		return s.card(curriculum, key, fresh[0])
	case len(due) > 0:
		return s.card(curriculum, key, due[s.rng.Intn(len(due))])
	default:
		return s.card(curriculum, key, s.rng.Intn(unlocked))
	}
}

func (s *Selector) card(curriculum notes.Curriculum, key string, index int) Card {
	entry := curriculum.At(index)
	sharp, flat := notes.KeyFor(key).Accidental(entry.Letter)
	return Card{
		Clef:   curriculum.Clef,
		Key:    key,
		NoteID: curriculum.ID(index),
		Letter: entry.Letter,
		Octave: entry.Octave,
		Sharp:  sharp,
		Flat:   flat,
		Index:  index,
	}
}
