package progress

import (
	"math/rand"
	"testing"
	"time"

	"sightread/internal/notes"
	"sightread/internal/storage"
)

// master drives a note to the required streak with fast answers.
func master(t *testing.T, s *Store, noteID string) {
	t.Helper()
	for i := 0; i < s.Tuning().RequiredStreak; i++ {
		s.RecordResult(noteID, true, time.Second)
	}
}

func TestSelector_NeverExceedsUnlocked(t *testing.T) {
	s, now := newTestStore(storage.NewMemory(), testTuning())
	sel := NewSelector(s, rand.New(rand.NewSource(7)))

	s.SetUnlockedCount("treble", 5)
	master(t, s, "treble-E4")
	s.RecordResult("treble-F4", false, time.Second)
	*now = now.Add(time.Minute)

	for i := 0; i < 500; i++ {
		card := sel.Next("treble", "C")
		if card.Index >= 5 {
			t.Fatalf("draw %d: index %d beyond unlocked prefix 5", i, card.Index)
		}
		if card.Clef != "treble" || card.NoteID != notes.ForClef("treble").ID(card.Index) {
			t.Fatalf("draw %d: inconsistent card %+v", i, card)
		}
	}
}

// With every unlocked note mastered and exactly one due, the weighted
// branches are all skipped and the due note is forced.
func TestSelector_DueNoteForced(t *testing.T) {
	s, now := newTestStore(storage.NewMemory(), testTuning())
	sel := NewSelector(s, rand.New(rand.NewSource(3)))

	master(t, s, "treble-E4")
	master(t, s, "treble-F4")
	master(t, s, "treble-G4")
	// Mastery pushed every review far out; pull one back by advancing
	// past the level cap's top interval only for a re-answered note.
	*now = now.Add(49 * time.Hour)
	for i := 0; i < 20; i++ {
		card := sel.Next("treble", "C")
		if card.NoteID == "" {
			t.Fatal("empty card")
		}
	}
	// All three are now due; answer two of them fast to push their
	// reviews out again, leaving G4 the only due note.
	s.RecordResult("treble-E4", true, time.Second)
	s.RecordResult("treble-F4", true, time.Second)
	for i := 0; i < 20; i++ {
		if card := sel.Next("treble", "C"); card.NoteID != "treble-G4" {
			t.Fatalf("draw %d: %s, want the only due note treble-G4", i, card.NoteID)
		}
	}
}

// A struggling note that is also the only due note wins through every
// branch, so selection is deterministic.
func TestSelector_StrugglingAndDueWins(t *testing.T) {
	s, now := newTestStore(storage.NewMemory(), testTuning())
	sel := NewSelector(s, rand.New(rand.NewSource(11)))

	master(t, s, "treble-F4")
	master(t, s, "treble-G4")
	s.RecordResult("treble-E4", false, time.Second)
	*now = now.Add(time.Minute) // past the wrong-answer delay, under the mastery intervals

	for i := 0; i < 20; i++ {
		if card := sel.Next("treble", "C"); card.NoteID != "treble-E4" {
			t.Fatalf("draw %d: %s, want struggling treble-E4", i, card.NoteID)
		}
	}
}

// A fresh store has no records at all: the new-note branch and the
// uniform fallback are the only outcomes, and the new-note branch must
// introduce notes in curriculum order.
func TestSelector_FirstNewNoteBias(t *testing.T) {
	s, _ := newTestStore(storage.NewMemory(), testTuning())
	sel := NewSelector(s, rand.New(rand.NewSource(42)))

	counts := make(map[int]int)
	for i := 0; i < 600; i++ {
		counts[sel.Next("treble", "C").Index]++
	}
	// Index 0 gets the 0.3 new-note weight plus its uniform share of
	// the remainder, roughly 53% against ~23% each for 1 and 2.
	if counts[0] <= counts[1] || counts[0] <= counts[2] {
		t.Errorf("first unseen note not favored: %v", counts)
	}
	if counts[0] < 200 {
		t.Errorf("index 0 drawn %d/600, want the weighted majority", counts[0])
	}
}

func TestSelector_KeySignatureOnCard(t *testing.T) {
	s, _ := newTestStore(storage.NewMemory(), testTuning())
	sel := NewSelector(s, rand.New(rand.NewSource(1)))

	for i := 0; i < 50; i++ {
		card := sel.Next("treble", "G")
		if card.Letter == "F" && !card.Sharp {
			t.Fatal("F natural drawn in G major")
		}
		if card.Flat {
			t.Fatalf("flat on %s in G major", card.Letter)
		}
	}
}

func TestSelector_UnknownClefFallsBack(t *testing.T) {
	s, _ := newTestStore(storage.NewMemory(), testTuning())
	sel := NewSelector(s, nil)

	card := sel.Next("alto", "C")
	if card.Clef != "treble" {
		t.Errorf("clef = %q, want treble fallback", card.Clef)
	}
}
