// Package notes converts frequencies to equal-temperament note names
// and defines the note curricula and key signatures the trainer drills.
package notes

import (
	"fmt"
	"math"
	"strings"
)

// chromatic is the fixed 12-entry name table starting at C.
var chromatic = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// a4Index is the absolute semitone index of A4 counting from C0 as 0:
// 4 octaves of 12 plus the 9 semitones from C to A. Locked by the
// round-trip test MapFrequency(440) == A4.
const a4Index = 57

// Note is a named pitch in 12-tone equal temperament, A4 = 440 Hz.
type Note struct {
	Letter string // "A".."G"
	Sharp  bool
	Octave int
}

// Name returns the display form, e.g. "F#3".
func (n Note) Name() string {
	if n.Sharp {
		return fmt.Sprintf("%s#%d", n.Letter, n.Octave)
	}
	return fmt.Sprintf("%s%d", n.Letter, n.Octave)
}

// ID returns the deterministic per-clef identity key for mastery
// records, e.g. "treble-C4". Derived, stable across runs.
func (n Note) ID(clef string) string {
	return fmt.Sprintf("%s-%s%d", clef, n.Letter, n.Octave)
}

// MapFrequency converts a frequency in Hz to the nearest note.
// Returns ok=false for non-positive frequencies (the estimator's
// failure sentinel propagates here) and for pitches below C0.
func MapFrequency(freq float64) (Note, bool) {
	if freq <= 0 {
		return Note{}, false
	}
	semitone := int(math.Round(12 * math.Log2(freq/440)))
	abs := semitone + a4Index
	if abs < 0 {
		return Note{}, false
	}
	name := chromatic[abs%12]
	return Note{
		Letter: strings.TrimSuffix(name, "#"),
		Sharp:  strings.HasSuffix(name, "#"),
		Octave: abs / 12,
	}, true
}

// Frequency returns the equal-temperament frequency of the note in Hz,
// or 0 for an unknown letter.
func (n Note) Frequency() float64 {
	idx := -1
	name := n.Letter
	if n.Sharp {
		name += "#"
	}
	for i, c := range chromatic {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0
	}
	abs := n.Octave*12 + idx
	return 440 * math.Pow(2, float64(abs-a4Index)/12)
}
