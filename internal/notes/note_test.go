package notes

import (
	"math"
	"testing"
)

func TestMapFrequency(t *testing.T) {
	tests := []struct {
		freq   float64
		letter string
		sharp  bool
		octave int
	}{
		{440.0, "A", false, 4},   // Reference pitch
		{261.63, "C", false, 4},  // Middle C
		{82.41, "E", false, 2},   // Low guitar E
		{466.16, "A", true, 4},   // A#4 / Bb4
		{1046.5, "C", false, 6},  // Two octaves above middle C
		{444.0, "A", false, 4},   // Slightly sharp still rounds to A4
		{27.5, "A", false, 0},    // Bottom of the piano
	}

	for _, tt := range tests {
		t.Run(tt.letter, func(t *testing.T) {
			n, ok := MapFrequency(tt.freq)
			if !ok {
				t.Fatalf("MapFrequency(%.2f) not ok", tt.freq)
			}
			if n.Letter != tt.letter || n.Sharp != tt.sharp || n.Octave != tt.octave {
				t.Errorf("MapFrequency(%.2f) = %s, want %s sharp=%v octave=%d",
					tt.freq, n.Name(), tt.letter, tt.sharp, tt.octave)
			}
		})
	}
}

func TestMapFrequency_NoResult(t *testing.T) {
	for _, f := range []float64{0, -1, -440} {
		if _, ok := MapFrequency(f); ok {
			t.Errorf("MapFrequency(%.1f) ok, want no result", f)
		}
	}
}

// The frequency/name conversion must round-trip for every chromatic
// note in the trainer's range, locking the octave reference constant.
func TestFrequencyRoundTrip(t *testing.T) {
	for octave := 2; octave <= 5; octave++ {
		for _, name := range []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"} {
			n := Note{Letter: string(name[0]), Sharp: len(name) > 1, Octave: octave}
			f := n.Frequency()
			if f <= 0 {
				t.Fatalf("%s: no frequency", n.Name())
			}
			back, ok := MapFrequency(f)
			if !ok || back != n {
				t.Errorf("round trip %s -> %.2f Hz -> %s", n.Name(), f, back.Name())
			}
		}
	}
}

func TestNoteID(t *testing.T) {
	n := Note{Letter: "C", Octave: 4}
	if id := n.ID(ClefTreble); id != "treble-C4" {
		t.Errorf("ID = %q, want treble-C4", id)
	}
	// The identity must be stable and accidental-free.
	sharp := Note{Letter: "C", Sharp: true, Octave: 4}
	if sharp.ID(ClefBass) != "bass-C4" {
		t.Errorf("sharp ID = %q, want bass-C4", sharp.ID(ClefBass))
	}
}

func TestFrequency_Reference(t *testing.T) {
	a4 := Note{Letter: "A", Octave: 4}
	if f := a4.Frequency(); math.Abs(f-440) > 1e-9 {
		t.Errorf("A4 frequency = %f, want 440", f)
	}
	c4 := Note{Letter: "C", Octave: 4}
	if f := c4.Frequency(); math.Abs(f-261.63) > 0.01 {
		t.Errorf("C4 frequency = %f, want ~261.63", f)
	}
	if f := (Note{Letter: "H", Octave: 4}).Frequency(); f != 0 {
		t.Errorf("unknown letter frequency = %f, want 0", f)
	}
}

func TestCurriculum(t *testing.T) {
	for _, clef := range []string{ClefTreble, ClefBass} {
		c := ForClef(clef)
		if c.Clef != clef {
			t.Errorf("ForClef(%q).Clef = %q", clef, c.Clef)
		}
		if c.Len() < 10 {
			t.Errorf("%s curriculum too short: %d", clef, c.Len())
		}
		seen := make(map[string]bool, c.Len())
		for i := 0; i < c.Len(); i++ {
			id := c.ID(i)
			if seen[id] {
				t.Errorf("%s curriculum repeats %s", clef, id)
			}
			seen[id] = true
		}
	}
	if ForClef("alto").Clef != ClefTreble {
		t.Error("unknown clef should fall back to treble")
	}
}

func TestKeySignatureAccidentals(t *testing.T) {
	tests := []struct {
		key    string
		letter string
		sharp  bool
		flat   bool
	}{
		{"C", "F", false, false},
		{"G", "F", true, false},
		{"D", "C", true, false},
		{"F", "B", false, true},
		{"Eb", "A", false, true},
		{"G", "B", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.letter, func(t *testing.T) {
			sharp, flat := KeyFor(tt.key).Accidental(tt.letter)
			if sharp != tt.sharp || flat != tt.flat {
				t.Errorf("KeyFor(%q).Accidental(%q) = %v,%v want %v,%v",
					tt.key, tt.letter, sharp, flat, tt.sharp, tt.flat)
			}
		})
	}
	if KeyFor("X#").Name != "C" {
		t.Error("unknown key should fall back to C")
	}
}
