package notes

// KeySignature lists the letters a key forces sharp or flat. A
// curriculum entry's letter is resolved through the active key before
// a card is shown.
type KeySignature struct {
	Name   string
	Sharps []string
	Flats  []string
}

// Circle-of-fifths subset the trainer offers. C carries no accidentals.
var keySignatures = map[string]KeySignature{
	"C":  {Name: "C"},
	"G":  {Name: "G", Sharps: []string{"F"}},
	"D":  {Name: "D", Sharps: []string{"F", "C"}},
	"A":  {Name: "A", Sharps: []string{"F", "C", "G"}},
	"E":  {Name: "E", Sharps: []string{"F", "C", "G", "D"}},
	"F":  {Name: "F", Flats: []string{"B"}},
	"Bb": {Name: "Bb", Flats: []string{"B", "E"}},
	"Eb": {Name: "Eb", Flats: []string{"B", "E", "A"}},
}

// KeyFor returns the key signature with the given name, defaulting to
// C when the name is unknown.
func KeyFor(name string) KeySignature {
	if k, ok := keySignatures[name]; ok {
		return k
	}
	return keySignatures["C"]
}

// Accidental reports whether the key forces the letter sharp or flat.
func (k KeySignature) Accidental(letter string) (sharp, flat bool) {
	for _, s := range k.Sharps {
		if s == letter {
			return true, false
		}
	}
	for _, f := range k.Flats {
		if f == letter {
			return false, true
		}
	}
	return false, false
}
