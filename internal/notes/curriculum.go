package notes

// Clef names used throughout the trainer.
const (
	ClefTreble = "treble"
	ClefBass   = "bass"
)

// Entry is one curriculum position: a letter and octave, before any
// key-signature accidental is applied.
type Entry struct {
	Letter string
	Octave int
}

// Curriculum is the fixed, ordered note sequence a clef's lessons
// progress through. The unlocked prefix of this sequence is the set of
// notes currently in rotation; new notes are always introduced in this
// order. Immutable configuration data.
type Curriculum struct {
	Clef    string
	Entries []Entry
}

// Staff notes first (lines and spaces inside the staff), then ledger
// extensions outward, which is the order beginners meet them.
var trebleCurriculum = Curriculum{
	Clef: ClefTreble,
	Entries: []Entry{
		{"E", 4}, {"F", 4}, {"G", 4}, {"A", 4}, {"B", 4},
		{"C", 5}, {"D", 5}, {"E", 5}, {"F", 5},
		{"D", 4}, {"C", 4}, {"G", 5}, {"A", 5},
		{"B", 3}, {"B", 5}, {"C", 6},
	},
}

var bassCurriculum = Curriculum{
	Clef: ClefBass,
	Entries: []Entry{
		{"G", 2}, {"A", 2}, {"B", 2}, {"C", 3}, {"D", 3},
		{"E", 3}, {"F", 3}, {"G", 3}, {"A", 3},
		{"F", 2}, {"E", 2}, {"B", 3}, {"C", 4},
		{"D", 2}, {"C", 2},
	},
}

// ForClef returns the curriculum for the named clef. Unknown clefs get
// the treble curriculum.
func ForClef(clef string) Curriculum {
	if clef == ClefBass {
		return bassCurriculum
	}
	return trebleCurriculum
}

// Len returns the number of curriculum entries.
func (c Curriculum) Len() int {
	return len(c.Entries)
}

// At returns the entry at index i.
func (c Curriculum) At(i int) Entry {
	return c.Entries[i]
}

// ID returns the mastery-record key for the entry at index i.
func (c Curriculum) ID(i int) string {
	e := c.Entries[i]
	return Note{Letter: e.Letter, Octave: e.Octave}.ID(c.Clef)
}
