package tui

import (
	"strings"

	"sightread/internal/notes"
	"sightread/internal/progress"
)

// Staff rendering works in diatonic steps: octave*7 plus the letter's
// position in the C major scale. Adjacent lines and spaces differ by
// one step, which makes ledger lines a simple range extension.

var letterSteps = map[string]int{
	"C": 0, "D": 1, "E": 2, "F": 3, "G": 4, "A": 5, "B": 6,
}

func diatonicStep(letter string, octave int) int {
	return octave*7 + letterSteps[letter]
}

// staffBottomLine returns the diatonic step of the lowest staff line:
// E4 for treble, G2 for bass.
func staffBottomLine(clef string) int {
	if clef == notes.ClefBass {
		return diatonicStep("G", 2)
	}
	return diatonicStep("E", 4)
}

// RenderStaff draws the card's note on a five-line ASCII staff,
// extending ledger lines above or below when the note sits outside
// the staff. The accidental, if any, prints before the notehead.
func RenderStaff(card progress.Card) string {
	bottom := staffBottomLine(card.Clef)
	top := bottom + 8 // 5 lines, 4 spaces
	note := diatonicStep(card.Letter, card.Octave)

	high := top
	if note > high {
		high = note
	}
	low := bottom
	if note < low {
		low = note
	}
	// Ledger rows come in line/space pairs; start on a line parity.
	if (high-bottom)%2 != 0 {
		high++
	}
	if (bottom-low)%2 != 0 {
		low--
	}

	mark := "o"
	if card.Sharp {
		mark = "#o"
	} else if card.Flat {
		mark = "bo"
	}

	var sb strings.Builder
	for step := high; step >= low; step-- {
		onStaff := step >= bottom && step <= top
		isLine := (step-bottom)%2 == 0

		switch {
		case step == note && isLine:
			sb.WriteString("  ----" + mark + "----")
		case step == note:
			sb.WriteString("      " + mark)
		case onStaff && isLine:
			sb.WriteString("  ----------")
		case isLine:
			// Ledger line between the staff and an outlying note.
			sb.WriteString("      --")
		default:
			sb.WriteString("")
		}
		if step > low {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
