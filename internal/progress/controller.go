package progress

import (
	"sightread/internal/log"
	"sightread/internal/notes"
)

// Controller moves the unlocked cursor. Unlock checks run after a
// fully-correct round; regression checks run after every attempt.
type Controller struct {
	store *Store
}

// NewController builds a Controller over store.
func NewController(store *Store) *Controller {
	return &Controller{store: store}
}

// CheckUnlock extends the unlocked prefix by one when every unlocked
// note has reached the required streak. Reports whether the cursor
// moved. One new note per pass, however far ahead the player is.
func (c *Controller) CheckUnlock(clef string) bool {
	curriculum := notes.ForClef(clef)
	clef = curriculum.Clef
	unlocked := c.store.UnlockedCount(clef)
	if unlocked >= curriculum.Len() {
		return false
	}

	required := c.store.Tuning().RequiredStreak
	for i := 0; i < unlocked; i++ {
		rec, ok := c.store.Get(curriculum.ID(i))
		if !ok || rec.Streak < required {
			return false
		}
	}

	c.store.SetUnlockedCount(clef, unlocked+1)
	log.Infof("progress: %s unlocked %s (%d notes)", clef, curriculum.ID(unlocked), unlocked+1)
	return true
}

// CheckRegress shrinks the unlocked prefix by one when more than half
// of the unlocked notes sit below the mastery bar, never below the
// floor. Reports whether the cursor moved.
func (c *Controller) CheckRegress(clef string) bool {
	curriculum := notes.ForClef(clef)
	clef = curriculum.Clef
	unlocked := c.store.UnlockedCount(clef)
	if unlocked <= c.store.Tuning().UnlockFloor {
		return false
	}

	required := c.store.Tuning().RequiredStreak
	weak := 0
	for i := 0; i < unlocked; i++ {
		rec, ok := c.store.Get(curriculum.ID(i))
		if !ok || rec.Streak < required {
			weak++
		}
	}
	if weak*2 <= unlocked {
		return false
	}

	c.store.SetUnlockedCount(clef, unlocked-1)
	log.Infof("progress: %s regressed to %d notes (%d/%d weak)", clef, unlocked-1, weak, unlocked)
	return true
}
