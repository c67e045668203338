// Package tui renders the terminal practice view and the audio device
// picker. The practice model is driven entirely by messages sent from
// the session callbacks, so it holds no locks shared with the audio
// path.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sightread/internal/progress"
	"sightread/internal/trainer"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	correctStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	wrongStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D0342C")).
			Bold(true)

	staffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			MarginLeft(4)
)

// Messages sent into the model from session callbacks.
type (
	// CardMsg presents a new prompt.
	CardMsg progress.Card
	// ResultMsg reports a resolved attempt.
	ResultMsg trainer.Result
	// PitchMsg carries the latest raw detection for the meter line.
	PitchMsg float64
)

// PracticeModel is the Bubble Tea model for a running session.
type PracticeModel struct {
	clef     string
	keySig   string
	unlocked int

	card       progress.Card
	haveCard   bool
	lastResult *trainer.Result
	lastPitch  float64
	attempts   int
	correct    int
	quitting   bool
}

// NewPracticeModel builds the practice view for clef and key.
func NewPracticeModel(clef, keySig string, unlocked int) PracticeModel {
	return PracticeModel{clef: clef, keySig: keySig, unlocked: unlocked}
}

// Init implements tea.Model.
func (m PracticeModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses and session messages.
func (m PracticeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"))) {
			m.quitting = true
			return m, tea.Quit
		}

	case CardMsg:
		m.card = progress.Card(msg)
		m.haveCard = true

	case ResultMsg:
		r := trainer.Result(msg)
		m.lastResult = &r
		m.attempts++
		if r.Correct {
			m.correct++
		}
		if r.Unlocked {
			m.unlocked++
		}
		if r.Regressed {
			m.unlocked--
		}

	case PitchMsg:
		m.lastPitch = float64(msg)
	}

	return m, nil
}

// View renders the staff, feedback and session stats.
func (m PracticeModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Sight Reading Trainer"))
	sb.WriteString(infoStyle.Render(fmt.Sprintf("  %s clef · key of %s · %d notes unlocked\n\n",
		m.clef, m.keySig, m.unlocked)))

	if m.haveCard {
		sb.WriteString(staffStyle.Render(RenderStaff(m.card)))
		sb.WriteString("\n\n")
	} else {
		sb.WriteString("  Listening...\n\n")
	}

	sb.WriteString(m.feedbackLine())
	sb.WriteString("\n")

	if m.lastPitch > 0 {
		sb.WriteString(infoStyle.Render(fmt.Sprintf("  heard %.1f Hz\n", m.lastPitch)))
	}

	accuracy := 0.0
	if m.attempts > 0 {
		accuracy = float64(m.correct) / float64(m.attempts) * 100
	}
	sb.WriteString(infoStyle.Render(fmt.Sprintf("\n  %d attempts · %.0f%% correct\n", m.attempts, accuracy)))
	sb.WriteString(infoStyle.Render("\n  play the note on your instrument · q: quit\n"))
	return sb.String()
}

func (m PracticeModel) feedbackLine() string {
	if m.lastResult == nil {
		return ""
	}
	r := m.lastResult
	if r.Correct {
		speed := "slow"
		if r.Outcome == progress.OutcomeFastCorrect {
			speed = "fast"
		}
		return correctStyle.Render(fmt.Sprintf("  correct (%s, %.1fs)", speed, r.Latency.Seconds()))
	}
	return wrongStyle.Render(fmt.Sprintf("  heard %s, not the shown note", r.Detected.Name()))
}

// RunPractice attaches the model to a session and blocks until the
// user quits. Session callbacks feed the program via Send, so they are
// safe to invoke from the audio goroutine.
func RunPractice(session *trainer.Session, clef, keySig string, unlocked int) error {
	p := tea.NewProgram(
		NewPracticeModel(clef, keySig, unlocked),
		tea.WithAltScreen(),
	)

	session.OnCard(func(card progress.Card) {
		p.Send(CardMsg(card))
	})
	session.OnResult(func(r trainer.Result) {
		p.Send(ResultMsg(r))
	})
	session.OnPitch(func(freq float64) {
		p.Send(PitchMsg(freq))
	})

	session.Start()
	defer session.Stop()

	_, err := p.Run()
	return err
}
