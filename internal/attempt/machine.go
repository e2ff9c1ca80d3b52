package attempt

import (
	"math/rand"
	"sync"
	"time"

	"webquiz/internal/domain"
)

// Store is the persistence adapter attempt state flows through. All calls
// are synchronous and keyed by quiz ID; implementations must treat corrupt
// entries as absent (clearing them) and never fail the caller.
type Store interface {
	LoadSnapshot(quizID string) (domain.Snapshot, bool)
	SaveSnapshot(quizID string, snap domain.Snapshot)
	ClearSnapshot(quizID string)
	HasCompletion(quizID string) bool
	SetCompletion(quizID string, c domain.Completion)
	ClearCompletion(quizID string)
}

// Report is handed to the display surface and result submission when an
// attempt ends. Questions carry the selections made on the forward pass so
// the score can be re-derived downstream without further fetches.
type Report struct {
	QuizID    string            `json:"quizId"`
	QuizTitle string            `json:"quizTitle"`
	Score     int               `json:"score"`
	Total     int               `json:"total"`
	TimeUp    bool              `json:"timeUp"`
	Questions []domain.Question `json:"questions"`
}

// Machine drives one attempt: it owns the state, applies the pure
// transitions, and performs the storage side effects around them. Methods
// are safe for concurrent use; the ticker goroutine and the event source
// serialize through the mutex, and a timeout observed on a tick always
// settles before a pending user event is applied.
type Machine struct {
	mu    sync.Mutex
	store Store
	state State
	now   func() time.Time
}

// New sanitizes and shuffles the quiz, applies the entry rules (retry reset,
// completion block, snapshot restore, fresh start — strictly in that order)
// and returns a machine ready to serve events. The error is
// domain.ErrInvalidQuizData when the document has no questions.
func New(quiz domain.Quiz, store Store, rnd *rand.Rand) (*Machine, error) {
	sanitized, err := Sanitize(quiz)
	if err != nil {
		return nil, err
	}
	ShuffleQuestions(rnd, sanitized.Questions)

	m := &Machine{store: store, now: time.Now}

	switch {
	case sanitized.AllowRetry:
		// A retryable quiz never consults prior state, and stale markers are
		// cleared so a policy change by the admin cannot keep blocking.
		store.ClearSnapshot(sanitized.ID)
		store.ClearCompletion(sanitized.ID)
		m.state = startFresh(sanitized)
	case store.HasCompletion(sanitized.ID):
		m.state = blocked(sanitized)
	default:
		snap, ok := store.LoadSnapshot(sanitized.ID)
		if ok && snapshotUsable(snap, sanitized) {
			m.state = resume(sanitized, snap)
		} else {
			if ok {
				store.ClearSnapshot(sanitized.ID)
			}
			m.state = startFresh(sanitized)
		}
	}

	m.persistLocked()
	return m, nil
}

// snapshotUsable validates a stored snapshot against the freshly shuffled
// quiz: same quiz, overall time untimed or still running, index in bounds.
func snapshotUsable(snap domain.Snapshot, quiz domain.Quiz) bool {
	if snap.QuizID != quiz.ID {
		return false
	}
	if snap.OverallTimeLeft != nil && *snap.OverallTimeLeft <= 0 {
		return false
	}
	return snap.CurrentQuestion >= 0 && snap.CurrentQuestion < len(quiz.Questions)
}

// State returns a copy of the current attempt state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Select records a choice for the active question.
func (m *Machine) Select(option string) State {
	return m.apply(func(s State) State { return s.selectOption(option) })
}

// Next scores the active question and advances or finishes the attempt.
func (m *Machine) Next() State {
	return m.apply(State.next)
}

// Previous steps back one question.
func (m *Machine) Previous() State {
	return m.apply(State.previous)
}

// Tick advances both timers by one second.
func (m *Machine) Tick() State {
	return m.apply(State.tick)
}

func (m *Machine) apply(transition func(State) State) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	wasFinished := m.state.Phase == PhaseFinished
	m.state = transition(m.state)
	m.persistLocked()
	if !wasFinished && m.state.Phase == PhaseFinished {
		m.finishLocked()
	}
	return m.state
}

// persistLocked writes the snapshot after state-affecting transitions, except
// when the attempt is done, blocked, on its final question, or out of overall
// time. The last question is deliberately never snapshotted: a reload during
// it restarts that question with an empty selection while keeping the score
// and position saved by the previous transition.
func (m *Machine) persistLocked() {
	s := m.state
	if !s.active() {
		return
	}
	if s.Index == len(s.Quiz.Questions)-1 {
		return
	}
	if s.OverallTime.Expired() {
		return
	}
	m.store.SaveSnapshot(s.Quiz.ID, domain.Snapshot{
		QuizID:          s.Quiz.ID,
		CurrentQuestion: s.Index,
		Score:           s.Score,
		OverallTimeLeft: s.OverallTime.SecondsPtr(),
	})
}

// finishLocked clears the in-progress snapshot and, when retries are
// disallowed, writes the completion marker that blocks re-entry.
func (m *Machine) finishLocked() {
	s := m.state
	m.store.ClearSnapshot(s.Quiz.ID)
	if !s.Quiz.AllowRetry {
		m.store.SetCompletion(s.Quiz.ID, domain.Completion{
			Score:      s.Score,
			Total:      len(s.Quiz.Questions),
			FinishedAt: m.now(),
			TimedOut:   s.TimeUp,
		})
	}
}

// Report returns the completion hand-off. It is only valid once the attempt
// has finished.
func (m *Machine) Report() (Report, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Phase != PhaseFinished {
		return Report{}, false
	}
	return Report{
		QuizID:    m.state.Quiz.ID,
		QuizTitle: m.state.Quiz.Title,
		Score:     m.state.Score,
		Total:     len(m.state.Quiz.Questions),
		TimeUp:    m.state.TimeUp,
		Questions: m.state.Quiz.Questions,
	}, true
}
