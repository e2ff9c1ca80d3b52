package attempt

import "webquiz/internal/domain"

// Phase identifies where an attempt is in its lifecycle.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseBlocked
	PhaseFresh
	PhaseRestored
	PhaseInProgress
	PhaseFinished
	PhaseFetchError
	PhaseInvalidData
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseBlocked:
		return "blocked"
	case PhaseFresh:
		return "fresh"
	case PhaseRestored:
		return "restored"
	case PhaseInProgress:
		return "in_progress"
	case PhaseFinished:
		return "finished"
	case PhaseFetchError:
		return "fetch_error"
	case PhaseInvalidData:
		return "invalid_data"
	}
	return "unknown"
}

// Terminal reports whether no further events can move the attempt.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseBlocked, PhaseFinished, PhaseFetchError, PhaseInvalidData:
		return true
	}
	return false
}

// State is the full attempt state. All transition methods are pure: they
// return a new value and never touch storage, so every rule is unit-testable
// in isolation.
type State struct {
	Quiz         domain.Quiz
	Index        int
	Score        int
	Selected     []string
	QuestionTime Countdown
	OverallTime  Countdown
	Phase        Phase
	TimeUp       bool
}

// active reports whether user and timer events still apply.
func (s State) active() bool {
	switch s.Phase {
	case PhaseFresh, PhaseRestored, PhaseInProgress:
		return true
	}
	return false
}

// startFresh enters a new attempt at question zero with both timers reset.
func startFresh(quiz domain.Quiz) State {
	return State{
		Quiz:         quiz,
		QuestionTime: NewCountdown(quiz.Questions[0].TimeSec),
		OverallTime:  OverallLimit(quiz),
		Phase:        PhaseFresh,
	}
}

// resume re-enters an attempt at the snapshot's position. Only position,
// score and overall time are restored; the question timer always starts from
// the target question's configured limit and the selection is empty.
func resume(quiz domain.Quiz, snap domain.Snapshot) State {
	overall := UnlimitedCountdown()
	if snap.OverallTimeLeft != nil {
		overall = NewCountdown(*snap.OverallTimeLeft)
	}
	return State{
		Quiz:         quiz,
		Index:        snap.CurrentQuestion,
		Score:        snap.Score,
		QuestionTime: NewCountdown(quiz.Questions[snap.CurrentQuestion].TimeSec),
		OverallTime:  overall,
		Phase:        PhaseRestored,
	}
}

// blocked refuses entry to a quiz already completed under a no-retry policy.
func blocked(quiz domain.Quiz) State {
	return State{Quiz: quiz, Phase: PhaseBlocked}
}

// tick advances both timers by one second. A finite overall timer reaching
// zero ends the attempt immediately with the time-up flag set, even when the
// current question is unanswered. Per-question expiry is advisory only and
// never forces progression.
func (s State) tick() State {
	if !s.active() {
		return s
	}
	s.Phase = PhaseInProgress
	s.QuestionTime = s.QuestionTime.Tick()
	s.OverallTime = s.OverallTime.Tick()
	if s.OverallTime.Expired() {
		s.QuestionTime = NewCountdown(0)
		s.Selected = nil
		s.Phase = PhaseFinished
		s.TimeUp = true
	}
	return s
}

// selectOption records a choice for the active question. Single-choice
// questions replace the selection; multi-choice questions toggle the option.
func (s State) selectOption(option string) State {
	if !s.active() {
		return s
	}
	s.Phase = PhaseInProgress
	if !s.Quiz.Questions[s.Index].MultiChoice() {
		s.Selected = []string{option}
		return s
	}
	for i, chosen := range s.Selected {
		if chosen == option {
			next := append([]string(nil), s.Selected[:i]...)
			s.Selected = append(next, s.Selected[i+1:]...)
			return s
		}
	}
	s.Selected = append(append([]string(nil), s.Selected...), option)
	return s
}

// next scores the active question, attaches the selection to it for later
// re-verification, and either advances or finishes the attempt.
func (s State) next() State {
	if !s.active() {
		return s
	}
	s.Phase = PhaseInProgress

	questions := make([]domain.Question, len(s.Quiz.Questions))
	copy(questions, s.Quiz.Questions)
	questions[s.Index].Selected = s.Selected
	s.Quiz.Questions = questions

	if Answered(questions[s.Index]) {
		s.Score++
	}

	if s.Index < len(questions)-1 {
		s.Index++
		s.Selected = nil
		s.QuestionTime = NewCountdown(questions[s.Index].TimeSec)
		return s
	}
	s.Phase = PhaseFinished
	return s
}

// previous steps back one question. The earlier selection is not restored;
// the score awarded when next was pressed stands.
func (s State) previous() State {
	if !s.active() || s.Index == 0 || s.OverallTime.Expired() {
		return s
	}
	s.Phase = PhaseInProgress
	s.Index--
	s.Selected = nil
	s.QuestionTime = NewCountdown(s.Quiz.Questions[s.Index].TimeSec)
	return s
}
