package attempt

import (
	"math"
	"sort"

	"webquiz/internal/domain"
)

// Answered reports whether the selection attached to the question answers it
// correctly. Multi-choice questions require set equality between selected and
// correct options; single-choice questions compare the sole selected option
// (empty when nothing was chosen) against the sole correct one.
func Answered(q domain.Question) bool {
	if q.MultiChoice() {
		return stringSetsEqual(q.Selected, q.Correct)
	}
	var selected, correct string
	if len(q.Selected) > 0 {
		selected = q.Selected[0]
	}
	if len(q.Correct) > 0 {
		correct = q.Correct[0]
	}
	return selected == correct
}

// Score re-derives the number of correctly answered questions from the
// questions themselves rather than trusting a tally carried through
// navigation state.
func Score(questions []domain.Question) int {
	correct := 0
	for _, q := range questions {
		if Answered(q) {
			correct++
		}
	}
	return correct
}

// Percentage is the rounded percentage score for the question set.
// An empty set scores zero.
func Percentage(questions []domain.Question) int {
	if len(questions) == 0 {
		return 0
	}
	return int(math.Round(float64(Score(questions)) / float64(len(questions)) * 100))
}

func stringSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
