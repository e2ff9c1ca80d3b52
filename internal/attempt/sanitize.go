package attempt

import (
	"math/rand"

	"webquiz/internal/domain"
)

// DefaultQuestionTime is the per-question limit applied when the author left
// the field unset.
const DefaultQuestionTime = 30

// Sanitize normalizes a raw quiz document into the shape the attempt machine
// relies on: per-question time defaults to DefaultQuestionTime, nil option
// and correct slices become empty, and stray selections from a previous run
// are dropped. A quiz with no questions is unusable.
func Sanitize(quiz domain.Quiz) (domain.Quiz, error) {
	if len(quiz.Questions) == 0 {
		return domain.Quiz{}, domain.ErrInvalidQuizData
	}

	questions := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		if q.TimeSec <= 0 {
			q.TimeSec = DefaultQuestionTime
		}
		if q.Options == nil {
			q.Options = []string{}
		}
		if q.Correct == nil {
			q.Correct = []string{}
		}
		q.Selected = nil
		questions[i] = q
	}
	quiz.Questions = questions
	return quiz, nil
}

// OverallLimit converts the authored minute limit into a countdown.
// Zero, negative or absent means the quiz is untimed.
func OverallLimit(quiz domain.Quiz) Countdown {
	if quiz.TotalTimeMin == nil || *quiz.TotalTimeMin <= 0 {
		return UnlimitedCountdown()
	}
	return NewCountdown(*quiz.TotalTimeMin * 60)
}

// ShuffleQuestions permutes the questions in place. rand.Shuffle is a
// Fisher-Yates shuffle, so every permutation is equally likely.
func ShuffleQuestions(rnd *rand.Rand, questions []domain.Question) {
	rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}
