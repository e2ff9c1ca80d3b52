package domain

import "time"

// Question is a single quiz question. Correct holds the option strings that
// count as the right answer; more than one entry means multi-select semantics.
// Selected is filled in during an attempt so the review screen and the scorer
// can re-derive correctness without trusting a running tally.
type Question struct {
	Prompt   string   `json:"question"`
	Options  []string `json:"options"`
	Correct  []string `json:"correct"`
	TimeSec  int      `json:"time"`
	Selected []string `json:"selectedOptions,omitempty"`
}

// MultiChoice reports whether the question uses multi-select semantics.
func (q Question) MultiChoice() bool {
	return len(q.Correct) > 1
}

// Quiz is an authored quiz document. TotalTimeMin is the overall limit in
// minutes as stored by the authoring tool; nil or <= 0 means unlimited.
// AllowRetry gates re-entry after a completed attempt; AllowRetake gates
// whether a stored result may be replaced by a better one. The two flags
// are independent.
type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Code         string     `json:"code,omitempty"`
	Questions    []Question `json:"questions"`
	TotalTimeMin *int       `json:"totalTime"`
	AllowRetry   bool       `json:"allowRetry"`
	AllowRetake  bool       `json:"allowRetake"`
}

// Snapshot is the minimal persisted state needed to resume an in-progress
// attempt. OverallTimeLeft is in seconds; nil means the quiz is untimed.
type Snapshot struct {
	QuizID          string `json:"quizId"`
	CurrentQuestion int    `json:"currentQuestion"`
	Score           int    `json:"score"`
	OverallTimeLeft *int   `json:"overallTimeLeft"`
}

// Completion marks a finished attempt for a quiz that disallows retries.
// Its presence alone blocks re-entry; the payload is informational.
type Completion struct {
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	FinishedAt time.Time `json:"finishedAt"`
	TimedOut   bool      `json:"timedOut,omitempty"`
}

// ResultRecord is one user's best recorded outcome for one quiz.
// Score is a rounded percentage in [0, 100].
type ResultRecord struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	QuizID      string    `json:"quizId"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
}

// User is the slice of the user directory the service needs.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// LeaderboardEntry is one row of the per-quiz standings.
type LeaderboardEntry struct {
	Username    string    `json:"username"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
}

// Leaderboard captures the ordered standings for a quiz.
type Leaderboard struct {
	QuizID  string             `json:"quizId"`
	Entries []LeaderboardEntry `json:"entries"`
}
