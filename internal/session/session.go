// Package session implements the linear interview walk: a fixed question
// battery, a forward-only cursor, and one recorded result per answered
// question. A session is Active while the cursor is inside the battery and
// Exhausted once it reaches the end; there is no backward transition.
package session

import (
	"errors"
	"math"

	"github.com/Rohan-flutterint/hr-voice-screen/internal/model"
)

// ErrExhausted is returned when an answer is offered to a session with no
// remaining questions. Callers must check HasNext before accepting answers.
var ErrExhausted = errors.New("session: no questions remaining")

// Session walks one candidate through one ordered question battery.
// It is not safe for concurrent use.
type Session struct {
	questions []model.QuestionRecord
	cursor    int
	results   []model.AnswerResult
}

// New creates a session over the given battery. The battery is copied and
// fixed at construction; a zero-length battery starts exhausted.
func New(questions []model.QuestionRecord) *Session {
	qs := make([]model.QuestionRecord, len(questions))
	copy(qs, questions)
	return &Session{questions: qs}
}

// Restore rebuilds a session from a persisted battery and already-recorded
// results; the cursor resumes after the last recorded answer.
func Restore(questions []model.QuestionRecord, results []model.AnswerResult) *Session {
	s := New(questions)
	if len(results) > len(s.questions) {
		results = results[:len(s.questions)]
	}
	s.results = append(s.results, results...)
	s.cursor = len(s.results)
	return s
}

// Len returns the total number of answerable turns.
func (s *Session) Len() int { return len(s.questions) }

// Cursor returns the index of the next unanswered question.
func (s *Session) Cursor() int { return s.cursor }

// HasNext reports whether an unanswered question remains.
func (s *Session) HasNext() bool { return s.cursor < len(s.questions) }

// Current returns a copy of the question at the cursor, or nil when the
// session is exhausted.
func (s *Session) Current() *model.QuestionRecord {
	if !s.HasNext() {
		return nil
	}
	q := s.questions[s.cursor]
	return &q
}

// AcceptAnswer records the scored answer for the current question and
// advances the cursor by exactly one. It is the sole mutator of session
// state.
func (s *Session) AcceptAnswer(transcript string, final, semantic, rubric float64, details model.RubricDetails) (model.AnswerResult, error) {
	if !s.HasNext() {
		return model.AnswerResult{}, ErrExhausted
	}
	q := s.questions[s.cursor]
	result := model.AnswerResult{
		Question:        q.Question,
		Difficulty:      q.Difficulty,
		IdealAnswer:     q.IdealAnswer,
		CandidateAnswer: transcript,
		Score:           final,
		SemScore:        semantic,
		RubricScore:     rubric,
		RubricDetails:   details,
	}
	s.results = append(s.results, result)
	s.cursor++
	return result, nil
}

// Results returns a copy of the accumulated results in answer order.
func (s *Session) Results() []model.AnswerResult {
	out := make([]model.AnswerResult, len(s.results))
	copy(out, s.results)
	return out
}

// Summary recomputes the aggregate summary from the accumulated results.
func (s *Session) Summary() model.SessionSummary {
	return Summarize(s.results)
}

// Summarize derives a summary from a result sequence: overall mean of final
// scores and per-difficulty means, both rounded to one decimal. An empty
// sequence yields 0.0, an empty map, and an empty item list.
func Summarize(results []model.AnswerResult) model.SessionSummary {
	summary := model.SessionSummary{
		ByDifficulty: map[model.Difficulty]float64{},
		Items:        make([]model.AnswerResult, len(results)),
	}
	copy(summary.Items, results)
	if len(results) == 0 {
		return summary
	}

	var total float64
	byDiff := map[model.Difficulty][]float64{}
	for _, r := range results {
		total += r.Score
		d := r.Difficulty
		if d == "" {
			d = model.DifficultyUnknown
		}
		byDiff[d] = append(byDiff[d], r.Score)
	}

	summary.Overall = round1(total / float64(len(results)))
	for d, scores := range byDiff {
		var sum float64
		for _, sc := range scores {
			sum += sc
		}
		summary.ByDifficulty[d] = round1(sum / float64(len(scores)))
	}
	return summary
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
