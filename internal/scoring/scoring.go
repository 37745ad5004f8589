// Package scoring computes the composite answer score: semantic similarity
// against the ideal answer blended with an LLM-graded rubric.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/Rohan-flutterint/hr-voice-screen/internal/llm"
	"github.com/Rohan-flutterint/hr-voice-screen/internal/llm/prompts"
	"github.com/Rohan-flutterint/hr-voice-screen/internal/model"
	"github.com/Rohan-flutterint/hr-voice-screen/internal/retrieval"
)

// Composite weights: semantic proximity to the ideal answer anchors the
// score, the rubric grader being the noisier signal.
const (
	semanticWeight = 0.6
	rubricWeight   = 0.4

	rubricCriterionMax = 5
	rubricTotalMax     = 15
)

// Embedder turns texts into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer produces loosely-typed JSON replies from the generative service.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (llm.Result, error)
}

// Score is the composite outcome for one answer. All three scores are in
// [0, 100], rounded to one decimal.
type Score struct {
	Final    float64
	Semantic float64
	Rubric   float64
	Details  model.RubricDetails
}

// Engine scores candidate answers.
type Engine struct {
	emb               Embedder
	llm               Completer
	feedbackThreshold int
}

// New creates a scoring engine. feedbackThreshold shapes the rubric prompt's
// follow-up policy; values <= 0 use the default.
func New(emb Embedder, completer Completer, feedbackThreshold int) *Engine {
	if feedbackThreshold <= 0 {
		feedbackThreshold = prompts.DefaultFeedbackThreshold
	}
	return &Engine{emb: emb, llm: completer, feedbackThreshold: feedbackThreshold}
}

// SemanticSimilarity returns the embedding similarity of a and b scaled to
// [0, 100]. Blank input on either side is defined as exactly 0.0 and skips
// the embedding call entirely.
func (e *Engine) SemanticSimilarity(ctx context.Context, a, b string) (float64, error) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0.0, nil
	}

	vectors, err := e.emb.Embed(ctx, []string{a, b})
	if err != nil {
		return 0, fmt.Errorf("embed answers: %w", err)
	}
	if len(vectors) != 2 {
		return 0, fmt.Errorf("embed answers: expected 2 vectors, got %d", len(vectors))
	}

	sim := retrieval.Cosine(vectors[0], vectors[1]) // -1..1
	scaled := (sim + 1) / 2 * 100
	return clamp(scaled, 0, 100), nil
}

// rubricPayload is the untrusted shape of the evaluator reply. Criteria are
// decoded as floats so a fractional grade degrades gracefully instead of
// failing the whole parse.
type rubricPayload struct {
	Coverage    float64 `json:"coverage"`
	Correctness float64 `json:"correctness"`
	Clarity     float64 `json:"clarity"`
	Feedback    string  `json:"feedback"`
	Followup    string  `json:"followup"`
}

// RubricScore grades the answer on coverage, correctness, and clarity (0-5
// each) and converts the total to a percentage. Missing or malformed
// criteria default to 0; only transport failures return an error.
func (e *Engine) RubricScore(ctx context.Context, question, idealAnswer, candidateAnswer string) (float64, model.RubricDetails, error) {
	result, err := e.llm.CompleteJSON(ctx,
		prompts.SystemEvaluator(e.feedbackThreshold),
		prompts.UserEvaluator(question, idealAnswer, candidateAnswer),
	)
	if err != nil {
		return 0, model.RubricDetails{}, fmt.Errorf("rubric evaluation: %w", err)
	}

	details := parseRubric(result)
	pct := float64(details.Coverage+details.Correctness+details.Clarity) / rubricTotalMax * 100
	return pct, details, nil
}

func parseRubric(result llm.Result) model.RubricDetails {
	if result.Object == nil {
		slog.Warn("rubric output is not a JSON object, criteria default to 0")
		return model.RubricDetails{}
	}

	raw, err := json.Marshal(result.Object)
	if err != nil {
		return model.RubricDetails{}
	}
	var p rubricPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		slog.Warn("rubric object has unexpected field types, criteria default to 0", "error", err)
		return model.RubricDetails{}
	}

	return model.RubricDetails{
		Coverage:    clampCriterion(p.Coverage),
		Correctness: clampCriterion(p.Correctness),
		Clarity:     clampCriterion(p.Clarity),
		Feedback:    p.Feedback,
		Followup:    p.Followup,
	}
}

// FinalScore blends semantic similarity and the rubric percentage into one
// score, all components rounded to one decimal.
func (e *Engine) FinalScore(ctx context.Context, question, idealAnswer, candidateAnswer string) (Score, error) {
	sem, err := e.SemanticSimilarity(ctx, candidateAnswer, idealAnswer)
	if err != nil {
		return Score{}, err
	}
	rubric, details, err := e.RubricScore(ctx, question, idealAnswer, candidateAnswer)
	if err != nil {
		return Score{}, err
	}

	final := semanticWeight*sem + rubricWeight*rubric
	return Score{
		Final:    round1(final),
		Semantic: round1(sem),
		Rubric:   round1(rubric),
		Details:  details,
	}, nil
}

func clampCriterion(v float64) int {
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	if n > rubricCriterionMax {
		return rubricCriterionMax
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
