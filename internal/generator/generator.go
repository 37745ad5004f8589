// Package generator turns a job description, a resume, and retrieved ticket
// snippets into a validated, ordered battery of interview questions.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rohan-flutterint/hr-voice-screen/internal/llm"
	"github.com/Rohan-flutterint/hr-voice-screen/internal/llm/prompts"
	"github.com/Rohan-flutterint/hr-voice-screen/internal/model"
	"github.com/Rohan-flutterint/hr-voice-screen/internal/retrieval"
)

// defaultRoleHint seeds the retrieval query when no role hint is given.
const defaultRoleHint = "relevant tickets"

// Completer produces loosely-typed JSON replies from the generative service.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (llm.Result, error)
}

// Generator builds question batteries from role context and retrieval.
type Generator struct {
	retriever retrieval.Collaborator
	llm       Completer
	k         int
}

// New creates a generator. k bounds the number of retrieved snippets;
// values <= 0 fall back to the retrieval default.
func New(retriever retrieval.Collaborator, completer Completer, k int) *Generator {
	if k <= 0 {
		k = retrieval.DefaultK
	}
	return &Generator{retriever: retriever, llm: completer, k: k}
}

// Generate produces an ordered question battery. Malformed generative output
// degrades to an empty battery without error; transport failures from the
// retriever or the generative service are returned as errors.
func (g *Generator) Generate(ctx context.Context, jobDescription, resume, roleHint string) ([]model.QuestionRecord, error) {
	hint := strings.TrimSpace(roleHint)
	if hint == "" {
		hint = defaultRoleHint
	}
	query := hint + " for screening"

	snippets, err := g.retriever.Query(ctx, query, g.k)
	if err != nil {
		return nil, fmt.Errorf("retrieve snippets: %w", err)
	}

	result, err := g.llm.CompleteJSON(ctx,
		prompts.SystemScreener(),
		prompts.UserScreener(jobDescription, resume, snippetBlock(snippets)),
	)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	questions := parseQuestions(result)
	slog.Info("generated question battery", "role_hint", hint, "snippets", len(snippets), "questions", len(questions))
	return questions, nil
}

// snippetBlock joins snippets into one block, each prefixed with its source
// label and individually clipped, the whole block clipped again.
func snippetBlock(snippets []retrieval.Snippet) string {
	parts := make([]string, len(snippets))
	for i, sn := range snippets {
		parts[i] = fmt.Sprintf("[%s] %s", sn.Source, prompts.Truncate(sn.Text, prompts.SnippetMaxLen))
	}
	return prompts.Truncate(strings.Join(parts, "\n---\n"), prompts.TicketBlockMaxLen)
}

// questionPayload is the untrusted shape of one generated question.
type questionPayload struct {
	Question    string   `json:"question"`
	Difficulty  string   `json:"difficulty"`
	Rationale   string   `json:"rationale"`
	IdealAnswer string   `json:"ideal_answer"`
	Tags        []string `json:"tags"`
}

// parseQuestions extracts the question list from a loose generative result:
// a top-level array directly, an object through its "questions" field, and
// anything else as an empty battery.
func parseQuestions(result llm.Result) []model.QuestionRecord {
	raws := result.Array
	if raws == nil && result.Object != nil {
		inner, ok := result.Object["questions"]
		if !ok {
			slog.Warn("generative output object lacks questions field")
			return nil
		}
		if err := json.Unmarshal(inner, &raws); err != nil {
			slog.Warn("generative questions field is not an array", "error", err)
			return nil
		}
	}
	if raws == nil {
		slog.Warn("generative output is not valid JSON, no questions produced")
		return nil
	}

	var questions []model.QuestionRecord
	for i, raw := range raws {
		var p questionPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			slog.Warn("skipping malformed question element", "index", i, "error", err)
			continue
		}
		if strings.TrimSpace(p.Question) == "" {
			slog.Warn("skipping question element with empty question text", "index", i)
			continue
		}
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		questions = append(questions, model.QuestionRecord{
			Question:    p.Question,
			Difficulty:  model.NormalizeDifficulty(p.Difficulty),
			Rationale:   p.Rationale,
			IdealAnswer: p.IdealAnswer,
			Tags:        tags,
		})
	}
	return questions
}
