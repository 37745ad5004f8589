package scoring

import (
	"context"
	"fmt"
	"testing"

	"github.com/Rohan-flutterint/hr-voice-screen/internal/llm"
)

// fakeEmbedder returns one fixed vector per distinct text, so identical
// texts always embed identically.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{1, 0}
		}
	}
	return out, nil
}

type fakeCompleter struct {
	reply string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, _, _ string) (llm.Result, error) {
	return llm.ParseLoose(f.reply), nil
}

func TestSemanticSimilarityBlankGuard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"empty a", "", "anything"},
		{"empty b", "anything", ""},
		{"whitespace a", "  \n\t ", "anything"},
		{"both empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := &fakeEmbedder{}
			e := New(emb, &fakeCompleter{reply: "{}"}, 0)

			sim, err := e.SemanticSimilarity(context.Background(), tt.a, tt.b)
			if err != nil {
				t.Fatalf("SemanticSimilarity: %v", err)
			}
			if sim != 0.0 {
				t.Errorf("expected exactly 0.0, got %f", sim)
			}
			if emb.calls != 0 {
				t.Errorf("embedding path must not run on blank input, got %d calls", emb.calls)
			}
		})
	}
}

func TestSemanticSimilarityIdenticalTexts(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"same answer": {0.3, 0.7, 0.1},
	}}
	e := New(emb, &fakeCompleter{reply: "{}"}, 0)

	sim, err := e.SemanticSimilarity(context.Background(), "same answer", "same answer")
	if err != nil {
		t.Fatalf("SemanticSimilarity: %v", err)
	}
	if sim != 100.0 {
		t.Errorf("identical texts should score 100.0, got %f", sim)
	}
}

func TestSemanticSimilarityRemap(t *testing.T) {
	tests := []struct {
		name string
		va   []float32
		vb   []float32
		want float64
	}{
		{"orthogonal maps to 50", []float32{1, 0}, []float32{0, 1}, 50.0},
		{"opposite clamps to 0", []float32{1, 0}, []float32{-1, 0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := &fakeEmbedder{vectors: map[string][]float32{"a": tt.va, "b": tt.vb}}
			e := New(emb, &fakeCompleter{reply: "{}"}, 0)

			sim, err := e.SemanticSimilarity(context.Background(), "a", "b")
			if err != nil {
				t.Fatalf("SemanticSimilarity: %v", err)
			}
			if sim != tt.want {
				t.Errorf("expected %f, got %f", tt.want, sim)
			}
		})
	}
}

func TestRubricScore(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		wantPct     float64
		wantDetails [3]int // coverage, correctness, clarity
	}{
		{"full marks", `{"coverage":5,"correctness":5,"clarity":5,"feedback":"great"}`, 100.0, [3]int{5, 5, 5}},
		{"partial", `{"coverage":3,"correctness":2,"clarity":4}`, 60.0, [3]int{3, 2, 4}},
		{"missing fields default to 0", `{"coverage":3}`, 20.0, [3]int{3, 0, 0}},
		{"malformed text", `not json`, 0.0, [3]int{0, 0, 0}},
		{"array reply", `[1,2,3]`, 0.0, [3]int{0, 0, 0}},
		{"over-range clamped", `{"coverage":9,"correctness":-2,"clarity":5}`, float64(5+0+5) / 15 * 100, [3]int{5, 0, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(&fakeEmbedder{}, &fakeCompleter{reply: tt.reply}, 0)

			pct, details, err := e.RubricScore(context.Background(), "Q", "ideal", "candidate")
			if err != nil {
				t.Fatalf("malformed rubric output must not surface as error, got %v", err)
			}
			if pct != tt.wantPct {
				t.Errorf("expected pct %f, got %f", tt.wantPct, pct)
			}
			got := [3]int{details.Coverage, details.Correctness, details.Clarity}
			if got != tt.wantDetails {
				t.Errorf("expected criteria %v, got %v", tt.wantDetails, got)
			}
		})
	}
}

func TestRubricScorePreservesFeedback(t *testing.T) {
	e := New(&fakeEmbedder{}, &fakeCompleter{reply: `{"coverage":2,"correctness":2,"clarity":2,"feedback":"thin answer","followup":"Can you expand?"}`}, 0)

	_, details, err := e.RubricScore(context.Background(), "Q", "ideal", "candidate")
	if err != nil {
		t.Fatalf("RubricScore: %v", err)
	}
	if details.Feedback != "thin answer" {
		t.Errorf("expected feedback preserved, got %q", details.Feedback)
	}
	if details.Followup != "Can you expand?" {
		t.Errorf("expected followup preserved, got %q", details.Followup)
	}
}

func TestFinalScoreBlend(t *testing.T) {
	// Identical texts give semantic 100; rubric 3+2+4=9/15 -> 60.
	emb := &fakeEmbedder{vectors: map[string][]float32{"ideal": {1, 1}}}
	e := New(emb, &fakeCompleter{reply: `{"coverage":3,"correctness":2,"clarity":4}`}, 0)

	score, err := e.FinalScore(context.Background(), "Q", "ideal", "ideal")
	if err != nil {
		t.Fatalf("FinalScore: %v", err)
	}
	if score.Semantic != 100.0 {
		t.Errorf("expected semantic 100.0, got %f", score.Semantic)
	}
	if score.Rubric != 60.0 {
		t.Errorf("expected rubric 60.0, got %f", score.Rubric)
	}
	// 0.6*100 + 0.4*60 = 84.0
	if score.Final != 84.0 {
		t.Errorf("expected final 84.0, got %f", score.Final)
	}
}

func TestFinalScoreBounds(t *testing.T) {
	for _, criteria := range [][3]int{{0, 0, 0}, {5, 5, 5}, {0, 5, 0}, {1, 2, 3}} {
		for _, vecs := range []map[string][]float32{
			{"c": {1, 0}, "i": {1, 0}},  // identical direction
			{"c": {1, 0}, "i": {-1, 0}}, // opposite
			{"c": {1, 0}, "i": {0, 1}},  // orthogonal
		} {
			reply := fmt.Sprintf(`{"coverage":%d,"correctness":%d,"clarity":%d}`, criteria[0], criteria[1], criteria[2])
			e := New(&fakeEmbedder{vectors: vecs}, &fakeCompleter{reply: reply}, 0)

			score, err := e.FinalScore(context.Background(), "Q", "i", "c")
			if err != nil {
				t.Fatalf("FinalScore: %v", err)
			}
			for _, v := range []float64{score.Final, score.Semantic, score.Rubric} {
				if v < 0 || v > 100 {
					t.Errorf("score %f out of [0,100] for criteria %v", v, criteria)
				}
			}
		}
	}
}

func TestFinalScoreEmptyCandidate(t *testing.T) {
	e := New(&fakeEmbedder{}, &fakeCompleter{reply: `{"coverage":1,"correctness":1,"clarity":1}`}, 0)

	score, err := e.FinalScore(context.Background(), "Q", "ideal", "")
	if err != nil {
		t.Fatalf("FinalScore: %v", err)
	}
	if score.Semantic != 0.0 {
		t.Errorf("expected semantic 0.0 for empty candidate, got %f", score.Semantic)
	}
	// 0.6*0 + 0.4*20 = 8.0
	if score.Final != 8.0 {
		t.Errorf("expected final 8.0, got %f", score.Final)
	}
}
