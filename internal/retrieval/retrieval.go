// Package retrieval provides the read-only collaborator that surfaces past
// support tickets relevant to a screening query. The default implementation
// ranks embedded ticket chunks from the local store; any external vector
// index can be substituted through the Collaborator interface.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/Rohan-flutterint/hr-voice-screen/internal/model"
	"github.com/Rohan-flutterint/hr-voice-screen/internal/store"
)

// DefaultK is the default number of snippets returned per query.
const DefaultK = 5

// chunkMaxLen bounds ticket chunks at ingest time.
const chunkMaxLen = 800

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Snippet is one retrieved text fragment tagged with its source label.
type Snippet struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Collaborator retrieves the snippets most relevant to a query. Read-only.
type Collaborator interface {
	Query(ctx context.Context, text string, k int) ([]Snippet, error)
}

// Embedder turns texts into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Document is one source document offered for ingestion.
type Document struct {
	Text   string
	Source string
}

// Index is a Collaborator backed by the local ticket store: chunks carry
// precomputed embeddings and queries are ranked by cosine similarity.
type Index struct {
	store *store.Store
	emb   Embedder
}

// NewIndex creates an index over the given store and embedder.
func NewIndex(s *store.Store, emb Embedder) *Index {
	return &Index{store: s, emb: emb}
}

// Query embeds the query text once and returns the top-k ticket chunks by
// cosine similarity, best first.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]Snippet, error) {
	if k <= 0 {
		k = DefaultK
	}

	vectors, err := ix.emb.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vectors))
	}
	queryVec := vectors[0]

	tickets, err := ix.store.ListTickets()
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	type ranked struct {
		ticket model.Ticket
		sim    float64
	}
	scored := make([]ranked, 0, len(tickets))
	for _, t := range tickets {
		scored = append(scored, ranked{ticket: t, sim: Cosine(queryVec, t.Embedding)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].sim > scored[j].sim })

	if len(scored) > k {
		scored = scored[:k]
	}
	snippets := make([]Snippet, len(scored))
	for i, r := range scored {
		snippets[i] = Snippet{Text: r.ticket.Chunk, Source: r.ticket.Source}
	}
	return snippets, nil
}

// Ingest chunks, embeds, and stores the given documents.
// It returns the number of chunks stored.
func (ix *Index) Ingest(ctx context.Context, docs []Document) (int, error) {
	count := 0
	for _, doc := range docs {
		chunks := ChunkText(doc.Text, chunkMaxLen)
		if len(chunks) == 0 {
			continue
		}
		vectors, err := ix.emb.Embed(ctx, chunks)
		if err != nil {
			return count, fmt.Errorf("embed chunks from %s: %w", doc.Source, err)
		}
		for i, chunk := range chunks {
			_, err := ix.store.InsertTicket(model.Ticket{
				Chunk:     chunk,
				Source:    doc.Source,
				Embedding: vectors[i],
			})
			if err != nil {
				return count, fmt.Errorf("store chunk from %s: %w", doc.Source, err)
			}
			count++
		}
	}
	return count, nil
}

// ChunkText normalizes whitespace and splits the text into chunks of at most
// maxLen runes. Blank input yields no chunks.
func ChunkText(text string, maxLen int) []string {
	normalized := strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
	if normalized == "" || maxLen <= 0 {
		return nil
	}
	runes := []rune(normalized)
	var chunks []string
	for start := 0; start < len(runes); start += maxLen {
		end := start + maxLen
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Cosine returns the cosine similarity of two vectors, or 0 when either has
// zero norm or the dimensions differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
