package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Result is the loosely-typed payload returned by CompleteJSON. Generative
// output is untrusted: exactly one of Array or Object is set when the reply
// parsed as JSON, otherwise Raw carries the unparsed text.
type Result struct {
	Array  []json.RawMessage
	Object map[string]json.RawMessage
	Raw    string
}

// Malformed reports whether the reply could not be parsed as JSON.
func (r Result) Malformed() bool {
	return r.Array == nil && r.Object == nil
}

// Client wraps an OpenAI-compatible API client for chat and embeddings.
type Client struct {
	api        *openai.Client
	model      string
	embedModel string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName, embedModelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:        openai.NewClientWithConfig(config),
		model:      modelName,
		embedModel: embedModelName,
	}
}

// Ping verifies the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint unreachable: %w", err)
	}
	return nil
}

// Complete sends a system instruction and user prompt and returns the raw reply.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteJSON asks for a strictly-JSON reply and parses it leniently.
// Parse failures are absorbed into the Result (Raw set); only transport
// errors are returned.
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (Result, error) {
	raw, err := c.Complete(ctx, system+"\nReturn strictly JSON.", user)
	if err != nil {
		return Result{}, err
	}
	slog.Debug("LLM JSON response", "raw", raw)
	return ParseLoose(raw), nil
}

// ParseLoose parses generative text into a tagged Result. A reply whose
// trimmed body starts with "[" is tried as an array first, since JSON-mode
// models often wrap arrays in whitespace or stray prose.
func ParseLoose(text string) Result {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "[") {
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
			return Result{Array: arr}
		}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		return Result{Object: obj}
	}

	return Result{Raw: text}
}

// Embed returns one embedding vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embedModel),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings API call: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	data := make([]openai.Embedding, len(resp.Data))
	copy(data, resp.Data)
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, d := range data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
