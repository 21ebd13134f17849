package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	pgvector "github.com/pgvector/pgvector-go"
	"google.golang.org/genai"
)

// GeminiClient generates text with a Gemini model.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient builds a Gemini API client. baseURL is empty outside tests.
func NewGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

func NewGeminiClient(client *genai.Client, model string) *GeminiClient {
	return &GeminiClient{client: client, model: model}
}

func (g *GeminiClient) Name() string { return "gemini" }

func (g *GeminiClient) Complete(ctx context.Context, messages []Message, jsonMode bool) (text string, err error) {
	start := time.Now()
	defer func() {
		aiRequests.WithLabelValues(g.Name(), "complete", outcome(err)).Inc()
		aiRequestDuration.WithLabelValues(g.Name(), "complete").Observe(time.Since(start).Seconds())
	}()

	var system []string
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return "", fmt.Errorf("%w: no user messages", ErrInvalidInput)
	}

	temperature := float32(0.7)
	cfg := &genai.GenerateContentConfig{Temperature: &temperature}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if jsonMode {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: gemini generate: %v", ErrUnavailable, err)
	}
	text = resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty gemini response", ErrUnavailable)
	}
	return text, nil
}

// GenAIEmbedder embeds text with a Gemini embedding model.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

func NewGenAIEmbedder(client *genai.Client, model string) *GenAIEmbedder {
	return &GenAIEmbedder{client: client, model: model}
}

func (e *GenAIEmbedder) GenerateEmbedding(ctx context.Context, text string) (vec pgvector.Vector, err error) {
	defer func() {
		aiRequests.WithLabelValues("gemini", "embed", outcome(err)).Inc()
	}()

	dims := int32(EmbeddingDimensions)
	res, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{TaskType: "RETRIEVAL_DOCUMENT", OutputDimensionality: &dims})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("%w: gemini embed: %v", ErrUnavailable, err)
	}
	if len(res.Embeddings) == 0 || len(res.Embeddings[0].Values) == 0 {
		return pgvector.Vector{}, fmt.Errorf("%w: empty embedding", ErrUnavailable)
	}
	return pgvector.NewVector(res.Embeddings[0].Values), nil
}
