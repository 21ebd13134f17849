package service

import (
	"context"

	pgvector "github.com/pgvector/pgvector-go"
)

// Message is one turn of a conversation with a text model.
type Message struct {
	Role    string `json:"role"` // system, user or assistant
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TextGenerator completes a conversation. With jsonMode the reply must be a
// single JSON object.
type TextGenerator interface {
	Complete(ctx context.Context, messages []Message, jsonMode bool) (string, error)
	Name() string
}

// Embedder turns text into a vector for semantic search.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) (pgvector.Vector, error)
}

// Mailer delivers a single plain-text email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ObjectUploader stores a blob and returns its public URL. *config.S3Config
// satisfies it.
type ObjectUploader interface {
	UploadObject(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
