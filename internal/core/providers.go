package core

import (
	"context"
	"time"
)

type AIProvider interface {
	Chat(ctx context.Context, history []Message) (Message, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DocumentMetadata is attached to every indexed document.
type DocumentMetadata struct {
	Source    string    `json:"source"`
	Author    string    `json:"author"`
	AuthorID  string    `json:"authorId"`
	AuthorTag string    `json:"authorTag"`
	Channel   string    `json:"channel"`
	Type      string    `json:"type"`
	ReplyTo   string    `json:"replyTo,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Document is a unit of text in the similarity search index.
type Document struct {
	ID       string
	Text     string
	Metadata DocumentMetadata
	Score    float32
}

// SimilaritySearch is the external semantic search collaborator.
type SimilaritySearch interface {
	AddDocuments(ctx context.Context, docs []Document) error
	Search(ctx context.Context, query string, limit int) ([]Document, error)
	Count(ctx context.Context) (int, error)
}
