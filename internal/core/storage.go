package core

import (
	"context"
	"errors"
)

// VectorRecord is a document together with its embedding.
type VectorRecord struct {
	Document
	Embedding []float32
}

// VectorDriver stores embeddings and answers nearest-neighbour queries.
type VectorDriver interface {
	Upsert(ctx context.Context, records []VectorRecord) error
	Query(ctx context.Context, embedding []float32, topK int) ([]Document, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

var (
	// ErrEmbedding is returned when an embedding could not be produced.
	ErrEmbedding = errors.New("embedding failed")

	// ErrVectorStore is returned when the vector backend rejects a call.
	ErrVectorStore = errors.New("vector store failed")

	// ErrDimensionMismatch is returned when an embedding does not match the index size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
