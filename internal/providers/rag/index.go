package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/pkg/log"
	"github.com/sandevgo/samara/pkg/retry"
)

// Index is the similarity search over chat history: documents are chunked,
// embedded and handed to a vector driver.
type Index struct {
	embedder core.Embedder
	driver   core.VectorDriver
	retrier  *retry.Retrier
	chunking ChunkerConfig
}

func NewIndex(embedder core.Embedder, driver core.VectorDriver) *Index {
	return &Index{
		embedder: embedder,
		driver:   driver,
		retrier:  retry.NewDefaultRetrier(),
		chunking: MessageChunkerConfig(),
	}
}

// AddDocuments embeds and stores docs. A document that fails to embed is
// skipped and reported in the returned error; the rest are still stored.
func (x *Index) AddDocuments(ctx context.Context, docs []core.Document) error {
	var (
		records []core.VectorRecord
		errs    []error
	)

	for _, doc := range docs {
		chunks := ChunkText(doc.Text, x.chunking)
		for _, chunk := range chunks {
			emb, err := x.embed(ctx, chunk.Text)
			if err != nil {
				errs = append(errs, err)
				continue
			}

			d := doc
			d.Text = chunk.Text
			if d.ID == "" || len(chunks) > 1 {
				d.ID = uuid.NewString()
			}
			records = append(records, core.VectorRecord{Document: d, Embedding: emb})
		}
	}

	if len(records) > 0 {
		err := x.retrier.Do(ctx, func() error {
			return x.driver.Upsert(ctx, records)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("upsert %d records: %w", len(records), err))
		}
	}

	if len(errs) > 0 {
		log.FromCtx(ctx).Debug().Int("failed", len(errs)).Int("stored", len(records)).Msg("indexing finished with errors")
	}
	return errors.Join(errs...)
}

func (x *Index) Search(ctx context.Context, query string, limit int) ([]core.Document, error) {
	emb, err := x.embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return retry.DoValue(ctx, x.retrier, func() ([]core.Document, error) {
		return x.driver.Query(ctx, emb, limit)
	})
}

func (x *Index) Count(ctx context.Context) (int, error) {
	return x.driver.Count(ctx)
}

func (x *Index) Close() error {
	return x.driver.Close()
}

func (x *Index) embed(ctx context.Context, text string) ([]float32, error) {
	return retry.DoValue(ctx, x.retrier, func() ([]float32, error) {
		return x.embedder.Embed(ctx, text)
	})
}
