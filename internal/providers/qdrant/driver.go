// Package qdrant stores message embeddings in a remote Qdrant collection.
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/pkg/log"
)

type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimensions uint64
}

type Driver struct {
	client     *qdrant.Client
	collection string
	dims       uint64
}

// NewDriver connects and creates the collection with cosine distance when it
// does not exist yet.
func NewDriver(ctx context.Context, cfg Config) (*Driver, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}
	if cfg.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrVectorStore, err)
	}

	exists, err := client.CollectionExists(ctx, cfg.Collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection: %v", core.ErrVectorStore, err)
	}
	if !exists {
		err := client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: cfg.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     cfg.Dimensions,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: creating collection: %v", core.ErrVectorStore, err)
		}
		log.FromCtx(ctx).Info().Str("collection", cfg.Collection).Uint64("dims", cfg.Dimensions).Msg("qdrant collection created")
	}

	return &Driver{
		client:     client,
		collection: cfg.Collection,
		dims:       cfg.Dimensions,
	}, nil
}

func (d *Driver) Upsert(ctx context.Context, records []core.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		if uint64(len(r.Embedding)) != d.dims {
			return fmt.Errorf("%w: document %s has %d, collection has %d",
				core.ErrDimensionMismatch, r.ID, len(r.Embedding), d.dims)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(r.ID)),
			Vectors: qdrant.NewVectors(r.Embedding...),
			Payload: qdrant.NewValueMap(toPayload(r.Document)),
		})
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: upsert: %v", core.ErrVectorStore, err)
	}
	return nil
}

func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]core.Document, error) {
	if topK <= 0 {
		topK = 10
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", core.ErrVectorStore, err)
	}

	docs := make([]core.Document, 0, len(points))
	for _, p := range points {
		doc := fromPayload(p.GetPayload())
		if doc.ID == "" {
			doc.ID = p.GetId().GetUuid()
		}
		doc.Score = p.GetScore()
		docs = append(docs, doc)
	}
	return docs, nil
}

func (d *Driver) Count(ctx context.Context) (int, error) {
	n, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", core.ErrVectorStore, err)
	}
	return int(n), nil
}

func (d *Driver) Close() error {
	return d.client.Close()
}

// pointID maps a document ID onto the UUID space Qdrant accepts. IDs that
// are already UUIDs are kept.
func pointID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func toPayload(d core.Document) map[string]any {
	m := d.Metadata
	return map[string]any{
		"doc_id":     d.ID,
		"text":       d.Text,
		"source":     m.Source,
		"author":     m.Author,
		"author_id":  m.AuthorID,
		"author_tag": m.AuthorTag,
		"channel":    m.Channel,
		"type":       m.Type,
		"reply_to":   m.ReplyTo,
		"timestamp":  m.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

func fromPayload(p map[string]*qdrant.Value) core.Document {
	str := func(key string) string { return p[key].GetStringValue() }

	ts, _ := time.Parse(time.RFC3339Nano, str("timestamp"))
	return core.Document{
		ID:   str("doc_id"),
		Text: str("text"),
		Metadata: core.DocumentMetadata{
			Source:    str("source"),
			Author:    str("author"),
			AuthorID:  str("author_id"),
			AuthorTag: str("author_tag"),
			Channel:   str("channel"),
			Type:      str("type"),
			ReplyTo:   str("reply_to"),
			Timestamp: ts,
		},
	}
}
