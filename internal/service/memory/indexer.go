package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/pkg/log"
)

const (
	IndexerBatchSize    = 30
	IndexerPollInterval = 2 * time.Second
	indexerQueueSize    = 512
)

// Indexer feeds messages into the similarity search in the background so a
// slow embedding backend never delays a reply.
type Indexer struct {
	search        core.SimilaritySearch
	interval      time.Duration
	statsInterval time.Duration
	batchSize     int

	queue chan core.Document
	once  sync.Once
	done  chan struct{}
}

func NewIndexer(search core.SimilaritySearch, statsInterval time.Duration) *Indexer {
	return &Indexer{
		search:        search,
		interval:      IndexerPollInterval,
		statsInterval: statsInterval,
		batchSize:     IndexerBatchSize,
		queue:         make(chan core.Document, indexerQueueSize),
		done:          make(chan struct{}),
	}
}

// Enqueue schedules a document. When the queue is full the document is
// dropped and logged.
func (w *Indexer) Enqueue(ctx context.Context, doc core.Document) {
	if w == nil || w.search == nil {
		return
	}
	select {
	case w.queue <- doc:
	default:
		log.FromCtx(ctx).Warn().Str("type", doc.Metadata.Type).Msg("index queue full, dropping document")
	}
}

func (w *Indexer) Start(ctx context.Context) error {
	ctx = log.WithComponent(ctx, "indexer")
	logger := log.FromCtx(ctx)
	if w.search == nil {
		logger.Info().Msg("similarity search disabled, indexer idle")
		select {
		case <-ctx.Done():
		case <-w.done:
		}
		return nil
	}
	logger.Info().Msg("starting message indexer")

	w.Enqueue(ctx, core.Document{
		Text: "Memory index initialized for the " + core.AppName + " group chat companion.",
		Metadata: core.DocumentMetadata{
			Source:    "system",
			Type:      "initialization",
			Timestamp: time.Now(),
		},
	})

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var stats <-chan time.Time
	if w.statsInterval > 0 {
		statsTicker := time.NewTicker(w.statsInterval)
		defer statsTicker.Stop()
		stats = statsTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			w.flush(context.WithoutCancel(ctx))
			return nil
		case <-w.done:
			w.flush(ctx)
			return nil
		case <-ticker.C:
			w.flush(ctx)
		case <-stats:
			w.logStats(ctx)
		}
	}
}

func (w *Indexer) Shutdown(ctx context.Context) error {
	w.once.Do(func() { close(w.done) })
	return nil
}

func (w *Indexer) flush(ctx context.Context) {
	for {
		batch := w.drain()
		if len(batch) == 0 {
			return
		}
		if err := w.search.AddDocuments(ctx, batch); err != nil {
			log.FromCtx(ctx).Error().Err(err).Int("count", len(batch)).Msg("failed to index documents")
			return
		}
		log.FromCtx(ctx).Debug().Int("count", len(batch)).Msg("documents indexed")
	}
}

func (w *Indexer) drain() []core.Document {
	batch := make([]core.Document, 0, w.batchSize)
	for len(batch) < w.batchSize {
		select {
		case doc := <-w.queue:
			batch = append(batch, doc)
		default:
			return batch
		}
	}
	return batch
}

func (w *Indexer) logStats(ctx context.Context) {
	count, err := w.search.Count(ctx)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to read index stats")
		return
	}
	log.FromCtx(ctx).Info().Int("documents", count).Int("queued", len(w.queue)).Msg("index stats")
}

// MessageDocument converts a chat message into an indexable document.
func MessageDocument(msg core.ChatMessage, docType string, replyTo *core.Subject) core.Document {
	meta := core.DocumentMetadata{
		Source:    "chat",
		Author:    msg.Author.Name,
		AuthorID:  msg.Author.ID,
		AuthorTag: msg.Author.Tag,
		Channel:   msg.Channel,
		Type:      docType,
		Timestamp: msg.Timestamp,
	}
	if replyTo != nil {
		meta.ReplyTo = replyTo.Name
	}
	return core.Document{Text: msg.Content, Metadata: meta}
}
