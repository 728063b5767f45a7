package llm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/pkg/log"
	"github.com/sandevgo/samara/pkg/retry"
)

// DynamicProvider forwards to the configured provider and lets the model be
// swapped at runtime. Every call is bounded by a timeout and retried on
// transient failures.
type DynamicProvider struct {
	config  core.ProviderConfig
	current atomic.Value
	mu      sync.Mutex
	retrier *retry.Retrier
	timeout time.Duration
}

func NewDynamicProvider(
	ctx context.Context,
	config core.ProviderConfig,
	timeout time.Duration,
) (*DynamicProvider, error) {
	d := &DynamicProvider{
		config:  config,
		retrier: retry.NewDefaultRetrier(),
		timeout: timeout,
	}

	provider, err := NewProvider(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial provider: %w", err)
	}

	d.current.Store(provider)
	return d, nil
}

func (d *DynamicProvider) Chat(ctx context.Context, history []core.Message) (core.Message, error) {
	provider := d.current.Load().(core.AIProvider)

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	attempt := 0
	return retry.DoValue(ctx, d.retrier, func() (core.Message, error) {
		attempt++
		msg, err := provider.Chat(ctx, history)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Int("attempt", attempt).Msg("llm call failed")
			return core.Message{}, classify(err)
		}
		return msg, nil
	})
}

func (d *DynamicProvider) GetModel() string {
	return d.config.GetModel()
}

// SetModel persists the new model and swaps the underlying provider.
func (d *DynamicProvider) SetModel(ctx context.Context, model string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous := d.config.GetModel()
	if err := d.config.SetModel(model); err != nil {
		return err
	}

	newProvider, err := NewProvider(ctx, d.config)
	if err != nil {
		if rollback := d.config.SetModel(previous); rollback != nil {
			log.FromCtx(ctx).Error().Err(rollback).Msg("failed to restore previous model")
		}
		return fmt.Errorf("failed to create provider: %w", err)
	}

	d.current.Store(newProvider)
	log.FromCtx(ctx).Info().Str("model", model).Msg("model switched")
	return nil
}
