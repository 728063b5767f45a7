package srv

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandevgo/samara/pkg/log"
	"golang.org/x/sync/errgroup"
)

// ErrQuit is returned by a service that wants the whole process to stop,
// such as the console after "exit".
var ErrQuit = errors.New("quit requested")

type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Run starts every service and blocks until ctx is done or one of them fails
// or quits. Services are then shut down in reverse order. A quit or a
// cancelled ctx is a clean stop and yields nil.
func Run(ctx context.Context, services []Service) error {
	logger := log.FromCtx(ctx)
	g, gctx := errgroup.WithContext(ctx)

	for _, service := range services {
		logger.Debug().Msgf("starting %T", service)
		g.Go(func() error {
			err := service.Start(gctx)
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, ErrQuit) {
				return err
			}
			return fmt.Errorf("%T: %w", service, err)
		})
	}

	<-gctx.Done()
	Shutdown(ctx, services)

	if err := g.Wait(); err != nil && !errors.Is(err, ErrQuit) {
		return err
	}
	return nil
}

// Shutdown stops services in reverse order and logs failures.
func Shutdown(ctx context.Context, services []Service) {
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msgf("%T failed to shutdown", services[i])
		}
	}
}
