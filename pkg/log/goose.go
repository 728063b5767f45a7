package log

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// GooseLogger routes migration output into zerolog. Progress lines go to
// debug. Fatalf is downgraded to an error because goose also returns the
// failure and the caller decides whether it is fatal.
type GooseLogger struct {
	logger zerolog.Logger
}

func (g *GooseLogger) Fatalf(format string, v ...interface{}) {
	g.logger.Error().Msg(clean(format, v...))
}

func (g *GooseLogger) Printf(format string, v ...interface{}) {
	g.logger.Debug().Msg(clean(format, v...))
}

func NewGooseLoggerFromCtx(ctx context.Context) *GooseLogger {
	return &GooseLogger{
		logger: FromCtx(ctx).With().Str("component", "migrations").Logger(),
	}
}

func clean(format string, v ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
