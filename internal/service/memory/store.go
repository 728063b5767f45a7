package memory

import "context"

// snapshot persists a whole store value. jsonfile.File satisfies it.
type snapshot[T any] interface {
	Load(ctx context.Context) (T, error)
	Save(ctx context.Context, v T) error
}
