package srv

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

type blocking struct {
	name string
	rec  *recorder
	stop chan struct{}
	once sync.Once
}

func newBlocking(name string, rec *recorder) *blocking {
	return &blocking{name: name, rec: rec, stop: make(chan struct{})}
}

func (b *blocking) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-b.stop:
	}
	return nil
}

func (b *blocking) Shutdown(ctx context.Context) error {
	b.rec.add(b.name)
	b.once.Do(func() { close(b.stop) })
	return nil
}

type failing struct {
	err error
}

func (f failing) Start(ctx context.Context) error    { return f.err }
func (f failing) Shutdown(ctx context.Context) error { return nil }

func TestRun(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		last    Service
		cancel  bool
		wantErr error
	}{
		{name: "cancelled context", cancel: true},
		{name: "quit", last: failing{err: ErrQuit}},
		{name: "failure", last: failing{err: boom}, wantErr: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			services := []Service{newBlocking("first", rec), newBlocking("second", rec)}
			if tt.last != nil {
				services = append(services, tt.last)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				time.AfterFunc(10*time.Millisecond, cancel)
			}

			err := Run(ctx, services)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, []string{"second", "first"}, rec.order, "shutdown runs in reverse order")
		})
	}
}

func TestTicker(t *testing.T) {
	var ticks atomic.Int32
	svc := NewTicker(5*time.Millisecond, func(ctx context.Context) { ticks.Add(1) })

	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()

	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, svc.Shutdown(context.Background()))
	assert.NoError(t, <-done)
}

func TestCleanup(t *testing.T) {
	called := false
	svc := NewCleanup(func() error {
		called = true
		return nil
	})

	require.NoError(t, svc.Start(context.Background()))
	assert.False(t, called)
	require.NoError(t, svc.Shutdown(context.Background()))
	assert.True(t, called)
}
