package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestJanitorSweep(t *testing.T) {
	var gotCutoff time.Time
	repo := &mockSOPRepo{
		DeleteOrphansFunc: func(_ context.Context, olderThan time.Time) (int64, error) {
			gotCutoff = olderThan
			return 3, nil
		},
	}

	j := NewJanitor(repo, time.Hour, 24*time.Hour, zap.NewNop())
	removed := j.Sweep(context.Background())

	assert.Equal(t, int64(3), removed)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), gotCutoff, 5*time.Second)
}

func TestJanitorSweep_Disabled(t *testing.T) {
	called := false
	repo := &mockSOPRepo{
		DeleteOrphansFunc: func(context.Context, time.Time) (int64, error) {
			called = true
			return 0, nil
		},
	}

	j := NewJanitor(repo, time.Hour, 0, zap.NewNop())
	assert.Zero(t, j.Sweep(context.Background()))
	assert.False(t, called)
}

func TestJanitorSweep_ErrorSwallowed(t *testing.T) {
	repo := &mockSOPRepo{
		DeleteOrphansFunc: func(context.Context, time.Time) (int64, error) {
			return 0, errors.New("connection refused")
		},
	}

	j := NewJanitor(repo, time.Hour, time.Hour, zap.NewNop())
	assert.Zero(t, j.Sweep(context.Background()))
}

func TestJanitorRun_StopsOnCancel(t *testing.T) {
	repo := &mockSOPRepo{}
	j := NewJanitor(repo, time.Millisecond, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancellation")
	}
}
