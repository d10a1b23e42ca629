package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"cabins/pkg/config"
	"cabins/pkg/days"
	"cabins/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReconciler struct {
	ReconcileFunc func(ctx context.Context, roomIDs []string, from, to days.Day) (*Report, error)
}

func (m *mockReconciler) Reconcile(ctx context.Context, roomIDs []string, from, to days.Day) (*Report, error) {
	return m.ReconcileFunc(ctx, roomIDs, from, to)
}

func testConfig() *config.Config {
	cfg := config.Default(logger.Discard())
	cfg.ReconcileHorizonDays = 10
	return cfg
}

func TestScheduler_RunOnceUsesHorizon(t *testing.T) {
	var gotFrom, gotTo days.Day
	var gotRooms []string
	rec := &mockReconciler{ReconcileFunc: func(ctx context.Context, roomIDs []string, from, to days.Day) (*Report, error) {
		gotRooms, gotFrom, gotTo = roomIDs, from, to
		return &Report{}, nil
	}}
	s := NewScheduler(rec, testConfig())
	s.today = func() days.Day { return day("2024-06-01") }

	assert.True(t, s.RunOnce(context.Background()))
	assert.Nil(t, gotRooms)
	assert.True(t, gotFrom.Equal(day("2024-06-01")))
	assert.True(t, gotTo.Equal(day("2024-06-11")))
}

func TestScheduler_SkipsOverlappingRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	rec := &mockReconciler{ReconcileFunc: func(ctx context.Context, roomIDs []string, from, to days.Day) (*Report, error) {
		close(started)
		<-release
		return &Report{}, nil
	}}
	s := NewScheduler(rec, testConfig())

	done := make(chan bool)
	go func() { done <- s.RunOnce(context.Background()) }()
	<-started

	assert.False(t, s.RunOnce(context.Background()))
	close(release)
	assert.True(t, <-done)
}

func TestScheduler_DisabledReturnsImmediately(t *testing.T) {
	rec := &mockReconciler{ReconcileFunc: func(ctx context.Context, roomIDs []string, from, to days.Day) (*Report, error) {
		t.Fatal("reconcile must not run")
		return nil, nil
	}}
	cfg := testConfig()
	cfg.ReconcileInterval = 0

	NewScheduler(rec, cfg).Run(context.Background())
}

func TestScheduler_RunTicksUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	rec := &mockReconciler{ReconcileFunc: func(ctx context.Context, roomIDs []string, from, to days.Day) (*Report, error) {
		runs.Add(1)
		return &Report{}, nil
	}}
	cfg := testConfig()
	cfg.ReconcileInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		NewScheduler(rec, cfg).Run(ctx)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
