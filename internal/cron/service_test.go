package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLock struct {
	held     bool
	released int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.released++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "ok"}
	failing := &testJob{name: "failing", err: errors.New("boom")}
	registry := NewRegistry()
	require.NoError(t, registry.Register(failing))
	require.NoError(t, registry.Register(ok))

	lock := &fakeLock{}
	svc, err := NewService(ServiceParams{Registry: registry, Lock: lock})
	require.NoError(t, err)

	err = svc.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 1, lock.released)
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "job"}
	registry := NewRegistry()
	require.NoError(t, registry.Register(job))

	svc, err := NewService(ServiceParams{Registry: registry, Lock: &fakeLock{held: true}})
	require.NoError(t, err)

	require.NoError(t, svc.RunCycle(context.Background()))
	assert.Zero(t, job.runs)
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	job := &testJob{name: "job"}
	registry := NewRegistry()
	require.NoError(t, registry.Register(job))

	svc, err := NewService(ServiceParams{Registry: registry, Lock: &fakeLock{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, job.runs)
}

func TestNewServiceRequiresLock(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
