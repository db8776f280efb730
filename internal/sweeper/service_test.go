package sweeper

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockline-app/stockline-backend/pkg/logger"
)

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

type stubLock struct {
	held     bool
	acquired int
	released int
}

func (l *stubLock) Acquire(ctx context.Context) (bool, error) {
	l.acquired++
	return !l.held, nil
}

func (l *stubLock) Release(ctx context.Context) error {
	l.released++
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestRunCycleExecutesAllJobs(t *testing.T) {
	t.Parallel()

	good := &stubJob{name: "good"}
	bad := &stubJob{name: "bad", err: fmt.Errorf("boom")}
	after := &stubJob{name: "after"}
	lock := &stubLock{}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(good, bad, after),
		Lock:     lock,
	})
	require.NoError(t, err)

	require.NoError(t, svc.runCycle(context.Background()))

	// one job failing never stops the rest
	require.Equal(t, 1, good.runs)
	require.Equal(t, 1, bad.runs)
	require.Equal(t, 1, after.runs)
	require.Equal(t, 1, lock.acquired)
	require.Equal(t, 1, lock.released)
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	t.Parallel()

	job := &stubJob{name: "job"}
	lock := &stubLock{held: true}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	require.NoError(t, err)

	require.NoError(t, svc.runCycle(context.Background()))
	require.Equal(t, 0, job.runs)
	require.Equal(t, 0, lock.released)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	job := &stubJob{name: "job"}
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     &stubLock{},
		Interval: time.Hour,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = svc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	// the immediate cycle still ran before the loop noticed cancellation
	require.Equal(t, 1, job.runs)
}

func TestRegistryIgnoresNilJobs(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil, &stubJob{name: "a"})
	registry.Register(nil)
	registry.Register(&stubJob{name: "b"})

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	require.Equal(t, "a", jobs[0].Name())
	require.Equal(t, "b", jobs[1].Name())
}
