package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

func newTestScheduler() *Scheduler {
	return New(Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tick:   5 * time.Millisecond,
	})
}

func TestEvery(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	e := Every(5 * time.Minute)

	assert.Equal(t, base.Add(5*time.Minute), e.Next(base))
	assert.Equal(t, "@every 5m0s", e.String())
}

func TestRegister_Validation(t *testing.T) {
	s := newTestScheduler()

	assert.ErrorIs(t, s.Register(nil, Every(time.Second)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, nil), ErrNilSchedule)

	require.NoError(t, s.Register(&countingJob{name: "a"}, Every(time.Second)))
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, Every(time.Second)), ErrJobAlreadyExists)
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, Every(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	infos := s.Jobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "tick", infos[0].Name)
	assert.GreaterOrEqual(t, infos[0].Runs, int64(2))
	require.NotNil(t, infos[0].LastResult)
	assert.True(t, infos[0].LastResult.Success())
}

func TestScheduler_NoOverlap(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.Register(job, Every(time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	// many ticks pass while the first run is blocked
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), job.runs.Load())

	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrJobBusy)

	close(job.block)
	require.NoError(t, s.Stop())
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "stuck", block: make(chan struct{})}
	require.NoError(t, s.Register(job, Every(time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, s.Stop())

	infos := s.Jobs()
	require.NotNil(t, infos[0].LastResult)
	assert.ErrorIs(t, infos[0].LastResult.Err, context.Canceled)
	assert.Equal(t, int64(1), infos[0].Failures)
}

func TestRunNow(t *testing.T) {
	s := newTestScheduler()
	boom := errors.New("boom")
	ok := &countingJob{name: "ok"}
	bad := &countingJob{name: "bad", err: boom}
	require.NoError(t, s.Register(ok, Every(time.Hour)))
	require.NoError(t, s.Register(bad, Every(time.Hour)))

	var (
		mu      sync.Mutex
		results []JobResult
	)
	s.OnJobComplete(func(r JobResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	})

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Manual)
	assert.True(t, res.Success())

	_, err = s.RunNow(context.Background(), "bad")
	assert.ErrorIs(t, err, boom)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 2)
	assert.Equal(t, "ok", results[0].JobName)
	assert.Equal(t, "bad", results[1].JobName)

	infos := s.Jobs()
	assert.Equal(t, "bad", infos[0].Name)
	assert.Equal(t, int64(1), infos[0].Failures)
}
