package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincept/analytics/pkg/logger"
)

func countingJob(name string, failures int32) (JobFunc, *atomic.Int32) {
	var calls atomic.Int32
	return JobFunc{
		JobName: name,
		Spec:    "0 0 0 1 1 *",
		Fn: func(ctx context.Context) error {
			if calls.Add(1) <= failures {
				return errors.New("transient")
			}
			return nil
		},
	}, &calls
}

func TestAddJob(t *testing.T) {
	s := New(logger.Nop())
	job, _ := countingJob("refresh", 0)

	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job), "duplicate name")

	bad := JobFunc{JobName: "bad", Spec: "not a cron spec", Fn: job.Fn}
	assert.Error(t, s.AddJob(bad))

	assert.Equal(t, []string{"refresh"}, s.GetAllJobs())
}

func TestRunNow_Retries(t *testing.T) {
	s := New(logger.Nop(), WithRetry(2, time.Millisecond))
	job, calls := countingJob("flaky", 2)
	require.NoError(t, s.AddJob(job))

	result, err := s.RunNow(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, int32(3), calls.Load())

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
}

func TestRunNow_GivesUp(t *testing.T) {
	s := New(logger.Nop(), WithRetry(1, time.Millisecond))
	job, calls := countingJob("broken", 100)
	require.NoError(t, s.AddJob(job))

	result, err := s.RunNow(context.Background(), "broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "transient", result.Error)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, int32(2), calls.Load())

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunNow_CancelledRetry(t *testing.T) {
	s := New(logger.Nop(), WithRetry(3, time.Hour))
	job, calls := countingJob("slow", 100)
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.RunNow(ctx, "slow")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "retry aborted")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunNow_UnknownJob(t *testing.T) {
	s := New(logger.Nop())
	_, err := s.RunNow(context.Background(), "missing")
	assert.Error(t, err)
	assert.Error(t, s.RunJob("missing"))
}

func TestRunJob_Background(t *testing.T) {
	s := New(logger.Nop(), WithRetry(0, 0))
	job, calls := countingJob("warmup", 0)
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("warmup"))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return s.GetJobStats()["warmup"].TotalRuns == 1 }, time.Second, 10*time.Millisecond)
}

func TestScheduledRun(t *testing.T) {
	s := New(logger.Nop(), WithRetry(0, 0))
	job, calls := countingJob("every_second", 0)
	job.Spec = "* * * * * *"
	require.NoError(t, s.AddJob(job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	stats := s.GetJobStats()["every_second"]
	assert.NotNil(t, stats.NextRun)
}

func TestJobHistory(t *testing.T) {
	var h JobHistory
	for i := 0; i < maxHistory+5; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	succeeded, failed := h.Counts()
	assert.Equal(t, maxHistory/2, succeeded)
	assert.Equal(t, maxHistory/2, failed)
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)

	last, ok := h.Latest()
	require.True(t, ok)
	assert.True(t, last.Success) // i = maxHistory+4

	var empty JobHistory
	_, ok = empty.Latest()
	assert.False(t, ok)
	assert.Zero(t, empty.SuccessRate())
}
