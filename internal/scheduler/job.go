package scheduler

import (
	"context"
	"time"
)

// 작업별 보관하는 최근 실행 결과 수
const maxHistory = 100

// Job is a unit of scheduled work.
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run executes the job once. A non-nil error is retried.
	Run(ctx context.Context) error

	// Schedule is a cron spec with a leading seconds field, e.g. "0 30 18 * * 1-5"
	Schedule() string
}

// JobFunc adapts a function to Job
type JobFunc struct {
	JobName string
	Spec    string
	Fn      func(ctx context.Context) error
}

func (j JobFunc) Name() string                  { return j.JobName }
func (j JobFunc) Schedule() string              { return j.Spec }
func (j JobFunc) Run(ctx context.Context) error { return j.Fn(ctx) }

// JobResult is the outcome of one run, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the last maxHistory results, oldest first
type JobHistory struct {
	Results []JobResult
}

func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if over := len(h.Results) - maxHistory; over > 0 {
		h.Results = h.Results[over:]
	}
}

// Latest returns the most recent result
func (h *JobHistory) Latest() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// Counts splits the kept results into successes and failures
func (h *JobHistory) Counts() (succeeded, failed int) {
	for _, r := range h.Results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// SuccessRate is succeeded / total, 0 without runs
func (h *JobHistory) SuccessRate() float64 {
	succeeded, failed := h.Counts()
	if succeeded+failed == 0 {
		return 0
	}
	return float64(succeeded) / float64(succeeded+failed)
}
