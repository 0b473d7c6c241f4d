package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/backend/pkg/metrics"
	"github.com/attendly/backend/pkg/queue"
	"github.com/attendly/backend/services/meetings/usecase"
)

// recordingUsecase counts pipeline invocations; the rest of the interface is
// unused by the worker.
type recordingUsecase struct {
	usecase.Usecase

	mu        sync.Mutex
	processed []string
	swept     int
	want      int
	done      chan struct{}
}

func (r *recordingUsecase) ProcessMeeting(_ context.Context, meetingID, _ string) error {
	r.mu.Lock()
	r.processed = append(r.processed, meetingID)
	n := len(r.processed)
	r.mu.Unlock()
	if r.done != nil && n == r.want {
		close(r.done)
	}
	return nil
}

func (r *recordingUsecase) ReconcileStuck(_ context.Context, _ time.Duration) (int, error) {
	r.mu.Lock()
	r.swept++
	r.mu.Unlock()
	return 0, nil
}

func TestPoolProcessesAndAcksJobs(t *testing.T) {
	jobs := queue.NewMemoryQueue(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	uc := &recordingUsecase{want: 2, done: done}
	pool := New(uc, jobs, metrics.New(), Config{Workers: 2})
	pool.Start(ctx)

	require.NoError(t, jobs.Enqueue(ctx, queue.Job{ID: "j-1", MeetingID: "m-1", OwnerID: "u-1"}))
	require.NoError(t, jobs.Enqueue(ctx, queue.Job{ID: "j-2", MeetingID: "m-2", OwnerID: "u-1"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs were not processed in time")
	}

	cancel()
	pool.Wait()

	uc.mu.Lock()
	defer uc.mu.Unlock()
	assert.ElementsMatch(t, []string{"m-1", "m-2"}, uc.processed)
}

func TestPoolSweepRuns(t *testing.T) {
	jobs := queue.NewMemoryQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	uc := &recordingUsecase{}
	pool := New(uc, jobs, metrics.New(), Config{Workers: 1, SweepInterval: 10 * time.Millisecond})
	pool.Start(ctx)

	assert.Eventually(t, func() bool {
		uc.mu.Lock()
		defer uc.mu.Unlock()
		return uc.swept > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	pool.Wait()
}

func TestPoolConfigDefaults(t *testing.T) {
	pool := New(&recordingUsecase{}, queue.NewMemoryQueue(1), metrics.New(), Config{})

	assert.Equal(t, 4, pool.cfg.Workers)
	assert.Equal(t, 5*time.Minute, pool.cfg.SweepInterval)
	assert.Equal(t, 30*time.Minute, pool.cfg.StuckThreshold)
}
