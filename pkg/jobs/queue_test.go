package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	handled := make(chan Job, 1)
	q := NewQueue("exports", func(ctx context.Context, job Job) error {
		handled <- job
		return nil
	}, QueueConfig{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Kind: "transcript"}))

	select {
	case job := <-handled:
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, "transcript", job.Kind)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was not handled in time")
	}
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("exports", func(context.Context, Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job{ID: "job-1", Kind: "transcript"}))
}

func TestQueueRetriesUntilMaxAttempts(t *testing.T) {
	attempts := make(chan int, 8)
	q := NewQueue("exports", func(ctx context.Context, job Job) error {
		attempts <- job.Attempt
		return errors.New("render failed")
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Kind: "transcript"}))

	// Initial run plus two retries, then the job is dropped.
	for _, want := range []int{0, 1, 2} {
		select {
		case got := <-attempts:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("attempt %d never ran", want)
		}
	}

	select {
	case got := <-attempts:
		t.Fatalf("unexpected attempt %d after retries exhausted", got)
	case <-time.After(50 * time.Millisecond):
	}
}
