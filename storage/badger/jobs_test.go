package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/core"
	"github.com/lectern-app/lectern/storage"
)

func newTestQueue(t *testing.T, cfg QueueConfig) storage.JobQueue {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	queue, err := NewJobQueue(backend, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		queue.Close()
		backend.Close()
	})
	return queue
}

func newTestJob(documentID core.ID, priority core.Priority) *core.Job {
	return &core.Job{
		Id:         core.JobIDForDocument(documentID),
		DocumentId: documentID,
		OwnerId:    "owner-1",
		Location:   "/uploads/file.pdf",
		Priority:   priority,
	}
}

func TestJobQueue_EnqueueIdempotent(t *testing.T) {
	queue := newTestQueue(t, DefaultQueueConfig())
	ctx := context.Background()

	enqueued, err := queue.Enqueue(ctx, newTestJob(1, core.PriorityNormal))
	require.NoError(t, err)
	assert.True(t, enqueued)

	// Same document, same deterministic job ID: no-op
	enqueued, err = queue.Enqueue(ctx, newTestJob(1, core.PriorityNormal))
	require.NoError(t, err)
	assert.False(t, enqueued)

	// Still a no-op while the job is in flight
	claimed, err := queue.Claim(ctx, "w1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	enqueued, err = queue.Enqueue(ctx, newTestJob(1, core.PriorityNormal))
	require.NoError(t, err)
	assert.False(t, enqueued)
}

func TestJobQueue_ClaimRespectsPriorityThenFIFO(t *testing.T) {
	queue := newTestQueue(t, DefaultQueueConfig())
	ctx := context.Background()

	_, err := queue.Enqueue(ctx, newTestJob(1, core.PriorityLow))
	require.NoError(t, err)
	_, err = queue.Enqueue(ctx, newTestJob(2, core.PriorityNormal))
	require.NoError(t, err)
	_, err = queue.Enqueue(ctx, newTestJob(3, core.PriorityHigh))
	require.NoError(t, err)
	_, err = queue.Enqueue(ctx, newTestJob(4, core.PriorityNormal))
	require.NoError(t, err)

	var order []core.ID
	for {
		job, err := queue.Claim(ctx, "w1", time.Minute)
		require.NoError(t, err)
		if job == nil {
			break
		}
		order = append(order, job.DocumentId)
	}

	assert.Equal(t, []core.ID{3, 2, 4, 1}, order)
}

func TestJobQueue_ClaimEmpty(t *testing.T) {
	queue := newTestQueue(t, DefaultQueueConfig())

	job, err := queue.Claim(context.Background(), "w1", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestJobQueue_LeaseExpiryMakesJobClaimableAgain(t *testing.T) {
	queue := newTestQueue(t, DefaultQueueConfig())
	ctx := context.Background()

	_, err := queue.Enqueue(ctx, newTestJob(1, core.PriorityNormal))
	require.NoError(t, err)

	first, err := queue.Claim(ctx, "w1", 10*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, first)

	// While the lease is live nobody else can claim it
	stolen, err := queue.Claim(ctx, "w2", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, stolen)

	time.Sleep(25 * time.Millisecond)

	second, err := queue.Claim(ctx, "w2", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, "w2", second.WorkerId)
	// Lease expiry is a requeue, not a failed attempt
	assert.Equal(t, first.Attempts, second.Attempts)
}

func TestJobQueue_ExtendLease(t *testing.T) {
	queue := newTestQueue(t, DefaultQueueConfig())
	ctx := context.Background()

	_, err := queue.Enqueue(ctx, newTestJob(1, core.PriorityNormal))
	require.NoError(t, err)

	job, err := queue.Claim(ctx, "w1", 20*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, job)

	require.NoError(t, queue.ExtendLease(ctx, job.Id, "w1", time.Minute))

	// The extended lease keeps the job out of reach
	time.Sleep(30 * time.Millisecond)
	stolen, err := queue.Claim(ctx, "w2", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, stolen)

	// A worker that isn't the lease holder can't extend
	err = queue.ExtendLease(ctx, job.Id, "w2", time.Minute)
	assert.ErrorIs(t, err, storage.ErrLeaseLost)
}

func TestJobQueue_AckRemovesJob(t *testing.T) {
	queue := newTestQueue(t, DefaultQueueConfig())
	ctx := context.Background()

	_, err := queue.Enqueue(ctx, newTestJob(1, core.PriorityNormal))
	require.NoError(t, err)

	job, err := queue.Claim(ctx, "w1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, job)

	require.NoError(t, queue.Ack(ctx, job.Id))

	_, err = queue.Job(ctx, job.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Acked means gone; a new upload of the document may enqueue again
	enqueued, err := queue.Enqueue(ctx, newTestJob(1, core.PriorityNormal))
	require.NoError(t, err)
	assert.True(t, enqueued)
}

func TestJobQueue_AckRequiresInFlight(t *testing.T) {
	queue := newTestQueue(t, DefaultQueueConfig())
	ctx := context.Background()

	job := newTestJob(1, core.PriorityNormal)
	_, err := queue.Enqueue(ctx, job)
	require.NoError(t, err)

	err = queue.Ack(ctx, job.Id)
	assert.ErrorIs(t, err, storage.ErrNotInFlight)

	err = queue.Ack(ctx, core.ID(424242))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestJobQueue_FailSchedulesBackoffThenDeadLetters(t *testing.T) {
	queue := newTestQueue(t, QueueConfig{
		MaxAttempts: 2,
		BackoffBase: 5 * time.Millisecond,
		BackoffCap:  time.Second,
	})
	ctx := context.Background()

	_, err := queue.Enqueue(ctx, newTestJob(1, core.PriorityNormal))
	require.NoError(t, err)

	job, err := queue.Claim(ctx, "w1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, job)

	requeued, err := queue.Fail(ctx, job.Id, core.TransientErr("embedding provider timeout"))
	require.NoError(t, err)
	assert.True(t, requeued)

	stored, err := queue.Job(ctx, job.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, core.JobPending, stored.State)
	assert.Contains(t, stored.LastError, "embedding provider timeout")

	// Backoff gate: not claimable until NotBefore passes
	early, err := queue.Claim(ctx, "w1", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, early)

	time.Sleep(25 * time.Millisecond)

	job, err = queue.Claim(ctx, "w1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, job)

	// Attempt budget exhausted: dead-lettered, never silently re-queued
	requeued, err = queue.Fail(ctx, job.Id, core.TransientErr("still failing"))
	require.NoError(t, err)
	assert.False(t, requeued)

	stored, err = queue.Job(ctx, job.Id)
	require.NoError(t, err)
	assert.Equal(t, core.JobDead, stored.State)
	assert.Equal(t, 2, stored.Attempts)

	dead, err := queue.DeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, job.Id, dead[0].Id)

	none, err := queue.Claim(ctx, "w1", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestJobQueue_ConfigErrorDeadLettersImmediately(t *testing.T) {
	queue := newTestQueue(t, DefaultQueueConfig())
	ctx := context.Background()

	_, err := queue.Enqueue(ctx, newTestJob(1, core.PriorityNormal))
	require.NoError(t, err)

	job, err := queue.Claim(ctx, "w1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, job)

	// Retrying can't fix a misconfiguration
	requeued, err := queue.Fail(ctx, job.Id, core.ConfigErr("embedding dimension mismatch: got 768, want 1536"))
	require.NoError(t, err)
	assert.False(t, requeued)

	stored, err := queue.Job(ctx, job.Id)
	require.NoError(t, err)
	assert.Equal(t, core.JobDead, stored.State)
	assert.Equal(t, 1, stored.Attempts)
}

func TestJobQueue_EnqueueRevivesDeadJob(t *testing.T) {
	queue := newTestQueue(t, DefaultQueueConfig())
	ctx := context.Background()

	_, err := queue.Enqueue(ctx, newTestJob(1, core.PriorityNormal))
	require.NoError(t, err)

	job, err := queue.Claim(ctx, "w1", time.Minute)
	require.NoError(t, err)
	_, err = queue.Fail(ctx, job.Id, core.ConfigErr("bad dimension"))
	require.NoError(t, err)

	// An explicit re-enqueue gives the job a fresh attempt budget
	enqueued, err := queue.Enqueue(ctx, newTestJob(1, core.PriorityNormal))
	require.NoError(t, err)
	assert.True(t, enqueued)

	stored, err := queue.Job(ctx, job.Id)
	require.NoError(t, err)
	assert.Equal(t, core.JobPending, stored.State)
	assert.Equal(t, 0, stored.Attempts)
	assert.Empty(t, stored.LastError)
}

func TestJobQueue_FailRequiresInFlight(t *testing.T) {
	queue := newTestQueue(t, DefaultQueueConfig())
	ctx := context.Background()

	job := newTestJob(1, core.PriorityNormal)
	_, err := queue.Enqueue(ctx, job)
	require.NoError(t, err)

	_, err = queue.Fail(ctx, job.Id, core.TransientErr("boom"))
	assert.ErrorIs(t, err, storage.ErrNotInFlight)
}
