// Copyright 2026 Lectern Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/lectern-app/lectern/core"
	"github.com/lectern-app/lectern/storage"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 2 * time.Second
	defaultBackoffCap  = 5 * time.Minute

	// claimRetries bounds re-runs of the claim transaction when two
	// workers race for the same pending entry and badger reports an
	// optimistic-transaction conflict.
	claimRetries = 3
)

// QueueConfig holds the retry policy of the job queue.
type QueueConfig struct {
	// MaxAttempts is the attempt budget per job. A job failing this
	// many times moves to the dead-letter state.
	MaxAttempts int

	// BackoffBase is the base delay of the exponential backoff applied
	// to retryable failures.
	BackoffBase time.Duration

	// BackoffCap is the upper bound on the backoff delay.
	BackoffCap time.Duration
}

// DefaultQueueConfig returns the queue retry policy defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxAttempts: defaultMaxAttempts,
		BackoffBase: defaultBackoffBase,
		BackoffCap:  defaultBackoffCap,
	}
}

// Normalize fills in zero values with defaults.
func (c *QueueConfig) Normalize() {
	def := DefaultQueueConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = def.BackoffBase
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = def.BackoffCap
	}
}

// JobQueue implements storage.JobQueue for BadgerDB.
//
// Pending jobs live in an index ordered (priority desc, ready-time asc,
// enqueue seq asc); in-flight jobs live in a lease-deadline index. Every
// state change happens in a single transaction, which is what makes
// Claim atomic across concurrent workers.
type JobQueue struct {
	backend *Backend
	seq     *badger.Sequence
	cfg     QueueConfig
	logger  *slog.Logger
}

var _ storage.JobQueue = (*JobQueue)(nil)

// NewJobQueue creates a new JobQueue with the given retry policy.
func NewJobQueue(backend *Backend, cfg QueueConfig) (*JobQueue, error) {
	cfg.Normalize()

	seq, err := backend.GetSequence(jobSeq)
	if err != nil {
		return nil, err
	}

	return &JobQueue{
		backend: backend,
		seq:     seq,
		cfg:     cfg,
		logger:  slog.Default().With("component", "jobqueue"),
	}, nil
}

// Close releases the enqueue sequence.
func (q *JobQueue) Close() error {
	return q.seq.Release()
}

// Enqueue adds a job, idempotently on its deterministic ID. A pending or
// in-flight job for the same document makes this a no-op; a dead job is
// revived with a fresh attempt budget (explicit retry).
func (q *JobQueue) Enqueue(ctx context.Context, job *core.Job) (bool, error) {
	var enqueued bool
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		key := makeJobKey(job.Id)

		existing, err := readJob(tx, key)
		if err != nil {
			return err
		}
		if existing != nil && existing.State != core.JobDead {
			return nil
		}

		seq, err := q.seq.Next()
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		job.State = core.JobPending
		job.Attempts = 0
		job.Seq = seq
		job.WorkerId = ""
		job.LastError = ""
		job.LeaseExpiry = time.Time{}
		job.EnqueuedAt = now
		if job.NotBefore.IsZero() {
			job.NotBefore = now
		}

		if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
			return err
		}
		pendingKey := makeJobPendingKey(job.Priority, job.NotBefore, job.Seq)
		if err := tx.Set(pendingKey, storage.MarshalID(job.Id)); err != nil {
			return err
		}

		enqueued = true
		return tx.Commit()
	}, true)

	return enqueued, err
}

// Claim atomically removes one eligible job, respecting priority
// (highest first), then enqueue order, then NotBefore <= now, and grants
// the worker a lease. Expired leases are swept back to pending first, so
// stalled jobs from crashed workers become claimable again.
// Returns nil, nil when no job is eligible.
func (q *JobQueue) Claim(ctx context.Context, workerID string, lease time.Duration) (*core.Job, error) {
	var claimed *core.Job
	var err error
	for range claimRetries {
		claimed, err = q.claimOnce(workerID, lease)
		if err != badger.ErrConflict {
			break
		}
	}
	if err == badger.ErrConflict {
		// Every pending entry we raced for went to other workers.
		return nil, nil
	}
	return claimed, err
}

func (q *JobQueue) claimOnce(workerID string, lease time.Duration) (*core.Job, error) {
	var claimed *core.Job
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()

		recovered, err := q.recoverExpiredLeases(tx, now)
		if err != nil {
			return err
		}

		job, err := q.takePending(tx, now)
		if err != nil {
			return err
		}
		if job == nil {
			if recovered == 0 {
				return nil
			}
			// Persist the sweep even when nothing was claimable.
			return tx.Commit()
		}

		job.State = core.JobInFlight
		job.WorkerId = workerID
		job.LeaseExpiry = now.Add(lease)

		if err := tx.Set(makeJobKey(job.Id), storage.MarshalJob(job)); err != nil {
			return err
		}
		leaseKey := makeJobLeaseKey(job.LeaseExpiry, job.Id)
		if err := tx.Set(leaseKey, storage.MarshalID(job.Id)); err != nil {
			return err
		}

		claimed = job
		return tx.Commit()
	}, true)

	return claimed, err
}

// recoverExpiredLeases moves jobs whose lease deadline has passed back
// to the pending index. Attempts are not incremented; a lease expiry is
// a requeue, and the next worker runs an independent attempt.
func (q *JobQueue) recoverExpiredLeases(tx *badger.Txn, now time.Time) (int, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(jobLeasePrefix + ":")
	iter := tx.NewIterator(opts)

	type expired struct {
		leaseKey []byte
		jobID    core.ID
	}
	var toRecover []expired

	for iter.Rewind(); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		expiry, ok := leaseKeyExpiry(key)
		if !ok {
			continue
		}
		// Keys sort by expiry, so the first live lease ends the sweep.
		if expiry.After(now) {
			break
		}

		var jobID core.ID
		err := iter.Item().Value(func(val []byte) error {
			var err error
			jobID, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			iter.Close()
			return 0, err
		}
		toRecover = append(toRecover, expired{leaseKey: iter.Item().KeyCopy(nil), jobID: jobID})
	}
	iter.Close()

	for _, e := range toRecover {
		job, err := readJob(tx, makeJobKey(e.jobID))
		if err != nil {
			return 0, err
		}
		if err := tx.Delete(e.leaseKey); err != nil {
			return 0, err
		}
		if job == nil || job.State != core.JobInFlight {
			// Stale index entry; the job was acked or failed already.
			continue
		}

		job.State = core.JobPending
		job.WorkerId = ""
		job.LeaseExpiry = time.Time{}
		job.NotBefore = now

		if err := tx.Set(makeJobKey(job.Id), storage.MarshalJob(job)); err != nil {
			return 0, err
		}
		pendingKey := makeJobPendingKey(job.Priority, job.NotBefore, job.Seq)
		if err := tx.Set(pendingKey, storage.MarshalID(job.Id)); err != nil {
			return 0, err
		}

		q.logger.Warn("recovered stalled job",
			"job_id", uint64(job.Id),
			"document_id", uint64(job.DocumentId))
	}

	return len(toRecover), nil
}

// takePending removes and returns the first eligible pending job, or
// nil when every pending job is still backing off.
func (q *JobQueue) takePending(tx *badger.Txn, now time.Time) (*core.Job, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(jobPendingPrefix + ":")
	iter := tx.NewIterator(opts)

	var pendingKey []byte
	var jobID core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		readyAt, ok := pendingKeyReadyAt(key)
		if !ok {
			continue
		}
		// A backing-off entry doesn't block lower-priority ready ones.
		if readyAt.After(now) {
			continue
		}

		err := iter.Item().Value(func(val []byte) error {
			var err error
			jobID, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			iter.Close()
			return nil, err
		}
		pendingKey = iter.Item().KeyCopy(nil)
		break
	}
	iter.Close()

	if pendingKey == nil {
		return nil, nil
	}

	if err := tx.Delete(pendingKey); err != nil {
		return nil, err
	}
	job, err := readJob(tx, makeJobKey(jobID))
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, storage.ErrNotFound
	}
	return job, nil
}

// ExtendLease renews the lease on an in-flight job.
func (q *JobQueue) ExtendLease(ctx context.Context, jobID core.ID, workerID string, lease time.Duration) error {
	return q.backend.WithTx(func(tx *badger.Txn) error {
		job, err := readJob(tx, makeJobKey(jobID))
		if err != nil {
			return err
		}
		if job == nil {
			return storage.ErrNotFound
		}
		if job.State != core.JobInFlight {
			return storage.ErrNotInFlight
		}
		if job.WorkerId != workerID {
			return storage.ErrLeaseLost
		}

		if err := tx.Delete(makeJobLeaseKey(job.LeaseExpiry, job.Id)); err != nil {
			return err
		}
		job.LeaseExpiry = time.Now().UTC().Add(lease)
		if err := tx.Set(makeJobKey(job.Id), storage.MarshalJob(job)); err != nil {
			return err
		}
		if err := tx.Set(makeJobLeaseKey(job.LeaseExpiry, job.Id), storage.MarshalID(job.Id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// Ack removes a completed job permanently.
func (q *JobQueue) Ack(ctx context.Context, jobID core.ID) error {
	return q.backend.WithTx(func(tx *badger.Txn) error {
		key := makeJobKey(jobID)
		job, err := readJob(tx, key)
		if err != nil {
			return err
		}
		if job == nil {
			return storage.ErrNotFound
		}
		if job.State != core.JobInFlight {
			return storage.ErrNotInFlight
		}

		if err := tx.Delete(makeJobLeaseKey(job.LeaseExpiry, job.Id)); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// Fail records a failed attempt. Retryable causes within the attempt
// budget re-schedule the job with exponential backoff; everything else
// moves it to the dead-letter state. Returns true when another attempt
// was scheduled.
func (q *JobQueue) Fail(ctx context.Context, jobID core.ID, cause error) (bool, error) {
	var requeued bool
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		key := makeJobKey(jobID)
		job, err := readJob(tx, key)
		if err != nil {
			return err
		}
		if job == nil {
			return storage.ErrNotFound
		}
		if job.State != core.JobInFlight {
			return storage.ErrNotInFlight
		}

		if err := tx.Delete(makeJobLeaseKey(job.LeaseExpiry, job.Id)); err != nil {
			return err
		}

		now := time.Now().UTC()
		job.Attempts++
		job.WorkerId = ""
		job.LeaseExpiry = time.Time{}

		procErr := *core.AsProcessingError(cause)
		procErr.Attempt = job.Attempts
		job.LastError = procErr.Error()

		if procErr.Retryable() && job.Attempts < q.cfg.MaxAttempts {
			job.State = core.JobPending
			job.NotBefore = now.Add(q.backoff(job.Attempts))

			if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
				return err
			}
			pendingKey := makeJobPendingKey(job.Priority, job.NotBefore, job.Seq)
			if err := tx.Set(pendingKey, storage.MarshalID(job.Id)); err != nil {
				return err
			}

			q.logger.Info("job failed, retrying",
				"job_id", uint64(job.Id),
				"attempt", job.Attempts,
				"retry_in", q.backoff(job.Attempts).String(),
				"error", job.LastError)
			requeued = true
			return tx.Commit()
		}

		job.State = core.JobDead
		if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
			return err
		}

		q.logger.Error("job dead-lettered",
			"job_id", uint64(job.Id),
			"document_id", uint64(job.DocumentId),
			"attempts", job.Attempts,
			"error", job.LastError)
		return tx.Commit()
	}, true)

	return requeued, err
}

// backoff computes delay = base * 2^attempts, capped.
func (q *JobQueue) backoff(attempts int) time.Duration {
	delay := q.cfg.BackoffBase
	for range attempts {
		delay *= 2
		if delay >= q.cfg.BackoffCap {
			return q.cfg.BackoffCap
		}
	}
	return delay
}

// Job retrieves a job by ID regardless of its state.
func (q *JobQueue) Job(ctx context.Context, id core.ID) (*core.Job, error) {
	var result *core.Job
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readJob(tx, makeJobKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeadLetters lists jobs that exhausted their retries, oldest first.
func (q *JobQueue) DeadLetters(ctx context.Context) ([]*core.Job, error) {
	var results []*core.Job
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var job *core.Job
			err := iter.Item().Value(func(val []byte) error {
				var err error
				job, err = storage.UnmarshalJob(val)
				return err
			})
			if err != nil {
				return err
			}
			if job != nil && job.State == core.JobDead {
				results = append(results, job)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Job) int {
		if a.Seq < b.Seq {
			return -1
		}
		if a.Seq > b.Seq {
			return 1
		}
		return 0
	})
	return results, nil
}

// readJob reads a job from the transaction.
func readJob(tx *badger.Txn, key []byte) (*core.Job, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var job *core.Job
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		job, unmarshalErr = storage.UnmarshalJob(val)
		return unmarshalErr
	})
	return job, err
}
