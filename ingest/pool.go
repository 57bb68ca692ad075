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


package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/lectern-app/lectern/core"
	"github.com/lectern-app/lectern/storage"
)

// Pool is the fixed-size ingestion worker pool. A dispatcher claims
// jobs from the queue under a rate limiter and hands each job to a
// worker; the worker runs the pipeline, keeps the lease renewed, and
// acks or fails the job when done.
type Pool struct {
	queue    storage.JobQueue
	pipeline *Pipeline
	cfg      Config

	workers *ants.Pool
	limiter *rate.Limiter
	logger  *slog.Logger

	seq uint64 // worker id counter
	wg  sync.WaitGroup
}

// NewPool creates a worker pool over the queue and pipeline.
func NewPool(queue storage.JobQueue, pipeline *Pipeline, cfg Config) (*Pool, error) {
	if queue == nil {
		return nil, ErrQueueRequired
	}
	if pipeline == nil {
		return nil, errors.New("pipeline required")
	}
	cfg.Normalize()

	// Blocking submit keeps total in-flight jobs at the pool size; the
	// dispatcher simply stalls when every worker is busy.
	workers, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, err
	}

	return &Pool{
		queue:    queue,
		pipeline: pipeline,
		cfg:      cfg,
		workers:  workers,
		limiter:  rate.NewLimiter(cfg.ClaimRate, 1),
		logger:   slog.Default().With("component", "worker-pool"),
	}, nil
}

// Run claims and processes jobs until ctx is cancelled. There is no
// mid-job cancellation: jobs already handed to a worker run to
// completion or failure before Run returns.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info("worker pool running",
		"workers", p.cfg.Workers,
		"lease", p.cfg.LeaseDuration.String(),
		"claim_rate", float64(p.cfg.ClaimRate))

	for {
		if err := p.limiter.Wait(ctx); err != nil {
			break
		}

		job, err := p.queue.Claim(ctx, p.nextWorkerID(), p.cfg.LeaseDuration)
		if err != nil {
			p.logger.Error("claim failed", "err", err)
			if !sleepCtx(ctx, p.cfg.PollInterval) {
				break
			}
			continue
		}
		if job == nil {
			if !sleepCtx(ctx, p.cfg.PollInterval) {
				break
			}
			continue
		}

		p.wg.Add(1)
		submitErr := p.workers.Submit(func() {
			defer p.wg.Done()
			p.execute(job)
		})
		if submitErr != nil {
			p.wg.Done()
			p.logger.Error("submitting job to worker pool", "err", submitErr)
			// Leave the job leased; the lease will expire and requeue it
		}
	}

	p.wg.Wait()
	return ctx.Err()
}

// execute runs one job to completion. The job context is deliberately
// detached from Run's: cancellation stops claiming, not in-flight work.
func (p *Pool) execute(job *core.Job) {
	ctx := context.Background()

	renewCtx, stopRenewal := context.WithCancel(ctx)
	defer stopRenewal()
	go p.renewLease(renewCtx, job)

	err := p.pipeline.Process(ctx, job)
	switch {
	case err == nil, errors.Is(err, errDocumentGone), errors.Is(err, errJobStale):
		if ackErr := p.queue.Ack(ctx, job.Id); ackErr != nil {
			p.logger.Error("acking job", "err", ackErr, "job_id", uint64(job.Id))
		}
	default:
		requeued, failErr := p.queue.Fail(ctx, job.Id, err)
		if failErr != nil {
			p.logger.Error("failing job", "err", failErr, "job_id", uint64(job.Id))
			return
		}
		if !requeued {
			p.exhaust(ctx, job, err)
		}
	}
}

// exhaust marks the document's failure terminal once the queue stops
// retrying: the recorded error gains the exhausted kind so status
// polling can distinguish "will retry" from "gave up".
func (p *Pool) exhaust(ctx context.Context, job *core.Job, cause error) {
	doc, err := p.pipeline.documents.GetDocument(ctx, job.DocumentId)
	if err != nil {
		return
	}
	procErr := core.AsProcessingError(cause)
	doc.Failure = &core.ProcessingError{
		Kind:    core.KindExhausted,
		Message: procErr.Message,
		Attempt: job.Attempts + 1,
	}
	if err := p.pipeline.documents.UpdateDocument(ctx, doc); err != nil {
		p.logger.Error("recording exhaustion", "err", err, "document_id", uint64(doc.Id))
	}
}

// renewLease extends the job's lease periodically until the worker is
// done. Losing the lease means another worker took the job over after
// an expiry; this worker's queue operations will then fail cleanly.
func (p *Pool) renewLease(ctx context.Context, job *core.Job) {
	interval := p.cfg.LeaseDuration / 3
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := p.queue.ExtendLease(ctx, job.Id, job.WorkerId, p.cfg.LeaseDuration)
			if err != nil {
				p.logger.Warn("lease renewal failed", "err", err, "job_id", uint64(job.Id))
				return
			}
		}
	}
}

// Release shuts the worker pool down after in-flight jobs finish.
func (p *Pool) Release() {
	p.wg.Wait()
	p.workers.Release()
}

func (p *Pool) nextWorkerID() string {
	return fmt.Sprintf("worker-%d", atomic.AddUint64(&p.seq, 1))
}

// sleepCtx sleeps for d or until ctx is cancelled. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
