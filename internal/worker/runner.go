package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Shivanand-hulikatti/event-registration/internal/queue"
)

// Consumer is the queue side of the runner.
type Consumer interface {
	Receive(ctx context.Context, max int, wait time.Duration) ([]queue.Record, error)
	Ack(ctx context.Context, records ...queue.Record) error
	Requeue(ctx context.Context, records []queue.Record, delay time.Duration) error
	DeadLetter(ctx context.Context, rec queue.Record, reason string) error
}

// Runner polls the queue and feeds batches to the email worker.
type Runner struct {
	queue     Consumer
	worker    *EmailWorker
	batchSize int
	wait      time.Duration
	backoff   time.Duration
}

// NewRunner constructs a Runner.
func NewRunner(q Consumer, w *EmailWorker, batchSize int, wait time.Duration) *Runner {
	if batchSize < 1 {
		batchSize = 1
	}
	if wait <= 0 {
		wait = time.Second
	}
	return &Runner{queue: q, worker: w, batchSize: batchSize, wait: wait, backoff: time.Second}
}

// settleTimeout bounds acking a batch once the runner's context is gone.
const settleTimeout = 5 * time.Second

// Run processes batches until ctx is canceled. A batch in flight when ctx
// is canceled is still settled, so its records are acked or scheduled for
// redelivery.
func (r *Runner) Run(ctx context.Context) error {
	log.Info().Int("batch_size", r.batchSize).Dur("wait", r.wait).Msg("notification worker started")
	for {
		if ctx.Err() != nil {
			log.Info().Msg("notification worker stopped")
			return nil
		}

		records, err := r.queue.Receive(ctx, r.batchSize, r.wait)
		if err != nil && len(records) == 0 {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				continue
			}
			log.Error().Err(err).Msg("receive batch")
			select {
			case <-ctx.Done():
			case <-time.After(r.backoff):
			}
			continue
		}
		if err != nil {
			log.Error().Err(err).Int("received", len(records)).Msg("receive batch partially failed")
		}
		if len(records) == 0 {
			continue
		}

		res := r.worker.processBatch(ctx, records)
		settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
		r.settle(settleCtx, res)
		cancel()
	}
}

// settle acknowledges, dead-letters and requeues the records of one batch.
func (r *Runner) settle(ctx context.Context, res BatchResult) {
	if len(res.Succeeded) > 0 {
		if err := r.queue.Ack(ctx, res.Succeeded...); err != nil {
			log.Error().Err(err).Int("count", len(res.Succeeded)).Msg("ack batch")
		}
	}
	for _, f := range res.DeadLetter {
		if err := r.queue.DeadLetter(ctx, f.Record, f.Outcome.Reason+": "+f.Err.Error()); err != nil {
			log.Error().Err(err).Str("message_id", f.Record.ID).Msg("dead-letter message")
		}
	}

	var batchErr *BatchError
	if !errors.As(res.Err(), &batchErr) {
		return
	}
	retry := make([]queue.Record, len(batchErr.Retry))
	for i, f := range batchErr.Retry {
		retry[i] = f.Record
	}
	if err := r.queue.Requeue(ctx, retry, batchErr.MaxDelay()); err != nil {
		log.Error().Err(err).Int("count", len(retry)).Msg("requeue batch")
	}
}
