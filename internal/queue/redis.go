// Package queue is a Redis-backed at-least-once message queue with delayed
// redelivery and a dead-letter list.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Record is one delivered message. Raw is the exact payload held in the
// processing list and identifies the delivery for Ack and Requeue.
type Record struct {
	ID           string
	Body         []byte
	Raw          string
	ReceiveCount int
}

type envelope struct {
	ID           string          `json:"id"`
	Body         json.RawMessage `json:"body"`
	ReceiveCount int             `json:"receiveCount"`
	EnqueuedAt   time.Time       `json:"enqueuedAt"`
	Reason       string          `json:"reason,omitempty"`
}

// RedisQueue stores ready messages in a list, in-flight messages in a
// processing list and delayed redeliveries in a sorted set.
type RedisQueue struct {
	client      *redis.Client
	ready       string
	processing  string
	delayed     string
	dlq         string
	maxReceives int
	now         func() time.Time
}

// NewRedisQueue returns a queue named name. Messages delivered maxReceives
// times are dead-lettered instead of requeued.
func NewRedisQueue(client *redis.Client, name string, maxReceives int) *RedisQueue {
	if maxReceives < 1 {
		maxReceives = 1
	}
	return &RedisQueue{
		client:      client,
		ready:       name + ":ready",
		processing:  name + ":processing",
		delayed:     name + ":delayed",
		dlq:         name + ":dlq",
		maxReceives: maxReceives,
		now:         time.Now,
	}
}

// Publish enqueues body and returns the message id.
func (q *RedisQueue) Publish(ctx context.Context, body []byte) (string, error) {
	if !json.Valid(body) {
		return "", errors.New("queue: body must be valid JSON")
	}
	env := envelope{ID: uuid.NewString(), Body: body, EnqueuedAt: q.now().UTC()}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}

	retrier := retry.NewRetrier(3, 100*time.Millisecond, time.Second)
	err = retrier.Run(func() error {
		return q.client.LPush(ctx, q.ready, raw).Err()
	})
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", q.ready, err)
	}
	return env.ID, nil
}

// Receive moves up to max messages into the processing list, blocking for
// at most wait while the queue is empty. Due delayed messages are promoted
// first.
func (q *RedisQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]Record, error) {
	if max < 1 {
		max = 1
	}
	if err := q.promoteDue(ctx); err != nil {
		return nil, err
	}

	first, err := q.client.BLMove(ctx, q.ready, q.processing, "RIGHT", "LEFT", wait).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("receive from %s: %w", q.ready, err)
	}

	raws := []string{first}
	for len(raws) < max {
		raw, err := q.client.LMove(ctx, q.ready, q.processing, "RIGHT", "LEFT").Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("receive from %s: %w", q.ready, err)
		}
		raws = append(raws, raw)
	}

	// Valid records are returned even when dead-lettering a malformed one
	// fails; the caller must settle them either way.
	records := make([]Record, 0, len(raws))
	var errs []error
	for _, raw := range raws {
		rec, err := decodeRecord(raw)
		if err != nil {
			log.Error().Err(err).Str("queue", q.ready).Msg("moving malformed envelope to dead-letter list")
			if err := q.moveToDLQ(ctx, raw, raw); err != nil {
				errs = append(errs, fmt.Errorf("dead-letter malformed envelope: %w", err))
			}
			continue
		}
		records = append(records, rec)
	}
	return records, errors.Join(errs...)
}

// Ack removes delivered records from the processing list.
func (q *RedisQueue) Ack(ctx context.Context, records ...Record) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, rec := range records {
			pipe.LRem(ctx, q.processing, 1, rec.Raw)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ack: %w", err)
	}
	return nil
}

// Requeue schedules records for redelivery after delay. Records that have
// reached the receive limit go to the dead-letter list instead.
func (q *RedisQueue) Requeue(ctx context.Context, records []Record, delay time.Duration) error {
	for _, rec := range records {
		if rec.ReceiveCount >= q.maxReceives {
			if err := q.DeadLetter(ctx, rec, "max receives exceeded"); err != nil {
				return err
			}
			continue
		}

		raw, err := requeueEnvelope(rec, q.now())
		if err != nil {
			return err
		}
		due := float64(q.now().Add(delay).UnixMilli())
		_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LRem(ctx, q.processing, 1, rec.Raw)
			pipe.ZAdd(ctx, q.delayed, redis.Z{Score: due, Member: raw})
			return nil
		})
		if err != nil {
			return fmt.Errorf("requeue %s: %w", rec.ID, err)
		}
	}
	return nil
}

// DeadLetter moves rec to the dead-letter list with reason.
func (q *RedisQueue) DeadLetter(ctx context.Context, rec Record, reason string) error {
	raw, err := json.Marshal(envelope{
		ID:           rec.ID,
		Body:         rec.Body,
		ReceiveCount: rec.ReceiveCount,
		EnqueuedAt:   q.now().UTC(),
		Reason:       reason,
	})
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	if err := q.moveToDLQ(ctx, rec.Raw, string(raw)); err != nil {
		return fmt.Errorf("dead-letter %s: %w", rec.ID, err)
	}
	log.Warn().Str("message_id", rec.ID).Str("reason", reason).Int("receive_count", rec.ReceiveCount).Msg("message dead-lettered")
	return nil
}

// DeadLetterDepth returns the number of dead-lettered messages.
func (q *RedisQueue) DeadLetterDepth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.dlq).Result()
}

func (q *RedisQueue) moveToDLQ(ctx context.Context, processingRaw, dlqRaw string) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processing, 1, processingRaw)
		pipe.LPush(ctx, q.dlq, dlqRaw)
		return nil
	})
	return err
}

// promoteScript moves up to ARGV[2] members of the delayed set scored at
// or below ARGV[1] onto the ready list in one atomic step.
var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
for _, member in ipairs(due) do
	redis.call('ZREM', KEYS[1], member)
	redis.call('LPUSH', KEYS[2], member)
end
return #due
`)

const promoteBatch = 100

// promoteDue moves delayed messages whose time has come to the ready list.
func (q *RedisQueue) promoteDue(ctx context.Context) error {
	now := strconv.FormatInt(q.now().UnixMilli(), 10)
	err := promoteScript.Run(ctx, q.client, []string{q.delayed, q.ready}, now, promoteBatch).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("promote delayed: %w", err)
	}
	return nil
}

// decodeRecord parses a stored envelope and counts the current delivery.
func decodeRecord(raw string) (Record, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Record{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.ID == "" {
		return Record{}, errors.New("decode envelope: missing id")
	}
	return Record{
		ID:           env.ID,
		Body:         env.Body,
		Raw:          raw,
		ReceiveCount: env.ReceiveCount + 1,
	}, nil
}

// requeueEnvelope re-encodes rec so that its next delivery sees the updated
// receive count.
func requeueEnvelope(rec Record, now time.Time) (string, error) {
	raw, err := json.Marshal(envelope{
		ID:           rec.ID,
		Body:         rec.Body,
		ReceiveCount: rec.ReceiveCount,
		EnqueuedAt:   now.UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return string(raw), nil
}
