// Package worker consumes queued notifications and sends them as emails.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/event-registration/internal/email"
	"github.com/Shivanand-hulikatti/event-registration/internal/metrics"
	"github.com/Shivanand-hulikatti/event-registration/internal/notification"
	"github.com/Shivanand-hulikatti/event-registration/internal/queue"
)

// Config selects the sender identity and the provider template per kind.
type Config struct {
	From      email.Address
	Templates map[notification.TemplateKind]string
}

// EmailWorker turns queue records into templated emails.
type EmailWorker struct {
	sender email.Sender
	cfg    Config
}

// NewEmailWorker constructs an EmailWorker.
func NewEmailWorker(sender email.Sender, cfg Config) *EmailWorker {
	return &EmailWorker{sender: sender, cfg: cfg}
}

// ProcessMessage validates, transforms and sends one record.
func (w *EmailWorker) ProcessMessage(ctx context.Context, rec queue.Record) error {
	msg, err := notification.ParseAndValidate(rec.Body)
	if err != nil {
		return err
	}
	tmpl, err := notification.Transform(msg)
	if err != nil {
		return err
	}

	templateID := w.cfg.Templates[tmpl.Kind]
	if templateID == "" {
		return fmt.Errorf("%w: no template for %s emails", email.ErrNotConfigured, tmpl.Kind)
	}
	data, err := templateData(tmpl.Data)
	if err != nil {
		return Permanent(err)
	}

	providerID, err := w.sender.SendTemplatedEmail(ctx, email.TemplatedEmail{
		From:         w.cfg.From,
		To:           email.Address{Email: tmpl.To},
		Subject:      tmpl.Subject,
		TemplateID:   templateID,
		TemplateData: data,
	})
	if err != nil {
		return fmt.Errorf("send %s email: %w", tmpl.Kind, err)
	}

	log.Info().
		Str("message_id", rec.ID).
		Str("reservation_id", msg.ReservationID).
		Str("template", string(tmpl.Kind)).
		Str("provider_message_id", providerID).
		Msg("notification email sent")
	return nil
}

// BatchResult partitions a processed batch.
type BatchResult struct {
	Succeeded  []queue.Record
	Retry      []Failure
	DeadLetter []Failure
}

// Err returns a *BatchError when any record needs redelivery.
func (r BatchResult) Err() error {
	if len(r.Retry) == 0 {
		return nil
	}
	return &BatchError{Retry: r.Retry, DeadLetter: r.DeadLetter}
}

// HandleBatch processes records concurrently. It returns a *BatchError when
// any record needs redelivery; records that can never succeed are only
// logged.
func (w *EmailWorker) HandleBatch(ctx context.Context, records []queue.Record) error {
	return w.processBatch(ctx, records).Err()
}

func (w *EmailWorker) processBatch(ctx context.Context, records []queue.Record) BatchResult {
	errs := make([]error, len(records))
	var g errgroup.Group
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			errs[i] = w.ProcessMessage(ctx, rec)
			return nil
		})
	}
	_ = g.Wait()

	var res BatchResult
	for i, rec := range records {
		err := errs[i]
		if err == nil {
			res.Succeeded = append(res.Succeeded, rec)
			metrics.EmailsProcessed.WithLabelValues("sent").Inc()
			continue
		}

		outcome := Classify(err)
		failure := Failure{Record: rec, Err: err, Outcome: outcome}
		if outcome.Retryable {
			res.Retry = append(res.Retry, failure)
			metrics.EmailsProcessed.WithLabelValues("retry").Inc()
			log.Warn().Err(err).
				Str("message_id", rec.ID).
				Int("receive_count", rec.ReceiveCount).
				Str("reason", outcome.Reason).
				Dur("delay", outcome.Delay).
				Msg("notification will be retried")
			continue
		}

		res.DeadLetter = append(res.DeadLetter, failure)
		metrics.EmailsProcessed.WithLabelValues("dead_letter").Inc()
		log.Error().Err(err).
			Str("message_id", rec.ID).
			Str("reason", outcome.Reason).
			Msg("notification cannot be delivered")
	}
	return res
}

func templateData(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode template data: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("encode template data: %w", err)
	}
	return data, nil
}
