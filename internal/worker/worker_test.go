package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-registration/internal/email"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/notification"
	"github.com/Shivanand-hulikatti/event-registration/internal/queue"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []email.TemplatedEmail
	errFn func(email.TemplatedEmail) error
}

func (f *fakeSender) SendTemplatedEmail(_ context.Context, msg email.TemplatedEmail) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errFn != nil {
		if err := f.errFn(msg); err != nil {
			return "", err
		}
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("sg-%d", len(f.sent)), nil
}

func (f *fakeSender) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testConfig() Config {
	return Config{
		From: email.Address{Name: "Races", Email: "noreply@example.com"},
		Templates: map[notification.TemplateKind]string{
			notification.TemplateIndividual:   "d-individual",
			notification.TemplateTeam:         "d-team",
			notification.TemplateConfirmation: "d-confirmation",
		},
	}
}

func individualRecord(t *testing.T, id, to string) queue.Record {
	t.Helper()
	msg := notification.NewRegistrationSuccess(
		model.Reservation{ID: "R-" + id, Type: model.RegistrationIndividual, RegistrationFee: 20},
		model.Event{ID: "E1", Title: "Spring 10K", Date: time.Date(2026, 4, 5, 8, 0, 0, 0, time.UTC), Location: "Harbor"},
		[]model.Participant{{Email: to, FirstName: "Ann", LastName: "Lee"}},
		time.Now(),
	)
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return queue.Record{ID: id, Body: body, Raw: id, ReceiveCount: 1}
}

func teamRecordWithoutMembers(t *testing.T) queue.Record {
	t.Helper()
	body := []byte(`{
		"type": "registration_success",
		"registrationType": "team",
		"reservationId": "R-team",
		"participant": {"email": "cap@example.com", "firstName": "Cap"},
		"event": {"name": "Relay", "date": "2026-09-12", "time": "07:30", "location": "Park"},
		"payment": {"amount": 40, "reference": "R-team"},
		"team": {"name": "Rockets"}
	}`)
	return queue.Record{ID: "team", Body: body, Raw: "team", ReceiveCount: 1}
}

func TestProcessMessageSendsTemplate(t *testing.T) {
	sender := &fakeSender{}
	w := NewEmailWorker(sender, testConfig())

	require.NoError(t, w.ProcessMessage(context.Background(), individualRecord(t, "m1", "ann@example.com")))
	require.Equal(t, 1, sender.calls())

	sent := sender.sent[0]
	assert.Equal(t, "d-individual", sent.TemplateID)
	assert.Equal(t, "ann@example.com", sent.To.Email)
	assert.Equal(t, "noreply@example.com", sent.From.Email)
	assert.Equal(t, "Spring 10K", sent.TemplateData["eventName"])
	assert.Equal(t, 20.0, sent.TemplateData["amount"])
}

func TestMissingTeamMembersIsNotRetried(t *testing.T) {
	sender := &fakeSender{}
	w := NewEmailWorker(sender, testConfig())

	rec := teamRecordWithoutMembers(t)
	err := w.ProcessMessage(context.Background(), rec)
	require.Error(t, err)
	assert.True(t, notification.IsValidationError(err))
	assert.False(t, Classify(err).Retryable)

	assert.NoError(t, w.HandleBatch(context.Background(), []queue.Record{rec}))
	assert.Zero(t, sender.calls())
}

func TestTimeoutFailsWholeBatch(t *testing.T) {
	sender := &fakeSender{errFn: func(msg email.TemplatedEmail) error {
		if msg.To.Email == "slow@example.com" {
			return &email.TransportError{Code: email.CodeTimedOut, Err: context.DeadlineExceeded}
		}
		return nil
	}}
	w := NewEmailWorker(sender, testConfig())

	records := []queue.Record{
		individualRecord(t, "ok", "ann@example.com"),
		individualRecord(t, "slow", "slow@example.com"),
		teamRecordWithoutMembers(t),
	}
	err := w.HandleBatch(context.Background(), records)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Retry, 1)
	assert.Equal(t, "slow", batchErr.Retry[0].Record.ID)
	assert.Equal(t, 60*time.Second, batchErr.MaxDelay())
	require.Len(t, batchErr.DeadLetter, 1)
	assert.Equal(t, "team", batchErr.DeadLetter[0].Record.ID)
	assert.Equal(t, 1, sender.calls())
}

func TestMissingTemplateIsConfigurationError(t *testing.T) {
	cfg := testConfig()
	delete(cfg.Templates, notification.TemplateIndividual)
	w := NewEmailWorker(&fakeSender{}, cfg)

	err := w.ProcessMessage(context.Background(), individualRecord(t, "m1", "ann@example.com"))
	require.ErrorIs(t, err, email.ErrNotConfigured)
	assert.Equal(t, Outcome{Reason: "configuration"}, Classify(err))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"validation", &notification.ValidationError{Field: "type", Reason: "is required"}, Outcome{Reason: "validation"}},
		{"not configured", fmt.Errorf("send: %w", email.ErrNotConfigured), Outcome{Reason: "configuration"}},
		{"permanent", Permanent(errors.New("bad data")), Outcome{Reason: "permanent"}},
		{"timeout", &email.TransportError{Code: email.CodeTimedOut}, Outcome{Retryable: true, Delay: 60 * time.Second, Reason: "network ETIMEDOUT"}},
		{"reset", fmt.Errorf("send: %w", &email.TransportError{Code: email.CodeConnReset}), Outcome{Retryable: true, Delay: 60 * time.Second, Reason: "network ECONNRESET"}},
		{"throttled", &email.APIError{StatusCode: 429, Retryable: true}, Outcome{Retryable: true, Delay: 30 * time.Second, Reason: "api status 429"}},
		{"rejected", &email.APIError{StatusCode: 400}, Outcome{Reason: "api status 400"}},
		{"unknown", errors.New("something odd"), Outcome{Retryable: true, Delay: 30 * time.Second, Reason: "unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestPermanent(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	cause := errors.New("cause")
	err := Permanent(cause)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsPermanent(cause))
}
