package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/datamatch/datamatch/internal/resilience"
)

// Sender delivers one encoded message and returns the broker's message ID.
type Sender interface {
	Send(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// Publisher sends profile change events through a resilient executor.
// It implements profile.ChangeNotifier.
type Publisher struct {
	sender   Sender
	executor *resilience.Executor
	logger   zerolog.Logger
	now      func() time.Time
}

// NewPublisher creates a publisher over any Sender.
func NewPublisher(sender Sender, executor *resilience.Executor, logger zerolog.Logger) *Publisher {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultExecutorConfig("events"))
	}
	return &Publisher{
		sender:   sender,
		executor: executor,
		logger:   logger,
		now:      time.Now,
	}
}

// ProfileChanged publishes a profile_updated event.
func (p *Publisher) ProfileChanged(ctx context.Context, profileID string) error {
	return p.Publish(ctx, Message{JobType: JobProfileUpdated, ProfileID: profileID})
}

// Publish sends a message, filling in the event ID and timestamp.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	if msg.EventID == "" {
		msg.EventID = "evt_" + uuid.New().String()[:22]
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = p.now().UTC()
	}

	data, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	attrs := map[string]string{"job_type": msg.JobType}

	var id string
	err = p.executor.Do(ctx, func(ctx context.Context) error {
		id, err = p.sender.Send(ctx, data, attrs)
		return err
	})
	if err != nil {
		return fmt.Errorf("publishing %s event: %w", msg.JobType, err)
	}

	p.logger.Debug().
		Str("event_id", msg.EventID).
		Str("message_id", id).
		Str("job_type", msg.JobType).
		Str("profile_id", msg.ProfileID).
		Msg("event published")
	return nil
}

// PubSubConfig holds configuration for a Pub/Sub backed publisher.
type PubSubConfig struct {
	ProjectID string
	Topic     string
	Executor  *resilience.Executor
	Logger    zerolog.Logger
}

// PubSubSender sends messages to a Pub/Sub topic.
type PubSubSender struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
}

// NewPubSubPublisher connects to Pub/Sub and returns a publisher for the
// topic. Close the returned sender on shutdown.
func NewPubSubPublisher(ctx context.Context, cfg PubSubConfig) (*Publisher, *PubSubSender, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	sender := &PubSubSender{
		client:    client,
		publisher: client.Publisher(cfg.Topic),
	}
	return NewPublisher(sender, cfg.Executor, cfg.Logger), sender, nil
}

// Send publishes and waits for the server acknowledgement.
func (s *PubSubSender) Send(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	return s.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
}

// Close flushes pending messages and closes the client.
func (s *PubSubSender) Close() error {
	s.publisher.Stop()
	return s.client.Close()
}

// LogNotifier records profile changes in the log only. It is used when no
// broker is configured.
type LogNotifier struct {
	Logger zerolog.Logger
}

// ProfileChanged logs the change.
func (n LogNotifier) ProfileChanged(_ context.Context, profileID string) error {
	n.Logger.Debug().Str("profile_id", profileID).Msg("profile changed")
	return nil
}

// Notifier is told about profile changes. It matches
// profile.ChangeNotifier.
type Notifier interface {
	ProfileChanged(ctx context.Context, profileID string) error
}

// Fanout forwards each change to every notifier in order. All notifiers run
// even when one fails; the failures are joined.
type Fanout []Notifier

// ProfileChanged notifies every member of the fanout.
func (f Fanout) ProfileChanged(ctx context.Context, profileID string) error {
	var errs []error
	for _, n := range f {
		if err := n.ProfileChanged(ctx, profileID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
