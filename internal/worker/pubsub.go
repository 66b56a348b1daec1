package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/datamatch/datamatch/internal/events"
	"github.com/datamatch/datamatch/internal/match"
	"github.com/datamatch/datamatch/internal/resilience"
)

// ErrMalformedMessage is returned for payloads that cannot be decoded or
// lack required fields. Such messages are acknowledged and dropped.
var ErrMalformedMessage = errors.New("malformed message")

// Dispatcher runs the job a message asks for.
type Dispatcher struct {
	job      *RefreshJob
	registry *resilience.Registry
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher. The registry is optional and is
// consulted by health checks.
func NewDispatcher(job *RefreshJob, registry *resilience.Registry, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{job: job, registry: registry, logger: logger}
}

// Handle decodes and runs one message.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) error {
	msg, err := events.Decode(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch msg.JobType {
	case events.JobProfileUpdated:
		if msg.ProfileID == "" {
			return fmt.Errorf("%w: profile_updated without profile_id", ErrMalformedMessage)
		}
		err := d.job.RefreshOne(ctx, msg.ProfileID)
		if errors.Is(err, match.ErrMissingUser) {
			// Deleted before we got to it.
			d.logger.Debug().Str("profile_id", msg.ProfileID).Msg("profile gone, skipping refresh")
			return nil
		}
		return err

	case events.JobSuggestionsRefresh:
		result, err := d.job.Run(ctx)
		if err != nil {
			return err
		}
		if result.Failed > result.Successful {
			return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.Total)
		}
		return nil

	case events.JobHealthCheck:
		return d.healthCheck()

	default:
		d.logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return nil
	}
}

func (d *Dispatcher) healthCheck() error {
	if d.registry == nil {
		return nil
	}
	for _, h := range d.registry.AllHealth() {
		if h.IsUnhealthy() {
			return fmt.Errorf("health check failed: %s circuit is open", h.Name)
		}
	}
	return nil
}

// PubSubHandler receives worker messages from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Dispatcher       *Dispatcher
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}, nil
}

// Start processes messages until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()
	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("job_type", msg.Attributes["job_type"]).
		Logger()

	err := h.dispatcher.Handle(ctx, msg.Data)
	switch {
	case errors.Is(err, ErrMalformedMessage):
		logger.Error().Err(err).Msg("dropping malformed message")
		msg.Ack()
	case err != nil:
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
	default:
		logger.Info().Dur("duration", time.Since(startTime)).Msg("job completed")
		msg.Ack()
	}
}
