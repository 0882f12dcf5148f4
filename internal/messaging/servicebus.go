package messaging

import (
	"context"
	"encoding/json"
	"time"

	"example.com/textile/erp/config"
	"example.com/textile/erp/internal/metrics"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Event types published on the events queue
const (
	EventOrderCreated      = "production.order_created"
	EventStageChanged      = "production.stage_changed"
	EventFoldingRecorded   = "folding.recorded"
	EventStockMoved        = "inventory.stock_moved"
	EventLowStock          = "inventory.low_stock"
	EventDispatchChanged   = "dispatch.status_changed"
	EventReportGenerated   = "report.generated"
	CommandReportRequested = "report.requested"
)

// Envelope is the JSON body of every message
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload for the given event type
func NewEnvelope(eventType string, tenantID uuid.UUID, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, errors.Wrap(err, "failed to marshal message payload")
	}
	return Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		TenantID:   tenantID,
		OccurredAt: time.Now().UTC(),
		Payload:    data,
	}, nil
}

// Publisher emits domain events
type Publisher interface {
	Publish(ctx context.Context, eventType string, tenantID uuid.UUID, payload interface{}) error
}

// CommandSender queues work for the worker
type CommandSender interface {
	SendCommand(ctx context.Context, commandType string, tenantID uuid.UUID, payload interface{}) error
}

// ServiceBusClient publishes events and consumes commands over Azure Service Bus
type ServiceBusClient struct {
	client        *azservicebus.Client
	sender        *azservicebus.Sender
	commandsQueue string
	metrics       *metrics.Metrics
}

// NewServiceBusClient creates a new Azure Service Bus client. Without a
// connection string the client is disabled and Publish is a no-op.
func NewServiceBusClient(cfg config.ServiceBusConfig, m *metrics.Metrics) (*ServiceBusClient, error) {
	if cfg.ConnectionString == "" {
		log.Warn().Msg("Service Bus connection string not provided, events will not be published")
		return &ServiceBusClient{metrics: m}, nil
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.EventsQueue, nil)
	if err != nil {
		_ = client.Close(context.Background())
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &ServiceBusClient{
		client:        client,
		sender:        sender,
		commandsQueue: cfg.CommandsQueue,
		metrics:       m,
	}, nil
}

// Enabled reports whether messages actually leave the process
func (s *ServiceBusClient) Enabled() bool {
	return s != nil && s.client != nil
}

// Publish sends an event to the events queue
func (s *ServiceBusClient) Publish(ctx context.Context, eventType string, tenantID uuid.UUID, payload interface{}) error {
	if !s.Enabled() {
		log.Debug().Str("type", eventType).Msg("Service Bus disabled, dropping event")
		return nil
	}

	env, err := NewEnvelope(eventType, tenantID, payload)
	if err != nil {
		return err
	}
	return s.send(ctx, s.sender, env)
}

// SendCommand puts a command on the commands queue
func (s *ServiceBusClient) SendCommand(ctx context.Context, commandType string, tenantID uuid.UUID, payload interface{}) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}

	env, err := NewEnvelope(commandType, tenantID, payload)
	if err != nil {
		return err
	}

	sender, err := s.client.NewSender(s.commandsQueue, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create Service Bus command sender")
	}
	defer sender.Close(ctx)

	return s.send(ctx, sender, env)
}

func (s *ServiceBusClient) send(ctx context.Context, sender *azservicebus.Sender, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message body")
	}

	contentType := "application/json"
	msg := &azservicebus.Message{
		Body:        data,
		MessageID:   &env.ID,
		ContentType: &contentType,
		Subject:     &env.Type,
		ApplicationProperties: map[string]interface{}{
			"type":      env.Type,
			"tenant_id": env.TenantID.String(),
			"time":      env.OccurredAt.Format(time.RFC3339),
		},
	}

	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		s.metrics.IncrementCounter(metrics.EventsFailed)
		return errors.Wrapf(err, "failed to send %s message", env.Type)
	}
	s.metrics.IncrementCounter(metrics.EventsPublished)
	return nil
}

// MessageProcessor handles one decoded message
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, env Envelope) error
}

// ProcessorFunc adapts a function to MessageProcessor
type ProcessorFunc func(ctx context.Context, env Envelope) error

// ProcessMessage calls f
func (f ProcessorFunc) ProcessMessage(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}

// ConsumeCommands receives from the commands queue until ctx is cancelled.
// Failed messages are abandoned so Service Bus redelivers them, unless the
// processor marks the failure Permanent.
func (s *ServiceBusClient) ConsumeCommands(ctx context.Context, processor MessageProcessor) error {
	if !s.Enabled() {
		log.Info().Msg("Service Bus disabled, command consumer not started")
		<-ctx.Done()
		return nil
	}

	receiver, err := s.client.NewReceiverForQueue(s.commandsQueue, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create Service Bus receiver")
	}
	defer func() {
		if err := receiver.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Error closing Service Bus receiver")
		}
	}()

	log.Info().Str("queue", s.commandsQueue).Msg("Consuming commands")

	for {
		messages, err := receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("Error receiving messages")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(2 * time.Second):
			}
			continue
		}

		for _, message := range messages {
			handleMessage(ctx, receiver, processor, message)
		}
	}
}

// Close closes the Service Bus client
func (s *ServiceBusClient) Close() error {
	if !s.Enabled() {
		return nil
	}
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}
	return s.client.Close(context.Background())
}
