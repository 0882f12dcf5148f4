package messaging

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrPermanent marks a processing failure that redelivery cannot fix
var ErrPermanent = errors.New("permanent message failure")

// ErrNotConfigured is returned by SendCommand when Service Bus is disabled
var ErrNotConfigured = errors.New("Service Bus is not configured")

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

func (e *permanentError) Is(target error) bool { return target == ErrPermanent }

// Permanent wraps err so the consumer dead-letters the message instead of
// abandoning it. The wrapped error stays reachable through errors.Is/As.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or anything it wraps, is permanent
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// messageSettler is the part of *azservicebus.Receiver that settles messages
type messageSettler interface {
	CompleteMessage(ctx context.Context, message *azservicebus.ReceivedMessage, options *azservicebus.CompleteMessageOptions) error
	AbandonMessage(ctx context.Context, message *azservicebus.ReceivedMessage, options *azservicebus.AbandonMessageOptions) error
	DeadLetterMessage(ctx context.Context, message *azservicebus.ReceivedMessage, options *azservicebus.DeadLetterOptions) error
}

// handleMessage decodes and processes one message, then settles it.
// Undecodable bodies and permanent failures are dead-lettered, other
// failures are abandoned for redelivery.
func handleMessage(ctx context.Context, receiver messageSettler, processor MessageProcessor, message *azservicebus.ReceivedMessage) {
	var env Envelope
	if err := json.Unmarshal(message.Body, &env); err != nil {
		log.Error().Err(err).Str("message_id", message.MessageID).Msg("Dead-lettering undecodable message")
		deadLetter(ctx, receiver, message, "invalid envelope", err)
		return
	}

	err := processor.ProcessMessage(ctx, env)
	switch {
	case err == nil:
		if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
			log.Error().Err(err).Msg("(CompleteMessage) failed")
		}
	case IsPermanent(err):
		log.Error().Err(err).Str("message_id", message.MessageID).Str("type", env.Type).Msg("Dead-lettering rejected message")
		deadLetter(ctx, receiver, message, "rejected", err)
	default:
		log.Error().Err(err).Str("message_id", message.MessageID).Str("type", env.Type).Msg("Error processing message")
		if err := receiver.AbandonMessage(ctx, message, nil); err != nil {
			log.Error().Err(err).Msg("(AbandonMessage) failed")
		}
	}
}

func deadLetter(ctx context.Context, receiver messageSettler, message *azservicebus.ReceivedMessage, reason string, cause error) {
	description := cause.Error()
	opts := &azservicebus.DeadLetterOptions{Reason: &reason, ErrorDescription: &description}
	if err := receiver.DeadLetterMessage(ctx, message, opts); err != nil {
		log.Error().Err(err).Msg("(DeadLetterMessage) failed")
	}
}
