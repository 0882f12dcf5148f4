package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettler struct {
	completed    int
	abandoned    int
	deadLettered int
	reason       string
}

func (f *fakeSettler) CompleteMessage(context.Context, *azservicebus.ReceivedMessage, *azservicebus.CompleteMessageOptions) error {
	f.completed++
	return nil
}

func (f *fakeSettler) AbandonMessage(context.Context, *azservicebus.ReceivedMessage, *azservicebus.AbandonMessageOptions) error {
	f.abandoned++
	return nil
}

func (f *fakeSettler) DeadLetterMessage(_ context.Context, _ *azservicebus.ReceivedMessage, opts *azservicebus.DeadLetterOptions) error {
	f.deadLettered++
	if opts != nil && opts.Reason != nil {
		f.reason = *opts.Reason
	}
	return nil
}

func commandMessage(t *testing.T) *azservicebus.ReceivedMessage {
	env, err := NewEnvelope(CommandReportRequested, uuid.New(), map[string]string{"report_type": "production"})
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return &azservicebus.ReceivedMessage{MessageID: env.ID, Body: body}
}

func TestHandleMessageSettlement(t *testing.T) {
	tests := []struct {
		name         string
		body         []byte
		processErr   error
		completed    int
		abandoned    int
		deadLettered int
		reason       string
	}{
		{name: "success completes", completed: 1},
		{name: "transient failure is abandoned", processErr: errors.New("database unavailable"), abandoned: 1},
		{name: "permanent failure is dead-lettered", processErr: Permanent(errors.New("unknown report type")), deadLettered: 1, reason: "rejected"},
		{name: "wrapped permanent failure is dead-lettered", processErr: fmt.Errorf("handling: %w", Permanent(errors.New("bad payload"))), deadLettered: 1, reason: "rejected"},
		{name: "undecodable body is dead-lettered", body: []byte("{not json"), deadLettered: 1, reason: "invalid envelope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message := commandMessage(t)
			if tt.body != nil {
				message.Body = tt.body
			}
			settler := &fakeSettler{}
			called := false
			processor := ProcessorFunc(func(_ context.Context, env Envelope) error {
				called = true
				assert.Equal(t, CommandReportRequested, env.Type)
				return tt.processErr
			})

			handleMessage(context.Background(), settler, processor, message)

			assert.Equal(t, tt.completed, settler.completed)
			assert.Equal(t, tt.abandoned, settler.abandoned)
			assert.Equal(t, tt.deadLettered, settler.deadLettered)
			assert.Equal(t, tt.reason, settler.reason)
			assert.Equal(t, tt.body == nil, called)
		})
	}
}

func TestPermanent(t *testing.T) {
	cause := errors.New("schedule not found")
	err := Permanent(cause)

	assert.True(t, IsPermanent(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "schedule not found", err.Error())
	assert.False(t, IsPermanent(cause))
	assert.NoError(t, Permanent(nil))
}
