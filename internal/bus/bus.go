package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-finance/preflight/internal/domain"
	"github.com/opensource-finance/preflight/internal/logging"
)

// MetadataRequestID carries the HTTP request id of the analysis that
// produced an event, so consumers can correlate it with API logs.
const MetadataRequestID = "request_id"

// New creates a new event bus based on configuration.
// "none" (or empty) disables publication and returns a nil bus.
// "channel" keeps events in process; "nats" fans them out to other services.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil

	case "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		b, err := NewNATSBus(cfg)
		if err != nil {
			return nil, err
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}

func newMessage(ctx context.Context, topic string, payload []byte) *domain.Message {
	msg := &domain.Message{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   payload,
		Metadata:  make(map[string]string),
		Timestamp: time.Now().UnixNano(),
	}
	if id := logging.RequestID(ctx); id != "" {
		msg.Metadata[MetadataRequestID] = id
	}
	return msg
}

// handlerContext restores the publisher's request id for the handler.
func handlerContext(ctx context.Context, msg *domain.Message) context.Context {
	if id := msg.Metadata[MetadataRequestID]; id != "" {
		return logging.WithRequestID(ctx, id)
	}
	return ctx
}
