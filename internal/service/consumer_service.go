package service

import (
	"context"
	"encoding/json"
	"log"

	"prepxl-be/internal/dto"
	"prepxl-be/pkg/events"
	pktNats "prepxl-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process event topic and forwards each event
// to the NATS bus for downstream consumers (analytics, notifications).
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	eventPublisher *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	eventPublisher *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		eventPublisher: eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var envelope dto.SessionEventMessage
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		log.Printf("[ERROR] Failed to unmarshal event message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if cs.eventPublisher == nil {
		// No bus configured; the event served its in-process purpose
		msg.Ack()
		return
	}

	evt := events.BaseEvent{
		Type:       envelope.Type,
		Data:       envelope.Payload,
		OccurredAt: envelope.OccurredAt,
	}
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		log.Printf("[ERROR] Failed to forward event %s to bus: %v", envelope.Type, err)
		msg.Nack() // Nack for retriable errors
		return
	}

	msg.Ack()
}
