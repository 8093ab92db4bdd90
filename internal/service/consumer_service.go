package service

import (
	"context"
	"encoding/json"
	"time"

	"agent-learning-be/internal/dto"
	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/pkg/logger"
	"agent-learning-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// IConsumerService drains cycle-completed messages off the in-process bus
// and persists them as learning_metrics rows, keeping the write off the
// scheduler's hot path.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	sysLogger  logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	sysLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		sysLogger:  sysLogger,
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
	var payload dto.CycleCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.sysLogger.Error("consumer", "Failed to unmarshal cycle message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // invalid payloads are never retriable
		return
	}

	metrics := payload.Metrics
	if metrics == nil {
		metrics = map[string]interface{}{}
	}
	metrics["duration_ms"] = payload.DurationMs

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	record := &entity.LearningMetric{
		Id:        uuid.New(),
		CycleType: payload.CycleType,
		Metrics:   metrics,
		CreatedAt: time.Now(),
	}
	if err := uow.LearningMetricRepository().Create(ctx, record); err != nil {
		cs.sysLogger.Error("consumer", "Failed to persist cycle metrics", map[string]interface{}{
			"cycle_type": payload.CycleType,
			"error":      err.Error(),
		})
		msg.Nack() // store errors are retriable
		return
	}

	msg.Ack()
}
