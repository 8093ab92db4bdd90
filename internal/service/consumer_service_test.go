package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"agent-learning-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
)

func acked(msg *message.Message) bool {
	select {
	case <-msg.Acked():
		return true
	default:
		return false
	}
}

func nacked(msg *message.Message) bool {
	select {
	case <-msg.Nacked():
		return true
	default:
		return false
	}
}

func TestProcessMessagePersistsMetrics(t *testing.T) {
	uow := newFakeUow()
	cs := &consumerService{
		topicName:  "CYCLE_METRICS",
		uowFactory: fakeUowFactory{uow: uow},
		sysLogger:  nopLogger{},
	}

	payload, _ := json.Marshal(dto.CycleCompletedMessage{
		CycleType:   "extraction",
		DurationMs:  1200,
		Metrics:     map[string]interface{}{"patterns_extracted": 3},
		CompletedAt: time.Now(),
	})
	msg := message.NewMessage(watermill.NewUUID(), payload)

	cs.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	assert.Len(t, uow.metrics.created, 1)

	record := uow.metrics.created[0]
	assert.Equal(t, "extraction", record.CycleType)
	assert.Equal(t, int64(1200), record.Metrics["duration_ms"])
	assert.EqualValues(t, 3, record.Metrics["patterns_extracted"])
}

func TestProcessMessageAcksInvalidPayload(t *testing.T) {
	uow := newFakeUow()
	cs := &consumerService{
		topicName:  "CYCLE_METRICS",
		uowFactory: fakeUowFactory{uow: uow},
		sysLogger:  nopLogger{},
	}

	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	cs.processMessage(context.Background(), msg)

	// Garbage can never succeed on retry, so it is dropped.
	assert.True(t, acked(msg))
	assert.False(t, nacked(msg))
	assert.Empty(t, uow.metrics.created)
}
