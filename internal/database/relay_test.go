package database

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	mockArgs := m.Called(ctx, args)
	cmd := redis.NewStringCmd(ctx)
	if mockArgs.Get(0) != nil {
		cmd.SetErr(mockArgs.Error(0))
	} else {
		cmd.SetVal("1234567890-0")
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	args := m.Called(ctx, id, cause)
	return args.Error(0)
}

func priceEvent(t *testing.T) *OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"event_type": EventTypePriceRecorded,
		"price":      3.48,
		"zip":        "30328",
	})
	assert.NoError(t, err)

	return &OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "price",
		AggregateID:   "1",
		EventType:     EventTypePriceRecorded,
		Payload:       payload,
		TargetStream:  "stream:price_events",
		Status:        OutboxStatusPending,
		CreatedAt:     time.Now(),
	}
}

func newTestRelay(redisClient RedisClient, outbox OutboxRepo) *Relay {
	return &Relay{
		redis:     redisClient,
		outbox:    outbox,
		logger:    slog.Default(),
		interval:  time.Second,
		batchSize: 10,
	}
}

func TestRelayProcessEventsPublishesAndMarks(t *testing.T) {
	event := priceEvent(t)

	redisMock := &MockRedisClient{}
	outboxMock := &MockOutboxRepo{}

	outboxMock.On("GetPending", mock.Anything, 10).Return([]*OutboxEvent{event}, nil)
	redisMock.On("XAdd", mock.Anything, mock.MatchedBy(func(args *redis.XAddArgs) bool {
		return args.Stream == "stream:price_events"
	})).Return(nil)
	outboxMock.On("MarkProcessed", mock.Anything, event.ID).Return(nil)

	relay := newTestRelay(redisMock, outboxMock)
	assert.NoError(t, relay.processEvents(context.Background()))

	redisMock.AssertExpectations(t)
	outboxMock.AssertExpectations(t)
}

func TestRelayPublishFailureMarksFailed(t *testing.T) {
	event := priceEvent(t)
	publishErr := errors.New("connection refused")

	redisMock := &MockRedisClient{}
	outboxMock := &MockOutboxRepo{}

	outboxMock.On("GetPending", mock.Anything, 10).Return([]*OutboxEvent{event}, nil)
	redisMock.On("XAdd", mock.Anything, mock.Anything).Return(publishErr)
	outboxMock.On("MarkFailed", mock.Anything, event.ID, mock.Anything).Return(nil)

	relay := newTestRelay(redisMock, outboxMock)
	assert.NoError(t, relay.processEvents(context.Background()),
		"a failed event is retried later, not escalated")

	outboxMock.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
	outboxMock.AssertExpectations(t)
}

func TestRelayNoPendingEvents(t *testing.T) {
	redisMock := &MockRedisClient{}
	outboxMock := &MockOutboxRepo{}

	outboxMock.On("GetPending", mock.Anything, 10).Return([]*OutboxEvent{}, nil)

	relay := newTestRelay(redisMock, outboxMock)
	assert.NoError(t, relay.processEvents(context.Background()))

	redisMock.AssertNotCalled(t, "XAdd", mock.Anything, mock.Anything)
}
