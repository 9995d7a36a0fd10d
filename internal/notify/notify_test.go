package notify

import (
	"context"
	"errors"
	"testing"

	"restaurant-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

func TestPublishWrapsPayload(t *testing.T) {
	m := new(mockPublisher)
	prev := Default
	Default = m
	defer func() { Default = prev }()

	m.On("Publish", mock.Anything, mock.MatchedBy(func(e Event) bool {
		return e.Type == EventOrderCreated && !e.OccurredAt.IsZero() && e.Payload == 7
	})).Return(nil).Once()

	Publish(context.Background(), EventOrderCreated, 7)

	m.AssertExpectations(t)
}

func TestPublishSwallowsErrors(t *testing.T) {
	m := new(mockPublisher)
	prev := Default
	Default = m
	defer func() { Default = prev }()

	m.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	assert.NotPanics(t, func() {
		Publish(context.TODO(), EventAlertCreated, "x")
	})
	m.AssertExpectations(t)
}

func TestNewRabbitMQRequiresURL(t *testing.T) {
	_, err := NewRabbitMQ(config.RabbitMQConfig{Exchange: "restaurant.events"})
	assert.Error(t, err)
}

type pingingPublisher struct {
	mockPublisher
	err error
}

func (p *pingingPublisher) Ping() error { return p.err }

func TestPingReportsBroker(t *testing.T) {
	prev := Default
	defer func() { Default = prev }()

	Default = LogPublisher{}
	assert.ErrorIs(t, Ping(), ErrNoBroker)

	Default = &pingingPublisher{}
	assert.NoError(t, Ping())

	Default = &pingingPublisher{err: errors.New("rabbitmq connection is closed")}
	assert.EqualError(t, Ping(), "rabbitmq connection is closed")
}
