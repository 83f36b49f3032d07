package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func orderPlaced(userID uuid.UUID) *trade.OrderPlacedEvent {
	orderID := uuid.New()
	return &trade.OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(trade.EventTypeOrderPlaced, trade.AggregateTypeOrder, orderID),
		OrderID:         orderID,
		OrderNumber:     "CMD-20261015-0123456789AB",
		UserID:          userID,
		TotalAmount:     decimal.NewFromInt(12000),
	}
}

func paymentCompleted(t *testing.T, userID uuid.UUID) *finance.PaymentEvent {
	t.Helper()
	p, err := finance.NewPayment(uuid.New(), userID, finance.ProviderMoov, "062000000", decimal.NewFromInt(5000), "FCFA")
	require.NoError(t, err)
	return finance.NewPaymentCompletedEvent(p)
}

func TestNotificationHandler_Handle(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewNotificationHandler(zap.New(core))
	userID := uuid.New()
	ctx := context.Background()

	require.NoError(t, h.Handle(ctx, orderPlaced(userID)))
	require.NoError(t, h.Handle(ctx, paymentCompleted(t, userID)))
	require.NoError(t, h.Handle(ctx, newTestEvent("SomethingElse")))

	entries := logs.FilterMessage("Customer notification queued").All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "order_placed", first["template"])
	assert.Equal(t, userID.String(), first["recipient_id"])
	assert.Equal(t, "CMD-20261015-0123456789AB", first["order_number"])
	assert.Equal(t, "12000", first["total_amount"])

	second := entries[1].ContextMap()
	assert.Equal(t, "payment_received", second["template"])
	assert.Equal(t, "MOOV", second["provider"])
	assert.Equal(t, "notification", entries[1].LoggerName)
}

func TestNotificationHandler_SubscribesToCustomerEvents(t *testing.T) {
	h := NewNotificationHandler(nil)

	assert.ElementsMatch(t, []string{
		trade.EventTypeOrderPlaced,
		trade.EventTypeOrderCancelled,
		finance.EventTypePaymentCompleted,
		finance.EventTypePaymentFailed,
		finance.EventTypePaymentRefunded,
	}, h.EventTypes())
	assert.NotContains(t, h.EventTypes(), finance.EventTypePaymentInitiated)
}

// fakeWriter captures messages instead of talking to a broker
type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	deadline bool
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, w.deadline = ctx.Deadline()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaForwarder_Handle(t *testing.T) {
	w := &fakeWriter{}
	f := newKafkaForwarder(w, "shop.events", time.Second, zap.NewNop())
	evt := paymentCompleted(t, uuid.New())

	// a cancelled request context must not drop the event
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, f.Handle(ctx, evt))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.True(t, w.deadline)
	assert.Equal(t, evt.AggregateID().String(), string(msg.Key))
	assert.Equal(t, []kafka.Header{
		{Key: "event_type", Value: []byte(finance.EventTypePaymentCompleted)},
		{Key: "event_id", Value: []byte(evt.EventID().String())},
	}, msg.Headers)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, evt.EventID(), env.ID)
	assert.Equal(t, finance.EventTypePaymentCompleted, env.Type)
	assert.Equal(t, finance.AggregateTypePayment, env.AggregateType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "MOOV", payload["provider"])
	assert.Equal(t, "5000", payload["amount"])

	require.NoError(t, f.Close())
	assert.True(t, w.closed)
}

func TestKafkaForwarder_WriteErrorIsReturned(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	f := newKafkaForwarder(w, "shop.events", 0, nil)

	err := f.Handle(context.Background(), orderPlaced(uuid.New()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Contains(t, err.Error(), "OrderPlaced")
}

func TestNewKafkaForwarder_Validation(t *testing.T) {
	_, err := NewKafkaForwarder(KafkaForwarderConfig{Topic: "t"}, nil)
	assert.Error(t, err)

	_, err = NewKafkaForwarder(KafkaForwarderConfig{Brokers: []string{"localhost:9092"}}, nil)
	assert.Error(t, err)

	f, err := NewKafkaForwarder(KafkaForwarderConfig{Brokers: []string{"localhost:9092"}, Topic: "shop.events"}, nil)
	require.NoError(t, err)
	assert.Nil(t, f.EventTypes())
	require.NoError(t, f.Close())
}

func TestKafkaForwarder_OnBus(t *testing.T) {
	w := &fakeWriter{}
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(newKafkaForwarder(w, "shop.events", time.Second, nil))

	require.NoError(t, bus.Publish(context.Background(), orderPlaced(uuid.New()), paymentCompleted(t, uuid.New())))

	assert.Len(t, w.messages, 2)
}
