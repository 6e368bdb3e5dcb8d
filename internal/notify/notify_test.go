package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/deko-shop-backend/internal/config"
	"github.com/wichananm65/deko-shop-backend/internal/util"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingNotifier struct {
	name string
	err  error
	mu   sync.Mutex
	got  []Event
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, ev)
	return r.err
}

func (r *recordingNotifier) Close() error { return nil }

type blockingNotifier struct{}

func (blockingNotifier) Name() string { return "slow" }

func (blockingNotifier) Notify(ctx context.Context, _ Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingNotifier) Close() error { return nil }

func TestNewEvent(t *testing.T) {
	ev := NewEvent(EventOrderCreated, "admin@example.com", map[string]any{"order_id": 4})

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, EventOrderCreated, ev.Type)
	assert.False(t, ev.Timestamp.IsZero())
	assert.NotEqual(t, ev.ID, NewEvent(EventOrderCreated, "", nil).ID)
}

func TestMulti_ContinuesAfterFailure(t *testing.T) {
	broken := &recordingNotifier{name: "broken-sink", err: errors.New("down")}
	ok := &recordingNotifier{name: "ok-sink"}
	before := testutil.ToFloat64(util.NotificationsFailedTotal.WithLabelValues("broken-sink"))

	err := Multi{broken, ok}.Notify(context.Background(), NewEvent(EventOrderCreated, "", nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken-sink: down")
	assert.Len(t, ok.got, 1)
	assert.Equal(t, before+1, testutil.ToFloat64(util.NotificationsFailedTotal.WithLabelValues("broken-sink")))
}

func TestDispatcher_LogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := NewDispatcher(&recordingNotifier{name: "x", err: errors.New("boom")}, zap.New(core), time.Second)

	ev := NewEvent(EventOrderCreated, "", nil)
	d.Dispatch(ev)
	d.Wait()

	entries := logs.FilterMessage("notification failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, ev.ID, entries[0].ContextMap()["event_id"])
}

func TestDispatcher_TimesOut(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := NewDispatcher(blockingNotifier{}, zap.New(core), 20*time.Millisecond)

	d.Dispatch(NewEvent(EventOrderCreated, "", nil))

	require.NoError(t, d.Close())
	assert.Equal(t, 1, logs.FilterMessage("notification failed").Len())
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), NewEvent(EventPasswordResetRequested, "admin@example.com", map[string]any{"reset_link": "secret"})))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "admin@example.com", entry.ContextMap()["recipient"])
	assert.NotContains(t, entry.ContextMap(), "payload")
}

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaNotifier(t *testing.T) {
	w := &fakeWriter{}
	n := &KafkaNotifier{writer: w}
	ev := NewEvent(EventOrderCreated, "admin@example.com", map[string]any{"order_id": 12})

	require.NoError(t, n.Notify(context.Background(), ev))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, EventOrderCreated, string(w.msgs[0].Key))

	var decoded Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, ev.ID, decoded.ID)
	assert.Equal(t, float64(12), decoded.Payload["order_id"])

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func TestRabbitNotifier(t *testing.T) {
	ch := &fakeChannel{}
	n := &RabbitNotifier{ch: ch, exchange: "shop_events"}
	ev := NewEvent(EventPasswordResetRequested, "admin@example.com", nil)

	require.NoError(t, n.Notify(context.Background(), ev))
	assert.Equal(t, "shop_events", ch.exchange)
	assert.Equal(t, EventPasswordResetRequested, ch.key)
	assert.Equal(t, ev.ID, ch.msg.MessageId)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.NoError(t, n.Close())
}

func TestFromConfig_LogOnlyByDefault(t *testing.T) {
	sinks := FromConfig(config.Config{}, zap.NewNop())

	require.Len(t, sinks, 1)
	assert.Equal(t, "log", sinks[0].Name())
}
