package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/pkg/config"
	"github.com/wonny/aegis-signal/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type recordingSink struct {
	got []contracts.Opportunity
	err error
}

func (s *recordingSink) LogOpportunities(ctx context.Context, opps []contracts.Opportunity) error {
	s.got = append(s.got, opps...)
	return s.err
}

func sampleOpps() []contracts.Opportunity {
	at := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	return []contracts.Opportunity{
		{ID: "o-1", RunID: "r-1", Instrument: "005930", Timestamp: at, Direction: contracts.DirectionLong, MasterScore: 81, ConfigHash: "h"},
		{ID: "o-2", RunID: "r-1", Instrument: "000660", Timestamp: at, Direction: contracts.DirectionShort, MasterScore: 64, ConfigHash: "h"},
	}
}

func TestKafkaPublisher_LogOpportunities(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "signal.opportunities", logger.Nop())

	require.NoError(t, p.LogOpportunities(context.Background(), sampleOpps()))
	require.Len(t, w.msgs, 2)

	msg := w.msgs[0]
	assert.Equal(t, []byte("005930"), msg.Key)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("r-1"), msg.Headers[0].Value)

	var decoded contracts.Opportunity
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "o-1", decoded.ID)
	assert.Equal(t, contracts.DirectionLong, decoded.Direction)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_EmptyAndError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, "signal.opportunities", logger.Nop())

	assert.NoError(t, p.LogOpportunities(context.Background(), nil))

	err := p.LogOpportunities(context.Background(), sampleOpps())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestNewKafkaPublisher_Validation(t *testing.T) {
	_, err := NewKafkaPublisher(config.KafkaConfig{Topic: "t"}, logger.Nop())
	assert.Error(t, err)

	_, err = NewKafkaPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, logger.Nop())
	assert.Error(t, err)

	p, err := NewKafkaPublisher(config.KafkaConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "signal.opportunities",
		BatchTimeout: 10 * time.Millisecond,
	}, logger.Nop())
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestMultiSink(t *testing.T) {
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("disk full")}
	m := NewMultiSink(ok, nil, failing)

	assert.Equal(t, 2, m.Len())

	err := m.LogOpportunities(context.Background(), sampleOpps())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// 실패한 싱크가 있어도 나머지는 기록됨
	assert.Len(t, ok.got, 2)
	assert.Len(t, failing.got, 2)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&config.Config{Env: "test", LogLevel: "info", LogFormat: "json"}, &buf)

	require.NoError(t, NewLogSink(log).LogOpportunities(context.Background(), sampleOpps()))
	assert.Contains(t, buf.String(), `"instrument":"005930"`)
	assert.Contains(t, buf.String(), `"instrument":"000660"`)
}
