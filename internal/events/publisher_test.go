package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/footprint/internal/model"
)

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *recordingWriter) messages() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

type countingRecorder struct {
	mu       sync.Mutex
	ok, fail int
}

func (r *countingRecorder) EventPublished(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ok {
		r.ok++
	} else {
		r.fail++
	}
}

func (r *countingRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ok, r.fail
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func snapshot() *model.CarbonFootprint {
	return &model.CarbonFootprint{
		HouseholdID:             7,
		CalculationDate:         time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		EnergyEmissions:         1000,
		TransportationEmissions: 208,
		DietEmissions:           561.6,
		TotalEmissions:          1769.6,
		PerCapitaEmissions:      884.8,
	}
}

func TestPublishDeliversKeyedEvent(t *testing.T) {
	w := &recordingWriter{}
	rec := &countingRecorder{}
	p, err := newPublisherWithWriter(Config{Enabled: true, Topic: DefaultTopic}, testLogger(), w, w, rec)
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))

	require.NoError(t, p.Publish(snapshot()))
	require.NoError(t, p.Stop(context.Background()))

	msgs := w.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "7", string(msgs[0].Key))

	var ev SnapshotEvent
	require.NoError(t, json.Unmarshal(msgs[0].Value, &ev))
	assert.Equal(t, EventTypeSnapshot, ev.Type)
	assert.Equal(t, "2024-06-15", ev.CalculationDate)
	assert.InDelta(t, 1769.6, ev.TotalEmissions, 1e-9)

	ok, fail := rec.counts()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 0, fail)
	assert.True(t, w.closed)
}

func TestDeliveryFailureIsRecorded(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	rec := &countingRecorder{}
	p, err := newPublisherWithWriter(Config{Enabled: true}, testLogger(), w, w, rec)
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))

	p.ObserveCompute(7, snapshot(), time.Millisecond, nil)
	require.NoError(t, p.Stop(context.Background()))

	ok, fail := rec.counts()
	assert.Equal(t, 0, ok)
	assert.Equal(t, 1, fail)
}

func TestObserveComputeSkipsFailures(t *testing.T) {
	w := &recordingWriter{}
	p, err := newPublisherWithWriter(Config{Enabled: true}, testLogger(), w, w, nil)
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))

	p.ObserveCompute(7, nil, 0, errors.New("household not found"))
	require.NoError(t, p.Stop(context.Background()))

	assert.Empty(t, w.messages())
}

func TestPublishBeforeStart(t *testing.T) {
	w := &recordingWriter{}
	p, err := newPublisherWithWriter(Config{Enabled: true}, testLogger(), w, w, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, p.Publish(snapshot()), errNotStarted)
}

func TestDisabledPublisherIsNoop(t *testing.T) {
	p, err := NewPublisher(Config{}, testLogger(), nil)
	require.NoError(t, err)

	require.NoError(t, p.Start(context.Background()))
	assert.NoError(t, p.Publish(snapshot()))
	p.ObserveCompute(7, snapshot(), 0, nil)
	assert.NoError(t, p.Stop(context.Background()))
}

func TestNewPublisherRequiresBrokers(t *testing.T) {
	_, err := NewPublisher(Config{Enabled: true}, testLogger(), nil)
	assert.Error(t, err)

	_, err = NewPublisher(Config{}, nil, nil)
	assert.ErrorIs(t, err, errNilLogger)
}

func TestPublishAfterStop(t *testing.T) {
	w := &recordingWriter{}
	p, err := newPublisherWithWriter(Config{Enabled: true}, testLogger(), w, w, nil)
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Stop(context.Background()))

	assert.ErrorIs(t, p.Publish(snapshot()), errStopped)
	assert.Empty(t, w.messages())
}

func TestAcceptedEventsSurviveStop(t *testing.T) {
	for round := 0; round < 20; round++ {
		w := &recordingWriter{}
		rec := &countingRecorder{}
		p, err := newPublisherWithWriter(Config{Enabled: true}, testLogger(), w, w, rec)
		require.NoError(t, err)
		require.NoError(t, p.Start(context.Background()))

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					if p.Publish(snapshot()) == nil {
						mu.Lock()
						accepted++
						mu.Unlock()
					}
				}
			}()
		}
		require.NoError(t, p.Stop(context.Background()))
		wg.Wait()

		ok, fail := rec.counts()
		assert.Equal(t, accepted, len(w.messages()), "round %d", round)
		assert.Equal(t, accepted, ok, "round %d", round)
		assert.Zero(t, fail)
	}
}

func TestParentCancelThenStopDeliversAccepted(t *testing.T) {
	w := &recordingWriter{}
	rec := &countingRecorder{}
	p, err := newPublisherWithWriter(Config{Enabled: true}, testLogger(), w, w, rec)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))

	require.NoError(t, p.Publish(snapshot()))
	cancel()
	require.NoError(t, p.Stop(context.Background()))

	assert.Len(t, w.messages(), 1)
	assert.Error(t, p.Publish(snapshot()))
}
