// Package events publishes computed footprint snapshots to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dukerupert/footprint/internal/model"
)

const (
	EventTypeSnapshot = "footprint.snapshot.computed"
	DefaultTopic      = "footprint.snapshots"

	queueSize = 256
)

var (
	errNilLogger  = errors.New("publisher requires a logger")
	errNilWriter  = errors.New("publisher requires a writer")
	errNotStarted = errors.New("snapshot publisher not started")
	errStopped    = errors.New("snapshot publisher stopped")
	errQueueFull  = errors.New("snapshot publisher queue full")
)

type Config struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// DeliveryRecorder is notified after each delivery attempt.
type DeliveryRecorder interface {
	EventPublished(ok bool)
}

// SnapshotEvent is the message value written for each computed snapshot.
type SnapshotEvent struct {
	Type                    string    `json:"type"`
	HouseholdID             int64     `json:"household_id"`
	CalculationDate         string    `json:"calculation_date"`
	TotalEmissions          float64   `json:"total_emissions"`
	EnergyEmissions         float64   `json:"energy_emissions"`
	TransportationEmissions float64   `json:"transportation_emissions"`
	DietEmissions           float64   `json:"diet_emissions"`
	PerCapitaEmissions      float64   `json:"per_capita_emissions"`
	ComputedAt              time.Time `json:"computed_at"`
}

func NewSnapshotEvent(fp *model.CarbonFootprint, at time.Time) SnapshotEvent {
	return SnapshotEvent{
		Type:                    EventTypeSnapshot,
		HouseholdID:             fp.HouseholdID,
		CalculationDate:         fp.CalculationDate.Format(model.DateLayout),
		TotalEmissions:          fp.TotalEmissions,
		EnergyEmissions:         fp.EnergyEmissions,
		TransportationEmissions: fp.TransportationEmissions,
		DietEmissions:           fp.DietEmissions,
		PerCapitaEmissions:      fp.PerCapitaEmissions,
		ComputedAt:              at.UTC(),
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type writeCloser interface {
	Close() error
}

type request struct {
	key         []byte
	value       []byte
	householdID int64
}

// Publisher delivers snapshot events asynchronously. A disabled publisher
// accepts every call and does nothing.
type Publisher struct {
	cfg       Config
	log       *slog.Logger
	writer    messageWriter
	closer    writeCloser
	recorder  DeliveryRecorder
	enabled   bool
	queue     chan request
	runCtx    context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool

	// mu orders enqueues before Stop: Publish holds it shared from the
	// state check to the send, Stop takes it exclusively to set stopped.
	mu      sync.RWMutex
	stopped bool
}

func NewPublisher(cfg Config, logger *slog.Logger, recorder DeliveryRecorder) (*Publisher, error) {
	if logger == nil {
		return nil, errNilLogger
	}
	if !cfg.Enabled {
		logger.Info("snapshot publisher disabled")
		return &Publisher{cfg: cfg, log: logger}, nil
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		cfg.Topic = DefaultTopic
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newPublisherWithWriter(cfg, logger, w, w, recorder)
}

func newPublisherWithWriter(cfg Config, logger *slog.Logger, writer messageWriter, closer writeCloser, recorder DeliveryRecorder) (*Publisher, error) {
	if logger == nil {
		return nil, errNilLogger
	}
	if writer == nil {
		return nil, errNilWriter
	}
	p := &Publisher{
		cfg:      cfg,
		log:      logger.With("component", "publisher"),
		writer:   writer,
		closer:   closer,
		recorder: recorder,
		enabled:  cfg.Enabled,
	}
	if p.enabled {
		p.queue = make(chan request, queueSize)
	}
	return p, nil
}

// Start launches the delivery loop. It returns immediately.
func (p *Publisher) Start(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	p.startOnce.Do(func() {
		p.runCtx, p.cancel = context.WithCancel(ctx)
		p.started.Store(true)
		p.wg.Add(1)
		go p.run()
		p.log.Info("snapshot publisher started", "topic", p.cfg.Topic)
	})
	return nil
}

// Stop cancels the loop, delivers whatever is still queued and closes the
// writer.
func (p *Publisher) Stop(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	var stopErr error
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()

		if p.cancel != nil {
			p.cancel()
		}
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			// The loop may have drained before a request accepted just
			// ahead of stopped was sent.
			p.drain()
		case <-ctx.Done():
			stopErr = ctx.Err()
		}
		if p.closer != nil {
			if err := p.closer.Close(); err != nil {
				p.log.Error("close writer", "error", err)
			}
		}
		p.log.Info("snapshot publisher stopped")
	})
	return stopErr
}

// Publish queues fp for delivery keyed by household id. It never blocks.
func (p *Publisher) Publish(fp *model.CarbonFootprint) error {
	if !p.enabled {
		return nil
	}
	value, err := json.Marshal(NewSnapshotEvent(fp, time.Now()))
	if err != nil {
		return fmt.Errorf("encode snapshot event: %w", err)
	}
	req := request{
		key:         []byte(strconv.FormatInt(fp.HouseholdID, 10)),
		value:       value,
		householdID: fp.HouseholdID,
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return errStopped
	}
	if !p.started.Load() {
		return errNotStarted
	}
	if p.runCtx.Err() != nil {
		return errStopped
	}

	select {
	case p.queue <- req:
		return nil
	default:
		p.record(false)
		p.log.Warn("snapshot event dropped", "household_id", fp.HouseholdID, "error", errQueueFull)
		return errQueueFull
	}
}

// ObserveCompute publishes every successful computation.
func (p *Publisher) ObserveCompute(householdID int64, fp *model.CarbonFootprint, _ time.Duration, err error) {
	if err != nil || fp == nil {
		return
	}
	if perr := p.Publish(fp); perr != nil && !errors.Is(perr, errQueueFull) {
		p.log.Warn("publish snapshot", "household_id", householdID, "error", perr)
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.runCtx.Done():
			p.drain()
			p.started.Store(false)
			return
		case req := <-p.queue:
			p.deliver(p.runCtx, req)
		}
	}
}

func (p *Publisher) drain() {
	// The run context is already cancelled; give queued messages a short
	// window of their own.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case req := <-p.queue:
			p.deliver(ctx, req)
		default:
			return
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, req request) {
	err := p.writer.WriteMessages(ctx, kafka.Message{Key: req.key, Value: req.value})
	if err != nil {
		p.record(false)
		p.log.Error("deliver snapshot event", "household_id", req.householdID, "error", err)
		return
	}
	p.record(true)
	p.log.Debug("snapshot event delivered", "household_id", req.householdID)
}

func (p *Publisher) record(ok bool) {
	if p.recorder != nil {
		p.recorder.EventPublished(ok)
	}
}
