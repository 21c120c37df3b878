package audit

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"gitlab.com/vtindex/backoffice_api/model"
	"gitlab.com/vtindex/backoffice_api/monitor"
	"gitlab.com/vtindex/backoffice_api/net/kafka"
	"gitlab.com/vtindex/backoffice_api/queries"
)

const defaultQueueSize = 1024

// Event is one audit record before it gets an id and a timestamp
type Event struct {
	UserID     uint64
	Activity   string
	Type       model.ActivityType
	Category   model.ActivityCategory
	IP         string
	UserAgent  string
	Endpoint   string
	StatusCode int
}

// Sink persists audit events off the request path. Events are enqueued
// without blocking; when the queue is full the event is dropped and logged,
// an audit failure must never take a money operation down with it.
type Sink struct {
	repo     *queries.Repo
	producer *kafka.Producer
	events   chan *model.ActivityLog
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewSink creates the audit sink and starts its drain worker
func NewSink(repo *queries.Repo, producer *kafka.Producer) *Sink {
	sink := &Sink{
		repo:     repo,
		producer: producer,
		events:   make(chan *model.ActivityLog, defaultQueueSize),
		done:     make(chan struct{}),
	}
	go sink.drain()
	return sink
}

// Record enqueues one audit event. Never blocks the caller.
func (sink *Sink) Record(event Event) {
	row, err := model.NewActivityLog(
		event.UserID, event.Activity, event.Type, event.Category,
		event.IP, event.UserAgent, event.Endpoint, event.StatusCode,
	)
	if err != nil {
		log.Error().Err(err).
			Str("section", "audit").
			Str("action", "record").
			Msg("Unable to build audit event")
		return
	}
	// a request still in flight during shutdown must not hit a closed channel
	sink.mu.RLock()
	defer sink.mu.RUnlock()
	if sink.closed {
		log.Warn().
			Str("section", "audit").
			Str("action", "record").
			Str("activity", event.Activity).
			Uint64("user_id", event.UserID).
			Msg("Audit sink stopped, event dropped")
		return
	}
	select {
	case sink.events <- row:
		monitor.AuditQueueDepth.WithLabelValues().Set(float64(len(sink.events)))
	default:
		log.Warn().
			Str("section", "audit").
			Str("action", "record").
			Str("activity", event.Activity).
			Uint64("user_id", event.UserID).
			Msg("Audit queue full, event dropped")
	}
}

func (sink *Sink) drain() {
	defer close(sink.done)
	for event := range sink.events {
		if err := sink.repo.CreateActivityLog(event); err != nil {
			log.Error().Err(err).
				Str("section", "audit").
				Str("action", "drain").
				Str("activity", event.Activity).
				Msg("Unable to persist audit event")
		}
		sink.producer.Publish(event.ID, event)
		monitor.AuditQueueDepth.WithLabelValues().Set(float64(len(sink.events)))
	}
}

// Stop closes the queue and waits for the worker to flush what it holds
func (sink *Sink) Stop(ctx context.Context) {
	sink.mu.Lock()
	if sink.closed {
		sink.mu.Unlock()
		return
	}
	sink.closed = true
	sink.mu.Unlock()

	close(sink.events)
	select {
	case <-sink.done:
	case <-ctx.Done():
		log.Warn().
			Str("section", "audit").
			Str("action", "stop").
			Msg("Audit sink stopped before flushing")
	}
}
