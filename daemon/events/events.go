// Package events is the daemon's reconciliation journal. Managers publish a
// message for every dispatch outcome; sinks (logging, metrics, debug
// consumers) subscribe through a broadcaster. Publication is fire-and-forget
// and must never slow down the event loop, so sinks that can stall are
// wrapped in a queue.
package events

import (
	"time"

	goevents "github.com/docker/go-events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Action classifies a dispatch outcome.
type Action string

const (
	// ActionApplied records a successful ApplySet.
	ActionApplied Action = "applied"
	// ActionDeferred records a SET parked on the retry queue.
	ActionDeferred Action = "deferred"
	// ActionRetried records a successful ApplySet out of the retry queue.
	ActionRetried Action = "retried"
	// ActionRemoved records an ApplyDelete.
	ActionRemoved Action = "removed"
	// ActionInvalid records a change record with an unknown operation.
	ActionInvalid Action = "invalid"
)

// Message is one journal entry. QueueDepth is the manager's retry-queue
// depth after the dispatch it describes.
type Message struct {
	ID         string
	Manager    string
	Key        string
	Action     Action
	QueueDepth int
	Time       time.Time
}

// Publisher fans journal messages out to its sinks.
type Publisher struct {
	broadcaster *goevents.Broadcaster
}

// NewPublisher returns a publisher with no sinks attached.
func NewPublisher() *Publisher {
	return &Publisher{broadcaster: goevents.NewBroadcaster()}
}

// AddSink attaches sink behind a queue so a slow sink cannot stall
// publication.
func (p *Publisher) AddSink(sink goevents.Sink) {
	p.broadcaster.Add(goevents.NewQueue(sink))
}

// Publish emits one journal message. Errors from the broadcaster are
// ignored: the journal is observability, not control flow.
func (p *Publisher) Publish(manager, key string, action Action, queueDepth int) {
	_ = p.broadcaster.Write(Message{
		ID:         uuid.New().String(),
		Manager:    manager,
		Key:        key,
		Action:     action,
		QueueDepth: queueDepth,
		Time:       time.Now().UTC(),
	})
}

// Close shuts down the broadcaster and its sinks.
func (p *Publisher) Close() error {
	return p.broadcaster.Close()
}

// LogSink writes journal messages to the daemon log.
type LogSink struct {
	log *logrus.Entry
}

// NewLogSink returns a sink logging at debug level.
func NewLogSink() *LogSink {
	return &LogSink{log: logrus.WithField("module", "events")}
}

// Write implements goevents.Sink.
func (s *LogSink) Write(event goevents.Event) error {
	m, ok := event.(Message)
	if !ok {
		return nil
	}
	s.log.WithFields(logrus.Fields{
		"manager": m.Manager,
		"key":     m.Key,
		"action":  m.Action,
	}).Debug("reconciliation event")
	return nil
}

// Close implements goevents.Sink.
func (s *LogSink) Close() error {
	return nil
}
