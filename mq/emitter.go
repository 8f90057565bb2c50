// Package mq publishes itinerary change events over Redis pub/sub.
package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultChannel is the pub/sub channel for itinerary events.
const DefaultChannel = "itinerary-events"

type EventType string

const (
	EventCreated EventType = "itinerary.created"
	EventUpdated EventType = "itinerary.updated"
	EventCopied  EventType = "itinerary.copied"
	EventDeleted EventType = "itinerary.deleted"
)

// Event describes one committed change to an itinerary.
type Event struct {
	Type         EventType `json:"type"`
	ItineraryID  string    `json:"itinerary_id"`
	CustomerName string    `json:"customer_name,omitempty"`
	TotalCost    float64   `json:"total_cost,omitempty"`
	// SourceID is the original record of a copy.
	SourceID string    `json:"source_id,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher receives committed changes. Implementations must not block the caller
// on delivery failures.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Emitter publishes events as JSON to a Redis channel.
type Emitter struct {
	rdb     *redis.Client
	channel string
	log     *logrus.Entry
}

func NewEmitter(rdb *redis.Client, channel string, log *logrus.Entry) *Emitter {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Emitter{rdb: rdb, channel: channel, log: log.WithField("channel", channel)}
}

// Publish logs and drops events that cannot be delivered.
func (e *Emitter) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		e.log.WithError(err).Error("marshal event")
		return
	}
	if err := e.rdb.Publish(ctx, e.channel, data).Err(); err != nil {
		e.log.WithError(err).WithField("type", ev.Type).Warn("publish event")
		return
	}
	e.log.WithFields(logrus.Fields{"type": ev.Type, "id": ev.ItineraryID}).Debug("event published")
}

// Nop discards events; used when Redis is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Subscribe delivers events from channel to handle until ctx is done.
// Payloads that are not events are logged and skipped.
func Subscribe(ctx context.Context, rdb *redis.Client, channel string, log *logrus.Entry, handle func(Event)) error {
	if channel == "" {
		channel = DefaultChannel
	}
	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return errors.Wrapf(err, "subscribe %s", channel)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.WithError(err).Warn("skipping malformed event")
				continue
			}
			handle(ev)
		}
	}
}
