// Package audit доставляет события жизненного цикла задач и предложений во внешний приёмник.
// Запись события никогда не блокирует вызывающего.
package audit

import (
	"context"
	"time"

	"quashMarket/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Action string

const (
	TaskCreated        Action = "task.created"
	TaskUpdated        Action = "task.updated"
	TaskDeleted        Action = "task.deleted"
	OfferCreated       Action = "offer.created"
	OfferAccepted      Action = "offer.accepted"
	OfferRejected      Action = "offer.rejected"
	OfferWithdrawn     Action = "offer.withdrawn"
	OffersAutoRejected Action = "offers.auto_rejected"
)

const (
	EntityTask  = "task"
	EntityOffer = "offer"
)

type Event struct {
	Action   Action    `json:"action"`
	ActorID  uuid.UUID `json:"actor_id"`
	Entity   string    `json:"entity"`
	EntityID uuid.UUID `json:"entity_id"`
	TaskID   uuid.UUID `json:"task_id"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	At       time.Time `json:"at"`
}

// Recorder принимает событие после фиксации записи
type Recorder interface {
	Record(Event)
}

// Sink - конечный получатель событий
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Discard игнорирует события
type Discard struct{}

func (Discard) Record(Event) {}

// LogSink пишет события в лог, когда брокер отключён
type LogSink struct{}

func (LogSink) Publish(_ context.Context, event Event) error {
	logger.Info("Audit: Событие",
		zap.String("action", string(event.Action)),
		zap.String("actor_id", event.ActorID.String()),
		zap.String("entity", event.Entity),
		zap.String("entity_id", event.EntityID.String()),
		zap.String("task_id", event.TaskID.String()),
		zap.String("from", event.From),
		zap.String("to", event.To))
	return nil
}

func (LogSink) Close() error { return nil }
