package audit

import (
	"context"
	"time"

	"quashMarket/internal/logger"

	"go.uber.org/zap"
)

const (
	defaultBuffer  = 256
	publishTimeout = 5 * time.Second
	drainTimeout   = 10 * time.Second
)

// Dispatcher буферизует события и публикует их в Sink из отдельной горутины
type Dispatcher struct {
	events chan Event
	sink   Sink
}

func NewDispatcher(sink Sink, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Dispatcher{
		events: make(chan Event, buffer),
		sink:   sink,
	}
}

// Record ставит событие в очередь; при полном буфере событие отбрасывается
func (d *Dispatcher) Record(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	select {
	case d.events <- event:
	default:
		logger.Warn("Audit: Буфер событий переполнен, событие отброшено",
			zap.String("action", string(event.Action)),
			zap.String("entity_id", event.EntityID.String()))
	}
}

// Run публикует события до отмены ctx, затем дописывает оставшееся в буфере
func (d *Dispatcher) Run(ctx context.Context) error {
	logger.Info("Audit: Диспетчер запущен")
	for {
		select {
		case event := <-d.events:
			d.publish(ctx, event)
		case <-ctx.Done():
			d.drain()
			logger.Info("Audit: Диспетчер остановлен")
			return nil
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-d.events:
			d.publish(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, event Event) {
	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := d.sink.Publish(publishCtx, event); err != nil {
		logger.Error("Audit: Не удалось опубликовать событие", err,
			zap.String("action", string(event.Action)),
			zap.String("entity_id", event.EntityID.String()))
	}
}
