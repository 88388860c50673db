package worker

import (
	"context"
	"time"

	"quashMarket/internal/logger"

	"go.uber.org/zap"
)

// maxRounds ограничивает число пачек за один тик
const maxRounds = 10

type StaleOfferRejecter interface {
	RejectStaleOffers(ctx context.Context, limit int) (int, error)
}

// StaleOfferWorker отклоняет ожидающие предложения по задачам, которые уже
// закрыты для ставок. Закрывает окно между созданием предложения и
// параллельным принятием другого.
type StaleOfferWorker struct {
	offers    StaleOfferRejecter
	interval  time.Duration
	batchSize int
}

func NewStaleOfferWorker(offers StaleOfferRejecter, interval *time.Duration, batchSize *int) *StaleOfferWorker {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = 5 * time.Minute
	} else {
		intervalToSet = *interval
	}

	var batchToSet int
	if batchSize == nil || *batchSize <= 0 {
		batchToSet = 100
	} else {
		batchToSet = *batchSize
	}
	return &StaleOfferWorker{
		offers:    offers,
		interval:  intervalToSet,
		batchSize: batchToSet,
	}
}

func (w *StaleOfferWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Фоновая проверка предложений запущена",
		zap.Duration("interval", w.interval),
		zap.Int("batch_size", w.batchSize))

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return
		}
	}
}

// Check выполняет один проход и возвращает число отклонённых предложений
func (w *StaleOfferWorker) Check(ctx context.Context) int {
	start := time.Now()
	total := 0

	for round := 0; round < maxRounds; round++ {
		if ctx.Err() != nil {
			break
		}
		n, err := w.offers.RejectStaleOffers(ctx, w.batchSize)
		if err != nil {
			logger.Warn("Worker: Ошибка отклонения предложений", zap.Error(err))
			break
		}
		total += n
		if n < w.batchSize {
			break
		}
	}

	if total > 0 {
		logger.Info(
			"Worker: Завершение проверки предложений",
			zap.Duration("ms", time.Since(start)),
			zap.Int("rejected", total),
		)
	}
	return total
}
