package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quashMarket/internal/logger"
	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/task"
	repo "quashMarket/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const offerColumns = `uuid, task_id, user_id, amount, deadline, message, status, created_at, updated_at, version`

func scanOffer(row rowScanner, o *offer.Offer) error {
	return row.Scan(&o.UUID, &o.TaskID, &o.UserID, &o.Amount, &o.Deadline, &o.Message,
		&o.Status, &o.CreatedAt, &o.UpdatedAt, &o.Version)
}

// CreateOffer вставляет предложение; уникальность (задача, пользователь) держит ограничение offers_task_user_key.
// Строка задачи блокируется FOR SHARE, поэтому ставка и принятие по одной задаче не пересекаются.
func (s *Storage) CreateOffer(ctx context.Context, offerToCreate *offer.Offer) (err error) {
	start := time.Now()
	defer warnIfSlow("CreateOffer", start)

	if offerToCreate.Status == "" {
		offerToCreate.Status = offer.StatusPending
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось начать транзакцию", err)
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logger.Error("Repository: Не удалось откатить транзакцию", rbErr)
			}
		}
	}()

	var status task.Status
	if err = tx.QueryRow(ctx, `SELECT status FROM tasks WHERE uuid = $1 FOR SHARE`, offerToCreate.TaskID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		return fmt.Errorf("блокировка задачи: %w", err)
	}
	if !status.AcceptsOffers() {
		logger.Warn("Repository: Задача закрыта для ставок",
			zap.String("task_id", offerToCreate.TaskID.String()),
			zap.String("status", string(status)))
		return repo.ErrStatusConflict
	}

	query := `INSERT INTO offers
				(uuid, task_id, user_id, amount, deadline, message, status, created_at, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
				RETURNING created_at, version`

	err = tx.QueryRow(ctx, query,
		offerToCreate.UUID,
		offerToCreate.TaskID,
		offerToCreate.UserID,
		offerToCreate.Amount,
		offerToCreate.Deadline,
		offerToCreate.Message,
		offerToCreate.Status,
		time.Now(),
	).Scan(&offerToCreate.CreatedAt, &offerToCreate.Version)

	if err != nil {
		switch pgErrorCode(err) {
		case codeUniqueViolation:
			return repo.ErrDuplicateOffer
		case codeForeignKeyViolation:
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось добавить предложение", err)
		return fmt.Errorf("добавление предложения: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось зафиксировать транзакцию", err)
		return fmt.Errorf("фиксация транзакции: %w", err)
	}
	return nil
}

func (s *Storage) GetOfferByID(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	start := time.Now()
	defer warnIfSlow("GetOfferByID", start)

	o := &offer.Offer{}
	err := scanOffer(s.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE uuid = $1`, id), o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить предложение", err)
		return nil, fmt.Errorf("получение предложения: %w", err)
	}
	return o, nil
}

func (s *Storage) GetOffersByTask(ctx context.Context, taskID uuid.UUID) ([]*offer.Offer, error) {
	start := time.Now()
	defer warnIfSlow("GetOffersByTask", start)

	return s.queryOffers(ctx, `SELECT `+offerColumns+` FROM offers
				WHERE task_id = $1
				ORDER BY created_at DESC`, taskID)
}

// TransitionOffer меняет статус, только если текущий статус равен from
func (s *Storage) TransitionOffer(ctx context.Context, id uuid.UUID, from, to offer.Status) (*offer.Offer, error) {
	start := time.Now()
	defer warnIfSlow("TransitionOffer", start)

	query := `UPDATE offers
				SET status = $3, updated_at = NOW(), version = version + 1
				WHERE uuid = $1 AND status = $2
				RETURNING ` + offerColumns

	o := &offer.Offer{}
	err := scanOffer(s.pool.QueryRow(ctx, query, id, from, to), o)
	if err == nil {
		return o, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		exists, existsErr := s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM offers WHERE uuid = $1)`, id)
		if existsErr != nil {
			return nil, existsErr
		}
		if !exists {
			return nil, repo.ErrNotFound
		}
		return nil, repo.ErrStatusConflict
	}
	logger.Error("Repository: Не удалось сменить статус предложения", err)
	return nil, fmt.Errorf("смена статуса предложения: %w", err)
}

// AcceptOffer выполняет три записи в одной транзакции. Строка задачи блокируется первой,
// поэтому параллельные принятия по одной задаче выполняются по очереди.
func (s *Storage) AcceptOffer(ctx context.Context, id uuid.UUID) (res *repo.AcceptResult, err error) {
	start := time.Now()
	defer warnIfSlow("AcceptOffer", start)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось начать транзакцию", err)
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logger.Error("Repository: Не удалось откатить транзакцию", rbErr)
			}
		}
	}()

	var taskID uuid.UUID
	if err = tx.QueryRow(ctx, `SELECT task_id FROM offers WHERE uuid = $1`, id).Scan(&taskID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("поиск предложения: %w", err)
	}

	var status task.Status
	if err = tx.QueryRow(ctx, `SELECT status FROM tasks WHERE uuid = $1 FOR UPDATE`, taskID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("блокировка задачи: %w", err)
	}
	if !status.AcceptsOffers() {
		return nil, repo.ErrStatusConflict
	}

	accepted := &offer.Offer{}
	err = scanOffer(tx.QueryRow(ctx, `UPDATE offers
				SET status = $2, updated_at = NOW(), version = version + 1
				WHERE uuid = $1 AND status = $3
				RETURNING `+offerColumns,
		id, offer.StatusAccepted, offer.StatusPending), accepted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgErrorCode(err) == codeUniqueViolation {
			return nil, repo.ErrStatusConflict
		}
		return nil, fmt.Errorf("принятие предложения: %w", err)
	}

	updatedTask := &task.Task{}
	err = scanTask(tx.QueryRow(ctx, `UPDATE tasks t
				SET status = $2, updated_at = NOW(), version = version + 1
				WHERE t.uuid = $1
				RETURNING `+taskColumns,
		taskID, task.StatusInProgress), updatedTask)
	if err != nil {
		return nil, fmt.Errorf("перевод задачи в работу: %w", err)
	}

	rows, err := tx.Query(ctx, `UPDATE offers
				SET status = $3, updated_at = NOW(), version = version + 1
				WHERE task_id = $1 AND uuid <> $2 AND status = $4
				RETURNING uuid`,
		taskID, id, offer.StatusRejected, offer.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("отклонение остальных предложений: %w", err)
	}
	rejected, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("отклонение остальных предложений: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось зафиксировать транзакцию", err)
		return nil, fmt.Errorf("фиксация транзакции: %w", err)
	}

	logger.Info("Repository: Предложение принято",
		zap.String("offer_id", id.String()),
		zap.String("task_id", taskID.String()),
		zap.Int("rejected", len(rejected)))

	return &repo.AcceptResult{Offer: accepted, Task: updatedTask, Rejected: rejected}, nil
}

// RejectStaleOffers отклоняет pending предложения по задачам, закрытым для ставок.
// Строки, заблокированные параллельным принятием, пропускаются до следующего прохода.
func (s *Storage) RejectStaleOffers(ctx context.Context, limit int) ([]*offer.Offer, error) {
	start := time.Now()
	defer warnIfSlow("RejectStaleOffers", start)

	query := `UPDATE offers
				SET status = $1, updated_at = NOW(), version = version + 1
				WHERE uuid IN (
					SELECT o.uuid FROM offers o
					JOIN tasks t ON t.uuid = o.task_id
					WHERE o.status = $2 AND t.status = ANY($3)
					ORDER BY o.created_at
					LIMIT $4
					FOR UPDATE OF o SKIP LOCKED
				)
				RETURNING ` + offerColumns

	closed := make([]string, 0, len(task.ClosedForBidding))
	for _, st := range task.ClosedForBidding {
		closed = append(closed, string(st))
	}

	return s.queryOffers(ctx, query, offer.StatusRejected, offer.StatusPending, closed, limit)
}

func (s *Storage) queryOffers(ctx context.Context, query string, args ...any) ([]*offer.Offer, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить предложения", err)
		return nil, fmt.Errorf("получение предложений: %w", err)
	}
	defer rows.Close()

	offers := []*offer.Offer{}
	for rows.Next() {
		o := &offer.Offer{}
		if err := scanOffer(rows, o); err != nil {
			logger.Error("Repository: Ошибка сканирования предложения", err)
			return nil, fmt.Errorf("сканирование предложения: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return offers, nil
}
