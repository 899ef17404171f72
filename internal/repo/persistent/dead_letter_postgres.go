package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/pkg/postgres"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/google/uuid"
)

const (
	// Table
	deadLettersTable = "derivation_dead_letters"

	// Columns
	dlIDColumn             = "id"
	dlObjectKeyColumn      = "object_key"
	dlBucketColumn         = "bucket"
	dlImageIDColumn        = "image_id"
	dlPayloadColumn        = "payload"
	dlReasonColumn         = "reason"
	dlStatusColumn         = "status"
	dlRedriveAttemptColumn = "redrive_attempt"
	dlRetryCountColumn     = "retry_count"
	dlCreatedAtColumn      = "created_at"
	dlProcessedAtColumn    = "processed_at"
)

type DeadLetterRepo struct {
	*postgres.Postgres
}

func NewDeadLetterRepo(pg *postgres.Postgres) *DeadLetterRepo {
	return &DeadLetterRepo{pg}
}

func (r *DeadLetterRepo) Create(ctx context.Context, dl *entity.DeadLetter) error {
	sql, args, err := r.Builder.
		Insert(deadLettersTable).
		Columns(
			dlIDColumn,
			dlObjectKeyColumn,
			dlBucketColumn,
			dlImageIDColumn,
			dlPayloadColumn,
			dlReasonColumn,
			dlStatusColumn,
			dlRedriveAttemptColumn,
			dlRetryCountColumn,
			dlCreatedAtColumn,
		).
		Values(
			dl.ID,
			dl.ObjectKey,
			dl.Bucket,
			dl.ImageID,
			dl.Payload,
			dl.Reason,
			dl.Status,
			dl.RedriveAttempt,
			dl.RetryCount,
			dl.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("DeadLetterRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("DeadLetterRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

// GetPending locks the returned rows when called inside a transaction,
// so concurrent relays never claim the same dead letter.
func (r *DeadLetterRepo) GetPending(ctx context.Context, limit, maxRetries int) ([]*entity.DeadLetter, error) {
	sql, args, err := r.Builder.
		Select(
			dlIDColumn,
			dlObjectKeyColumn,
			dlBucketColumn,
			dlImageIDColumn,
			dlPayloadColumn,
			dlReasonColumn,
			dlStatusColumn,
			dlRedriveAttemptColumn,
			dlRetryCountColumn,
			dlCreatedAtColumn,
			dlProcessedAtColumn,
		).
		From(deadLettersTable).
		Where(squirrel.And{
			squirrel.Eq{dlStatusColumn: entity.Pending},
			squirrel.Lt{dlRetryCountColumn: maxRetries},
		}).
		OrderBy(dlCreatedAtColumn + " ASC").
		Limit(uint64(limit)). //nolint:gosec // positive, from config
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("DeadLetterRepo - GetPending - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("DeadLetterRepo - GetPending - executor.Query: %w", err)
	}
	defer rows.Close()

	letters := make([]*entity.DeadLetter, 0, limit)
	for rows.Next() {
		var dl entity.DeadLetter
		err = rows.Scan(
			&dl.ID,
			&dl.ObjectKey,
			&dl.Bucket,
			&dl.ImageID,
			&dl.Payload,
			&dl.Reason,
			&dl.Status,
			&dl.RedriveAttempt,
			&dl.RetryCount,
			&dl.CreatedAt,
			&dl.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("DeadLetterRepo - GetPending - rows.Scan: %w", err)
		}
		letters = append(letters, &dl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("DeadLetterRepo - GetPending - rows.Err: %w", err)
	}

	return letters, nil
}

func (r *DeadLetterRepo) MarkAsProcessingBatch(ctx context.Context, ids uuid.UUIDs) error {
	err := r.setStatus(ctx, ids, entity.Processing)
	if err != nil {
		return fmt.Errorf("DeadLetterRepo - MarkAsProcessingBatch: %w", err)
	}

	return nil
}

func (r *DeadLetterRepo) MarkAsProcessedBatch(ctx context.Context, ids uuid.UUIDs) error {
	err := r.setStatus(ctx, ids, entity.Processed)
	if err != nil {
		return fmt.Errorf("DeadLetterRepo - MarkAsProcessedBatch: %w", err)
	}

	return nil
}

func (r *DeadLetterRepo) IncrementRetryCountBatch(ctx context.Context, ids uuid.UUIDs) error {
	sql, args, err := r.Builder.
		Update(deadLettersTable).
		Set(dlRetryCountColumn, squirrel.Expr(dlRetryCountColumn+" + 1")).
		Set(dlStatusColumn, entity.Pending).
		Where(squirrel.Eq{dlIDColumn: ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("DeadLetterRepo - IncrementRetryCountBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("DeadLetterRepo - IncrementRetryCountBatch - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeadLetterRepo - IncrementRetryCountBatch: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *DeadLetterRepo) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) (int64, error) {
	sql, args, err := r.Builder.
		Update(deadLettersTable).
		Set(dlStatusColumn, entity.Failed).
		Where(squirrel.And{
			squirrel.Eq{dlStatusColumn: string(entity.Pending)},
			squirrel.GtOrEq{dlRetryCountColumn: maxRetries},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("DeadLetterRepo - MarkMaxRetriesAsFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("DeadLetterRepo - MarkMaxRetriesAsFailed - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}

// DeleteProcessed drops redriven rows. Failed rows stay for inspection.
func (r *DeadLetterRepo) DeleteProcessed(ctx context.Context) (int64, error) {
	sql, args, err := r.Builder.
		Delete(deadLettersTable).
		Where(squirrel.Eq{dlStatusColumn: string(entity.Processed)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("DeadLetterRepo - DeleteProcessed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("DeadLetterRepo - DeleteProcessed - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *DeadLetterRepo) setStatus(ctx context.Context, ids uuid.UUIDs, status entity.Status) error {
	sql, args, err := r.Builder.
		Update(deadLettersTable).
		Set(dlStatusColumn, status).
		Set(dlProcessedAtColumn, time.Now()).
		Where(squirrel.Eq{dlIDColumn: ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return errs.ErrRecordNotFound
	}

	return nil
}
