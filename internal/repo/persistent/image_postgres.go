package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/pkg/postgres"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	imagesTable = "images"

	// Columns
	imageIDColumn         = "image_id"
	imageUserIDColumn     = "user_id"
	filenameColumn        = "filename"
	contentTypeColumn     = "content_type"
	storageKeyColumn      = "storage_key"
	thumbnailKeyColumn    = "thumbnail_key"
	derivedMetadataColumn = "derived_metadata"
	imageCreatedAtColumn  = "created_at"
	derivedAtColumn       = "derived_at"

	// Constraints
	storageKeyConstraint = "images_storage_key_key"
)

var imageColumns = []string{
	imageIDColumn,
	imageUserIDColumn,
	filenameColumn,
	contentTypeColumn,
	storageKeyColumn,
	thumbnailKeyColumn,
	derivedMetadataColumn,
	imageCreatedAtColumn,
	derivedAtColumn,
}

type ImageRecordRepo struct {
	*postgres.Postgres
}

func NewImageRecordRepo(pg *postgres.Postgres) *ImageRecordRepo {
	return &ImageRecordRepo{pg}
}

func (r *ImageRecordRepo) Create(ctx context.Context, record *entity.ImageRecord) error {
	sql, args, err := r.Builder.
		Insert(imagesTable).
		Columns(
			imageIDColumn,
			imageUserIDColumn,
			filenameColumn,
			contentTypeColumn,
			storageKeyColumn,
			thumbnailKeyColumn,
			imageCreatedAtColumn,
		).
		Values(
			record.ImageID,
			record.UserID,
			record.Filename,
			record.ContentType,
			record.StorageKey,
			record.ThumbnailKey,
			record.CreatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("ImageRecordRepo - Create - r.Builder.ToSql: %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		if postgres.ConstraintViolated(err, storageKeyConstraint) {
			return fmt.Errorf("ImageRecordRepo - Create: %w", errs.ErrAlreadyExists)
		}
		return fmt.Errorf("ImageRecordRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *ImageRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ImageRecord, error) {
	record, err := r.getOne(ctx, squirrel.Eq{imageIDColumn: id})
	if err != nil {
		return nil, fmt.Errorf("ImageRecordRepo - GetByID: %w", err)
	}

	return record, nil
}

func (r *ImageRecordRepo) GetByStorageKey(ctx context.Context, key string) (*entity.ImageRecord, error) {
	record, err := r.getOne(ctx, squirrel.Eq{storageKeyColumn: key})
	if err != nil {
		return nil, fmt.Errorf("ImageRecordRepo - GetByStorageKey: %w", err)
	}

	return record, nil
}

func (r *ImageRecordRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.ImageRecord, error) {
	sql, args, err := r.Builder.
		Select(imageColumns...).
		From(imagesTable).
		Where(squirrel.Eq{imageUserIDColumn: userID}).
		OrderBy(imageCreatedAtColumn + " DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ImageRecordRepo - ListByUser - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ImageRecordRepo - ListByUser - executor.Query: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.ImageRecord, 0)
	for rows.Next() {
		record, err := scanImageRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("ImageRecordRepo - ListByUser - scanImageRecord: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ImageRecordRepo - ListByUser - rows.Err: %w", err)
	}

	return records, nil
}

func (r *ImageRecordRepo) SetDerivedMetadata(
	ctx context.Context,
	id uuid.UUID,
	meta *entity.DerivedMetadata,
	derivedAt time.Time,
) (bool, error) {
	b, err := json.Marshal(meta)
	if err != nil {
		return false, fmt.Errorf("ImageRecordRepo - SetDerivedMetadata - json.Marshal: %w", err)
	}

	sql, args, err := r.Builder.
		Update(imagesTable).
		Set(derivedMetadataColumn, b).
		Set(derivedAtColumn, derivedAt).
		Where(squirrel.And{
			squirrel.Eq{imageIDColumn: id},
			squirrel.Eq{derivedMetadataColumn: nil},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("ImageRecordRepo - SetDerivedMetadata - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("ImageRecordRepo - SetDerivedMetadata - executor.Exec: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *ImageRecordRepo) getOne(ctx context.Context, where squirrel.Sqlizer) (*entity.ImageRecord, error) {
	sql, args, err := r.Builder.
		Select(imageColumns...).
		From(imagesTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	record, err := scanImageRecord(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrRecordNotFound
		}
		return nil, fmt.Errorf("executor.QueryRow: %w", err)
	}

	return record, nil
}

func scanImageRecord(row pgx.Row) (*entity.ImageRecord, error) {
	var (
		record  entity.ImageRecord
		derived []byte
	)

	err := row.Scan(
		&record.ImageID,
		&record.UserID,
		&record.Filename,
		&record.ContentType,
		&record.StorageKey,
		&record.ThumbnailKey,
		&derived,
		&record.CreatedAt,
		&record.DerivedAt,
	)
	if err != nil {
		return nil, err
	}

	if derived != nil {
		var meta entity.DerivedMetadata
		if err := json.Unmarshal(derived, &meta); err != nil {
			return nil, fmt.Errorf("json.Unmarshal derived_metadata: %w", err)
		}
		record.DerivedMetadata = &meta
	}

	return &record, nil
}
