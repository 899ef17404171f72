package persistent

import (
	"context"
	"testing"
	"time"

	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var imageRowColumns = []string{
	"image_id", "user_id", "filename", "content_type", "storage_key",
	"thumbnail_key", "derived_metadata", "created_at", "derived_at",
}

func TestImageRecordRepo_Create(t *testing.T) {
	pg, mock := newMockPostgres(t)
	repo := NewImageRecordRepo(pg)
	rec := entity.NewImageRecord(uuid.New(), "my-trip-2024.jpg", "image/jpeg", time.Now())

	mock.ExpectExec("INSERT INTO images").
		WithArgs(rec.ImageID, rec.UserID, rec.Filename, rec.ContentType, rec.StorageKey, rec.ThumbnailKey, rec.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), rec))
}

func TestImageRecordRepo_Create_DuplicateKey(t *testing.T) {
	pg, mock := newMockPostgres(t)
	repo := NewImageRecordRepo(pg)

	mock.ExpectExec("INSERT INTO images").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: storageKeyConstraint})

	err := repo.Create(context.Background(), entity.NewImageRecord(uuid.New(), "a.png", "image/png", time.Now()))
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestImageRecordRepo_GetByStorageKey(t *testing.T) {
	pg, mock := newMockPostgres(t)
	repo := NewImageRecordRepo(pg)

	rec := entity.NewImageRecord(uuid.New(), "a-b-c.png", "image/png", time.Now())
	derivedAt := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM images WHERE storage_key = \\$1").
		WithArgs(rec.StorageKey).
		WillReturnRows(pgxmock.NewRows(imageRowColumns).AddRow(
			rec.ImageID, rec.UserID, rec.Filename, rec.ContentType, rec.StorageKey, rec.ThumbnailKey,
			[]byte(`{"format":"png","width":800,"height":600,"thumbnail_width":229,"thumbnail_height":172}`),
			rec.CreatedAt, &derivedAt,
		))

	got, err := repo.GetByStorageKey(context.Background(), rec.StorageKey)
	require.NoError(t, err)

	require.NotNil(t, got.DerivedMetadata)
	assert.Equal(t, "png", got.DerivedMetadata.Format)
	assert.Equal(t, 172, got.DerivedMetadata.ThumbnailHeight)
	assert.Equal(t, rec.ImageID, got.ImageID)
	assert.Equal(t, "thumbnails/"+rec.StorageKey, got.ThumbnailKey)
}

func TestImageRecordRepo_GetByID_NotFound(t *testing.T) {
	pg, mock := newMockPostgres(t)
	repo := NewImageRecordRepo(pg)
	id := uuid.New()

	mock.ExpectQuery("FROM images WHERE image_id = \\$1").
		WithArgs(id.String()).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestImageRecordRepo_ListByUser_Empty(t *testing.T) {
	pg, mock := newMockPostgres(t)
	repo := NewImageRecordRepo(pg)
	userID := uuid.New()

	mock.ExpectQuery("FROM images WHERE user_id = \\$1 ORDER BY created_at DESC").
		WithArgs(userID.String()).
		WillReturnRows(pgxmock.NewRows(imageRowColumns))

	got, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestImageRecordRepo_ListByUser_Pending(t *testing.T) {
	pg, mock := newMockPostgres(t)
	repo := NewImageRecordRepo(pg)
	userID := uuid.New()
	rec := entity.NewImageRecord(userID, "x.jpg", "image/jpeg", time.Now())

	mock.ExpectQuery("FROM images WHERE user_id").
		WillReturnRows(pgxmock.NewRows(imageRowColumns).AddRow(
			rec.ImageID, rec.UserID, rec.Filename, rec.ContentType, rec.StorageKey, rec.ThumbnailKey,
			nil, rec.CreatedAt, nil,
		))

	got, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].DerivedMetadata)
	assert.Nil(t, got[0].DerivedAt)
}

func TestImageRecordRepo_SetDerivedMetadata(t *testing.T) {
	meta := &entity.DerivedMetadata{Format: "jpeg", Width: 400, Height: 300}

	t.Run("first write", func(t *testing.T) {
		pg, mock := newMockPostgres(t)
		repo := NewImageRecordRepo(pg)

		mock.ExpectExec("UPDATE images SET derived_metadata = \\$1, derived_at = \\$2 WHERE \\(image_id = \\$3 AND derived_metadata IS NULL\\)").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := repo.SetDerivedMetadata(context.Background(), uuid.New(), meta, time.Now())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("already derived", func(t *testing.T) {
		pg, mock := newMockPostgres(t)
		repo := NewImageRecordRepo(pg)

		mock.ExpectExec("UPDATE images").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		ok, err := repo.SetDerivedMetadata(context.Background(), uuid.New(), meta, time.Now())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
