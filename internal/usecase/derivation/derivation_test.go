package derivation

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/andreyxaxa/memories-server/internal/dto"
	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/internal/infrastructure/processor"
	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecords struct {
	mu      sync.Mutex
	records map[uuid.UUID]*entity.ImageRecord
	patches int
}

func (m *memRecords) Create(_ context.Context, r *entity.ImageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[r.ImageID] = r
	return nil
}

func (m *memRecords) GetByID(_ context.Context, id uuid.UUID) (*entity.ImageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRecords) GetByStorageKey(_ context.Context, key string) (*entity.ImageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records {
		if r.StorageKey == key {
			cp := *r
			return &cp, nil
		}
	}
	return nil, errs.ErrRecordNotFound
}

func (m *memRecords) ListByUser(context.Context, uuid.UUID) ([]*entity.ImageRecord, error) {
	return nil, nil
}

func (m *memRecords) SetDerivedMetadata(_ context.Context, id uuid.UUID, meta *entity.DerivedMetadata, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.patches++
	r := m.records[id]
	if r == nil || r.DerivedMetadata != nil {
		return false, nil
	}
	r.DerivedMetadata = meta
	r.DerivedAt = &at

	return true, nil
}

type memStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	downloads int
	uploads   int
	// downloadErrs are returned, in order, before serving real downloads
	downloadErrs []error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *memStore) UploadBytes(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads++
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *memStore) DownloadBytes(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.downloads++
	if len(s.downloadErrs) > 0 {
		err := s.downloadErrs[0]
		s.downloadErrs = s.downloadErrs[1:]
		return nil, err
	}

	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

func (s *memStore) PresignPut(context.Context, string, string, map[string]string, time.Duration) (dto.PresignedURL, error) {
	return dto.PresignedURL{}, nil
}

func (s *memStore) PresignGet(context.Context, string, time.Duration) (dto.PresignedURL, error) {
	return dto.PresignedURL{}, nil
}

type recordedLetter struct {
	event     entity.StorageEvent
	reason    string
	permanent bool
}

type memDeadLetters struct {
	mu      sync.Mutex
	letters []recordedLetter
	err     error
}

func (d *memDeadLetters) Record(_ context.Context, event entity.StorageEvent, reason string, permanent bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return d.err
	}
	d.letters = append(d.letters, recordedLetter{event: event, reason: reason, permanent: permanent})
	return nil
}

func (d *memDeadLetters) ClaimPending(context.Context, int, int) ([]*entity.DeadLetter, error) {
	return nil, nil
}

func (d *memDeadLetters) MarkAsProcessedBatch(context.Context, []*entity.DeadLetter) error {
	return nil
}

func (d *memDeadLetters) IncrementRetryCountBatch(context.Context, []*entity.DeadLetter) error {
	return nil
}

func (d *memDeadLetters) MarkMaxRetriesAsFailed(context.Context, int) error { return nil }

func (d *memDeadLetters) Cleanup(context.Context) error { return nil }

type fixture struct {
	uc      *DerivationUseCase
	records *memRecords
	store   *memStore
	dead    *memDeadLetters
}

func newFixture() *fixture {
	f := &fixture{
		records: &memRecords{records: make(map[uuid.UUID]*entity.ImageRecord)},
		store:   newMemStore(),
		dead:    &memDeadLetters{},
	}

	f.uc = New(f.records, f.store, processor.New(), f.dead, logger.New("error"),
		MaxAttempts(3),
		Backoff(time.Millisecond, 5*time.Millisecond),
	)

	return f
}

// upload stores a 400x300 JPEG under a fresh record and returns the record.
func (f *fixture) upload(t *testing.T, filename string) *entity.ImageRecord {
	t.Helper()

	rec := entity.NewImageRecord(uuid.New(), filename, "image/jpeg", time.Now())
	require.NoError(t, f.records.Create(context.Background(), rec))

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(400, 300, color.NRGBA{G: 255, A: 255}), imaging.JPEG))
	f.store.objects[rec.StorageKey] = buf.Bytes()

	return rec
}

func TestHandle_SkipsThumbnails(t *testing.T) {
	f := newFixture()

	state, err := f.uc.Handle(context.Background(), entity.StorageEvent{Key: "thumbnails/abc-x.jpg"})
	require.NoError(t, err)

	assert.Equal(t, entity.Skipped, state)
	assert.Zero(t, f.store.downloads)
	assert.Zero(t, f.store.uploads)
	assert.Zero(t, f.records.patches)
}

func TestHandle_Done(t *testing.T) {
	tests := []struct {
		name         string
		withMetadata bool
	}{
		{name: "resolved by image-id metadata", withMetadata: true},
		{name: "resolved by storage key", withMetadata: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			// hyphens in the filename must not confuse record resolution
			rec := f.upload(t, "my-trip-2024-01-02.jpg")

			event := entity.StorageEvent{Bucket: "memories", Key: rec.StorageKey}
			if tt.withMetadata {
				event.ImageID = rec.ImageID.String()
			}

			state, err := f.uc.Handle(context.Background(), event)
			require.NoError(t, err)
			assert.Equal(t, entity.Done, state)

			thumb, ok := f.store.objects["thumbnails/"+rec.StorageKey]
			require.True(t, ok)
			assert.Equal(t, "image/jpeg", f.store.types["thumbnails/"+rec.StorageKey])

			img, err := imaging.Decode(bytes.NewReader(thumb))
			require.NoError(t, err)
			assert.Equal(t, 172, img.Bounds().Dy())

			got, err := f.records.GetByID(context.Background(), rec.ImageID)
			require.NoError(t, err)
			require.NotNil(t, got.DerivedMetadata)
			assert.Equal(t, 400, got.DerivedMetadata.Width)
			assert.Equal(t, 229, got.DerivedMetadata.ThumbnailWidth)
			assert.Empty(t, f.dead.letters)
		})
	}
}

func TestHandle_RedeliveryIsIdempotent(t *testing.T) {
	f := newFixture()
	rec := f.upload(t, "a.jpg")
	event := entity.StorageEvent{Key: rec.StorageKey, ImageID: rec.ImageID.String()}

	_, err := f.uc.Handle(context.Background(), event)
	require.NoError(t, err)

	state, err := f.uc.Handle(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, entity.Done, state)
	assert.Equal(t, 1, f.store.uploads)
	assert.Equal(t, 1, f.records.patches)
}

func TestHandle_MismatchedMetadataFallsBackToKey(t *testing.T) {
	f := newFixture()
	rec := f.upload(t, "a.jpg")
	other := f.upload(t, "b.jpg")

	state, err := f.uc.Handle(context.Background(), entity.StorageEvent{Key: rec.StorageKey, ImageID: other.ImageID.String()})
	require.NoError(t, err)
	assert.Equal(t, entity.Done, state)

	got, _ := f.records.GetByID(context.Background(), rec.ImageID)
	assert.NotNil(t, got.DerivedMetadata)
	untouched, _ := f.records.GetByID(context.Background(), other.ImageID)
	assert.Nil(t, untouched.DerivedMetadata)
}

func TestHandle_TransientFailureRetried(t *testing.T) {
	f := newFixture()
	rec := f.upload(t, "a.jpg")
	f.store.downloadErrs = []error{errors.New("503"), errors.New("503")}

	state, err := f.uc.Handle(context.Background(), entity.StorageEvent{Key: rec.StorageKey})
	require.NoError(t, err)

	assert.Equal(t, entity.Done, state)
	assert.Equal(t, 3, f.store.downloads)
}

func TestHandle_TransientFailureExhausted(t *testing.T) {
	f := newFixture()
	rec := f.upload(t, "a.jpg")
	f.store.downloadErrs = []error{errors.New("503"), errors.New("503"), errors.New("503")}

	state, err := f.uc.Handle(context.Background(), entity.StorageEvent{Key: rec.StorageKey, RedriveAttempt: 1})
	require.NoError(t, err)

	assert.Equal(t, entity.DeadLettered, state)
	assert.Equal(t, 3, f.store.downloads)
	require.Len(t, f.dead.letters, 1)
	assert.False(t, f.dead.letters[0].permanent)
	assert.Equal(t, 1, f.dead.letters[0].event.RedriveAttempt)
	assert.Contains(t, f.dead.letters[0].reason, "503")
}

func TestHandle_PermanentFailures(t *testing.T) {
	t.Run("undecodable", func(t *testing.T) {
		f := newFixture()
		rec := f.upload(t, "a.jpg")
		f.store.objects[rec.StorageKey] = []byte("not an image at all")

		state, err := f.uc.Handle(context.Background(), entity.StorageEvent{Key: rec.StorageKey})
		require.NoError(t, err)

		assert.Equal(t, entity.DeadLettered, state)
		assert.Equal(t, 1, f.store.downloads)
		require.Len(t, f.dead.letters, 1)
		assert.True(t, f.dead.letters[0].permanent)

		got, _ := f.records.GetByID(context.Background(), rec.ImageID)
		assert.Nil(t, got.DerivedMetadata)
	})

	t.Run("thin image", func(t *testing.T) {
		f := newFixture()
		rec := f.upload(t, "a.png")

		var buf bytes.Buffer
		require.NoError(t, imaging.Encode(&buf, imaging.New(1, 2000, color.White), imaging.PNG))
		f.store.objects[rec.StorageKey] = buf.Bytes()

		state, err := f.uc.Handle(context.Background(), entity.StorageEvent{Key: rec.StorageKey})
		require.NoError(t, err)

		assert.Equal(t, entity.DeadLettered, state)
		assert.Equal(t, 1, f.store.downloads)
		assert.Zero(t, f.store.uploads)
		require.Len(t, f.dead.letters, 1)
		assert.True(t, f.dead.letters[0].permanent)
	})

	t.Run("no owning record", func(t *testing.T) {
		f := newFixture()

		state, err := f.uc.Handle(context.Background(), entity.StorageEvent{Key: "orphan.jpg"})
		require.NoError(t, err)

		assert.Equal(t, entity.DeadLettered, state)
		assert.Zero(t, f.store.downloads)
		require.Len(t, f.dead.letters, 1)
		assert.True(t, f.dead.letters[0].permanent)
	})
}

func TestHandle_DeadLetterWriteFails(t *testing.T) {
	f := newFixture()
	f.dead.err = errors.New("db down")

	_, err := f.uc.Handle(context.Background(), entity.StorageEvent{Key: "orphan.jpg"})
	require.Error(t, err)
}

func TestHandle_Canceled(t *testing.T) {
	f := newFixture()
	rec := f.upload(t, "a.jpg")
	f.store.downloadErrs = []error{errors.New("503")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.Handle(ctx, entity.StorageEvent{Key: rec.StorageKey})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.dead.letters)
}
