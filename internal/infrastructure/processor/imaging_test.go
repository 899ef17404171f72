package processor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, img image.Image, f imaging.Format) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, f))

	return buf.Bytes()
}

func TestThumbnail_ShortSide(t *testing.T) {
	tests := []struct {
		name          string
		w, h          int
		format        imaging.Format
		wantW, wantH  int
		wantType      string
		wantSrcFormat string
	}{
		{name: "landscape jpeg", w: 400, h: 300, format: imaging.JPEG, wantW: 229, wantH: 172, wantType: "image/jpeg", wantSrcFormat: "jpeg"},
		{name: "portrait png", w: 300, h: 400, format: imaging.PNG, wantW: 172, wantH: 229, wantType: "image/png", wantSrcFormat: "png"},
		{name: "square gif", w: 500, h: 500, format: imaging.GIF, wantW: 172, wantH: 172, wantType: "image/gif", wantSrcFormat: "gif"},
		{name: "small image is upscaled", w: 100, h: 50, format: imaging.PNG, wantW: 344, wantH: 172, wantType: "image/png", wantSrcFormat: "png"},
	}

	p := New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := imaging.New(tt.w, tt.h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
			data := encode(t, src, tt.format)

			got, err := p.Thumbnail(context.Background(), data, 172)
			require.NoError(t, err)

			assert.Equal(t, tt.wantType, got.ContentType)
			assert.Equal(t, tt.wantW, got.Metadata.ThumbnailWidth)
			assert.Equal(t, tt.wantH, got.Metadata.ThumbnailHeight)
			assert.Equal(t, tt.w, got.Metadata.Width)
			assert.Equal(t, tt.h, got.Metadata.Height)
			assert.Equal(t, tt.wantSrcFormat, got.Metadata.Format)
			assert.Equal(t, int64(len(data)), got.Metadata.SizeBytes)

			decoded, err := imaging.Decode(bytes.NewReader(got.Data))
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, decoded.Bounds().Dx())
			assert.Equal(t, tt.wantH, decoded.Bounds().Dy())
		})
	}
}

func TestThumbnail_Alpha(t *testing.T) {
	src := imaging.New(20, 20, color.NRGBA{A: 0})

	got, err := New().Thumbnail(context.Background(), encode(t, src, imaging.PNG), 10)
	require.NoError(t, err)

	assert.True(t, got.Metadata.HasAlpha)
	assert.Equal(t, "nrgba", got.Metadata.ColorModel)
}

func TestThumbnail_Unsupported(t *testing.T) {
	p := New()

	_, err := p.Thumbnail(context.Background(), []byte("definitely not an image"), 172)
	require.ErrorIs(t, err, errs.ErrUnsupportedImage)

	// PNG signature followed by garbage
	broken := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x01}, 64)...)
	_, err = p.Thumbnail(context.Background(), broken, 172)
	require.ErrorIs(t, err, errs.ErrUnsupportedImage)
}

func TestThumbnail_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := imaging.New(50, 50, color.White)

	_, err := New().Thumbnail(ctx, encode(t, src, imaging.PNG), 10)
	require.ErrorIs(t, err, context.Canceled)
}

func TestThumbnail_DimensionLimits(t *testing.T) {
	tests := []struct {
		name string
		p    *ImageProcessor
		w, h int
	}{
		{name: "thin column", p: New(), w: 1, h: 2000},
		{name: "thin row", p: New(), w: 2000, h: 1},
		{name: "aspect ratio just over the limit", p: New(MaxAspectRatio(4)), w: 41, h: 10},
		{name: "too many pixels", p: New(MaxPixels(1000)), w: 40, h: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := encode(t, imaging.New(tt.w, tt.h, color.White), imaging.PNG)

			_, err := tt.p.Thumbnail(context.Background(), src, 172)
			require.ErrorIs(t, err, errs.ErrUnsupportedImage)
		})
	}
}

func TestThumbnail_AtLimitsAccepted(t *testing.T) {
	p := New(MaxAspectRatio(4), MaxPixels(400*100))

	thumb, err := p.Thumbnail(context.Background(), encode(t, imaging.New(400, 100, color.White), imaging.PNG), 172)
	require.NoError(t, err)

	assert.Equal(t, 688, thumb.Metadata.ThumbnailWidth)
	assert.Equal(t, 172, thumb.Metadata.ThumbnailHeight)
}
