package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/andreyxaxa/memories-server/internal/dto"
	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	// registers the WebP decoder with image.Decode, which imaging.Decode uses
	_ "golang.org/x/image/webp"
)

const (
	_defaultJPEGQuality    = 85
	_defaultMaxPixels      = 50_000_000
	_defaultMaxAspectRatio = 20
)

type format struct {
	name        string
	encodeAs    imaging.Format
	contentType string // of the thumbnail
}

// Keyed by detected MIME type. WebP has no encoder in x/image, so WebP thumbnails are PNG.
var formats = map[string]format{
	"image/jpeg": {name: "jpeg", encodeAs: imaging.JPEG, contentType: "image/jpeg"},
	"image/png":  {name: "png", encodeAs: imaging.PNG, contentType: "image/png"},
	"image/gif":  {name: "gif", encodeAs: imaging.GIF, contentType: "image/gif"},
	"image/tiff": {name: "tiff", encodeAs: imaging.TIFF, contentType: "image/tiff"},
	"image/bmp":  {name: "bmp", encodeAs: imaging.BMP, contentType: "image/bmp"},
	"image/webp": {name: "webp", encodeAs: imaging.PNG, contentType: "image/png"},
}

type ImageProcessor struct {
	jpegQuality    int
	maxPixels      int
	maxAspectRatio int
}

func New(opts ...Option) *ImageProcessor {
	p := &ImageProcessor{
		jpegQuality:    _defaultJPEGQuality,
		maxPixels:      _defaultMaxPixels,
		maxAspectRatio: _defaultMaxAspectRatio,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Thumbnail scales data so that its shorter side is size pixels, keeping the
// aspect ratio and honouring EXIF orientation. Undecodable input and images
// beyond the pixel or aspect ratio limits fail with errs.ErrUnsupportedImage.
func (p *ImageProcessor) Thumbnail(ctx context.Context, data []byte, size int) (dto.Thumbnail, error) {
	if size <= 0 {
		return dto.Thumbnail{}, fmt.Errorf("ImageProcessor - Thumbnail: invalid size %d", size)
	}

	mime := mimetype.Detect(data)
	f, ok := formats[baseMIME(mime.String())]
	if !ok {
		return dto.Thumbnail{}, fmt.Errorf("ImageProcessor - Thumbnail - detected %s: %w", mime.String(), errs.ErrUnsupportedImage)
	}

	// header only: rejects oversized rasters before anything is allocated
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return dto.Thumbnail{}, fmt.Errorf("ImageProcessor - Thumbnail - image.DecodeConfig: %w: %w", errs.ErrUnsupportedImage, err)
	}

	err = p.checkDimensions(cfg.Width, cfg.Height)
	if err != nil {
		return dto.Thumbnail{}, fmt.Errorf("ImageProcessor - Thumbnail - p.checkDimensions: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return dto.Thumbnail{}, fmt.Errorf("ImageProcessor - Thumbnail - imaging.Decode: %w: %w", errs.ErrUnsupportedImage, err)
	}

	if err := ctx.Err(); err != nil {
		return dto.Thumbnail{}, fmt.Errorf("ImageProcessor - Thumbnail - after decode: %w", err)
	}

	bounds := img.Bounds()

	var thumb *image.NRGBA
	if bounds.Dx() <= bounds.Dy() {
		thumb = imaging.Resize(img, size, 0, imaging.Lanczos)
	} else {
		thumb = imaging.Resize(img, 0, size, imaging.Lanczos)
	}

	if err := ctx.Err(); err != nil {
		return dto.Thumbnail{}, fmt.Errorf("ImageProcessor - Thumbnail - after resize: %w", err)
	}

	var buf bytes.Buffer
	err = imaging.Encode(&buf, thumb, f.encodeAs, imaging.JPEGQuality(p.jpegQuality))
	if err != nil {
		return dto.Thumbnail{}, fmt.Errorf("ImageProcessor - Thumbnail - imaging.Encode: %w", err)
	}

	return dto.Thumbnail{
		Data:        buf.Bytes(),
		ContentType: f.contentType,
		Metadata: entity.DerivedMetadata{
			Format:               f.name,
			ContentType:          baseMIME(mime.String()),
			Width:                bounds.Dx(),
			Height:               bounds.Dy(),
			SizeBytes:            int64(len(data)),
			ColorModel:           colorModel(img),
			HasAlpha:             hasAlpha(img),
			ThumbnailWidth:       thumb.Bounds().Dx(),
			ThumbnailHeight:      thumb.Bounds().Dy(),
			ThumbnailContentType: f.contentType,
		},
	}, nil
}

// checkDimensions bounds both the decoded raster and the thumbnail's long side,
// which is size times the aspect ratio.
func (p *ImageProcessor) checkDimensions(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: empty image %dx%d", errs.ErrUnsupportedImage, w, h)
	}

	if int64(w)*int64(h) > int64(p.maxPixels) {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", errs.ErrUnsupportedImage, w, h, p.maxPixels)
	}

	long, short := max(w, h), min(w, h)
	if long > short*p.maxAspectRatio {
		return fmt.Errorf("%w: %dx%d exceeds aspect ratio %d:1", errs.ErrUnsupportedImage, w, h, p.maxAspectRatio)
	}

	return nil
}

func baseMIME(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.TrimSpace(m)
}

func colorModel(img image.Image) string {
	switch img.(type) {
	case *image.YCbCr:
		return "ycbcr"
	case *image.NRGBA, *image.NRGBA64:
		return "nrgba"
	case *image.RGBA, *image.RGBA64:
		return "rgba"
	case *image.Gray, *image.Gray16:
		return "gray"
	case *image.CMYK:
		return "cmyk"
	case *image.Paletted:
		return "paletted"
	default:
		return "unknown"
	}
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}
