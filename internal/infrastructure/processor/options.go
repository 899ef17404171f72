package processor

type Option func(*ImageProcessor)

// MaxPixels caps width*height of accepted images.
func MaxPixels(n int) Option {
	return func(p *ImageProcessor) {
		if n > 0 {
			p.maxPixels = n
		}
	}
}

// MaxAspectRatio caps long side / short side of accepted images.
func MaxAspectRatio(n int) Option {
	return func(p *ImageProcessor) {
		if n > 0 {
			p.maxAspectRatio = n
		}
	}
}
