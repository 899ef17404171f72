package request

// Upload accepts either a single filename or a list.
type Upload struct {
	Image  string   `json:"image"  validate:"required_without=Images"`
	Images []string `json:"images" validate:"required_without=Image"`
}

// Filenames merges both forms, single filename first.
func (u Upload) Filenames() []string {
	names := make([]string, 0, len(u.Images)+1)
	if u.Image != "" {
		names = append(names, u.Image)
	}

	return append(names, u.Images...)
}

type Presign struct {
	ImageID string `json:"image_id" validate:"required,uuid"`
}
