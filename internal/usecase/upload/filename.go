package upload

import (
	"fmt"
	"path"
	"strings"

	"github.com/andreyxaxa/memories-server/pkg/types/errs"
)

// Extensions accepted for upload and the content type signed into the PUT URL.
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
}

// NormalizeFilename drops directory components and checks the extension.
func NormalizeFilename(name string) (string, string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return "", "", errs.ErrEmptyFilename
	}

	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return "", "", errs.ErrEmptyFilename
	}

	ext := strings.ToLower(path.Ext(base))
	contentType, ok := AllowedExtensions[ext]
	if !ok {
		return "", "", fmt.Errorf("%w %q", errs.ErrUnsupportedExtension, ext)
	}

	return base, contentType, nil
}
