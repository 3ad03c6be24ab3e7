package image

import (
	"fmt"
	"strings"

	"dynamic-image/internal/domain"
	"dynamic-image/internal/format"
	"dynamic-image/internal/usecase/sizing"
)

const (
	actionShow      = "show"
	actionUncropped = "uncropped"
	actionOriginal  = "original"
	actionDownload  = "download"
)

type PathOptions struct {
	// Action is one of show (the default), uncropped, original or download.
	Action  string
	Size    string
	Crop    bool
	Upscale bool
	// Format is a file extension. Originals default to the stored format,
	// renders to a browser-safe format matching the record.
	Format string
}

// URLBuilder produces signed render paths.
type URLBuilder struct {
	verifier verifier
	prefix   string
}

func NewURLBuilder(v verifier, prefix string) *URLBuilder {
	return &URLBuilder{verifier: v, prefix: strings.TrimSuffix(prefix, "/")}
}

func (b *URLBuilder) Path(record *domain.Image, opts PathOptions) (string, error) {
	action := opts.Action
	if action == "" {
		action = actionShow
	}

	ext := opts.Format
	if ext == "" {
		ext = defaultExtension(record, action)
	}
	if format.Extension(ext) == nil {
		return "", fmt.Errorf("%w: %q", format.ErrUnknownFormat, ext)
	}
	id := record.Param() + "." + ext

	switch action {
	case actionOriginal, actionDownload:
		digest := b.verifier.Generate(signedKey(action, record.ID, ""))
		return fmt.Sprintf("%s/%s/%s/%s", b.prefix, digest, id, action), nil
	case actionShow, actionUncropped:
	default:
		return "", fmt.Errorf("unknown action %q", action)
	}

	if opts.Size == "" {
		return "", fmt.Errorf("%w: size is required for %s", sizing.ErrInvalidSizeOptions, action)
	}
	s := sizing.New(record, sizing.Options{Uncropped: action == actionUncropped})
	size, err := s.FitString(opts.Size, sizing.FitOptions{Crop: opts.Crop, Upscale: opts.Upscale})
	if err != nil {
		return "", err
	}
	// Extreme ratios can floor a side to zero, which no renderer accepts.
	sizeStr := size.Floor().Max(domain.Vec(1, 1)).String()

	digest := b.verifier.Generate(signedKey(action, record.ID, sizeStr))
	path := fmt.Sprintf("%s/%s/%s/%s", b.prefix, digest, sizeStr, id)
	if action == actionUncropped {
		path += "/" + actionUncropped
	}
	return path, nil
}

// defaultExtension serves originals in their stored format and renders in a
// browser-safe one.
func defaultExtension(record *domain.Image, action string) string {
	if action == actionOriginal || action == actionDownload {
		if f := format.ContentType(record.ContentType); f != nil {
			return f.Extension()
		}
	}
	return format.ContentType(record.SafeContentType()).Extension()
}

// signedKey is the string covered by a render digest.
func signedKey(action, id, size string) string {
	if size == "" {
		return action + "-" + id
	}
	return action + "-" + id + "-" + size
}
