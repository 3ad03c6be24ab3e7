package format

import (
	"bytes"
	"errors"
	"strings"
)

var ErrUnknownFormat = errors.New("unknown format")

type SaveOptions struct {
	Quality              int
	Lossless             bool
	Strip                bool
	OptimizeFrames       bool
	OptimizeTransparency bool
}

// Format describes an image encoding the service can read and write.
type Format struct {
	Name         string
	ContentTypes []string
	Extensions   []string
	MagicBytes   [][]byte
	Animated     bool
	SaveOptions  SaveOptions
}

// ContentType returns the primary content type.
func (f *Format) ContentType() string {
	return f.ContentTypes[0]
}

// Extension returns the primary file extension without the leading dot.
func (f *Format) Extension() string {
	return f.Extensions[0]
}

func (f *Format) String() string {
	return f.Name
}

var registry []*Format

// Register adds formats to the registry. It is only called during package
// initialization; lookups never race with it.
func Register(formats ...*Format) {
next:
	for _, f := range formats {
		for i, existing := range registry {
			if existing.Name == f.Name {
				registry[i] = f
				continue next
			}
		}
		registry = append(registry, f)
	}
}

func Formats() []*Format {
	out := make([]*Format, len(registry))
	copy(out, registry)
	return out
}

// Find looks a format up by name, case-insensitively. JPG is accepted as an
// alias for JPEG.
func Find(name string) *Format {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "JPG" {
		key = "JPEG"
	}
	for _, f := range registry {
		if f.Name == key {
			return f
		}
	}
	return nil
}

func ContentType(contentType string) *Format {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, f := range registry {
		for _, ct := range f.ContentTypes {
			if ct == contentType {
				return f
			}
		}
	}
	return nil
}

func Extension(ext string) *Format {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, f := range registry {
		for _, e := range f.Extensions {
			if e == ext {
				return f
			}
		}
	}
	return nil
}

// Sniff returns the first registered format whose magic bytes prefix b.
func Sniff(b []byte) *Format {
	for _, f := range registry {
		for _, magic := range f.MagicBytes {
			if bytes.HasPrefix(b, magic) {
				return f
			}
		}
	}
	return nil
}

func ContentTypes() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.ContentTypes...)
	}
	return out
}

func IsContentType(contentType string) bool {
	return ContentType(contentType) != nil
}
