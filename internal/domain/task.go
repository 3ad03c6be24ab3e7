package domain

import "time"

// VariantTask asks a worker to pre-render a variant that is too expensive
// to render inside a request.
type VariantTask struct {
	ID         string    `json:"id"`
	ImageID    string    `json:"image_id"`
	ImageType  string    `json:"image_type"`
	Size       string    `json:"size"`
	Uncropped  bool      `json:"uncropped"`
	Format     string    `json:"format"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

const (
	KafkaTopicVariants = "image-variants"
	KafkaGroupID       = "dynamic-image-workers"
)

const (
	BlobTypeImages   = "images"
	BlobTypeVariants = "image-variants"
)

const (
	DefaultMaxUploadSize = 32 << 20
	DefaultCacheMaxAge   = 30 * 24 * time.Hour
	DefaultRetryAfter    = 10 * time.Second
)
