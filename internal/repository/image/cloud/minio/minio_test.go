package minio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Hash(nil))
	assert.Equal(t, Hash([]byte("abc")), Hash([]byte("abc")))
	assert.NotEqual(t, Hash([]byte("abc")), Hash([]byte("abd")))
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		blobType string
		hash     string
		want     string
	}{
		{"images", "e3b0c442", "images/e3/b0c442"},
		{"image-variants", "abcdef", "image-variants/ab/cdef"},
		{"images", "ab", "images/ab"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectName(tt.blobType, tt.hash))
		})
	}
}
