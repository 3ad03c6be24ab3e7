package minio

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"dynamic-image/internal/config"
	"dynamic-image/internal/repository/image"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
)

const codeNoSuchKey = "NoSuchKey"

// NewClient connects to MinIO and makes sure the configured bucket exists.
func NewClient(ctx context.Context, cfg config.MinIO) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.Bucket, err)
		}
	}

	return client, nil
}

// FileRepository is a content-addressed blob store. Blobs are keyed by the
// SHA-256 of their content, so storing the same bytes twice is a no-op.
type FileRepository struct {
	client   *minio.Client
	bucket   string
	blobType string
	retries  retry.Strategy
}

func NewMinIORepository(client *minio.Client, bucket, blobType string, retries retry.Strategy) *FileRepository {
	return &FileRepository{
		client:   client,
		bucket:   bucket,
		blobType: blobType,
		retries:  retries,
	}
}

func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ObjectName shards hashes by their first two characters.
func ObjectName(blobType, hash string) string {
	if len(hash) < 3 {
		return blobType + "/" + hash
	}
	return blobType + "/" + hash[:2] + "/" + hash[2:]
}

func (r *FileRepository) Create(ctx context.Context, data []byte, contentType string) (string, error) {
	hash := Hash(data)

	exists, err := r.Exists(ctx, hash)
	if err != nil {
		return "", err
	}
	if exists {
		return hash, nil
	}

	err = retry.Do(func() error {
		_, err := r.client.PutObject(ctx, r.bucket, r.objectName(hash),
			bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: contentType},
		)
		return err
	}, r.retries)
	if err != nil {
		return "", fmt.Errorf("%w: failed to put object: %v", image.ErrStorageError, err)
	}

	return hash, nil
}

func (r *FileRepository) Find(ctx context.Context, hash string) ([]byte, error) {
	obj, err := r.client.GetObject(ctx, r.bucket, r.objectName(hash), minio.GetObjectOptions{})
	if err != nil {
		return nil, r.wrap(err, "failed to get object")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, r.wrap(err, "failed to read object")
	}

	return data, nil
}

func (r *FileRepository) Exists(ctx context.Context, hash string) (bool, error) {
	_, err := r.client.StatObject(ctx, r.bucket, r.objectName(hash), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if notFound(err) {
		return false, nil
	}
	return false, r.wrap(err, "failed to stat object")
}

func (r *FileRepository) Delete(ctx context.Context, hash string) error {
	err := r.client.RemoveObject(ctx, r.bucket, r.objectName(hash), minio.RemoveObjectOptions{})
	if err != nil {
		return r.wrap(err, "failed to remove object")
	}
	return nil
}

func (r *FileRepository) objectName(hash string) string {
	return ObjectName(r.blobType, hash)
}

func (r *FileRepository) wrap(err error, msg string) error {
	if notFound(err) {
		return image.ErrFileNotFound
	}
	return fmt.Errorf("%w: %s: %v", image.ErrStorageError, msg, err)
}

func notFound(err error) bool {
	return minio.ToErrorResponse(err).Code == codeNoSuchKey
}
