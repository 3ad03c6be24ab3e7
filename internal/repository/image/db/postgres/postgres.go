package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dynamic-image/internal/domain"
	"dynamic-image/internal/repository/image"

	"github.com/lib/pq"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

const imageColumns = `
	id, content_hash, content_type, content_length, filename, colorspace,
	real_width, real_height, crop_width, crop_height, crop_start_x, crop_start_y,
	crop_gravity_x, crop_gravity_y, created_at, updated_at`

const variantColumns = `
	id, image_id, image_type, content_hash, content_type, content_length, filename,
	format, width, height, crop_width, crop_height, crop_start_x, crop_start_y,
	created_at, updated_at`

type ImagesRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewImagesRepository(db *dbpg.DB, retries retry.Strategy) *ImagesRepository {
	return &ImagesRepository{
		db:      db,
		retries: retries,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *ImagesRepository) Save(ctx context.Context, img *domain.Image) error {
	query := `INSERT INTO images (` + imageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		img.ID,
		img.ContentHash,
		img.ContentType,
		img.ContentLength,
		img.Filename,
		img.Colorspace,
		img.RealWidth,
		img.RealHeight,
		nullInt(img.CropWidth),
		nullInt(img.CropHeight),
		nullInt(img.CropStartX),
		nullInt(img.CropStartY),
		nullInt(img.CropGravityX),
		nullInt(img.CropGravityY),
		img.CreatedAt,
		img.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}

	return nil
}

func (r *ImagesRepository) GetByID(ctx context.Context, id string) (*domain.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = $1`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query image: %w", err)
	}

	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, image.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan image: %w", err)
	}

	return img, nil
}

// Update writes every mutable column. When clearVariants is set the image's
// variants are deleted in the same transaction.
func (r *ImagesRepository) Update(ctx context.Context, img *domain.Image, clearVariants bool) error {
	query := `
		UPDATE images SET
			content_hash = $1, content_type = $2, content_length = $3, filename = $4,
			colorspace = $5, real_width = $6, real_height = $7,
			crop_width = $8, crop_height = $9, crop_start_x = $10, crop_start_y = $11,
			crop_gravity_x = $12, crop_gravity_y = $13, updated_at = $14
		WHERE id = $15
	`

	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, query,
		img.ContentHash,
		img.ContentType,
		img.ContentLength,
		img.Filename,
		img.Colorspace,
		img.RealWidth,
		img.RealHeight,
		nullInt(img.CropWidth),
		nullInt(img.CropHeight),
		nullInt(img.CropStartX),
		nullInt(img.CropStartY),
		nullInt(img.CropGravityX),
		nullInt(img.CropGravityY),
		img.UpdatedAt,
		img.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update image: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return image.ErrImageNotFound
	}

	if clearVariants {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM image_variants WHERE image_id = $1 AND image_type = $2`,
			img.ID, domain.ImageTypeImage)
		if err != nil {
			return fmt.Errorf("failed to clear variants: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *ImagesRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecWithRetry(ctx, r.retries, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return image.ErrImageNotFound
	}

	return nil
}

func (r *ImagesRepository) List(ctx context.Context, limit, offset int) ([]domain.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, *img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return images, nil
}

func (r *ImagesRepository) Count(ctx context.Context) (int, error) {
	row, err := r.db.QueryRowWithRetry(ctx, r.retries, `SELECT COUNT(*) FROM images`)
	if err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}

	return count, nil
}

func (r *ImagesRepository) FindVariant(ctx context.Context, imageID, imageType string, params domain.VariantParams) (*domain.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM image_variants
		WHERE image_id = $1 AND image_type = $2 AND format = $3
		  AND width = $4 AND height = $5
		  AND crop_width = $6 AND crop_height = $7
		  AND crop_start_x = $8 AND crop_start_y = $9`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query,
		imageID, imageType, params.Format,
		params.Width, params.Height,
		params.CropWidth, params.CropHeight,
		params.CropStartX, params.CropStartY,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query variant: %w", err)
	}

	v, err := scanVariant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, image.ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan variant: %w", err)
	}

	return v, nil
}

// CreateVariant inserts v without retrying so that a unique violation from a
// concurrent insert surfaces as ErrDuplicateKey. The image row is share
// locked first; if its content no longer matches sourceHash the variant was
// rendered from replaced data and ErrStaleSource is returned.
func (r *ImagesRepository) CreateVariant(ctx context.Context, v *domain.Variant, sourceHash string) error {
	query := `INSERT INTO image_variants (` + variantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT content_hash FROM images WHERE id = $1 FOR SHARE`, v.ImageID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return image.ErrImageNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock image: %w", err)
	}
	if current != sourceHash {
		return image.ErrStaleSource
	}

	_, err = tx.ExecContext(ctx, query,
		v.ID,
		v.ImageID,
		v.ImageType,
		v.ContentHash,
		v.ContentType,
		v.ContentLength,
		v.Filename,
		v.Format,
		v.Width,
		v.Height,
		v.CropWidth,
		v.CropHeight,
		v.CropStartX,
		v.CropStartY,
		v.CreatedAt,
		v.UpdatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return image.ErrDuplicateKey
		case pqForeignKeyViolation:
			return image.ErrForeignKeyViolation
		}
	}
	if err != nil {
		return fmt.Errorf("failed to save variant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *ImagesRepository) DeleteVariant(ctx context.Context, id string) error {
	_, err := r.db.ExecWithRetry(ctx, r.retries, `DELETE FROM image_variants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete variant: %w", err)
	}
	return nil
}

func (r *ImagesRepository) ListVariants(ctx context.Context, imageID, imageType string) ([]domain.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM image_variants
		WHERE image_id = $1 AND image_type = $2
		ORDER BY created_at DESC`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, imageID, imageType)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}

	return variants, nil
}

func scanImage(s scanner) (*domain.Image, error) {
	var img domain.Image
	var cropW, cropH, startX, startY, gX, gY sql.NullInt64

	err := s.Scan(
		&img.ID,
		&img.ContentHash,
		&img.ContentType,
		&img.ContentLength,
		&img.Filename,
		&img.Colorspace,
		&img.RealWidth,
		&img.RealHeight,
		&cropW,
		&cropH,
		&startX,
		&startY,
		&gX,
		&gY,
		&img.CreatedAt,
		&img.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	img.CropWidth = intPtr(cropW)
	img.CropHeight = intPtr(cropH)
	img.CropStartX = intPtr(startX)
	img.CropStartY = intPtr(startY)
	img.CropGravityX = intPtr(gX)
	img.CropGravityY = intPtr(gY)

	return &img, nil
}

func scanVariant(s scanner) (*domain.Variant, error) {
	var v domain.Variant
	err := s.Scan(
		&v.ID,
		&v.ImageID,
		&v.ImageType,
		&v.ContentHash,
		&v.ContentType,
		&v.ContentLength,
		&v.Filename,
		&v.Format,
		&v.Width,
		&v.Height,
		&v.CropWidth,
		&v.CropHeight,
		&v.CropStartX,
		&v.CropStartY,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	return domain.IntPtr(int(n.Int64))
}
