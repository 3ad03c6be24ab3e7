package image

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"dynamic-image/internal/domain"
	"dynamic-image/internal/format"
	"dynamic-image/internal/http-server/handler/image/dto"
	"dynamic-image/internal/signing"
	image_uc "dynamic-image/internal/usecase/image"
	"dynamic-image/internal/usecase/processor"
	"dynamic-image/internal/usecase/sizing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const (
	maxMemory = 32 << 20

	// RenderPrefix is where the render routes are mounted.
	RenderPrefix = "/images"

	defaultListLimit = 20
	thumbnailSize    = "200x200"
)

type Options struct {
	CacheMaxAge   time.Duration
	RetryAfter    time.Duration
	MaxUploadSize int64
}

type ImageHandler struct {
	usecase       imageUsecase
	verifier      verifier
	urls          *URLBuilder
	validate      *validator.Validate
	logger        *zlog.Zerolog
	cacheMaxAge   time.Duration
	retryAfter    time.Duration
	maxUploadSize int64
}

func NewImageHandler(usecase imageUsecase, v verifier, logger *zlog.Zerolog, opts Options) *ImageHandler {
	if opts.CacheMaxAge <= 0 {
		opts.CacheMaxAge = domain.DefaultCacheMaxAge
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = domain.DefaultRetryAfter
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = domain.DefaultMaxUploadSize
	}

	return &ImageHandler{
		usecase:       usecase,
		verifier:      v,
		urls:          NewURLBuilder(v, RenderPrefix),
		validate:      validator.New(),
		logger:        logger,
		cacheMaxAge:   opts.CacheMaxAge,
		retryAfter:    opts.RetryAfter,
		maxUploadSize: opts.MaxUploadSize,
	}
}

func (h *ImageHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, filename, err := h.readUpload(w, r)
	if err != nil {
		h.handleError(w, err, "")
		return
	}

	attrs, err := attributesFromForm(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	img, err := h.usecase.UploadImage(ctx, data, filename, attrs)
	if err != nil {
		h.handleError(w, err, "")
		return
	}

	h.respondJSON(w, http.StatusCreated, h.imageResponse(img, nil))
}

func (h *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	req := dto.ListRequest{Limit: defaultListLimit}

	query := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &req.Limit, "offset": &req.Offset} {
		if v := query.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name), nil)
				return
			}
			*dst = n
		}
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pagination", err)
		return
	}

	images, total, err := h.usecase.ListImages(r.Context(), req.Limit, req.Offset)
	if err != nil {
		h.handleError(w, err, "")
		return
	}

	resp := dto.ListResponse{
		Images: make([]dto.ImageResponse, 0, len(images)),
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	for i := range images {
		resp.Images = append(resp.Images, h.imageResponse(&images[i], nil))
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	img, err := h.usecase.GetImage(ctx, id)
	if err != nil {
		h.handleError(w, err, id)
		return
	}

	variants, err := h.usecase.ListVariants(ctx, img)
	if err != nil {
		h.handleError(w, err, id)
		return
	}

	resp := h.imageResponse(img, variants)

	query := r.URL.Query()
	if size := query.Get("size"); size != "" {
		path, err := h.urls.Path(img, PathOptions{
			Action:  query.Get("action"),
			Size:    size,
			Crop:    query.Get("crop") == "true",
			Upscale: query.Get("upscale") == "true",
			Format:  query.Get("format"),
		})
		if err != nil {
			h.handleError(w, err, id)
			return
		}
		resp.URLs["requested"] = path
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *ImageHandler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid attributes", err)
		return
	}

	img, err := h.usecase.UpdateImage(r.Context(), id, image_uc.Attributes{
		Filename:     req.Filename,
		CropWidth:    req.CropWidth,
		CropHeight:   req.CropHeight,
		CropStartX:   req.CropStartX,
		CropStartY:   req.CropStartY,
		CropGravityX: req.CropGravityX,
		CropGravityY: req.CropGravityY,
		ClearCrop:    req.ClearCrop,
	})
	if err != nil {
		h.handleError(w, err, id)
		return
	}

	h.respondJSON(w, http.StatusOK, h.imageResponse(img, nil))
}

func (h *ImageHandler) ReplaceData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, filename, err := h.readUpload(w, r)
	if err != nil {
		h.handleError(w, err, id)
		return
	}

	img, err := h.usecase.ReplaceData(r.Context(), id, data, filename)
	if err != nil {
		h.handleError(w, err, id)
		return
	}

	h.respondJSON(w, http.StatusOK, h.imageResponse(img, nil))
}

func (h *ImageHandler) RotateImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.RotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	img, err := h.usecase.RotateImage(r.Context(), id, req.Degrees)
	if err != nil {
		h.handleError(w, err, id)
		return
	}

	h.respondJSON(w, http.StatusOK, h.imageResponse(img, nil))
}

func (h *ImageHandler) ResizeImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.ResizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Size is required", nil)
		return
	}

	img, err := h.usecase.ResizeImage(r.Context(), id, req.Size)
	if err != nil {
		h.handleError(w, err, id)
		return
	}

	h.respondJSON(w, http.StatusOK, h.imageResponse(img, nil))
}

func (h *ImageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.usecase.DeleteImage(r.Context(), id); err != nil {
		h.handleError(w, err, id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ImageHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", ErrFileTooLarge
		}
		return nil, "", fmt.Errorf("%w: multipart form with a file", ErrParameterMissing)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: file", ErrParameterMissing)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}

	return data, header.Filename, nil
}

func attributesFromForm(r *http.Request) (image_uc.Attributes, error) {
	var attrs image_uc.Attributes

	for name, dst := range map[string]**int{
		"crop_width":     &attrs.CropWidth,
		"crop_height":    &attrs.CropHeight,
		"crop_start_x":   &attrs.CropStartX,
		"crop_start_y":   &attrs.CropStartY,
		"crop_gravity_x": &attrs.CropGravityX,
		"crop_gravity_y": &attrs.CropGravityY,
	} {
		v := r.FormValue(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return attrs, fmt.Errorf("%s must be an integer", name)
		}
		*dst = &n
	}

	return attrs, nil
}

func (h *ImageHandler) imageResponse(img *domain.Image, variants []domain.Variant) dto.ImageResponse {
	resp := dto.ImageResponse{
		ID:            img.ID,
		Param:         img.Param(),
		Filename:      img.Filename,
		ContentType:   img.ContentType,
		ContentLength: img.ContentLength,
		Colorspace:    img.Colorspace,
		RealWidth:     img.RealWidth,
		RealHeight:    img.RealHeight,
		CropWidth:     img.CropWidth,
		CropHeight:    img.CropHeight,
		CropStartX:    img.CropStartX,
		CropStartY:    img.CropStartY,
		CropGravityX:  img.CropGravityX,
		CropGravityY:  img.CropGravityY,
		URLs:          map[string]string{},
		CreatedAt:     img.CreatedAt,
		UpdatedAt:     img.UpdatedAt,
	}

	var ext string
	if f := format.ContentType(img.ContentType); f != nil {
		ext = f.Extension()
	}
	for name, opts := range map[string]PathOptions{
		actionOriginal: {Action: actionOriginal, Format: ext},
		actionDownload: {Action: actionDownload, Format: ext},
		"thumbnail":    {Size: thumbnailSize, Crop: true},
	} {
		path, err := h.urls.Path(img, opts)
		if err != nil {
			h.logger.Warn().Err(err).Str("image_id", img.ID).Str("url", name).Msg("Failed to build image URL")
			continue
		}
		resp.URLs[name] = path
	}

	for _, v := range variants {
		resp.Variants = append(resp.Variants, dto.VariantResponse{
			ID:            v.ID,
			Format:        v.Format,
			Width:         v.Width,
			Height:        v.Height,
			CropWidth:     v.CropWidth,
			CropHeight:    v.CropHeight,
			CropStartX:    v.CropStartX,
			CropStartY:    v.CropStartY,
			ContentType:   v.ContentType,
			ContentLength: v.ContentLength,
			CreatedAt:     v.CreatedAt,
		})
	}

	return resp
}

func (h *ImageHandler) handleError(w http.ResponseWriter, err error, imageID string) {
	var validationErr *image_uc.ValidationError

	switch {
	case errors.As(err, &validationErr):
		h.logger.Info().Str("image_id", imageID).Str("errors", err.Error()).Msg("Image validation failed")
		h.respondJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:   http.StatusText(http.StatusUnprocessableEntity),
			Message: "Image is invalid",
			Fields:  validationErr.Fields,
		})
	case errors.Is(err, ErrParameterMissing):
		h.respondError(w, http.StatusBadRequest, "Required parameter is missing", err)
	case errors.Is(err, signing.ErrInvalidSignature):
		h.logger.Warn().Str("image_id", imageID).Msg("Invalid signature")
		h.respondError(w, http.StatusUnauthorized, "Invalid signature", nil)
	case errors.Is(err, image_uc.ErrImageNotFound):
		h.logger.Info().Str("image_id", imageID).Msg("Image not found")
		h.respondError(w, http.StatusNotFound, "Image not found", nil)
	case errors.Is(err, ErrNotAcceptable):
		h.respondError(w, http.StatusNotAcceptable, "Format not acceptable", err)
	case errors.Is(err, ErrFileTooLarge):
		h.respondError(w, http.StatusRequestEntityTooLarge, "File too large", nil)
	case errors.Is(err, image_uc.ErrInvalidImage):
		h.respondError(w, http.StatusUnprocessableEntity, "Image data is invalid", err)
	case errors.Is(err, format.ErrUnknownFormat),
		errors.Is(err, image_uc.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrInvalidSize),
		errors.Is(err, processor.ErrInvalidTransformation),
		errors.Is(err, sizing.ErrInvalidSizeOptions):
		h.respondError(w, http.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, image_uc.ErrVariantPending):
		w.Header().Set("Retry-After", strconv.Itoa(int(h.retryAfter.Seconds())))
		h.respondError(w, http.StatusServiceUnavailable, "Image is being generated", nil)
	default:
		h.logger.Error().Err(err).Str("image_id", imageID).Msg("Request failed")
		h.respondError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func (h *ImageHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *ImageHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}
