package image

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dynamic-image/internal/domain"
	"dynamic-image/internal/format"
	image_uc "dynamic-image/internal/usecase/image"

	"github.com/go-chi/chi/v5"
)

type renderRequest struct {
	action string
	digest string
	id     string
	size   string
	// format is nil when the URL carries no extension.
	format *format.Format
}

// Show renders the image cropped and resized to the requested size.
func (h *ImageHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, actionShow)
}

// Uncropped is like Show but ignores the stored crop rectangle.
func (h *ImageHandler) Uncropped(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, actionUncropped)
}

// Original sends the stored data unprocessed.
func (h *ImageHandler) Original(w http.ResponseWriter, r *http.Request) {
	h.sendOriginal(w, r, actionOriginal)
}

// Download sends the stored data as an attachment.
func (h *ImageHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.sendOriginal(w, r, actionDownload)
}

func (h *ImageHandler) render(w http.ResponseWriter, r *http.Request, action string) {
	ctx := r.Context()

	req, err := h.parseRenderRequest(r, action)
	if err != nil {
		h.handleError(w, err, "")
		return
	}

	img, err := h.usecase.GetImage(ctx, req.id)
	if err != nil {
		h.handleError(w, err, req.id)
		return
	}

	size, err := domain.ParseSize(req.size)
	if err == nil && (size.X < 1 || size.Y < 1) {
		err = fmt.Errorf("%w: %q", domain.ErrInvalidSize, req.size)
	}
	if err != nil {
		h.handleError(w, err, req.id)
		return
	}

	lastModified, etag := validators(img, req)
	if notModified(r, lastModified, etag) {
		h.writeCacheHeaders(w, lastModified, etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	opts := image_uc.ProcessingOptions{Uncropped: action == actionUncropped}
	if req.format != nil {
		opts.Format = req.format.Name
	}

	data, contentType, err := h.usecase.RenderVariant(ctx, img, size, opts)
	if err != nil {
		h.handleError(w, err, req.id)
		return
	}

	h.writeCacheHeaders(w, lastModified, etag)
	h.sendData(w, data, contentType, "inline")
}

func (h *ImageHandler) sendOriginal(w http.ResponseWriter, r *http.Request, action string) {
	ctx := r.Context()

	req, err := h.parseRenderRequest(r, action)
	if err != nil {
		h.handleError(w, err, "")
		return
	}

	img, err := h.usecase.GetImage(ctx, req.id)
	if err != nil {
		h.handleError(w, err, req.id)
		return
	}

	stored := format.ContentType(img.ContentType)
	if req.format != nil && req.format != stored {
		h.handleError(w, fmt.Errorf("%w: %s is stored as %s", ErrNotAcceptable, req.format, stored), req.id)
		return
	}

	lastModified, etag := validators(img, req)
	if notModified(r, lastModified, etag) {
		h.writeCacheHeaders(w, lastModified, etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := h.usecase.OriginalData(ctx, img)
	if err != nil {
		h.handleError(w, err, req.id)
		return
	}

	disposition := "inline"
	if action == actionDownload {
		disposition = mime.FormatMediaType("attachment", map[string]string{"filename": downloadName(img, stored)})
	}

	h.writeCacheHeaders(w, lastModified, etag)
	h.sendData(w, data, img.ContentType, disposition)
}

func (h *ImageHandler) parseRenderRequest(r *http.Request, action string) (*renderRequest, error) {
	param, ext := splitExtension(chi.URLParam(r, "id"))
	req := &renderRequest{
		action: action,
		digest: chi.URLParam(r, "digest"),
		id:     domain.ParseParam(param),
	}
	if action == actionShow || action == actionUncropped {
		req.size = chi.URLParam(r, "size")
	}

	switch {
	case req.id == "":
		return nil, fmt.Errorf("%w: id", ErrParameterMissing)
	case req.digest == "":
		return nil, fmt.Errorf("%w: digest", ErrParameterMissing)
	case req.size == "" && (action == actionShow || action == actionUncropped):
		return nil, fmt.Errorf("%w: size", ErrParameterMissing)
	}

	if err := h.verifier.Verify(signedKey(action, req.id, req.size), req.digest); err != nil {
		return nil, err
	}

	if ext != "" {
		if req.format = format.Extension(ext); req.format == nil {
			return nil, fmt.Errorf("%w: %q", format.ErrUnknownFormat, ext)
		}
	}

	return req, nil
}

func (h *ImageHandler) writeCacheHeaders(w http.ResponseWriter, lastModified time.Time, etag string) {
	w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d, public", int(h.cacheMaxAge.Seconds())))
	w.Header().Set("Last-Modified", lastModified.Format(http.TimeFormat))
	w.Header().Set("ETag", etag)
}

func (h *ImageHandler) sendData(w http.ResponseWriter, data []byte, contentType, disposition string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write image")
	}
}

// validators returns the Last-Modified time and ETag of a render response.
// Both change whenever the record is updated.
func validators(img *domain.Image, req *renderRequest) (time.Time, string) {
	name := ""
	if req.format != nil {
		name = req.format.Name
	}
	etag := fmt.Sprintf(`"%s-%s-%s"`, img.Param(), req.digest, strings.ToLower(name))
	return img.UpdatedAt.UTC().Truncate(time.Second), etag
}

func notModified(r *http.Request, lastModified time.Time, etag string) bool {
	if match := r.Header.Get("If-None-Match"); match != "" {
		for _, tag := range strings.Split(match, ",") {
			tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
			if tag == "*" || tag == etag {
				return true
			}
		}
		return false
	}

	if since := r.Header.Get("If-Modified-Since"); since != "" {
		t, err := http.ParseTime(since)
		return err == nil && !lastModified.After(t)
	}
	return false
}

func splitExtension(s string) (string, string) {
	if i := strings.LastIndex(s, "."); i > 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

func downloadName(img *domain.Image, f *format.Format) string {
	if img.Filename != "" {
		return img.Filename
	}
	if f == nil {
		return img.BaseName()
	}
	return img.BaseName() + "." + f.Extension()
}
