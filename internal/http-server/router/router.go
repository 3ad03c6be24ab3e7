package router

import (
	"net/http"

	"dynamic-image/internal/http-server/handler/image"
	"dynamic-image/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	ImageHandler *image.ImageHandler
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route(image.RenderPrefix, func(r chi.Router) {
		r.Get(`/{digest}/{size:\d+x\d+}/{id}`, h.ImageHandler.Show)
		r.Get(`/{digest}/{size:\d+x\d+}/{id}/uncropped`, h.ImageHandler.Uncropped)
		r.Get("/{digest}/{id}/original", h.ImageHandler.Original)
		r.Get("/{digest}/{id}/download", h.ImageHandler.Download)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				next.ServeHTTP(w, r)
			})
		})

		r.Route("/images", func(r chi.Router) {
			r.Post("/", h.ImageHandler.UploadImage)
			r.Get("/", h.ImageHandler.ListImages)
			r.Get("/{id}", h.ImageHandler.GetImage)
			r.Patch("/{id}", h.ImageHandler.UpdateImage)
			r.Delete("/{id}", h.ImageHandler.DeleteImage)
			r.Put("/{id}/data", h.ImageHandler.ReplaceData)
			r.Post("/{id}/rotate", h.ImageHandler.RotateImage)
			r.Post("/{id}/resize", h.ImageHandler.ResizeImage)
		})

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}
