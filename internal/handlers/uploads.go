// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	_ "golang.org/x/image/webp" // register WebP decoder

	"inkpress/internal/render"
	"inkpress/internal/storage"
)

const (
	// maxUploadSize is the maximum allowed image size (5 MB).
	maxUploadSize = 5 << 20

	// maxImagePixels caps decoded dimensions to reject decompression bombs.
	maxImagePixels = 40_000_000
)

// allowedImageTypes maps accepted sniffed MIME types to file extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStore is where uploaded images are kept.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	FileURL(key string) string
}

// Uploads handles featured-image uploads.
type Uploads struct {
	objects ObjectStore
	now     func() time.Time
}

// NewUploads creates a new Uploads handler. A nil store answers 503.
func NewUploads(objects ObjectStore) *Uploads {
	return &Uploads{objects: objects, now: time.Now}
}

type uploadResponse struct {
	Path   string `json:"path"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Upload stores a single image from the multipart field "file".
func (u *Uploads) Upload(w http.ResponseWriter, r *http.Request) {
	if u.objects == nil {
		render.Message(w, http.StatusServiceUnavailable, "Object storage is not configured")
		return
	}

	if r.ContentLength > maxUploadSize+1024 {
		render.Message(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 5 MB")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			render.Message(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 5 MB")
			return
		}
		render.Message(w, http.StatusBadRequest, "Expected a multipart form upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		render.Message(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		render.Message(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 5 MB")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("read upload failed", "error", err)
		render.ServerError(w)
		return
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		render.Message(w, http.StatusBadRequest, fmt.Sprintf("File type %q is not allowed", contentType))
		return
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		render.Message(w, http.StatusBadRequest, "File is not a valid image")
		return
	}
	if cfg.Width*cfg.Height > maxImagePixels {
		render.Message(w, http.StatusBadRequest, "Image dimensions are too large")
		return
	}

	key := storage.ImageKey(u.now(), ext)
	if err := u.objects.Upload(r.Context(), key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		slog.Error("s3 upload failed", "error", err, "key", key)
		render.ServerError(w)
		return
	}

	slog.Info("image uploaded", "key", key, "size", len(data), "type", contentType)
	render.JSON(w, http.StatusCreated, uploadResponse{
		Path:   key,
		URL:    u.objects.FileURL(key),
		Width:  cfg.Width,
		Height: cfg.Height,
	})
}
