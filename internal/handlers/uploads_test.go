package handlers

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type memoryObjects struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryObjects) Upload(_ context.Context, key, contentType string, body io.Reader, size int64) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryObjects) FileURL(key string) string {
	return "https://cdn.example.com/" + key
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func multipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(data)
	}
	mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestUploadStoresImage(t *testing.T) {
	objects := newMemoryObjects()
	u := NewUploads(objects)
	u.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }

	rr := httptest.NewRecorder()
	u.Upload(rr, multipartRequest(t, "file", "cover.bin", pngBytes(t, 4, 3)))
	expectStatus(t, rr, http.StatusCreated)

	body := decode[uploadResponse](t, rr)
	if !strings.HasPrefix(body.Path, "uploads/2026/10/") || !strings.HasSuffix(body.Path, ".png") {
		t.Errorf("path: got %q", body.Path)
	}
	if body.URL != "https://cdn.example.com/"+body.Path {
		t.Errorf("url: got %q", body.URL)
	}
	if body.Width != 4 || body.Height != 3 {
		t.Errorf("dimensions: got %dx%d", body.Width, body.Height)
	}
	if objects.types[body.Path] != "image/png" {
		t.Errorf("stored content type: got %q", objects.types[body.Path])
	}
}

func TestUploadRejects(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
	}{
		{"no file", func(t *testing.T) *http.Request {
			return multipartRequest(t, "", "", nil)
		}, http.StatusBadRequest},
		{"wrong field", func(t *testing.T) *http.Request {
			return multipartRequest(t, "image", "a.png", pngBytes(t, 1, 1))
		}, http.StatusBadRequest},
		{"not an image", func(t *testing.T) *http.Request {
			return multipartRequest(t, "file", "a.png", []byte("just some text pretending"))
		}, http.StatusBadRequest},
		{"truncated image", func(t *testing.T) *http.Request {
			return multipartRequest(t, "file", "a.png", pngBytes(t, 2, 2)[:20])
		}, http.StatusBadRequest},
		{"too large", func(t *testing.T) *http.Request {
			return multipartRequest(t, "file", "a.png", bytes.Repeat([]byte{0}, maxUploadSize+2048))
		}, http.StatusRequestEntityTooLarge},
		{"json body", func(t *testing.T) *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/api/uploads", strings.NewReader(`{"file":"a.png"}`))
			r.Header.Set("Content-Type", "application/json")
			return r
		}, http.StatusBadRequest},
		{"missing boundary", func(t *testing.T) *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/api/uploads", strings.NewReader("--x\r\n"))
			r.Header.Set("Content-Type", "multipart/form-data")
			return r
		}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := newMemoryObjects()
			rr := httptest.NewRecorder()
			NewUploads(objects).Upload(rr, tt.req(t))
			expectStatus(t, rr, tt.status)
			if len(objects.objects) != 0 {
				t.Error("nothing should be stored")
			}
		})
	}
}

func TestUploadWithoutStorage(t *testing.T) {
	rr := httptest.NewRecorder()
	NewUploads(nil).Upload(rr, multipartRequest(t, "file", "a.png", pngBytes(t, 1, 1)))
	expectStatus(t, rr, http.StatusServiceUnavailable)
}

func TestUploadStorageFailure(t *testing.T) {
	objects := newMemoryObjects()
	objects.err = errors.New("bucket gone")

	rr := httptest.NewRecorder()
	NewUploads(objects).Upload(rr, multipartRequest(t, "file", "a.png", pngBytes(t, 1, 1)))
	expectStatus(t, rr, http.StatusInternalServerError)
	if strings.Contains(rr.Body.String(), "bucket gone") {
		t.Error("storage error leaked into response")
	}
}
