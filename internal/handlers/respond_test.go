package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkpress/internal/service"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind service.Kind
		want int
	}{
		{service.KindValidation, http.StatusBadRequest},
		{service.KindUnauthenticated, http.StatusUnauthorized},
		{service.KindForbidden, http.StatusForbidden},
		{service.KindNotFound, http.StatusNotFound},
		{service.KindConflict, http.StatusConflict},
		{service.KindInvalidReference, http.StatusBadRequest},
		{service.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.kind); got != tt.want {
			t.Errorf("statusFor(%s): got %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)

	t.Run("fields", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeError(rr, r, &service.Error{
			Kind:    service.KindValidation,
			Message: "Title required",
			Fields:  []service.FieldError{{Field: "title", Msg: "Title required"}},
		})
		expectStatus(t, rr, http.StatusBadRequest)
		body := decode[errorBody](t, rr)
		if body.Message != "Title required" || len(body.Errors) != 1 || body.Errors[0].Field != "title" {
			t.Errorf("body: %+v", body)
		}
	})

	t.Run("message only", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeError(rr, r, &service.Error{Kind: service.KindNotFound, Message: "Post not found"})
		expectStatus(t, rr, http.StatusNotFound)
		if strings.Contains(rr.Body.String(), `"errors"`) {
			t.Errorf("unexpected errors key: %s", rr.Body.String())
		}
	})

	t.Run("internal hides details", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeError(rr, r, errors.New("pq: connection refused"))
		expectStatus(t, rr, http.StatusInternalServerError)
		body := decode[errorBody](t, rr)
		if body.Success == nil || *body.Success || body.Error != "Server Error" {
			t.Errorf("body: %+v", body)
		}
		if strings.Contains(rr.Body.String(), "refused") {
			t.Error("internal error leaked into response")
		}
	})
}

func TestDecodeJSONRejectsMalformed(t *testing.T) {
	h := func(w http.ResponseWriter, r *http.Request) {
		var v struct{ Name string }
		if decodeJSON(w, r, &v) {
			w.WriteHeader(http.StatusNoContent)
		}
	}

	rr := serve(t, h, request{method: http.MethodPost, target: "/", body: "{not json"})
	expectStatus(t, rr, http.StatusBadRequest)
	if msg := decode[errorBody](t, rr).Message; msg != msgInvalidBody {
		t.Errorf("message: got %q", msg)
	}

	rr = serve(t, h, request{method: http.MethodPost, target: "/"})
	expectStatus(t, rr, http.StatusNoContent)
}
