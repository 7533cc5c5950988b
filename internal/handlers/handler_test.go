// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Services run on the in-memory repositories from servicetest.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"inkpress/internal/auth"
	"inkpress/internal/middleware"
	"inkpress/internal/models"
	"inkpress/internal/service"
	"inkpress/internal/service/servicetest"
)

type testEnv struct {
	db         *servicetest.DB
	auth       *Auth
	categories *Categories
	posts      *Posts
	postSvc    *service.PostService

	author   *models.Identity
	stranger *models.Identity
	category *models.Category
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db := servicetest.New()
	catSvc := service.NewCategoryService(db.Categories())
	postSvc := service.NewPostService(db.Posts(), db.Categories())
	t.Cleanup(postSvc.Drain)

	env := &testEnv{
		db:         db,
		auth:       NewAuth(service.NewAuthService(db.Users(), auth.NewIssuer("test-secret", 0))),
		categories: NewCategories(catSvc),
		posts:      NewPosts(postSvc),
		postSvc:    postSvc,
	}

	mk := func(name, email string) *models.Identity {
		u, err := db.Users().Create(ctx, name, email, "secret1", models.RoleMember)
		if err != nil {
			t.Fatalf("create user %s: %v", email, err)
		}
		return u.Identity()
	}
	env.author = mk("Ada", "ada@x.com")
	env.stranger = mk("Bob", "bob@x.com")

	cat, err := catSvc.Create(ctx, env.author, service.CategoryInput{Name: "Rust"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	env.category = cat
	return env
}

// request describes one handler invocation.
type request struct {
	method   string
	target   string
	body     any
	identity *models.Identity
	params   map[string]string
}

// serve runs h with the identity and URL params already in the context,
// the way the router's auth gate and chi leave them.
func serve(t *testing.T, h http.HandlerFunc, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	switch b := req.body.(type) {
	case nil:
	case string:
		body.WriteString(b)
	default:
		if err := json.NewEncoder(&body).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	r := httptest.NewRequest(req.method, req.target, &body)
	r.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for k, v := range req.params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if req.identity != nil {
		ctx = middleware.WithIdentity(ctx, req.identity)
	}

	rr := httptest.NewRecorder()
	h(rr, r.WithContext(ctx))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return v
}

type errorBody struct {
	Message string               `json:"message"`
	Errors  []service.FieldError `json:"errors"`
	Success *bool                `json:"success"`
	Error   string               `json:"error"`
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}
