// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"inkpress/internal/middleware"
	"inkpress/internal/models"
	"inkpress/internal/render"
	"inkpress/internal/service"
)

// Posts groups the post and comment HTTP handlers.
type Posts struct {
	posts *service.PostService
}

// NewPosts creates a new Posts handler group.
func NewPosts(posts *service.PostService) *Posts {
	return &Posts{posts: posts}
}

type listMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

type listResponse struct {
	Data []models.Post `json:"data"`
	Meta listMeta      `json:"meta"`
}

type mutationResponse struct {
	Success bool         `json:"success"`
	Data    *models.Post `json:"data"`
}

type commentInput struct {
	Content string `json:"content"`
}

// queryInt parses an integer query parameter, 0 when absent or malformed.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

// List returns a page of posts filtered by category and text query.
func (p *Posts) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := p.posts.List(r.Context(), service.ListQuery{
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
		Category: q.Get("category"),
		Query:    q.Get("q"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, listResponse{
		Data: page.Items,
		Meta: listMeta{
			Total: page.Total,
			Page:  page.Page,
			Limit: page.Limit,
			Pages: page.TotalPages,
		},
	})
}

// Get returns a post by id or slug and counts the view.
func (p *Posts) Get(w http.ResponseWriter, r *http.Request) {
	post, err := p.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, post)
}

// Create publishes or drafts a new post for the caller.
func (p *Posts) Create(w http.ResponseWriter, r *http.Request) {
	var in service.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	post, err := p.posts.Create(r.Context(), middleware.IdentityFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, mutationResponse{Success: true, Data: post})
}

// Update applies a partial edit. Only the author or an admin may edit.
func (p *Posts) Update(w http.ResponseWriter, r *http.Request) {
	var patch service.PostPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	post, err := p.posts.Update(r.Context(), middleware.IdentityFromCtx(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, mutationResponse{Success: true, Data: post})
}

// Delete removes a post. Only the author or an admin may delete.
func (p *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	if err := p.posts.Delete(r.Context(), middleware.IdentityFromCtx(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	render.Message(w, http.StatusOK, "Post deleted")
}

// Comment appends a comment by the caller and answers with it.
func (p *Posts) Comment(w http.ResponseWriter, r *http.Request) {
	var in commentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := p.posts.AddComment(r.Context(), middleware.IdentityFromCtx(r.Context()), chi.URLParam(r, "id"), in.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, c)
}
