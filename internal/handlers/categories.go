package handlers

import (
	"net/http"

	"inkpress/internal/middleware"
	"inkpress/internal/render"
	"inkpress/internal/service"
)

// Categories groups the category HTTP handlers.
type Categories struct {
	categories *service.CategoryService
}

// NewCategories creates a new Categories handler group.
func NewCategories(categories *service.CategoryService) *Categories {
	return &Categories{categories: categories}
}

// List returns every category.
func (c *Categories) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.categories.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"categories": list})
}

// Create adds a category.
func (c *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	cat, err := c.categories.Create(r.Context(), middleware.IdentityFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, map[string]any{"category": cat})
}
