package service

import (
	"context"
	"errors"
	"strings"

	"inkpress/internal/models"
	"inkpress/internal/slug"
	"inkpress/internal/store"
)

// CategoryService manages the category registry.
type CategoryService struct {
	categories CategoryRepository
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(categories CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// CategoryInput is the body of a category create request.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=250"`
}

// List returns every category ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

// Create registers a category. Slug collisions are rejected, never
// disambiguated.
func (s *CategoryService) Create(ctx context.Context, identity *models.Identity, in CategoryInput) (*models.Category, error) {
	if identity == nil {
		return nil, unauthenticated(MsgNotAuthenticated)
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := checkStruct(in); err != nil {
		return nil, err
	}

	catSlug := slug.Generate(in.Name)
	if catSlug == "" {
		return nil, validationError(FieldError{Field: "name", Msg: "Name must contain letters or digits"})
	}

	existing, err := s.categories.FindBySlug(ctx, catSlug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conflict(MsgCategoryExists, nil)
	}

	created, err := s.categories.Create(ctx, &models.Category{
		Name:        in.Name,
		Slug:        catSlug,
		Description: in.Description,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, conflict(MsgCategoryExists, err)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}
