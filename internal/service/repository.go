// Package service holds the blog's business rules: account registration
// and login, the category registry and the post lifecycle. Persistence is
// reached through the repository interfaces below, implemented by
// internal/store for PostgreSQL and by internal/service/servicetest in memory.
package service

import (
	"context"

	"inkpress/internal/auth"
	"inkpress/internal/models"
)

// UserRepository stores accounts. Lookups return (nil, nil) when nothing
// matches. Create returns an error wrapping store.ErrDuplicate for a taken email.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, name, email, password string, role models.Role) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
}

// CategoryRepository stores categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
}

// PostRepository stores posts with their embedded comments. Every returned
// post has author and category expanded.
type PostRepository interface {
	List(ctx context.Context, f models.PostFilter) ([]models.Post, int, error)
	FindByID(ctx context.Context, id string) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Update(ctx context.Context, p *models.Post) (*models.Post, error)
	SetViewCount(ctx context.Context, id string, count int) error
	Delete(ctx context.Context, id string) error
	AppendComment(ctx context.Context, postID string, c models.Comment) (bool, error)
}

// TokenIssuer issues and verifies bearer tokens.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
	Verify(token string) (*auth.Claims, error)
}
