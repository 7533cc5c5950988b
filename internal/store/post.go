// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"inkpress/internal/docid"
	"inkpress/internal/models"
)

// PostStore handles post persistence. Tags and comments are embedded in
// the post row as JSONB arrays; author and category are expanded by join.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

const postSelect = `
	SELECT p.id, p.title, p.slug, p.content, p.excerpt, p.featured_image,
	       u.id, u.name, u.email, c.id, c.name, c.slug,
	       p.tags, p.is_published, p.view_count, p.comments,
	       p.created_at, p.updated_at
	FROM posts p
	JOIN users u ON u.id = p.author_id
	JOIN categories c ON c.id = p.category_id`

func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	var tags, comments []byte
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.FeaturedImage,
		&p.Author.ID, &p.Author.Name, &p.Author.Email,
		&p.Category.ID, &p.Category.Name, &p.Category.Slug,
		&tags, &p.IsPublished, &p.ViewCount, &comments,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &p.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	p.Comments = []models.Comment{}
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &p.Comments); err != nil {
			return nil, fmt.Errorf("decode comments: %w", err)
		}
	}
	return &p, nil
}

// escapeLike escapes LIKE metacharacters so q matches as a literal substring.
func escapeLike(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(q)
}

// filterClause builds the WHERE clause and its arguments for a listing.
func filterClause(f models.PostFilter) (string, []any) {
	var conds []string
	var args []any

	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		conds = append(conds, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if f.Query != "" {
		args = append(args, "%"+escapeLike(f.Query)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(p.title ILIKE $%d OR p.content ILIKE $%d
			OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(p.tags) t WHERE t ILIKE $%d))`, n, n, n))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of posts matching the filter, newest first, and
// the total number of matching posts.
func (s *PostStore) List(ctx context.Context, f models.PostFilter) ([]models.Post, int, error) {
	where, args := filterClause(f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := postSelect + where + fmt.Sprintf(
		" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	items := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return items, total, nil
}

// FindByID retrieves a post by id. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a post by slug. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+` WHERE p.slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// SlugExists reports whether a post other than excludeID uses slug.
func (s *PostStore) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`, slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check post slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new post and returns it with author and category
// expanded. A taken slug returns ErrDuplicate.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	tags, err := json.Marshal(nonNilTags(p.Tags))
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	id := docid.New()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO posts (id, title, slug, content, excerpt, featured_image,
		                   author_id, category_id, tags, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)
	`, id, p.Title, p.Slug, p.Content, p.Excerpt, p.FeaturedImage,
		p.Author.ID, p.Category.ID, string(tags), p.IsPublished,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("create post: %w", ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Update writes the mutable fields of p and returns the stored post.
// Returns nil if the post no longer exists.
func (s *PostStore) Update(ctx context.Context, p *models.Post) (*models.Post, error) {
	tags, err := json.Marshal(nonNilTags(p.Tags))
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET
			title = $1, slug = $2, content = $3, excerpt = $4, featured_image = $5,
			category_id = $6, tags = $7::jsonb, is_published = $8, updated_at = NOW()
		WHERE id = $9
	`, p.Title, p.Slug, p.Content, p.Excerpt, p.FeaturedImage,
		p.Category.ID, string(tags), p.IsPublished, p.ID,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("update post: %w", ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.FindByID(ctx, p.ID)
}

// SetViewCount stores an absolute view count.
func (s *PostStore) SetViewCount(ctx context.Context, id string, count int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE posts SET view_count = $1 WHERE id = $2`, count, id)
	if err != nil {
		return fmt.Errorf("set view count: %w", err)
	}
	return nil
}

// Delete removes a post and its embedded comments.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// AppendComment appends c to the post's comments in a single statement.
// Reports false if the post does not exist.
func (s *PostStore) AppendComment(ctx context.Context, postID string, c models.Comment) (bool, error) {
	doc, err := json.Marshal(c)
	if err != nil {
		return false, fmt.Errorf("encode comment: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET comments = comments || jsonb_build_array($1::jsonb), updated_at = NOW()
		WHERE id = $2
	`, string(doc), postID)
	if err != nil {
		return false, fmt.Errorf("append comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append comment: %w", err)
	}
	return n > 0, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
