// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"inkpress/internal/docid"
	"inkpress/internal/markdown"
	"inkpress/internal/models"
	"inkpress/internal/slug"
	"inkpress/internal/store"
)

// Pagination defaults for post listings.
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// maxPage keeps (page-1)*limit from overflowing.
const maxPage = math.MaxInt / MaxPageSize

// ExcerptLength is the size of excerpts derived from content.
const ExcerptLength = 120

// FailureRecorder counts best-effort side effects that failed.
type FailureRecorder interface {
	BestEffortFailed(op string)
}

type noopRecorder struct{}

func (noopRecorder) BestEffortFailed(string) {}

// PostService owns the post lifecycle: listing, reading with view
// counting, authoring, editing, deletion and comments.
type PostService struct {
	posts      PostRepository
	categories CategoryRepository
	now        func() time.Time
	failures   FailureRecorder

	// inflight tracks background view-count writes.
	inflight sync.WaitGroup
}

// PostOption configures a PostService.
type PostOption func(*PostService)

// WithClock overrides the clock used for slug suffixes and comment times.
func WithClock(now func() time.Time) PostOption {
	return func(s *PostService) { s.now = now }
}

// WithFailureRecorder sets where failed best-effort writes are counted.
func WithFailureRecorder(r FailureRecorder) PostOption {
	return func(s *PostService) { s.failures = r }
}

// NewPostService creates a PostService.
func NewPostService(posts PostRepository, categories CategoryRepository, opts ...PostOption) *PostService {
	s := &PostService{
		posts:      posts,
		categories: categories,
		now:        time.Now,
		failures:   noopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListQuery selects a page of posts. Zero values take defaults.
type ListQuery struct {
	Page     int
	Limit    int
	Category string
	Query    string
}

// PostInput is the body of a post create request. Tags accept a JSON
// list or a comma-separated string.
type PostInput struct {
	Title         string      `json:"title" validate:"required,max=300"`
	Content       string      `json:"content" validate:"required"`
	Excerpt       string      `json:"excerpt" validate:"max=1000"`
	Category      string      `json:"category" validate:"required"`
	Tags          models.Tags `json:"tags" validate:"-"`
	FeaturedImage string      `json:"featuredImage"`
	IsPublished   bool        `json:"isPublished"`
}

// PostPatch is the body of a post update request. Empty strings leave a
// field unchanged; IsPublished applies whenever it is present.
type PostPatch struct {
	Title         string      `json:"title" validate:"omitempty,max=300"`
	Content       string      `json:"content"`
	Excerpt       string      `json:"excerpt" validate:"omitempty,max=1000"`
	Category      string      `json:"category"`
	Tags          models.Tags `json:"tags" validate:"-"`
	FeaturedImage string      `json:"featuredImage"`
	IsPublished   *bool       `json:"isPublished"`
}

// List returns a page of posts, newest first.
func (s *PostService) List(ctx context.Context, q ListQuery) (*models.PostPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	category := strings.TrimSpace(q.Category)
	if id, ok := docid.Normalize(category); ok {
		category = id
	}

	items, total, err := s.posts.List(ctx, models.PostFilter{
		CategoryID: category,
		Query:      q.Query,
		Offset:     (page - 1) * limit,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Post{}
	}

	return &models.PostPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// Get resolves a post by id (24 hex characters, any case) or by slug.
// The returned post already counts this view; the new count is persisted
// in the background and a failure there never fails the read.
func (s *PostService) Get(ctx context.Context, idOrSlug string) (*models.Post, error) {
	var (
		p   *models.Post
		err error
	)
	if id, ok := docid.Normalize(idOrSlug); ok {
		p, err = s.posts.FindByID(ctx, id)
	} else {
		p, err = s.posts.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound(MsgPostNotFound)
	}

	p.ViewCount++
	s.recordView(ctx, p.ID, p.ViewCount)
	return p, nil
}

// recordView writes an absolute view count. Concurrent reads of the same
// post may overwrite each other and under-count.
func (s *PostService) recordView(ctx context.Context, id string, count int) {
	ctx = context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.posts.SetViewCount(ctx, id, count); err != nil {
			slog.Error("view count update failed", "post_id", id, "error", err)
			s.failures.BestEffortFailed("view_count")
		}
	}()
}

// Drain blocks until all background side effects have finished.
func (s *PostService) Drain() {
	s.inflight.Wait()
}

// Create publishes or drafts a new post authored by the caller.
func (s *PostService) Create(ctx context.Context, identity *models.Identity, in PostInput) (*models.Post, error) {
	if identity == nil {
		return nil, unauthenticated(MsgNotAuthenticated)
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.Category = strings.TrimSpace(in.Category)
	in.FeaturedImage = strings.TrimSpace(in.FeaturedImage)

	check := in
	check.Content = strings.TrimSpace(check.Content)
	if err := checkStruct(check); err != nil {
		return nil, err
	}

	base := slug.Generate(in.Title)
	if base == "" {
		return nil, validationError(FieldError{Field: "title", Msg: "Title must contain letters or digits"})
	}

	cat, err := s.resolveCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}

	postSlug, err := s.uniqueSlug(ctx, base, "")
	if err != nil {
		return nil, err
	}

	excerpt := in.Excerpt
	if excerpt == "" {
		excerpt = markdown.Excerpt(in.Content, ExcerptLength)
	}

	p := &models.Post{
		Title:       in.Title,
		Slug:        postSlug,
		Content:     in.Content,
		Excerpt:     excerpt,
		Author:      models.AuthorRef{ID: identity.ID, Name: identity.Name, Email: identity.Email},
		Category:    cat.Ref(),
		Tags:        in.Tags.List(),
		IsPublished: in.IsPublished,
		Comments:    []models.Comment{},
	}
	if in.FeaturedImage != "" {
		img := in.FeaturedImage
		p.FeaturedImage = &img
	}

	created, err := s.posts.Create(ctx, p)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, conflict("Slug already in use", err)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies a partial edit. Only the author or an admin may edit.
func (s *PostService) Update(ctx context.Context, identity *models.Identity, id string, patch PostPatch) (*models.Post, error) {
	p, err := s.authorize(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	patch.Title = strings.TrimSpace(patch.Title)
	patch.Excerpt = strings.TrimSpace(patch.Excerpt)
	patch.Category = strings.TrimSpace(patch.Category)
	patch.FeaturedImage = strings.TrimSpace(patch.FeaturedImage)
	if err := checkStruct(patch); err != nil {
		return nil, err
	}

	if patch.Title != "" && patch.Title != p.Title {
		base := slug.Generate(patch.Title)
		if base == "" {
			return nil, validationError(FieldError{Field: "title", Msg: "Title must contain letters or digits"})
		}
		postSlug, err := s.uniqueSlug(ctx, base, p.ID)
		if err != nil {
			return nil, err
		}
		p.Title = patch.Title
		p.Slug = postSlug
	}
	if strings.TrimSpace(patch.Content) != "" {
		// A derived excerpt follows the content; a hand-written one stays.
		if patch.Excerpt == "" && p.Excerpt == markdown.Excerpt(p.Content, ExcerptLength) {
			p.Excerpt = markdown.Excerpt(patch.Content, ExcerptLength)
		}
		p.Content = patch.Content
	}
	if patch.Excerpt != "" {
		p.Excerpt = patch.Excerpt
	}
	if patch.Category != "" {
		cat, err := s.resolveCategory(ctx, patch.Category)
		if err != nil {
			return nil, err
		}
		p.Category = cat.Ref()
	}
	if patch.FeaturedImage != "" {
		img := patch.FeaturedImage
		p.FeaturedImage = &img
	}
	if patch.Tags.Present() {
		p.Tags = patch.Tags.List()
	}
	if patch.IsPublished != nil {
		p.IsPublished = *patch.IsPublished
	}

	updated, err := s.posts.Update(ctx, p)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, conflict("Slug already in use", err)
	}
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, notFound(MsgPostNotFound)
	}
	return updated, nil
}

// Delete permanently removes a post and its comments. Only the author or
// an admin may delete.
func (s *PostService) Delete(ctx context.Context, identity *models.Identity, id string) error {
	p, err := s.authorize(ctx, identity, id)
	if err != nil {
		return err
	}
	return s.posts.Delete(ctx, p.ID)
}

// AddComment appends a comment by the caller and returns it.
func (s *PostService) AddComment(ctx context.Context, identity *models.Identity, postID, content string) (*models.Comment, error) {
	if identity == nil {
		return nil, unauthenticated(MsgNotAuthenticated)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationError(FieldError{Field: "content", Msg: "Comment required"})
	}
	id, ok := docid.Normalize(postID)
	if !ok {
		return nil, notFound(MsgPostNotFound)
	}

	now := s.now().UTC()
	c := models.Comment{
		ID:        docid.NewAt(now),
		User:      models.CommentAuthor{ID: identity.ID, Name: identity.Name},
		Content:   content,
		CreatedAt: now,
	}

	appended, err := s.posts.AppendComment(ctx, id, c)
	if err != nil {
		return nil, err
	}
	if !appended {
		return nil, notFound(MsgPostNotFound)
	}
	return &c, nil
}

// authorize loads a post for modification by identity.
func (s *PostService) authorize(ctx context.Context, identity *models.Identity, id string) (*models.Post, error) {
	if identity == nil {
		return nil, unauthenticated(MsgNotAuthenticated)
	}
	postID, ok := docid.Normalize(id)
	if !ok {
		return nil, notFound(MsgPostNotFound)
	}

	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound(MsgPostNotFound)
	}
	if !identity.CanModify(p.Author.ID) {
		return nil, forbidden()
	}
	return p, nil
}

func (s *PostService) resolveCategory(ctx context.Context, id string) (*models.Category, error) {
	catID, ok := docid.Normalize(id)
	if !ok {
		return nil, invalidReference(MsgInvalidCategory)
	}
	cat, err := s.categories.FindByID(ctx, catID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, invalidReference(MsgInvalidCategory)
	}
	return cat, nil
}

// uniqueSlug returns base, or base with a clock suffix when another post
// (other than excludeID) already uses it.
func (s *PostService) uniqueSlug(ctx context.Context, base, excludeID string) (string, error) {
	taken, err := s.posts.SlugExists(ctx, base, excludeID)
	if err != nil {
		return "", err
	}
	if taken {
		return slug.WithSuffix(base, s.now()), nil
	}
	return base, nil
}
