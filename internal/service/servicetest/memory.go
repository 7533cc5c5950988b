// Package servicetest provides thread-safe in-memory implementations of the
// service repositories for tests that should not need PostgreSQL.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"inkpress/internal/docid"
	"inkpress/internal/models"
	"inkpress/internal/store"
)

// DB is an in-memory database shared by the repositories it hands out.
type DB struct {
	mu         sync.RWMutex
	users      map[string]models.User
	categories map[string]models.Category
	posts      map[string]storedPost
	seq        int
	clock      time.Time

	// SetViewCountErr, when set, fails every view count write.
	SetViewCountErr error
	viewWrites      int
}

type storedPost struct {
	post models.Post
	seq  int
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		users:      make(map[string]models.User),
		categories: make(map[string]models.Category),
		posts:      make(map[string]storedPost),
		clock:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp. Callers hold mu.
func (db *DB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

// Users returns the account repository.
func (db *DB) Users() *UserRepo { return &UserRepo{db: db} }

// Categories returns the category repository.
func (db *DB) Categories() *CategoryRepo { return &CategoryRepo{db: db} }

// Posts returns the post repository.
func (db *DB) Posts() *PostRepo { return &PostRepo{db: db} }

// ViewWrites returns how many view count writes succeeded.
func (db *DB) ViewWrites() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.viewWrites
}

// RawPost returns the stored post without expansion, for assertions.
func (db *DB) RawPost(id string) (models.Post, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	sp, ok := db.posts[id]
	return sp.post.Clone(), ok
}

// UserRepo implements service.UserRepository.
type UserRepo struct{ db *DB }

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) Create(_ context.Context, name, email, password string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			return nil, fmt.Errorf("create user: %w", store.ErrDuplicate)
		}
	}
	now := r.db.tick()
	u := models.User{
		ID: docid.NewAt(now), Name: name, Email: email, PasswordHash: string(hash),
		Role: role, CreatedAt: now, UpdatedAt: now,
	}
	r.db.users[u.ID] = u
	return &u, nil
}

func (r *UserRepo) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// SetRole changes an account's role, for promoting test admins.
func (r *UserRepo) SetRole(id string, role models.Role) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if u, ok := r.db.users[id]; ok {
		u.Role = role
		r.db.users[id] = u
	}
}

// CategoryRepo implements service.CategoryRepository.
type CategoryRepo struct{ db *DB }

func (r *CategoryRepo) List(_ context.Context) ([]models.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	items := make([]models.Category, 0, len(r.db.categories))
	for _, c := range r.db.categories {
		items = append(items, c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r *CategoryRepo) FindByID(_ context.Context, id string) (*models.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CategoryRepo) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, c := range r.db.categories {
		if c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *CategoryRepo) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.categories {
		if existing.Slug == c.Slug || existing.Name == c.Name {
			return nil, fmt.Errorf("create category: %w", store.ErrDuplicate)
		}
	}
	now := r.db.tick()
	created := models.Category{
		ID: docid.NewAt(now), Name: c.Name, Slug: c.Slug, Description: c.Description,
		CreatedAt: now, UpdatedAt: now,
	}
	r.db.categories[created.ID] = created
	return &created, nil
}

// PostRepo implements service.PostRepository.
type PostRepo struct{ db *DB }

// expand fills author and category from their tables. Callers hold mu.
func (r *PostRepo) expand(p models.Post) models.Post {
	p = p.Clone()
	if u, ok := r.db.users[p.Author.ID]; ok {
		p.Author = models.AuthorRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	if c, ok := r.db.categories[p.Category.ID]; ok {
		p.Category = c.Ref()
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	return p
}

func matches(p models.Post, f models.PostFilter) bool {
	if f.CategoryID != "" && p.Category.ID != f.CategoryID {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Content), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func (r *PostRepo) List(_ context.Context, f models.PostFilter) ([]models.Post, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var matched []storedPost
	for _, sp := range r.db.posts {
		if matches(sp.post, f) {
			matched = append(matched, sp)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })

	total := len(matched)
	items := []models.Post{}
	for i := f.Offset; i < total && len(items) < f.Limit; i++ {
		items = append(items, r.expand(matched[i].post))
	}
	return items, total, nil
}

func (r *PostRepo) FindByID(_ context.Context, id string) (*models.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	sp, ok := r.db.posts[id]
	if !ok {
		return nil, nil
	}
	p := r.expand(sp.post)
	return &p, nil
}

func (r *PostRepo) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, sp := range r.db.posts {
		if sp.post.Slug == slug {
			p := r.expand(sp.post)
			return &p, nil
		}
	}
	return nil, nil
}

func (r *PostRepo) SlugExists(_ context.Context, slug, excludeID string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.slugTaken(slug, excludeID), nil
}

// slugTaken reports whether another post uses slug. Callers hold mu.
func (r *PostRepo) slugTaken(slug, excludeID string) bool {
	for id, sp := range r.db.posts {
		if id != excludeID && sp.post.Slug == slug {
			return true
		}
	}
	return false
}

func (r *PostRepo) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.slugTaken(p.Slug, "") {
		return nil, fmt.Errorf("create post: %w", store.ErrDuplicate)
	}

	now := r.db.tick()
	stored := p.Clone()
	stored.ID = docid.NewAt(now)
	stored.ViewCount = 0
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.db.seq++
	r.db.posts[stored.ID] = storedPost{post: stored, seq: r.db.seq}

	out := r.expand(stored)
	return &out, nil
}

func (r *PostRepo) Update(_ context.Context, p *models.Post) (*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	sp, ok := r.db.posts[p.ID]
	if !ok {
		return nil, nil
	}
	if r.slugTaken(p.Slug, p.ID) {
		return nil, fmt.Errorf("update post: %w", store.ErrDuplicate)
	}

	next := sp.post
	next.Title = p.Title
	next.Slug = p.Slug
	next.Content = p.Content
	next.Excerpt = p.Excerpt
	next.FeaturedImage = p.FeaturedImage
	next.Category = models.CategoryRef{ID: p.Category.ID}
	next.Tags = append([]string(nil), p.Tags...)
	next.IsPublished = p.IsPublished
	next.UpdatedAt = r.db.tick()
	sp.post = next.Clone()
	r.db.posts[p.ID] = sp

	out := r.expand(sp.post)
	return &out, nil
}

func (r *PostRepo) SetViewCount(_ context.Context, id string, count int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.SetViewCountErr != nil {
		return r.db.SetViewCountErr
	}
	sp, ok := r.db.posts[id]
	if !ok {
		return nil
	}
	sp.post.ViewCount = count
	r.db.posts[id] = sp
	r.db.viewWrites++
	return nil
}

func (r *PostRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.posts, id)
	return nil
}

func (r *PostRepo) AppendComment(_ context.Context, postID string, c models.Comment) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	sp, ok := r.db.posts[postID]
	if !ok {
		return false, nil
	}
	sp.post = sp.post.WithComment(c)
	sp.post.UpdatedAt = r.db.tick()
	r.db.posts[postID] = sp
	return true, nil
}
