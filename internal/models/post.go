// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AuthorRef is the expanded author of a post.
type AuthorRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CategoryRef is the expanded category of a post.
type CategoryRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CommentAuthor identifies who wrote a comment.
type CommentAuthor struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Comment is embedded in a post and only ever appended.
type Comment struct {
	ID        string        `json:"_id"`
	User      CommentAuthor `json:"user"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Post is the primary entity of the blog. Draft and published posts share
// the same table, differentiated by IsPublished.
type Post struct {
	ID            string      `json:"_id"`
	Title         string      `json:"title"`
	Slug          string      `json:"slug"`
	Content       string      `json:"content"`
	Excerpt       string      `json:"excerpt"`
	FeaturedImage *string     `json:"featuredImage"`
	Author        AuthorRef   `json:"author"`
	Category      CategoryRef `json:"category"`
	Tags          []string    `json:"tags"`
	IsPublished   bool        `json:"isPublished"`
	ViewCount     int         `json:"viewCount"`
	Comments      []Comment   `json:"comments"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// WithComment returns a copy of the post with c appended. The receiver's
// comment slice is never written to.
func (p Post) WithComment(c Comment) Post {
	comments := make([]Comment, len(p.Comments), len(p.Comments)+1)
	copy(comments, p.Comments)
	p.Comments = append(comments, c)
	return p
}

// Clone returns a deep copy of the post's slices and pointers.
func (p Post) Clone() Post {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	if p.Comments != nil {
		p.Comments = append([]Comment(nil), p.Comments...)
	}
	if p.FeaturedImage != nil {
		img := *p.FeaturedImage
		p.FeaturedImage = &img
	}
	return p
}

// PostFilter selects a page of posts.
type PostFilter struct {
	CategoryID string
	Query      string
	Offset     int
	Limit      int
}

// PostPage is one page of a filtered post listing.
type PostPage struct {
	Items      []Post `json:"items"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}

// Tags is a tag list as submitted by clients: either a JSON array of
// strings or a single comma-separated string. Entries are trimmed and
// empty entries dropped.
type Tags struct {
	values  []string
	present bool
}

// TagsFromList builds a present tag list from individual values.
func TagsFromList(values ...string) Tags {
	return Tags{values: normalizeTags(values), present: true}
}

// TagsFromString builds a tag list from a comma-separated string. An empty
// string counts as not provided.
func TagsFromString(s string) Tags {
	if s == "" {
		return Tags{}
	}
	return Tags{values: normalizeTags(strings.Split(s, ",")), present: true}
}

// Present reports whether the client supplied a value that should be
// applied. An empty array counts; an empty string does not.
func (t Tags) Present() bool {
	return t.present
}

// List returns the normalized tags, never nil.
func (t Tags) List() []string {
	out := make([]string, len(t.values))
	copy(out, t.values)
	return out
}

// UnmarshalJSON accepts an array of strings or a comma-separated string.
func (t *Tags) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = TagsFromList(list...)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("tags must be a list of strings or a comma-separated string")
	}
	*t = TagsFromString(s)
	return nil
}

// MarshalJSON encodes the tags as an array.
func (t Tags) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.List())
}

func normalizeTags(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
