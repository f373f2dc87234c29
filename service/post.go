// Package service holds the post query pipeline and the admin session workflow.
package service

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"unhidden/domain"
)

// DefaultPageSize is the number of posts on every public list page.
const DefaultPageSize = 10

type PostRepository interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, offset, limit int) ([]domain.Post, error)
	ListAll(ctx context.Context) ([]domain.Post, error)
	Search(ctx context.Context, term string) ([]domain.Post, error)
	GetByID(ctx context.Context, id string) (domain.Post, error)
	Create(ctx context.Context, p domain.Post) error
	Update(ctx context.Context, id, title, body string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type PostService struct {
	posts PostRepository
	now   func() time.Time
}

func NewPostService(posts PostRepository) *PostService {
	return &PostService{posts: posts, now: time.Now}
}

// ParsePage turns a raw page query value into a page number. Anything that
// is not a positive integer becomes 1.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// TotalPages is ceil(total / pageSize).
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

var searchTermFilter = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// SanitizeSearchTerm keeps only ASCII letters, digits and spaces, so the
// term can never carry pattern syntax into the store query.
func SanitizeSearchTerm(term string) string {
	return searchTermFilter.ReplaceAllString(term, "")
}

// ListPosts returns one page of posts, newest first. Pages past the end are
// empty rather than an error.
func (s *PostService) ListPosts(ctx context.Context, page, pageSize int) (domain.Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total, err := s.posts.Count(ctx)
	if err != nil {
		return domain.Page{}, err
	}

	result := domain.Page{
		Items:       []domain.Post{},
		CurrentPage: page,
		TotalPages:  TotalPages(total, pageSize),
	}
	if page > result.TotalPages {
		return result, nil
	}

	items, err := s.posts.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return domain.Page{}, err
	}
	result.Items = items
	result.HasNextPage = page < result.TotalPages
	if result.HasNextPage {
		result.NextPage = page + 1
	}
	return result, nil
}

func (s *PostService) DashboardPosts(ctx context.Context) ([]domain.Post, error) {
	return s.posts.ListAll(ctx)
}

func (s *PostService) GetPost(ctx context.Context, id string) (domain.Post, error) {
	id, err := normalizeID(id)
	if err != nil {
		return domain.Post{}, err
	}
	return s.posts.GetByID(ctx, id)
}

func (s *PostService) SearchPosts(ctx context.Context, term string) ([]domain.Post, error) {
	return s.posts.Search(ctx, SanitizeSearchTerm(term))
}

func (s *PostService) CreatePost(ctx context.Context, title, body string) (domain.Post, error) {
	now := s.now().UTC()
	p := domain.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return domain.Post{}, err
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return domain.Post{}, err
	}
	return p, nil
}

// UpdatePost replaces title and body and always bumps updatedAt, even when
// nothing else changed.
func (s *PostService) UpdatePost(ctx context.Context, id, title, body string) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	if err := (domain.Post{Title: title, Body: body}).Validate(); err != nil {
		return err
	}
	return s.posts.Update(ctx, id, title, body, s.now().UTC())
}

// DeletePost is idempotent: missing and malformed ids both succeed.
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	id, err := normalizeID(id)
	if err != nil {
		return nil
	}
	return s.posts.Delete(ctx, id)
}

func normalizeID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", domain.ErrInvalidID
	}
	return parsed.String(), nil
}
