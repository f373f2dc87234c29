package domain

import (
	"fmt"
	"strings"
	"time"
)

type Post struct {
	ID        string
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate reports an ErrValidation when the title or body is blank.
func (p Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(p.Body) == "" {
		return fmt.Errorf("%w: body is required", ErrValidation)
	}
	return nil
}

// Page is one offset-based slice of the post list.
type Page struct {
	Items       []Post
	CurrentPage int
	TotalPages  int
	HasNextPage bool
	NextPage    int
}
