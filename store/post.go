package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"unhidden/domain"
)

const postColumns = "id, title, body, created_at, updated_at"

type PostStore struct {
	db *sql.DB
}

func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

func (s *PostStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// List returns limit posts starting at offset, newest first.
func (s *PostStore) List(ctx context.Context, offset, limit int) ([]domain.Post, error) {
	return s.query(ctx, "SELECT "+postColumns+" FROM posts ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?", limit, offset)
}

func (s *PostStore) ListAll(ctx context.Context) ([]domain.Post, error) {
	return s.query(ctx, "SELECT "+postColumns+" FROM posts ORDER BY created_at DESC, rowid DESC")
}

// Search matches term as a case-insensitive substring of the title or body.
// The caller must strip LIKE wildcards from term.
func (s *PostStore) Search(ctx context.Context, term string) ([]domain.Post, error) {
	pattern := "%" + term + "%"
	return s.query(ctx, "SELECT "+postColumns+" FROM posts WHERE title LIKE ? OR body LIKE ? ORDER BY created_at DESC, rowid DESC", pattern, pattern)
}

func (s *PostStore) GetByID(ctx context.Context, id string) (domain.Post, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE id = ?", id)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, domain.ErrNotFound
		}
		return domain.Post{}, fmt.Errorf("get post %s: %w", id, err)
	}
	return p, nil
}

func (s *PostStore) Create(ctx context.Context, p domain.Post) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO posts ("+postColumns+") VALUES (?, ?, ?, ?, ?)",
		p.ID, p.Title, p.Body, toUnix(p.CreatedAt), toUnix(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// Update replaces title and body. updated_at never moves backwards, even if
// the clock does.
func (s *PostStore) Update(ctx context.Context, id, title, body string, updatedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, "UPDATE posts SET title = ?, body = ?, updated_at = MAX(updated_at, ?) WHERE id = ?",
		title, body, toUnix(updatedAt), id)
	if err != nil {
		return fmt.Errorf("update post %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update post %s: %w", id, err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the post. Deleting a missing post is not an error.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	return nil
}

func (s *PostStore) query(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func scanPost(row rowScanner) (domain.Post, error) {
	var (
		p                    domain.Post
		createdAt, updatedAt int64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Body, &createdAt, &updatedAt); err != nil {
		return domain.Post{}, err
	}
	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updatedAt)
	return p, nil
}
