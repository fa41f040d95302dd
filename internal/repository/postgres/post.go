package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/blog-backend/internal/apperror"
	"github.com/sakif/blog-backend/internal/model"
)

const selectPost = `SELECT p.id, p.title, p.author_name, p.excerpt, p.tags, p.content,
       p.author_id, p.created_at, p.updated_at, u.email
  FROM posts p
  LEFT JOIN users u ON u.id = p.author_id`

const returningPost = `RETURNING id, title, author_name, excerpt, tags, content,
          author_id, created_at, updated_at`

// CreatePost inserts post and fills in ID and timestamps.
func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	now := timestamp()
	post.ID = xid.New().String()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Tags == nil {
		post.Tags = []string{}
	}

	const query = `INSERT INTO posts (id, title, author_name, excerpt, content, tags, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.pool.Exec(ctx, query,
		post.ID, post.Title, post.AuthorName, post.Excerpt, post.Content,
		post.Tags, post.AuthorID, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating post: %w", err)
	}
	return nil
}

// GetPost fetches a single post with its author reference.
func (s *Store) GetPost(ctx context.Context, id string) (*model.Post, error) {
	post, err := scanJoinedPost(s.pool.QueryRow(ctx, selectPost+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("postgres: getting post %s: %w", id, err)
	}
	return post, nil
}

// ListPosts returns every post in insertion order.
func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	return s.listPosts(ctx, selectPost+` ORDER BY p.seq`)
}

// ListPostsByAuthor returns the posts owned by authorID in insertion order.
func (s *Store) ListPostsByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	return s.listPosts(ctx, selectPost+` WHERE p.author_id = $1 ORDER BY p.seq`, authorID)
}

func (s *Store) listPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanJoinedPost(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating posts: %w", err)
	}
	return posts, nil
}

// UpdateOwnedPost applies patch to the post matching both id and authorID.
// Nil patch fields bind NULL, so COALESCE keeps the stored value. Returns
// apperror.ErrNotFound when the post is missing or owned by someone else.
func (s *Store) UpdateOwnedPost(ctx context.Context, id, authorID string, patch model.PostPatch) (*model.Post, error) {
	var tags []string
	if patch.Tags != nil {
		tags = *patch.Tags
		if tags == nil {
			tags = []string{}
		}
	}

	query := `UPDATE posts SET
		    title       = COALESCE($1, title),
		    author_name = COALESCE($2, author_name),
		    excerpt     = COALESCE($3, excerpt),
		    content     = COALESCE($4, content),
		    tags        = COALESCE($5, tags),
		    updated_at  = $6
		WHERE id = $7 AND author_id = $8
		` + returningPost

	row := s.pool.QueryRow(ctx, query,
		patch.Title, patch.AuthorName, patch.Excerpt, patch.Content,
		tags, timestamp(), id, authorID,
	)
	post, err := scanPostRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("postgres: updating post %s: %w", id, err)
	}
	return post, nil
}

// DeleteOwnedPost removes the post matching both id and authorID.
func (s *Store) DeleteOwnedPost(ctx context.Context, id, authorID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return fmt.Errorf("postgres: deleting post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("post", id)
	}
	return nil
}

func scanPostRow(row pgx.Row) (*model.Post, error) {
	var p model.Post
	if err := row.Scan(
		&p.ID, &p.Title, &p.AuthorName, &p.Excerpt, &p.Tags, &p.Content,
		&p.AuthorID, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return normalisePost(&p), nil
}

func scanJoinedPost(row pgx.Row) (*model.Post, error) {
	var (
		p     model.Post
		email *string
	)
	if err := row.Scan(
		&p.ID, &p.Title, &p.AuthorName, &p.Excerpt, &p.Tags, &p.Content,
		&p.AuthorID, &p.CreatedAt, &p.UpdatedAt, &email,
	); err != nil {
		return nil, err
	}
	if email != nil {
		p.Author = &model.AuthorRef{ID: p.AuthorID, Email: *email}
	}
	return normalisePost(&p), nil
}

func normalisePost(p *model.Post) *model.Post {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p
}
