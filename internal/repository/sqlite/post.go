package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/blog-backend/internal/apperror"
	"github.com/sakif/blog-backend/internal/model"
	"github.com/sakif/blog-backend/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// selectPost reads a post together with its author's email. LEFT JOIN keeps
// posts whose author row cannot be resolved; their Author stays nil.
const selectPost = `SELECT p.id, p.title, p.author_name, p.excerpt, p.tags, p.content,
       p.author_id, p.created_at, p.updated_at, u.email
  FROM posts p
  LEFT JOIN users u ON u.id = p.author_id`

// returningPost lists the columns returned by UPDATE ... RETURNING, in the
// order scanPostRow expects.
const returningPost = `RETURNING id, title, author_name, excerpt, tags, content,
          author_id, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// CreatePost inserts post and fills in ID and timestamps. post.AuthorID must
// already be set by the caller.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	now := timestamp()
	post.ID = xid.New().String()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Tags == nil {
		post.Tags = []string{}
	}

	tags, err := encodeTags(post.Tags)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, title, author_name, excerpt, content, tags, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.Title,
		post.AuthorName,
		post.Excerpt,
		post.Content,
		tags,
		post.AuthorID,
		toMillis(post.CreatedAt),
		toMillis(post.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}

// GetPost retrieves a single post with its author reference.
// Returns apperror.ErrNotFound if no post has that ID.
func (db *DB) GetPost(ctx context.Context, id string) (*model.Post, error) {
	row := db.conn.QueryRowContext(ctx, selectPost+` WHERE p.id = ?`, id)

	post, err := scanJoinedPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	return post, nil
}

// ListPosts returns every post in insertion order.
func (db *DB) ListPosts(ctx context.Context) ([]model.Post, error) {
	return db.listPosts(ctx, selectPost+` ORDER BY p.rowid`)
}

// ListPostsByAuthor returns the posts owned by authorID in insertion order.
func (db *DB) ListPostsByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	return db.listPosts(ctx, selectPost+` WHERE p.author_id = ? ORDER BY p.rowid`, authorID)
}

func (db *DB) listPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanJoinedPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}

// UpdateOwnedPost applies patch to the post matching both id and authorID.
//
// OWNERSHIP IN THE PREDICATE:
// The WHERE clause carries both conditions, so the ownership check and the
// write are a single statement.
//
// PARTIAL UPDATE:
// Each column is set to COALESCE(?, column). An absent patch field binds NULL
// and the column keeps its stored value.
//
// Returns apperror.ErrNotFound when nothing matched, whether the post is
// missing or owned by someone else.
func (db *DB) UpdateOwnedPost(ctx context.Context, id, authorID string, patch model.PostPatch) (*model.Post, error) {
	var tags any
	if patch.Tags != nil {
		encoded, err := encodeTags(*patch.Tags)
		if err != nil {
			return nil, err
		}
		tags = encoded
	}

	row := db.conn.QueryRowContext(ctx,
		`UPDATE posts SET
		     title       = COALESCE(?, title),
		     author_name = COALESCE(?, author_name),
		     excerpt     = COALESCE(?, excerpt),
		     content     = COALESCE(?, content),
		     tags        = COALESCE(?, tags),
		     updated_at  = ?
		 WHERE id = ? AND author_id = ?
		 `+returningPost,
		nullableString(patch.Title),
		nullableString(patch.AuthorName),
		nullableString(patch.Excerpt),
		nullableString(patch.Content),
		tags,
		toMillis(timestamp()),
		id,
		authorID,
	)

	post, err := scanPostRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: updating post %s: %w", id, err)
	}
	return post, nil
}

// DeleteOwnedPost removes the post matching both id and authorID.
// Returns apperror.ErrNotFound when no row was deleted.
func (db *DB) DeleteOwnedPost(ctx context.Context, id, authorID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM posts WHERE id = ? AND author_id = ?`,
		id,
		authorID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}
	return nil
}

func scanPostRow(s rowScanner) (*model.Post, error) {
	var (
		p                model.Post
		tags             string
		created, updated int64
	)
	if err := s.Scan(
		&p.ID, &p.Title, &p.AuthorName, &p.Excerpt, &tags, &p.Content,
		&p.AuthorID, &created, &updated,
	); err != nil {
		return nil, err
	}
	return finishPost(&p, tags, created, updated)
}

func scanJoinedPost(s rowScanner) (*model.Post, error) {
	var (
		p                model.Post
		tags             string
		created, updated int64
		email            sql.NullString
	)
	if err := s.Scan(
		&p.ID, &p.Title, &p.AuthorName, &p.Excerpt, &tags, &p.Content,
		&p.AuthorID, &created, &updated, &email,
	); err != nil {
		return nil, err
	}
	if email.Valid {
		p.Author = &model.AuthorRef{ID: p.AuthorID, Email: email.String}
	}
	return finishPost(&p, tags, created, updated)
}

func finishPost(p *model.Post, tags string, created, updated int64) (*model.Post, error) {
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of post %s: %w", p.ID, err)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}

// nullableString binds an absent patch field as NULL.
func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding tags: %w", err)
	}
	return string(b), nil
}
