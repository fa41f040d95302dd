// Package repository declares the persistence contracts the services depend on.
//
// Implementations live in subpackages (sqlite, postgres). Both translate
// "no matching row" into apperror.ErrNotFound and unique-key violations into
// apperror.ErrConflict, so services never see driver errors for those cases.
package repository

import (
	"context"

	"github.com/sakif/blog-backend/internal/model"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// CreateUser assigns ID and timestamps to user and inserts it.
	// Returns apperror.ErrConflict when the email is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// PostRepository persists posts.
//
// The *Owned methods take the acting user's ID and apply it inside the same
// statement as the ID match. A post that exists but belongs to someone else
// is reported exactly like a missing post.
type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]model.Post, error)
	UpdateOwnedPost(ctx context.Context, id, authorID string, patch model.PostPatch) (*model.Post, error)
	DeleteOwnedPost(ctx context.Context, id, authorID string) error
}

// Store is a complete backend: both repositories plus lifecycle hooks.
type Store interface {
	UserRepository
	PostRepository
	Ping(ctx context.Context) error
	Close() error
}
