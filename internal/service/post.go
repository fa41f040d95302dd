// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, validates input, writes responses
//	Service (Business layer) → enforces ownership, orchestrates the stores
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, never a concrete store, so the same
// code runs over SQLite, PostgreSQL, or the in-memory fakes in the tests.
//
// OWNERSHIP:
// The acting user's ID is an explicit parameter of every owner-scoped
// operation. It comes from the validated token, never from the request body.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/blog-backend/internal/apperror"
	"github.com/sakif/blog-backend/internal/model"
	"github.com/sakif/blog-backend/internal/repository"
)

// PostService handles business logic for blog posts.
type PostService struct {
	repo   repository.PostRepository
	logger *slog.Logger
}

// NewPostService creates a new PostService.
func NewPostService(repo repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{
		repo:   repo,
		logger: logger,
	}
}

// Create stores a new post owned by authorID.
//
// The owner always comes from the authorID parameter. PostInput has no owner
// field, so a client cannot create a post on someone else's behalf.
func (s *PostService) Create(ctx context.Context, input model.PostInput, authorID string) (*model.Post, error) {
	if authorID == "" {
		return nil, apperror.ValidationFailed("authorId", "author is required")
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	post := &model.Post{
		Title:      input.Title,
		AuthorName: input.AuthorName,
		Excerpt:    input.Excerpt,
		Content:    input.Content,
		Tags:       tags,
		AuthorID:   authorID,
	}

	if err := s.repo.CreatePost(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("authorID", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.String("authorID", authorID),
	)

	return post, nil
}

// FindAll returns every post in store order, each annotated with its author.
func (s *PostService) FindAll(ctx context.Context) ([]model.Post, error) {
	posts, err := s.repo.ListPosts(ctx)
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// FindOne returns the post with the given ID. ok is false when no such post
// exists; that is not an error.
func (s *PostService) FindOne(ctx context.Context, id string) (post *model.Post, ok bool, err error) {
	post, err = s.repo.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("getting post %s: %w", id, err)
	}
	return post, true, nil
}

// FindByAuthor returns the posts owned by authorID.
func (s *PostService) FindByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	posts, err := s.repo.ListPostsByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("listing posts of %s: %w", authorID, err)
	}
	return posts, nil
}

// Update applies patch to the post if authorID owns it.
//
// ok is false when the post does not exist or belongs to someone else. The
// two cases are not distinguished. An empty patch still goes through the
// owner-scoped write, so only updatedAt moves.
func (s *PostService) Update(ctx context.Context, id string, patch model.PostPatch, authorID string) (post *model.Post, ok bool, err error) {
	post, err = s.repo.UpdateOwnedPost(ctx, id, authorID, patch)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, false, nil
		}
		s.logger.Error("failed to update post",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, false, fmt.Errorf("updating post %s: %w", id, err)
	}

	s.logger.Info("post updated",
		slog.String("id", id),
		slog.String("authorID", authorID),
	)
	return post, true, nil
}

// Remove deletes the post if authorID owns it and reports whether a post was
// removed. Removing the same post twice returns true, then false.
func (s *PostService) Remove(ctx context.Context, id, authorID string) (bool, error) {
	if err := s.repo.DeleteOwnedPost(ctx, id, authorID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		s.logger.Error("failed to delete post",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("deleting post %s: %w", id, err)
	}

	s.logger.Info("post deleted",
		slog.String("id", id),
		slog.String("authorID", authorID),
	)
	return true, nil
}
