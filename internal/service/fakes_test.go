package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/sakif/blog-backend/internal/apperror"
	"github.com/sakif/blog-backend/internal/model"
	"github.com/sakif/blog-backend/internal/repository"
)

var (
	_ repository.UserRepository = (*fakeUserRepo)(nil)
	_ repository.PostRepository = (*fakePostRepo)(nil)
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// fakeUserRepo and fakePostRepo are in-memory implementations of the
// repository interfaces. They follow the same contract as the SQL stores:
// NotFound for missing rows, Conflict for a duplicate email, and owner
// checks inside the same "statement" as the ID match.

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]string
	nextID  int

	// set to a non-nil error to simulate a database failure
	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]string),
	}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, taken := f.byEmail[user.Email]; taken {
		return apperror.Conflict("user", user.Email)
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.byID[user.ID] = &stored
	f.byEmail[user.Email] = user.ID
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	id, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	result := *f.byID[id]
	return &result, nil
}

// remove simulates an account disappearing after a token was issued.
func (f *fakeUserRepo) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		delete(f.byEmail, u.Email)
		delete(f.byID, id)
	}
}

type fakePostRepo struct {
	mu     sync.Mutex
	posts  map[string]*model.Post
	order  []string
	nextID int

	err error // returned by every method when set
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*model.Post)}
}

func (f *fakePostRepo) CreatePost(_ context.Context, post *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	post.ID = fmt.Sprintf("post-%d", f.nextID)
	post.CreatedAt = time.Now().UTC()
	post.UpdatedAt = post.CreatedAt
	stored := *post
	stored.Tags = append([]string{}, post.Tags...)
	f.posts[post.ID] = &stored
	f.order = append(f.order, post.ID)
	return nil
}

func (f *fakePostRepo) GetPost(_ context.Context, id string) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	result := *p
	return &result, nil
}

func (f *fakePostRepo) ListPosts(_ context.Context) ([]model.Post, error) {
	return f.list(func(*model.Post) bool { return true })
}

func (f *fakePostRepo) ListPostsByAuthor(_ context.Context, authorID string) ([]model.Post, error) {
	return f.list(func(p *model.Post) bool { return p.AuthorID == authorID })
}

func (f *fakePostRepo) list(keep func(*model.Post) bool) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	result := make([]model.Post, 0, len(f.order))
	for _, id := range f.order {
		if p, ok := f.posts[id]; ok && keep(p) {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (f *fakePostRepo) UpdateOwnedPost(_ context.Context, id, authorID string, patch model.PostPatch) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.posts[id]
	if !ok || p.AuthorID != authorID {
		return nil, apperror.NotFound("post", id)
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.AuthorName != nil {
		p.AuthorName = *patch.AuthorName
	}
	if patch.Excerpt != nil {
		p.Excerpt = *patch.Excerpt
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Tags != nil {
		p.Tags = append([]string{}, (*patch.Tags)...)
	}
	p.UpdatedAt = time.Now().UTC()
	result := *p
	return &result, nil
}

func (f *fakePostRepo) DeleteOwnedPost(_ context.Context, id, authorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	p, ok := f.posts[id]
	if !ok || p.AuthorID != authorID {
		return apperror.NotFound("post", id)
	}
	delete(f.posts, id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strPtr(s string) *string { return &s }
