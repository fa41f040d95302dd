package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sakif/blog-backend/internal/apperror"
	"github.com/sakif/blog-backend/internal/model"
)

func strPtr(s string) *string { return &s }

// createTestPost creates a post owned by authorID and fails the test if it errors.
func createTestPost(t *testing.T, db *DB, authorID, title string) *model.Post {
	t.Helper()
	post := &model.Post{
		Title:      title,
		AuthorName: "Author",
		Excerpt:    "excerpt of " + title,
		Content:    "content of " + title,
		Tags:       []string{"go", "sql"},
		AuthorID:   authorID,
	}
	if err := db.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestCreatePost(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@x.com")

	post := &model.Post{Title: "Hi", AuthorName: "A", Excerpt: "e", Content: "c", AuthorID: owner.ID}
	if err := db.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	if post.ID == "" {
		t.Error("CreatePost() did not set post.ID")
	}
	if post.CreatedAt.IsZero() || post.UpdatedAt.IsZero() {
		t.Error("CreatePost() did not set timestamps")
	}
	if post.Tags == nil {
		t.Error("CreatePost() left Tags nil, want empty slice")
	}
}

func TestGetPost_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@x.com")
	created := createTestPost(t, db, owner.ID, "round trip")

	found, err := db.GetPost(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}

	if found.Title != created.Title || found.AuthorName != created.AuthorName ||
		found.Excerpt != created.Excerpt || found.Content != created.Content {
		t.Errorf("GetPost() = %+v, want fields of %+v", found, created)
	}
	if !reflect.DeepEqual(found.Tags, []string{"go", "sql"}) {
		t.Errorf("Tags = %v, want [go sql]", found.Tags)
	}
	if found.AuthorID != owner.ID {
		t.Errorf("AuthorID = %q, want %q", found.AuthorID, owner.ID)
	}
	if found.Author == nil || found.Author.Email != "owner@x.com" {
		t.Errorf("Author = %+v, want email owner@x.com", found.Author)
	}
	// Timestamps handed back by CreatePost are the stored values.
	if !found.CreatedAt.Equal(created.CreatedAt) || !found.UpdatedAt.Equal(created.UpdatedAt) {
		t.Errorf("timestamps = %v/%v, want %v/%v",
			found.CreatedAt, found.UpdatedAt, created.CreatedAt, created.UpdatedAt)
	}
}

func TestGetPost_UnresolvedAuthor(t *testing.T) {
	db := newTestDB(t)
	created := createTestPost(t, db, "ghost-user", "orphan")

	found, err := db.GetPost(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if found.Author != nil {
		t.Errorf("Author = %+v, want nil for unknown user", found.Author)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetPost(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetPost() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListPosts_Empty(t *testing.T) {
	db := newTestDB(t)

	posts, err := db.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if posts == nil || len(posts) != 0 {
		t.Errorf("ListPosts() = %v, want empty non-nil slice", posts)
	}
}

func TestListPosts_InsertionOrder(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@x.com")

	first := createTestPost(t, db, owner.ID, "first")
	second := createTestPost(t, db, owner.ID, "second")
	third := createTestPost(t, db, owner.ID, "third")

	posts, err := db.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("ListPosts() returned %d posts, want 3", len(posts))
	}

	want := []string{first.ID, second.ID, third.ID}
	for i, p := range posts {
		if p.ID != want[i] {
			t.Errorf("posts[%d].ID = %q, want %q", i, p.ID, want[i])
		}
		if p.Author == nil {
			t.Errorf("posts[%d].Author is nil", i)
		}
	}
}

func TestListPostsByAuthor(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@x.com")
	bob := createTestUser(t, db, "bob@x.com")

	createTestPost(t, db, alice.ID, "a1")
	createTestPost(t, db, bob.ID, "b1")
	createTestPost(t, db, alice.ID, "a2")

	posts, err := db.ListPostsByAuthor(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListPostsByAuthor() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("ListPostsByAuthor() returned %d posts, want 2", len(posts))
	}
	for _, p := range posts {
		if p.AuthorID != alice.ID {
			t.Errorf("post %s AuthorID = %q, want %q", p.ID, p.AuthorID, alice.ID)
		}
	}
}

// =========================================================================
// OWNER-SCOPED UPDATE TESTS
// =========================================================================

func TestUpdateOwnedPost_PartialTitleOnly(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@x.com")
	created := createTestPost(t, db, owner.ID, "before")

	updated, err := db.UpdateOwnedPost(context.Background(), created.ID, owner.ID,
		model.PostPatch{Title: strPtr("after")})
	if err != nil {
		t.Fatalf("UpdateOwnedPost() error = %v", err)
	}

	if updated.Title != "after" {
		t.Errorf("Title = %q, want %q", updated.Title, "after")
	}
	// Everything not in the patch keeps its stored value.
	if updated.Content != created.Content {
		t.Errorf("Content = %q, want %q", updated.Content, created.Content)
	}
	if updated.Excerpt != created.Excerpt {
		t.Errorf("Excerpt = %q, want %q", updated.Excerpt, created.Excerpt)
	}
	if updated.AuthorName != created.AuthorName {
		t.Errorf("AuthorName = %q, want %q", updated.AuthorName, created.AuthorName)
	}
	if !reflect.DeepEqual(updated.Tags, created.Tags) {
		t.Errorf("Tags = %v, want %v", updated.Tags, created.Tags)
	}
	if updated.AuthorID != owner.ID {
		t.Errorf("AuthorID = %q, want %q", updated.AuthorID, owner.ID)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
}

func TestUpdateOwnedPost_ReplacesTags(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@x.com")
	created := createTestPost(t, db, owner.ID, "tags")

	empty := []string{}
	updated, err := db.UpdateOwnedPost(context.Background(), created.ID, owner.ID,
		model.PostPatch{Tags: &empty})
	if err != nil {
		t.Fatalf("UpdateOwnedPost() error = %v", err)
	}
	if len(updated.Tags) != 0 {
		t.Errorf("Tags = %v, want empty", updated.Tags)
	}

	found, err := db.GetPost(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if len(found.Tags) != 0 {
		t.Errorf("persisted Tags = %v, want empty", found.Tags)
	}
}

func TestUpdateOwnedPost_OtherUserGetsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@x.com")
	intruder := createTestUser(t, db, "intruder@x.com")
	created := createTestPost(t, db, owner.ID, "mine")

	_, err := db.UpdateOwnedPost(context.Background(), created.ID, intruder.ID,
		model.PostPatch{Title: strPtr("hijacked")})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("UpdateOwnedPost() by non-owner error = %v, want ErrNotFound", err)
	}

	found, err := db.GetPost(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if found.Title != "mine" {
		t.Errorf("Title = %q after rejected update, want %q", found.Title, "mine")
	}
}

func TestUpdateOwnedPost_MissingPost(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@x.com")

	_, err := db.UpdateOwnedPost(context.Background(), "nonexistent", owner.ID,
		model.PostPatch{Title: strPtr("x")})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateOwnedPost() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// OWNER-SCOPED DELETE TESTS
// =========================================================================

func TestDeleteOwnedPost_Twice(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@x.com")
	created := createTestPost(t, db, owner.ID, "to delete")

	if err := db.DeleteOwnedPost(context.Background(), created.ID, owner.ID); err != nil {
		t.Fatalf("first DeleteOwnedPost() error = %v", err)
	}

	err := db.DeleteOwnedPost(context.Background(), created.ID, owner.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteOwnedPost() error = %v, want ErrNotFound", err)
	}

	_, err = db.GetPost(context.Background(), created.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetPost() after delete error = %v, want ErrNotFound", err)
	}
}

func TestDeleteOwnedPost_OtherUserGetsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@x.com")
	intruder := createTestUser(t, db, "intruder@x.com")
	created := createTestPost(t, db, owner.ID, "keep me")

	err := db.DeleteOwnedPost(context.Background(), created.ID, intruder.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("DeleteOwnedPost() by non-owner error = %v, want ErrNotFound", err)
	}

	if _, err := db.GetPost(context.Background(), created.ID); err != nil {
		t.Errorf("post should still exist, GetPost() error = %v", err)
	}
}
