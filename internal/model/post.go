package model

import "time"

// Post is a blog post owned by exactly one user.
//
// AuthorID is set once, from the creator's validated identity. Nothing that
// accepts client input (PostInput, PostPatch) has a field for it.
type Post struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	AuthorName string     `json:"authorName"`
	Excerpt    string     `json:"excerpt"`
	Tags       []string   `json:"tags"`
	Content    string     `json:"content"`
	AuthorID   string     `json:"authorId"`
	Author     *AuthorRef `json:"author,omitempty"` // filled on read paths only
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// AuthorRef is the resolved owner of a post as shown to readers.
type AuthorRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// PostInput holds the client-controlled fields of a new post.
type PostInput struct {
	Title      string
	AuthorName string
	Excerpt    string
	Content    string
	Tags       []string
}

// PostPatch is a partial update. A nil field is absent and leaves the stored
// value untouched.
type PostPatch struct {
	Title      *string
	AuthorName *string
	Excerpt    *string
	Content    *string
	Tags       *[]string
}
