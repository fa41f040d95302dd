package handler

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/sakif/blog-backend/internal/apperror"
	"github.com/sakif/blog-backend/internal/auth"
	"github.com/sakif/blog-backend/internal/model"
)

const (
	MinPasswordLength = 6
	MaxTitleLength    = 200
	MaxTags           = 20
)

// credentialsRequest is the body of /auth/register and /auth/login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// createPostRequest is the body of POST /posts. There is deliberately no
// authorId field: the owner always comes from the token.
type createPostRequest struct {
	Title      string   `json:"title"`
	AuthorName string   `json:"authorName"`
	Excerpt    string   `json:"excerpt"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
}

// updatePostRequest is the body of PATCH /posts/{id}. A nil field was absent
// from the JSON.
type updatePostRequest struct {
	Title      *string   `json:"title"`
	AuthorName *string   `json:"authorName"`
	Excerpt    *string   `json:"excerpt"`
	Content    *string   `json:"content"`
	Tags       *[]string `json:"tags"`
}

// validateCredentials checks the shape of an email/password pair.
func validateCredentials(req credentialsRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperror.ValidationFailed("email", "email must be a valid address")
	}

	if len(req.Password) < MinPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}
	return nil
}

// validatePostInput checks a create request and converts it to model.PostInput.
func validatePostInput(req createPostRequest) (model.PostInput, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"title", req.Title},
		{"authorName", req.AuthorName},
		{"excerpt", req.Excerpt},
		{"content", req.Content},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return model.PostInput{}, apperror.ValidationFailed(f.name, f.name+" is required")
		}
	}
	if len(req.Title) > MaxTitleLength {
		return model.PostInput{}, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if err := validateTags(req.Tags); err != nil {
		return model.PostInput{}, err
	}

	return model.PostInput{
		Title:      strings.TrimSpace(req.Title),
		AuthorName: strings.TrimSpace(req.AuthorName),
		Excerpt:    req.Excerpt,
		Content:    req.Content,
		Tags:       req.Tags,
	}, nil
}

// validatePostPatch checks an update request. Present string fields must be
// non-empty; tags may be an empty array.
func validatePostPatch(req updatePostRequest) (model.PostPatch, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"title", req.Title},
		{"authorName", req.AuthorName},
		{"excerpt", req.Excerpt},
		{"content", req.Content},
	}
	for _, f := range fields {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return model.PostPatch{}, apperror.ValidationFailed(f.name, f.name+" must not be empty")
		}
	}
	if req.Title != nil && len(*req.Title) > MaxTitleLength {
		return model.PostPatch{}, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}

	patch := model.PostPatch{
		Excerpt: req.Excerpt,
		Content: req.Content,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		patch.Title = &title
	}
	if req.AuthorName != nil {
		name := strings.TrimSpace(*req.AuthorName)
		patch.AuthorName = &name
	}
	if req.Tags != nil {
		if err := validateTags(*req.Tags); err != nil {
			return model.PostPatch{}, err
		}
		patch.Tags = req.Tags
	}
	return patch, nil
}

func validateTags(tags []string) error {
	if len(tags) > MaxTags {
		return apperror.ValidationFailed("tags", fmt.Sprintf("at most %d tags are allowed", MaxTags))
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return apperror.ValidationFailed("tags", "tags must not be empty strings")
		}
	}
	return nil
}
