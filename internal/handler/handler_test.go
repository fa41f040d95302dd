package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/blog-backend/internal/auth"
	"github.com/sakif/blog-backend/internal/handler"
	"github.com/sakif/blog-backend/internal/repository/sqlite"
	"github.com/sakif/blog-backend/internal/service"
)

// testAPI is a router over real services and an in-memory SQLite store.
type testAPI struct {
	router http.Handler
	tokens *auth.TokenService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	passwords := auth.NewPasswordService(bcrypt.MinCost)

	authHandler := handler.NewAuthHandler(service.NewAuthService(db, tokens, passwords, logger), logger)
	postHandler := handler.NewPostHandler(service.NewPostService(db, logger), logger)

	r := chi.NewRouter()
	r.Post("/auth/register", authHandler.HandleRegister)
	r.Post("/auth/login", authHandler.HandleLogin)
	r.Get("/auth/me", auth.Guard(tokens, authHandler.HandleMe))
	r.Post("/auth/refresh", auth.Guard(tokens, authHandler.HandleRefresh))
	r.Post("/auth/logout", auth.Guard(tokens, authHandler.HandleLogout))
	r.Get("/posts", postHandler.HandleList)
	r.Post("/posts", auth.Guard(tokens, postHandler.HandleCreate))
	r.Get("/posts/my-posts", auth.Guard(tokens, postHandler.HandleMyPosts))
	r.Get("/posts/{id}", postHandler.HandleGet)
	r.Patch("/posts/{id}", auth.Guard(tokens, postHandler.HandleUpdate))
	r.Delete("/posts/{id}", auth.Guard(tokens, postHandler.HandleDelete))

	return &testAPI{router: r, tokens: tokens}
}

// do sends a request with an optional JSON body and bearer token.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// registerAndLogin creates an account and returns its token and user ID.
func (a *testAPI) registerAndLogin(t *testing.T, email string) (token, userID string) {
	t.Helper()
	creds := map[string]string{"email": email, "password": "secret123"}

	rr := a.do(t, http.MethodPost, "/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = a.do(t, http.MethodPost, "/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	return res.Token, res.User.ID
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

type postBody struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	AuthorName string   `json:"authorName"`
	Excerpt    string   `json:"excerpt"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	AuthorID   string   `json:"authorId"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
	Author     *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"author"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newPost(title string) map[string]any {
	return map[string]any{
		"title":      title,
		"authorName": "Ada",
		"excerpt":    "short",
		"content":    "long body",
		"tags":       []string{"go"},
	}
}
