package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"avocare/api/client"
	"avocare/api/handlers"
	"avocare/api/middleware"
	"avocare/api/routes"
	"avocare/models"
	"avocare/services"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	backend  *handlers.Backend
	server   *httptest.Server
	sessions *services.SessionStore
	forum    *services.Forum
	auth     *services.AuthService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := handlers.NewBackend("integration-secret")
	server := httptest.NewServer(routes.NewRouter(backend))
	t.Cleanup(server.Close)

	sessions := services.NewSessionStore(services.NewMemoryStore(), nil)
	api := client.New(client.Options{BaseURL: server.URL, Tokens: sessions})
	forum := services.NewForum(api, sessions, nil, nil)
	t.Cleanup(forum.Close)

	return &stack{
		backend:  backend,
		server:   server,
		sessions: sessions,
		forum:    forum,
		auth:     services.NewAuthService(api, sessions, nil),
	}
}

type fakeUser struct {
	name, email, password string
}

func newFakeUser() fakeUser {
	return fakeUser{
		name:     gofakeit.FirstName() + " " + gofakeit.LastName(),
		email:    strings.ToLower(gofakeit.FirstName()) + "_" + gofakeit.Numerify("######") + "@example.com",
		password: gofakeit.Password(true, true, true, false, false, 10),
	}
}

func (s *stack) loginNew(t *testing.T, role models.Role) models.User {
	t.Helper()
	u := newFakeUser()
	_, err := s.backend.AddUser(u.name, u.email, u.password, role, true)
	require.NoError(t, err)
	user, err := s.auth.Login(context.Background(), u.email, u.password)
	require.NoError(t, err)
	return *user
}

func TestPostLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	me := s.loginNew(t, models.RoleUser)
	require.NoError(t, s.forum.Focus(ctx))

	res, err := s.forum.CreatePost(ctx, &client.PostForm{
		Title:    "Brown spots after rain",
		Content:  "Dark spots appeared on the fruit after a week of rain.",
		Category: models.CategoryPest,
		Images:   []client.ImageFile{{Name: "spots.jpg", Content: []byte("jpeg")}},
	})
	require.NoError(t, err)
	assert.False(t, res.Censored)
	require.NotNil(t, res.Post)
	postID := res.Post.ID

	view, ok := s.forum.Post(postID)
	require.True(t, ok)
	assert.Equal(t, me.ID, view.UserID)
	require.Len(t, view.ImageURLs, 1)
	assert.True(t, strings.HasPrefix(view.ImageURLs[0], "stub://"))
	assert.False(t, view.Edited)

	// все картинки убраны: сервер получает removeImages=true
	form, err := s.forum.EditFormFor(postID)
	require.NoError(t, err)
	form.ExistingImageURLs = nil
	form.Content = "Dark spots appeared on the fruit, probably anthracnose."
	_, err = s.forum.EditPost(ctx, postID, form)
	require.NoError(t, err)
	view, _ = s.forum.Post(postID)
	assert.Empty(t, view.ImageURLs)
	assert.Contains(t, view.Content, "anthracnose")

	st, err := s.forum.TogglePostLike(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, services.LikeState{Count: 1, Liked: true}, st)
	st, err = s.forum.TogglePostLike(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, services.LikeState{Count: 0, Liked: false}, st)

	require.NoError(t, s.forum.ArchivePost(ctx, postID))
	s.forum.SetTab(services.TabArchived)
	require.Len(t, s.forum.View(), 1)
	s.forum.SetTab(services.TabAll)
	assert.Empty(t, s.forum.View())

	require.NoError(t, s.forum.UnarchivePost(ctx, postID))
	require.Len(t, s.forum.View(), 1)

	require.NoError(t, s.forum.DeletePost(ctx, postID))
	_, ok = s.forum.Post(postID)
	assert.False(t, ok)
}

func TestCommentsAreCensoredByServer(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	author := newFakeUser()
	authorUser, err := s.backend.AddUser(author.name, author.email, author.password, models.RoleUser, true)
	require.NoError(t, err)
	post, err := s.backend.SeedPost(authorUser.ID, models.Post{Title: "Watering", Content: "How often should I water?"})
	require.NoError(t, err)

	s.loginNew(t, models.RoleUser)
	require.NoError(t, s.forum.Focus(ctx))

	res, err := s.forum.AddComment(ctx, post.ID, "this is shit advice", "")
	require.NoError(t, err)
	assert.True(t, res.Censored)

	threads, err := s.forum.Thread(post.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	parent := threads[0].Comment
	assert.Equal(t, "this is **** advice", parent.Content)

	_, err = s.forum.AddComment(ctx, post.ID, "Twice a week in summer", parent.ID)
	require.NoError(t, err)
	threads, _ = s.forum.Thread(post.ID)
	require.Len(t, threads[0].Replies, 1)

	st, err := s.forum.ToggleCommentLike(ctx, post.ID, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, services.LikeState{Count: 1, Liked: true}, st)
}

func TestLikeWithoutLoginSendsNothing(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	u := newFakeUser()
	author, err := s.backend.AddUser(u.name, u.email, u.password, models.RoleUser, true)
	require.NoError(t, err)
	post, err := s.backend.SeedPost(author.ID, models.Post{Title: "Mulch", Content: "Which mulch is best?"})
	require.NoError(t, err)

	require.NoError(t, s.forum.Focus(ctx))
	before := s.backend.Requests()

	_, err = s.forum.TogglePostLike(ctx, post.ID)

	assert.ErrorIs(t, err, services.ErrAuthRequired)
	assert.Equal(t, before, s.backend.Requests())
}

func TestLikeRollsBackOnServerError(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	me := s.loginNew(t, models.RoleUser)
	post, err := s.backend.SeedPost(me.ID, models.Post{Title: "Frost", Content: "Protecting young trees", LikedBy: []string{"a", "b", "c"}})
	require.NoError(t, err)
	require.NoError(t, s.forum.Focus(ctx))

	s.backend.FailNext(http.StatusInternalServerError, "Database unavailable")
	_, err = s.forum.TogglePostLike(ctx, post.ID)

	require.Error(t, err)
	assert.Equal(t, "Database unavailable", services.UserMessage(err))
	st, _ := s.forum.PostLikes(post.ID)
	assert.Equal(t, services.LikeState{Count: 3, Liked: false}, st)
}

func TestLoginNeedsVerification(t *testing.T) {
	s := newStack(t)
	u := newFakeUser()
	_, err := s.backend.AddUser(u.name, u.email, u.password, models.RoleUser, false)
	require.NoError(t, err)

	_, err = s.auth.Login(context.Background(), u.email, u.password)
	assert.ErrorIs(t, err, services.ErrNeedsVerification)
	assert.False(t, s.sessions.LoggedIn())

	msg, err := s.auth.ResendVerification(context.Background(), u.email)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	s.backend.VerifyEmail(u.email)
	_, err = s.auth.Login(context.Background(), u.email, u.password)
	require.NoError(t, err)
	assert.True(t, s.sessions.LoggedIn())
}

func TestRegisterThenDuplicate(t *testing.T) {
	s := newStack(t)
	u := newFakeUser()

	_, err := s.auth.Register(context.Background(), u.name, u.email, u.password)
	require.NoError(t, err)

	_, err = s.auth.Register(context.Background(), u.name, u.email, u.password)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Email is already registered.", services.UserMessage(err))
}

func TestRefreshConnectionError(t *testing.T) {
	s := newStack(t)
	s.server.Close()

	err := s.forum.Refresh(context.Background())

	assert.ErrorIs(t, err, services.ErrConnection)
	assert.Equal(t, "Connection error: please check your network and try again.", services.UserMessage(err))
}

func TestLoginDecodesBackendPayload(t *testing.T) {
	token, err := middleware.IssueToken([]byte("backend-secret"), "6630f1", "user", time.Now(), time.Hour)
	require.NoError(t, err)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "message": "Login successful", "token": "` + token + `",
			"user": {"id": "6630f1", "name": "Grower", "email": "grower@example.com", "image": null,
			"role": "user", "status": "active", "auth_provider": "email", "email_verified": true,
			"created_at": "2024-05-01T10:00:00.123456", "updated_at": "2024-05-02T08:30:00"}}`))
	}))
	defer server.Close()

	sessions := services.NewSessionStore(services.NewMemoryStore(), nil)
	api := client.New(client.Options{BaseURL: server.URL, Tokens: sessions})
	user, err := services.NewAuthService(api, sessions, nil).Login(context.Background(), "grower@example.com", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "Grower", user.Name)
	assert.Equal(t, 2024, user.CreatedAt.Year())
	assert.True(t, sessions.LoggedIn())
}

func TestStubLoginUsesBackendTimeFormat(t *testing.T) {
	s := newStack(t)
	u := newFakeUser()
	_, err := s.backend.AddUser(u.name, u.email, u.password, models.RoleUser, true)
	require.NoError(t, err)

	resp, err := http.Post(s.server.URL+"/api/users/login", "application/json",
		strings.NewReader(`{"email": "`+u.email+`", "password": "`+u.password+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		User map[string]interface{} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	created, ok := body.User["created_at"].(string)
	require.True(t, ok)
	assert.NotContains(t, created, "Z")
	assert.NotContains(t, created, "+")
}
