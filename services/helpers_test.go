package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"avocare/api/client"
	"avocare/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu      sync.Mutex
	alerts  []string
	titles  []string
	prompts []string
}

func (n *recordingNotifier) Alert(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	n.alerts = append(n.alerts, message)
}

func (n *recordingNotifier) PromptLogin(action string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prompts = append(n.prompts, action)
}

func (n *recordingNotifier) Prompts() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.prompts)
}

func (n *recordingNotifier) Alerts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.alerts...)
}

func signedToken(t *testing.T, userID string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newSessions(t *testing.T) (*SessionStore, *MemoryStore) {
	t.Helper()
	kv := NewMemoryStore()
	return NewSessionStore(kv, nil), kv
}

func loginAs(t *testing.T, s *SessionStore, user models.User) {
	t.Helper()
	require.NoError(t, s.Login(context.Background(), signedToken(t, user.ID, time.Now().Add(time.Hour)), &user))
}

// fakeForumAPI - ForumAPI в памяти с подсчетом вызовов
type fakeForumAPI struct {
	mu sync.Mutex

	posts    []models.Post
	archived    []models.Post
	listErr     error
	archivedErr error

	likeResp *models.LikeResponse
	likeErr  error
	// likeEntered/likeRelease позволяют задержать ответ на лайк
	likeEntered chan struct{}
	likeRelease chan struct{}

	mutationResp *models.PostMutationResponse
	mutationErr  error
	lastForm     *client.PostForm
	lastComment  models.CommentRequest

	calls map[string]int
}

func newFakeForumAPI(posts ...models.Post) *fakeForumAPI {
	return &fakeForumAPI{
		posts:        posts,
		mutationResp: &models.PostMutationResponse{Message: "ok"},
		calls:        make(map[string]int),
	}
}

func (f *fakeForumAPI) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeForumAPI) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeForumAPI) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeForumAPI) ListPosts(context.Context) ([]models.Post, error) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Post(nil), f.posts...), nil
}

func (f *fakeForumAPI) ListArchivedPosts(context.Context) ([]models.Post, error) {
	f.record("archived")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.archivedErr != nil {
		return nil, f.archivedErr
	}
	return append([]models.Post(nil), f.archived...), nil
}

func (f *fakeForumAPI) CreatePost(_ context.Context, form *client.PostForm) (*models.PostMutationResponse, error) {
	f.record("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastForm = form
	return f.mutationResp, f.mutationErr
}

func (f *fakeForumAPI) UpdatePost(_ context.Context, _ string, form *client.PostForm) (*models.PostMutationResponse, error) {
	f.record("update")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastForm = form
	return f.mutationResp, f.mutationErr
}

func (f *fakeForumAPI) DeletePost(context.Context, string) error {
	f.record("delete")
	return f.mutationErr
}

func (f *fakeForumAPI) ArchivePost(context.Context, string) error {
	f.record("archive")
	return f.mutationErr
}

func (f *fakeForumAPI) UnarchivePost(context.Context, string) error {
	f.record("unarchive")
	return f.mutationErr
}

func (f *fakeForumAPI) like(ctx context.Context, name string) (*models.LikeResponse, error) {
	f.record(name)
	if f.likeEntered != nil {
		f.likeEntered <- struct{}{}
	}
	if f.likeRelease != nil {
		select {
		case <-f.likeRelease:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.likeResp, f.likeErr
}

func (f *fakeForumAPI) TogglePostLike(ctx context.Context, _ string) (*models.LikeResponse, error) {
	return f.like(ctx, "like")
}

func (f *fakeForumAPI) AddComment(_ context.Context, _ string, req models.CommentRequest) (*models.MessageResponse, error) {
	f.record("comment")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastComment = req
	if f.mutationErr != nil {
		return nil, f.mutationErr
	}
	return &models.MessageResponse{Message: "Comment added", Censored: f.mutationResp.Censored}, nil
}

func (f *fakeForumAPI) UpdateComment(context.Context, string, string, string) (*models.MessageResponse, error) {
	f.record("update_comment")
	return &models.MessageResponse{Message: "Comment updated successfully"}, f.mutationErr
}

func (f *fakeForumAPI) DeleteComment(context.Context, string, string) error {
	f.record("delete_comment")
	return f.mutationErr
}

func (f *fakeForumAPI) ToggleCommentLike(ctx context.Context, _, _ string) (*models.LikeResponse, error) {
	return f.like(ctx, "like_comment")
}
