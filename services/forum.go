package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"avocare/api/client"
	"avocare/models"

	"go.uber.org/zap"
)

// ForumAPI - часть REST клиента, нужная форуму
type ForumAPI interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListArchivedPosts(ctx context.Context) ([]models.Post, error)
	CreatePost(ctx context.Context, form *client.PostForm) (*models.PostMutationResponse, error)
	UpdatePost(ctx context.Context, id string, form *client.PostForm) (*models.PostMutationResponse, error)
	DeletePost(ctx context.Context, id string) error
	ArchivePost(ctx context.Context, id string) error
	UnarchivePost(ctx context.Context, id string) error
	TogglePostLike(ctx context.Context, id string) (*models.LikeResponse, error)
	AddComment(ctx context.Context, postID string, req models.CommentRequest) (*models.MessageResponse, error)
	UpdateComment(ctx context.Context, postID, commentID, content string) (*models.MessageResponse, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
	ToggleCommentLike(ctx context.Context, postID, commentID string) (*models.LikeResponse, error)
}

// Tab - вкладка ленты
type Tab string

const (
	TabAll      Tab = "all"
	TabMy       Tab = "my"
	TabArchived Tab = "archived"
)

var Tabs = []Tab{TabAll, TabMy, TabArchived}

func ParseTab(s string) (Tab, error) {
	for _, t := range Tabs {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// CommentKey адресует комментарий внутри поста
type CommentKey struct {
	PostID    string
	CommentID string
}

// PostView - пост с наложенным локальным состоянием лайков
type PostView struct {
	models.Post
	Liked  bool
	Edited bool
	Owned  bool
	// CommentLiked - флаги лайков текущего пользователя по id комментария
	CommentLiked map[string]bool
}

// Forum - состояние экрана форума: списки постов, фильтры и оптимистичные лайки
type Forum struct {
	api      ForumAPI
	sessions *SessionStore
	gate     *Gate
	notifier Notifier
	filter   *ProfanityFilter
	log      *zap.SugaredLogger

	mu       sync.RWMutex
	posts    []models.Post
	archived []models.Post
	tab      Tab
	category models.Category
	query    string

	postLikes    *Optimistic[string, LikeState]
	commentLikes *Optimistic[CommentKey, LikeState]

	unsubscribe func()
}

func NewForum(api ForumAPI, sessions *SessionStore, notifier Notifier, log *zap.SugaredLogger) *Forum {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	f := &Forum{
		api:          api,
		sessions:     sessions,
		gate:         NewGate(sessions, notifier),
		notifier:     notifier,
		filter:       DefaultProfanityFilter,
		log:          log,
		tab:          TabAll,
		category:     models.CategoryAll,
		postLikes:    NewOptimistic[string, LikeState]("post_like"),
		commentLikes: NewOptimistic[CommentKey, LikeState]("comment_like"),
	}
	f.unsubscribe = sessions.Subscribe(f.onSessionChange)
	return f
}

// Close отписывает форум от изменений сессии
func (f *Forum) Close() {
	if f.unsubscribe != nil {
		f.unsubscribe()
	}
}

func (f *Forum) Gate() *Gate {
	return f.gate
}

func (f *Forum) onSessionChange(s Session) {
	if s.Token != "" {
		return
	}
	// после выхода архив и флаги лайков принадлежат уже другому пользователю
	f.mu.Lock()
	f.archived = nil
	f.mu.Unlock()
	clearLiked := func(prev LikeState, ok bool) LikeState {
		prev.Liked = false
		return prev
	}
	for _, id := range f.postIDs() {
		f.postLikes.SeedWith(id, clearLiked)
	}
}

func (f *Forum) postIDs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids := make([]string, 0, len(f.posts)+len(f.archived))
	for _, p := range f.posts {
		ids = append(ids, p.ID)
	}
	for _, p := range f.archived {
		ids = append(ids, p.ID)
	}
	return ids
}

// Focus - вход на экран: перечитать сессию и обновить ленту
func (f *Forum) Focus(ctx context.Context) error {
	if err := f.sessions.Hydrate(ctx); err != nil {
		f.log.Warnw("failed to hydrate session", "error", err)
	}
	return f.Refresh(ctx)
}

// Refresh загружает посты (и архив, если пользователь вошел).
// При ошибке показывает алерт и оставляет прежние списки как есть.
func (f *Forum) Refresh(ctx context.Context) error {
	posts, err := f.api.ListPosts(ctx)
	if err != nil {
		f.log.Errorw("failed to fetch posts", "error", err)
		f.alertFailure("load posts", err)
		return fmt.Errorf("fetch posts: %w", err)
	}

	sess := f.sessions.Current()
	var archived []models.Post
	if f.sessions.LoggedIn() {
		archived, err = f.api.ListArchivedPosts(ctx)
		if err != nil {
			f.log.Errorw("failed to fetch archived posts", "error", err)
			f.alertFailure("load archived posts", err)
			return fmt.Errorf("fetch archived posts: %w", err)
		}
	}

	f.mu.Lock()
	f.posts = posts
	f.archived = archived
	f.mu.Unlock()

	f.seedLikes(sess.UserID, posts, archived)
	f.log.Debugw("forum refreshed", "posts", len(posts), "archived", len(archived))
	return nil
}

// seedLikes переносит счетчики с сервера в локальное состояние.
// Если сервер не прислал liked_by, локальный флаг сохраняется.
func (f *Forum) seedLikes(userID string, lists ...[]models.Post) {
	posts := make(map[string]bool)
	comments := make(map[CommentKey]bool)

	for _, list := range lists {
		for i := range list {
			p := &list[i]
			posts[p.ID] = true
			f.postLikes.SeedWith(p.ID, func(prev LikeState, ok bool) LikeState {
				liked := ok && prev.Liked
				if p.LikedBy != nil {
					liked = p.IsLikedBy(userID)
				}
				return LikeState{Count: p.Likes, Liked: liked}
			})

			for j := range p.Comments {
				c := &p.Comments[j]
				if !c.HasStableID() {
					f.log.Warnw("comment without id skipped for likes", "post_id", p.ID, "error", ErrMissingCommentID)
					continue
				}
				key := CommentKey{PostID: p.ID, CommentID: c.ID}
				comments[key] = true
				f.commentLikes.SeedWith(key, func(prev LikeState, ok bool) LikeState {
					liked := ok && prev.Liked
					if c.LikedBy != nil {
						liked = c.IsLikedBy(userID)
					}
					return LikeState{Count: c.Likes, Liked: liked}
				})
			}
		}
	}

	f.postLikes.Retain(func(id string) bool { return posts[id] })
	f.commentLikes.Retain(func(k CommentKey) bool { return comments[k] })
}

func (f *Forum) SetTab(t Tab) {
	f.mu.Lock()
	f.tab = t
	f.mu.Unlock()
}

func (f *Forum) SetCategory(c models.Category) {
	if c == "" {
		c = models.CategoryAll
	}
	f.mu.Lock()
	f.category = c
	f.mu.Unlock()
}

func (f *Forum) SetQuery(q string) {
	f.mu.Lock()
	f.query = q
	f.mu.Unlock()
}

// Filters возвращает текущие вкладку, категорию и строку поиска
func (f *Forum) Filters() (Tab, models.Category, string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tab, f.category, f.query
}

// tabPosts - посты вкладки без фильтров категории и поиска. Вызывается под f.mu.
func (f *Forum) tabPosts(tab Tab, userID string) []models.Post {
	var out []models.Post
	switch tab {
	case TabArchived:
		out = append(out, f.archived...)
	case TabMy:
		if userID == "" {
			return nil
		}
		for _, p := range f.posts {
			if !p.Archived && p.UserID == userID {
				out = append(out, p)
			}
		}
	default:
		for _, p := range f.posts {
			if !p.Archived {
				out = append(out, p)
			}
		}
	}
	return out
}

// View - посты активной вкладки после фильтров, с оптимистичными счетчиками
func (f *Forum) View() []PostView {
	sess := f.sessions.Current()

	f.mu.RLock()
	posts := f.tabPosts(f.tab, sess.UserID)
	category, query := f.category, f.query
	f.mu.RUnlock()

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		if !p.Matches(category, query) {
			continue
		}
		views = append(views, f.overlay(p, sess))
	}
	return views
}

// Counts - размер каждой вкладки для бейджей
func (f *Forum) Counts() map[Tab]int {
	userID := f.sessions.Current().UserID
	f.mu.RLock()
	defer f.mu.RUnlock()
	counts := make(map[Tab]int, len(Tabs))
	for _, t := range Tabs {
		counts[t] = len(f.tabPosts(t, userID))
	}
	return counts
}

// Post ищет пост по id в обоих списках
func (f *Forum) Post(id string) (PostView, bool) {
	p, ok := f.findPost(id)
	if !ok {
		return PostView{}, false
	}
	return f.overlay(p, f.sessions.Current()), true
}

func (f *Forum) findPost(id string) (models.Post, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, list := range [][]models.Post{f.posts, f.archived} {
		for _, p := range list {
			if p.ID == id {
				return p, true
			}
		}
	}
	return models.Post{}, false
}

func (f *Forum) overlay(p models.Post, sess Session) PostView {
	v := PostView{
		Post:   p,
		Edited: p.WasEdited(),
		Owned:  sess.Owns(p.UserID),
	}
	if st, ok := f.postLikes.Get(p.ID); ok {
		v.Likes = st.Count
		v.Liked = st.Liked
	}
	if len(p.Comments) > 0 {
		v.Comments = make([]models.Comment, len(p.Comments))
		copy(v.Comments, p.Comments)
		v.CommentLiked = make(map[string]bool, len(p.Comments))
		for i := range v.Comments {
			c := &v.Comments[i]
			if !c.HasStableID() {
				continue
			}
			if st, ok := f.commentLikes.Get(CommentKey{PostID: p.ID, CommentID: c.ID}); ok {
				c.Likes = st.Count
				v.CommentLiked[c.ID] = st.Liked
			}
		}
	}
	return v
}

// refreshAfter обновляет ленту после изменения; ошибка уже показана алертом
func (f *Forum) refreshAfter(ctx context.Context, action string) {
	if err := f.Refresh(ctx); err != nil {
		f.log.Warnw("refresh after mutation failed", "action", action, "error", err)
	}
}

// alertFailure различает ошибку соединения и отказ сервера
func (f *Forum) alertFailure(action string, err error) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, ErrConnection):
		f.notifier.Alert("Connection Error", UserMessage(err))
	case errors.As(err, &apiErr):
		f.notifier.Alert("Error", UserMessage(err))
	default:
		f.notifier.Alert("Error", fmt.Sprintf("Failed to %s. %s", action, UserMessage(err)))
	}
}
