package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"avocare/api/client"
	"avocare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var grower = models.User{ID: "u1", Name: "Grower"}

type forumFixture struct {
	forum    *Forum
	api      *fakeForumAPI
	sessions *SessionStore
	notifier *recordingNotifier
}

func newForumFixture(t *testing.T, loggedIn bool, posts ...models.Post) *forumFixture {
	t.Helper()
	sessions, _ := newSessions(t)
	if loggedIn {
		loginAs(t, sessions, grower)
	}
	api := newFakeForumAPI(posts...)
	notifier := &recordingNotifier{}
	forum := NewForum(api, sessions, notifier, nil)
	t.Cleanup(forum.Close)
	require.NoError(t, forum.Refresh(context.Background()))
	return &forumFixture{forum: forum, api: api, sessions: sessions, notifier: notifier}
}

func TestTogglePostLikeServerCountWins(t *testing.T) {
	fx := newForumFixture(t, true, models.Post{ID: "p1", Likes: 5, LikedBy: []string{"a", "b", "c", "d", "e"}})
	fx.api.likeResp = &models.LikeResponse{Likes: 7, Message: models.ActionLiked}
	fx.api.likeEntered = make(chan struct{}, 1)
	fx.api.likeRelease = make(chan struct{})

	done := make(chan LikeState, 1)
	go func() {
		st, err := fx.forum.TogglePostLike(context.Background(), "p1")
		assert.NoError(t, err)
		done <- st
	}()
	<-fx.api.likeEntered

	// локально: флаг перевернут, счетчик +1
	st, _ := fx.forum.PostLikes("p1")
	assert.Equal(t, LikeState{Count: 6, Liked: true}, st)
	view, _ := fx.forum.Post("p1")
	assert.Equal(t, 6, view.Likes)
	assert.True(t, view.Liked)

	// второй лайк той же сущности отклоняется без запроса
	_, err := fx.forum.TogglePostLike(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrInFlight)
	assert.Equal(t, 1, fx.api.Calls("like"))

	close(fx.api.likeRelease)
	assert.Equal(t, LikeState{Count: 7, Liked: true}, <-done)
	st, _ = fx.forum.PostLikes("p1")
	assert.Equal(t, LikeState{Count: 7, Liked: true}, st)
	assert.Empty(t, fx.notifier.Alerts())
}

func TestTogglePostLikeUsesServerAction(t *testing.T) {
	fx := newForumFixture(t, true, models.Post{ID: "p1", Likes: 2, LikedBy: []string{"x", "y"}})
	// сервер считает, что лайк уже стоял, и снимает его
	fx.api.likeResp = &models.LikeResponse{Likes: 1, Message: models.ActionUnliked}

	st, err := fx.forum.TogglePostLike(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, LikeState{Count: 1, Liked: false}, st)
}

func TestTogglePostLikeRollsBackOnFailure(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		title string
	}{
		{"server", &client.APIError{Status: 500, Message: "Post not found"}, "Error"},
		{"connection", fmt.Errorf("dial: %w", client.ErrConnection), "Connection Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newForumFixture(t, true, models.Post{ID: "p1", Likes: 3, LikedBy: []string{"u1", "x", "y"}})
			fx.api.likeErr = tc.err

			_, err := fx.forum.TogglePostLike(context.Background(), "p1")

			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.err) || errors.Is(err, client.ErrConnection))
			st, _ := fx.forum.PostLikes("p1")
			assert.Equal(t, LikeState{Count: 3, Liked: true}, st)
			require.Len(t, fx.notifier.titles, 1)
			assert.Equal(t, tc.title, fx.notifier.titles[0])
		})
	}
}

func TestGatedActionsWithoutSessionMakeNoRequest(t *testing.T) {
	ctx := context.Background()
	fx := newForumFixture(t, false, models.Post{ID: "p1", UserID: grower.ID, Likes: 3, Comments: []models.Comment{{ID: "c1", AuthorID: grower.ID}}})
	before := fx.api.TotalCalls()

	actions := []struct {
		name string
		run  func() error
	}{
		{"like post", func() error { _, err := fx.forum.TogglePostLike(ctx, "p1"); return err }},
		{"like comment", func() error { _, err := fx.forum.ToggleCommentLike(ctx, "p1", "c1"); return err }},
		{"create post", func() error { _, err := fx.forum.CreatePost(ctx, validForm()); return err }},
		{"edit post", func() error { _, err := fx.forum.EditPost(ctx, "p1", validForm()); return err }},
		{"delete post", func() error { return fx.forum.DeletePost(ctx, "p1") }},
		{"archive post", func() error { return fx.forum.ArchivePost(ctx, "p1") }},
		{"unarchive post", func() error { return fx.forum.UnarchivePost(ctx, "p1") }},
		{"add comment", func() error { _, err := fx.forum.AddComment(ctx, "p1", "hello", ""); return err }},
		{"edit comment", func() error { _, err := fx.forum.EditComment(ctx, "p1", "c1", "edited"); return err }},
		{"delete comment", func() error { return fx.forum.DeleteComment(ctx, "p1", "c1") }},
	}
	for i, a := range actions {
		assert.ErrorIs(t, a.run(), ErrAuthRequired, a.name)
		assert.Equal(t, before, fx.api.TotalCalls(), a.name)
		assert.Equal(t, i+1, fx.notifier.Prompts(), a.name)
	}

	st, _ := fx.forum.PostLikes("p1")
	assert.Equal(t, LikeState{Count: 3}, st)
	assert.Empty(t, fx.notifier.Alerts())
}

func TestTogglePostLikeDroppedByRefresh(t *testing.T) {
	fx := newForumFixture(t, true, models.Post{ID: "p1", Likes: 2})
	fx.api.posts = nil
	require.NoError(t, fx.forum.Refresh(context.Background()))

	_, err := fx.forum.TogglePostLike(context.Background(), "p1")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, fx.api.Calls("like"))
	assert.Empty(t, fx.notifier.Alerts())
	_, ok := fx.forum.PostLikes("p1")
	assert.False(t, ok)
}

func TestToggleCommentLike(t *testing.T) {
	fx := newForumFixture(t, true, models.Post{ID: "p1", Comments: []models.Comment{
		{ID: "c1", Likes: 1, LikedBy: []string{"x"}},
		{Content: "legacy comment without id"},
	}})
	fx.api.likeResp = &models.LikeResponse{Likes: 2, Message: models.ActionLiked}

	st, err := fx.forum.ToggleCommentLike(context.Background(), "p1", "c1")
	require.NoError(t, err)
	assert.Equal(t, LikeState{Count: 2, Liked: true}, st)

	view, _ := fx.forum.Post("p1")
	assert.True(t, view.CommentLiked["c1"])
	assert.Equal(t, 2, view.Comments[0].Likes)

	_, err = fx.forum.ToggleCommentLike(context.Background(), "p1", "")
	assert.ErrorIs(t, err, ErrMissingCommentID)
	assert.Equal(t, 1, fx.api.Calls("like_comment"))
}

func TestRefreshFailureKeepsLists(t *testing.T) {
	fx := newForumFixture(t, true, models.Post{ID: "p1", Title: "First"})
	fx.api.listErr = &client.APIError{Status: 503, Message: "Service unavailable"}

	err := fx.forum.Refresh(context.Background())

	require.Error(t, err)
	require.Len(t, fx.forum.View(), 1)
	assert.Equal(t, []string{"Service unavailable"}, fx.notifier.Alerts())
}

func TestRefreshConnectionFailureAlertTitle(t *testing.T) {
	fx := newForumFixture(t, true, models.Post{ID: "p1", Title: "First"})

	fx.api.archivedErr = fmt.Errorf("dial tcp: %w", client.ErrConnection)
	require.ErrorIs(t, fx.forum.Refresh(context.Background()), client.ErrConnection)

	fx.api.archivedErr = nil
	fx.api.listErr = &client.APIError{Status: 500}
	require.Error(t, fx.forum.Refresh(context.Background()))

	require.Len(t, fx.notifier.titles, 2)
	assert.Equal(t, "Connection Error", fx.notifier.titles[0])
	assert.Equal(t, "Error", fx.notifier.titles[1])
	require.Len(t, fx.forum.View(), 1)
}

func TestRefreshKeepsLocalLikedFlagWithoutLikedBy(t *testing.T) {
	fx := newForumFixture(t, true, models.Post{ID: "p1", Likes: 0})
	fx.api.likeResp = &models.LikeResponse{Likes: 1, Message: models.ActionLiked}
	_, err := fx.forum.TogglePostLike(context.Background(), "p1")
	require.NoError(t, err)

	fx.api.posts = []models.Post{{ID: "p1", Likes: 4}}
	require.NoError(t, fx.forum.Refresh(context.Background()))

	st, _ := fx.forum.PostLikes("p1")
	assert.Equal(t, LikeState{Count: 4, Liked: true}, st)
}

func TestViewFiltersAreConjunctive(t *testing.T) {
	now := time.Now()
	edited := now.Add(5 * time.Second)
	fx := newForumFixture(t, true,
		models.Post{ID: "1", Title: "Leaf curl", Content: "help", Category: models.CategoryPest, UserID: "u1", CreatedAt: now, UpdatedAt: &edited},
		models.Post{ID: "2", Title: "Harvest time", Content: "brown LEAF spots", Category: models.CategoryPest, UserID: "u2"},
		models.Post{ID: "3", Title: "Leaf drop", Content: "autumn", Category: models.CategoryHealth, UserID: "u1"},
		models.Post{ID: "4", Title: "Old leaf post", Category: models.CategoryPest, UserID: "u1", Archived: true},
	)
	fx.api.archived = []models.Post{{ID: "4", Title: "Old leaf post", Category: models.CategoryPest, UserID: "u1", Archived: true}}
	require.NoError(t, fx.forum.Refresh(context.Background()))

	fx.forum.SetCategory(models.CategoryPest)
	fx.forum.SetQuery("leaf")
	ids := func() []string {
		var out []string
		for _, v := range fx.forum.View() {
			out = append(out, v.ID)
		}
		return out
	}
	assert.Equal(t, []string{"1", "2"}, ids())

	fx.forum.SetTab(TabMy)
	assert.Equal(t, []string{"1"}, ids())
	assert.True(t, fx.forum.View()[0].Edited)
	assert.True(t, fx.forum.View()[0].Owned)

	fx.forum.SetTab(TabArchived)
	assert.Equal(t, []string{"4"}, ids())

	fx.forum.SetTab(TabAll)
	fx.forum.SetCategory(models.CategoryAll)
	fx.forum.SetQuery("")
	assert.Len(t, ids(), 3)

	counts := fx.forum.Counts()
	assert.Equal(t, map[Tab]int{TabAll: 3, TabMy: 2, TabArchived: 1}, counts)
}

func TestEditPostImageUnion(t *testing.T) {
	post := models.Post{ID: "p1", Title: "Yellow leaves", Content: "My tree has yellow leaves.", Category: models.CategoryHealth, UserID: "u1", ImageURLs: []string{"https://img/1.jpg", "https://img/2.jpg"}}

	t.Run("all removed", func(t *testing.T) {
		fx := newForumFixture(t, true, post)
		form, err := fx.forum.EditFormFor("p1")
		require.NoError(t, err)
		form.ExistingImageURLs = nil

		_, err = fx.forum.EditPost(context.Background(), "p1", form)

		require.NoError(t, err)
		assert.True(t, fx.api.lastForm.RemoveImages)
		assert.Equal(t, client.EncodingMultipart, fx.api.lastForm.Encoding)
		// после изменения лента перечитывается
		assert.Equal(t, 2, fx.api.Calls("list"))
	})

	t.Run("kept and new", func(t *testing.T) {
		fx := newForumFixture(t, true, post)
		form, err := fx.forum.EditFormFor("p1")
		require.NoError(t, err)
		form.ExistingImageURLs = form.ExistingImageURLs[:1]
		form.Images = []client.ImageFile{{Name: "new.jpg", Content: []byte{0xff}}}

		_, err = fx.forum.EditPost(context.Background(), "p1", form)

		require.NoError(t, err)
		assert.False(t, fx.api.lastForm.RemoveImages)
		assert.Equal(t, 2, fx.api.lastForm.ImageCount())
	})
}

func TestEditPostChecksOwnership(t *testing.T) {
	fx := newForumFixture(t, true, models.Post{ID: "p1", UserID: "someone-else", Title: "Theirs", Content: "Not my post at all", Category: models.CategoryGeneral})
	form, _ := fx.forum.EditFormFor("p1")

	_, err := fx.forum.EditPost(context.Background(), "p1", form)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, fx.forum.DeletePost(context.Background(), "p1"), ErrForbidden)
	assert.Zero(t, fx.api.Calls("update"))
	assert.Zero(t, fx.api.Calls("delete"))
}

func TestAdminCanArchiveAnyPost(t *testing.T) {
	sessions, _ := newSessions(t)
	loginAs(t, sessions, models.User{ID: "admin", Name: "Admin", Role: models.RoleAdmin})
	api := newFakeForumAPI(models.Post{ID: "p1", UserID: "u1"})
	forum := NewForum(api, sessions, nil, nil)
	defer forum.Close()
	require.NoError(t, forum.Refresh(context.Background()))

	require.NoError(t, forum.ArchivePost(context.Background(), "p1"))
	assert.Equal(t, 1, api.Calls("archive"))
}

func TestCreatePostSurfacesCensoredAndValidation(t *testing.T) {
	fx := newForumFixture(t, true)
	fx.api.mutationResp = &models.PostMutationResponse{Message: "Post created with inappropriate words censored", Censored: true}

	res, err := fx.forum.CreatePost(context.Background(), validForm())
	require.NoError(t, err)
	assert.True(t, res.Censored)

	bad := validForm()
	bad.Title = "shit"
	_, err = fx.forum.CreatePost(context.Background(), bad)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Field(FieldTitle)[0], "shit")
	assert.Equal(t, 1, fx.api.Calls("create"))
}

func TestCreatePostConnectionErrorAlert(t *testing.T) {
	fx := newForumFixture(t, true)
	fx.api.mutationErr = fmt.Errorf("dial tcp: %w", client.ErrConnection)

	_, err := fx.forum.CreatePost(context.Background(), validForm())

	assert.ErrorIs(t, err, ErrConnection)
	assert.Equal(t, []string{msgConnection}, fx.notifier.Alerts())
}

func TestCommentsAuthorAndReply(t *testing.T) {
	fx := newForumFixture(t, true, models.Post{ID: "p1", Comments: []models.Comment{
		{ID: "c1", AuthorID: "u1", Content: "mine"},
		{ID: "c2", AuthorID: "u2", Content: "theirs"},
		{ID: "c3", AuthorID: "u1", Content: "reply", ReplyTo: "c2"},
	}})

	_, err := fx.forum.AddComment(context.Background(), "p1", "  thanks  ", "c2")
	require.NoError(t, err)
	assert.Equal(t, models.CommentRequest{Content: "thanks", ReplyTo: "c2"}, fx.api.lastComment)

	_, err = fx.forum.EditComment(context.Background(), "p1", "c2", "edited")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = fx.forum.EditComment(context.Background(), "p1", "c1", "edited")
	assert.NoError(t, err)
	assert.ErrorIs(t, fx.forum.DeleteComment(context.Background(), "p1", ""), ErrMissingCommentID)

	threads, err := fx.forum.Thread("p1")
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "c3", threads[1].Replies[0].ID)
}

func TestLogoutClearsArchiveAndLikedFlags(t *testing.T) {
	fx := newForumFixture(t, true, models.Post{ID: "p1", Likes: 1, LikedBy: []string{"u1"}})
	fx.api.archived = []models.Post{{ID: "p2", UserID: "u1", Archived: true}}
	require.NoError(t, fx.forum.Refresh(context.Background()))
	require.Equal(t, 1, fx.forum.Counts()[TabArchived])

	require.NoError(t, fx.sessions.Logout(context.Background()))

	assert.Zero(t, fx.forum.Counts()[TabArchived])
	st, _ := fx.forum.PostLikes("p1")
	assert.Equal(t, LikeState{Count: 1, Liked: false}, st)
}
