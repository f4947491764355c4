package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"avocare/api/client"
	"avocare/api/middleware"
	"avocare/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// postInput - тело create/edit в любой из двух кодировок
type postInput struct {
	Title             string
	Content           string
	Category          models.Category
	ExistingImageURLs []string
	HasExisting       bool
	NewImageURLs      []string
	RemoveImages      bool
}

func (b *Backend) bindPost(c *gin.Context) (*postInput, error) {
	in := &postInput{}
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var body struct {
			Title             string          `json:"title"`
			Content           string          `json:"content"`
			Category          models.Category `json:"category"`
			ExistingImageURLs []string        `json:"existingImageUrls"`
			RemoveImages      bool            `json:"removeImages"`
		}
		if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		in.Title, in.Content, in.Category = body.Title, body.Content, body.Category
		in.ExistingImageURLs = body.ExistingImageURLs
		in.HasExisting = body.ExistingImageURLs != nil
		in.RemoveImages = body.RemoveImages
		return in, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	in.Title = c.PostForm(client.FieldTitle)
	in.Content = c.PostForm(client.FieldContent)
	in.Category = models.Category(c.PostForm(client.FieldCategory))
	in.ExistingImageURLs, in.HasExisting = form.Value[client.FieldExistingImages]
	in.RemoveImages, _ = strconv.ParseBool(c.PostForm(client.FieldRemoveImages))
	for _, fh := range form.File[client.FieldImages] {
		in.NewImageURLs = append(in.NewImageURLs, "stub://images/"+uuid.NewString()+"/"+filepath.Base(fh.Filename))
	}
	return in, nil
}

// censor заменяет нецензурные слова звездочками; второй результат - была ли замена
func (b *Backend) censor(text string) (string, bool) {
	out := b.filter.Censor(text, '*')
	return out, out != text
}

func (b *Backend) ListPosts(c *gin.Context) {
	b.mu.Lock()
	out := make([]models.Post, 0, len(b.posts))
	for _, p := range b.posts {
		if !p.Archived {
			out = append(out, b.snapshot(p))
		}
	}
	b.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (b *Backend) ListArchivedPosts(c *gin.Context) {
	userID := currentUserID(c)
	b.mu.Lock()
	out := make([]models.Post, 0)
	for _, p := range b.posts {
		if p.Archived && p.UserID == userID {
			out = append(out, b.snapshot(p))
		}
	}
	b.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"posts": out})
}

// snapshot копирует пост для ответа. Вызывается под b.mu.
func (b *Backend) snapshot(p *models.Post) models.Post {
	cp := *p
	cp.ImageURLs = append([]string{}, p.ImageURLs...)
	cp.LikedBy = append([]string{}, p.LikedBy...)
	cp.Comments = make([]models.Comment, len(p.Comments))
	for i, cm := range p.Comments {
		cm.LikedBy = append([]string{}, cm.LikedBy...)
		cp.Comments[i] = cm
	}
	cp.CommentsCount = len(p.Comments)
	cp.Likes = len(p.LikedBy)
	return cp
}

// findPost - вызывается под b.mu
func (b *Backend) findPost(id string) (*models.Post, int) {
	for i, p := range b.posts {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

func (b *Backend) CreatePost(c *gin.Context) {
	user, ok := b.lookupUser(currentUserID(c))
	if !ok {
		respondError(c, "create_post", http.StatusUnauthorized, "User not found")
		return
	}
	in, err := b.bindPost(c)
	if err != nil {
		respondError(c, "create_post", http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		respondError(c, "create_post", http.StatusBadRequest, "title and content are required")
		return
	}
	if in.Category == "" {
		in.Category = models.CategoryGeneral
	}
	images := append(append([]string{}, in.ExistingImageURLs...), in.NewImageURLs...)
	if len(images) > models.MaxPostImages {
		respondError(c, "create_post", http.StatusBadRequest, fmt.Sprintf("A post can have at most %d images", models.MaxPostImages))
		return
	}

	title, titleCensored := b.censor(in.Title)
	content, contentCensored := b.censor(in.Content)
	censored := titleCensored || contentCensored

	post := &models.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Username:  user.Name,
		UserID:    user.ID,
		Category:  in.Category,
		ImageURLs: images,
		CreatedAt: b.now().UTC(),
		Comments:  []models.Comment{},
	}

	b.mu.Lock()
	b.posts = append([]*models.Post{post}, b.posts...)
	resp := b.snapshot(post)
	b.mu.Unlock()

	middleware.RecordForumOperation("create_post", "ok", serviceName)
	out := models.PostMutationResponse{Message: "Post created", Post: &resp}
	if censored {
		middleware.RecordCensored("post", serviceName)
		out.Censored = true
		out.Message = "Post created with inappropriate words censored"
	}
	c.JSON(http.StatusCreated, out)
}

func (b *Backend) UpdatePost(c *gin.Context) {
	userID := currentUserID(c)
	in, err := b.bindPost(c)
	if err != nil {
		respondError(c, "update_post", http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	post, _ := b.findPost(c.Param("id"))
	if post == nil {
		respondError(c, "update_post", http.StatusNotFound, "Post not found")
		return
	}
	if post.UserID != userID {
		respondError(c, "update_post", http.StatusForbidden, "Unauthorized: You can only edit your own posts")
		return
	}

	images := append(append([]string{}, in.ExistingImageURLs...), in.NewImageURLs...)
	if len(images) > models.MaxPostImages {
		respondError(c, "update_post", http.StatusBadRequest, fmt.Sprintf("A post can have at most %d images", models.MaxPostImages))
		return
	}

	censored := false
	if in.Title != "" {
		t, changed := b.censor(in.Title)
		post.Title, censored = t, censored || changed
	}
	if in.Content != "" {
		t, changed := b.censor(in.Content)
		post.Content, censored = t, censored || changed
	}
	if in.Category != "" {
		post.Category = in.Category
	}
	switch {
	case in.RemoveImages:
		post.ImageURLs = nil
	case in.HasExisting || len(in.NewImageURLs) > 0:
		post.ImageURLs = images
	}
	now := b.now().UTC()
	post.UpdatedAt = &now

	resp := b.snapshot(post)
	middleware.RecordForumOperation("update_post", "ok", serviceName)
	out := models.PostMutationResponse{Message: "Post updated successfully", Post: &resp}
	if censored {
		middleware.RecordCensored("post", serviceName)
		out.Censored = true
		out.Message = "Post updated with inappropriate words censored"
	}
	c.JSON(http.StatusOK, out)
}

// canModerate - автор или администратор. Вызывается под b.mu.
func (b *Backend) canModerate(post *models.Post, userID string) bool {
	if post.UserID == userID {
		return true
	}
	acc, ok := b.users[userID]
	return ok && acc.user.Role == models.RoleAdmin
}

func (b *Backend) DeletePost(c *gin.Context) {
	userID := currentUserID(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	post, idx := b.findPost(c.Param("id"))
	if post == nil {
		respondError(c, "delete_post", http.StatusNotFound, "Post not found")
		return
	}
	if !b.canModerate(post, userID) {
		respondError(c, "delete_post", http.StatusForbidden, "Unauthorized: You can only delete your own posts")
		return
	}
	b.posts = append(b.posts[:idx], b.posts[idx+1:]...)
	middleware.RecordForumOperation("delete_post", "ok", serviceName)
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Post deleted successfully"})
}

func (b *Backend) ArchivePost(c *gin.Context) {
	b.setArchived(c, true)
}

func (b *Backend) UnarchivePost(c *gin.Context) {
	b.setArchived(c, false)
}

func (b *Backend) setArchived(c *gin.Context, archived bool) {
	op := "unarchive_post"
	if archived {
		op = "archive_post"
	}
	userID := currentUserID(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	post, _ := b.findPost(c.Param("id"))
	if post == nil {
		respondError(c, op, http.StatusNotFound, "Post not found")
		return
	}
	if !b.canModerate(post, userID) {
		respondError(c, op, http.StatusForbidden, "Unauthorized: You can only archive your own posts")
		return
	}
	post.Archived = archived
	middleware.RecordForumOperation(op, "ok", serviceName)
	msg := "Post unarchived successfully"
	if archived {
		msg = "Post archived successfully"
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: msg})
}

// toggleLike - вызывается под b.mu
func toggleLike(likedBy []string, userID string) ([]string, models.LikeAction) {
	for i, id := range likedBy {
		if id == userID {
			return append(likedBy[:i], likedBy[i+1:]...), models.ActionUnliked
		}
	}
	return append(likedBy, userID), models.ActionLiked
}

func (b *Backend) LikePost(c *gin.Context) {
	userID := currentUserID(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	post, _ := b.findPost(c.Param("id"))
	if post == nil {
		respondError(c, "like_post", http.StatusNotFound, "Post not found")
		return
	}
	var action models.LikeAction
	post.LikedBy, action = toggleLike(post.LikedBy, userID)
	post.Likes = len(post.LikedBy)
	middleware.RecordForumOperation("like_post", "ok", serviceName)
	c.JSON(http.StatusOK, models.LikeResponse{Likes: post.Likes, Message: action})
}

// SeedPost добавляет пост от имени пользователя напрямую, без цензуры
func (b *Backend) SeedPost(userID string, post models.Post) (models.Post, error) {
	user, ok := b.lookupUser(userID)
	if !ok {
		return models.Post{}, fmt.Errorf("unknown user %s", userID)
	}
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = b.now().UTC()
	}
	if post.Category == "" {
		post.Category = models.CategoryGeneral
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	post.UserID, post.Username = user.ID, user.Name
	post.Likes = len(post.LikedBy)

	b.mu.Lock()
	defer b.mu.Unlock()
	p := post
	b.posts = append([]*models.Post{&p}, b.posts...)
	return b.snapshot(&p), nil
}
