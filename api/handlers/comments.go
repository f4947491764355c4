package handlers

import (
	"net/http"
	"strings"

	"avocare/api/middleware"
	"avocare/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// findComment - вызывается под b.mu
func findComment(post *models.Post, id string) int {
	for i := range post.Comments {
		if post.Comments[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) AddComment(c *gin.Context) {
	user, ok := b.lookupUser(currentUserID(c))
	if !ok {
		respondError(c, "add_comment", http.StatusUnauthorized, "User not found")
		return
	}
	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		respondError(c, "add_comment", http.StatusBadRequest, "content is required")
		return
	}
	content, censored := b.censor(req.Content)

	b.mu.Lock()
	defer b.mu.Unlock()
	post, _ := b.findPost(c.Param("id"))
	if post == nil {
		respondError(c, "add_comment", http.StatusNotFound, "Post not found")
		return
	}
	if req.ReplyTo != "" && findComment(post, req.ReplyTo) < 0 {
		respondError(c, "add_comment", http.StatusBadRequest, "Parent comment not found")
		return
	}
	post.Comments = append(post.Comments, models.Comment{
		ID:         uuid.NewString(),
		Content:    content,
		AuthorName: user.Name,
		AuthorID:   user.ID,
		ReplyTo:    req.ReplyTo,
		CreatedAt:  b.now().UTC(),
	})
	post.CommentsCount = len(post.Comments)

	middleware.RecordForumOperation("add_comment", "ok", serviceName)
	resp := models.MessageResponse{Message: "Comment added"}
	if censored {
		middleware.RecordCensored("comment", serviceName)
		resp.Censored = true
		resp.Message = "Comment added with inappropriate words censored"
	}
	c.JSON(http.StatusOK, resp)
}

func (b *Backend) UpdateComment(c *gin.Context) {
	userID := currentUserID(c)
	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		respondError(c, "update_comment", http.StatusBadRequest, "content is required")
		return
	}
	content, censored := b.censor(req.Content)

	b.mu.Lock()
	defer b.mu.Unlock()
	post, _ := b.findPost(c.Param("id"))
	if post == nil {
		respondError(c, "update_comment", http.StatusNotFound, "Post not found")
		return
	}
	i := findComment(post, c.Param("cid"))
	if i < 0 {
		respondError(c, "update_comment", http.StatusNotFound, "Comment not found")
		return
	}
	if post.Comments[i].AuthorID != userID {
		respondError(c, "update_comment", http.StatusForbidden, "Unauthorized: You can only edit your own comments")
		return
	}
	post.Comments[i].Content = content

	middleware.RecordForumOperation("update_comment", "ok", serviceName)
	resp := models.MessageResponse{Message: "Comment updated successfully"}
	if censored {
		middleware.RecordCensored("comment", serviceName)
		resp.Censored = true
		resp.Message = "Comment updated with inappropriate words censored"
	}
	c.JSON(http.StatusOK, resp)
}

func (b *Backend) DeleteComment(c *gin.Context) {
	userID := currentUserID(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	post, _ := b.findPost(c.Param("id"))
	if post == nil {
		respondError(c, "delete_comment", http.StatusNotFound, "Post not found")
		return
	}
	i := findComment(post, c.Param("cid"))
	if i < 0 {
		respondError(c, "delete_comment", http.StatusNotFound, "Comment not found")
		return
	}
	if post.Comments[i].AuthorID != userID {
		respondError(c, "delete_comment", http.StatusForbidden, "Unauthorized: You can only delete your own comments")
		return
	}
	post.Comments = append(post.Comments[:i], post.Comments[i+1:]...)
	post.CommentsCount = len(post.Comments)

	middleware.RecordForumOperation("delete_comment", "ok", serviceName)
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Comment deleted successfully"})
}

func (b *Backend) LikeComment(c *gin.Context) {
	userID := currentUserID(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	post, _ := b.findPost(c.Param("id"))
	if post == nil {
		respondError(c, "like_comment", http.StatusNotFound, "Post not found")
		return
	}
	i := findComment(post, c.Param("cid"))
	if i < 0 {
		respondError(c, "like_comment", http.StatusNotFound, "Comment not found")
		return
	}
	cm := &post.Comments[i]
	var action models.LikeAction
	cm.LikedBy, action = toggleLike(cm.LikedBy, userID)
	cm.Likes = len(cm.LikedBy)

	middleware.RecordForumOperation("like_comment", "ok", serviceName)
	c.JSON(http.StatusOK, models.LikeResponse{Likes: cm.Likes, Message: action})
}
