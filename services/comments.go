package services

import (
	"context"
	"fmt"
	"strings"

	"avocare/models"
)

// CommentResult - исход добавления или правки комментария
type CommentResult struct {
	Message  string
	Censored bool
}

// Thread - комментарии поста, сгруппированные в ветки
func (f *Forum) Thread(postID string) ([]models.CommentThread, error) {
	post, ok := f.Post(postID)
	if !ok {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	return models.Thread(post.Comments), nil
}

// AddComment добавляет комментарий; replyTo - id родителя или пустая строка
func (f *Forum) AddComment(ctx context.Context, postID, content, replyTo string) (*CommentResult, error) {
	if _, err := f.gate.Require(ctx, "comment"); err != nil {
		return nil, err
	}
	if err := ValidateComment(content); err != nil {
		return nil, err
	}
	if _, ok := f.findPost(postID); !ok {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}

	resp, err := f.api.AddComment(ctx, postID, models.CommentRequest{
		Content: strings.TrimSpace(content),
		ReplyTo: replyTo,
	})
	if err != nil {
		f.log.Errorw("failed to add comment", "post_id", postID, "error", err)
		f.alertFailure("add comment", err)
		return nil, fmt.Errorf("add comment: %w", err)
	}

	f.refreshAfter(ctx, "comment")
	return &CommentResult{Message: resp.Message, Censored: resp.Censored}, nil
}

func (f *Forum) EditComment(ctx context.Context, postID, commentID, content string) (*CommentResult, error) {
	if commentID == "" {
		return nil, ErrMissingCommentID
	}
	sess, err := f.gate.Require(ctx, "edit comments")
	if err != nil {
		return nil, err
	}
	if err := ValidateComment(content); err != nil {
		return nil, err
	}
	if err := f.checkCommentAuthor(sess, postID, commentID); err != nil {
		return nil, err
	}

	resp, err := f.api.UpdateComment(ctx, postID, commentID, strings.TrimSpace(content))
	if err != nil {
		f.log.Errorw("failed to update comment", "post_id", postID, "comment_id", commentID, "error", err)
		f.alertFailure("update comment", err)
		return nil, fmt.Errorf("update comment: %w", err)
	}

	f.refreshAfter(ctx, "edit comment")
	return &CommentResult{Message: resp.Message, Censored: resp.Censored}, nil
}

func (f *Forum) DeleteComment(ctx context.Context, postID, commentID string) error {
	if commentID == "" {
		return ErrMissingCommentID
	}
	sess, err := f.gate.Require(ctx, "delete comments")
	if err != nil {
		return err
	}
	if err := f.checkCommentAuthor(sess, postID, commentID); err != nil {
		return err
	}

	if err := f.api.DeleteComment(ctx, postID, commentID); err != nil {
		f.log.Errorw("failed to delete comment", "post_id", postID, "comment_id", commentID, "error", err)
		f.alertFailure("delete comment", err)
		return fmt.Errorf("delete comment: %w", err)
	}

	f.refreshAfter(ctx, "delete comment")
	return nil
}

func (f *Forum) checkCommentAuthor(sess Session, postID, commentID string) error {
	post, ok := f.findPost(postID)
	if !ok {
		return fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	for _, c := range post.Comments {
		if c.ID != commentID {
			continue
		}
		if !sess.Owns(c.AuthorID) {
			return fmt.Errorf("comment %s: %w", commentID, ErrForbidden)
		}
		return nil
	}
	return fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
}
