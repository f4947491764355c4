package services

import (
	"context"
	"fmt"

	"avocare/api/client"
	"avocare/models"
)

// PostResult - исход создания или редактирования поста
type PostResult struct {
	Message string
	Post    *models.Post
	// Censored - сервер заменил нецензурные слова, пользователю нужно показать уведомление
	Censored bool
}

func newPostResult(resp *models.PostMutationResponse) *PostResult {
	return &PostResult{Message: resp.Message, Post: resp.Post, Censored: resp.Censored}
}

// CreatePost проверяет форму и отправляет ее одним multipart-запросом
func (f *Forum) CreatePost(ctx context.Context, form *client.PostForm) (*PostResult, error) {
	if _, err := f.gate.Require(ctx, "create posts"); err != nil {
		return nil, err
	}
	if err := ValidatePostForm(form, f.filter); err != nil {
		return nil, err
	}
	form.RemoveImages = false

	resp, err := f.api.CreatePost(ctx, form)
	if err != nil {
		f.log.Errorw("failed to create post", "error", err)
		f.alertFailure("create post", err)
		return nil, fmt.Errorf("create post: %w", err)
	}
	f.log.Infow("post created", "censored", resp.Censored)

	f.refreshAfter(ctx, "create")
	return newPostResult(resp), nil
}

// EditPost отправляет итоговый набор картинок: оставленные ссылки плюс новые файлы.
// Если не осталось ни того, ни другого, серверу уходит removeImages=true.
func (f *Forum) EditPost(ctx context.Context, postID string, form *client.PostForm) (*PostResult, error) {
	sess, err := f.gate.Require(ctx, "edit posts")
	if err != nil {
		return nil, err
	}
	post, ok := f.findPost(postID)
	if !ok {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	if !sess.Owns(post.UserID) {
		return nil, fmt.Errorf("edit post %s: %w", postID, ErrForbidden)
	}
	if err := ValidatePostForm(form, f.filter); err != nil {
		return nil, err
	}
	form.RemoveImages = form.ImageCount() == 0

	resp, err := f.api.UpdatePost(ctx, postID, form)
	if err != nil {
		f.log.Errorw("failed to update post", "post_id", postID, "error", err)
		f.alertFailure("update post", err)
		return nil, fmt.Errorf("update post: %w", err)
	}
	f.log.Infow("post updated", "post_id", postID, "censored", resp.Censored)

	f.refreshAfter(ctx, "edit")
	return newPostResult(resp), nil
}

// EditFormFor заполняет форму редактирования текущими значениями поста
func (f *Forum) EditFormFor(postID string) (*client.PostForm, error) {
	post, ok := f.findPost(postID)
	if !ok {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	return &client.PostForm{
		Title:             post.Title,
		Content:           post.Content,
		Category:          post.Category,
		ExistingImageURLs: append([]string(nil), post.ImageURLs...),
	}, nil
}

func (f *Forum) DeletePost(ctx context.Context, postID string) error {
	return f.moderatePost(ctx, postID, "delete", f.api.DeletePost)
}

func (f *Forum) ArchivePost(ctx context.Context, postID string) error {
	return f.moderatePost(ctx, postID, "archive", f.api.ArchivePost)
}

func (f *Forum) UnarchivePost(ctx context.Context, postID string) error {
	return f.moderatePost(ctx, postID, "unarchive", f.api.UnarchivePost)
}

// moderatePost - удаление и архивирование доступны автору и администратору
func (f *Forum) moderatePost(ctx context.Context, postID, action string, call func(context.Context, string) error) error {
	sess, err := f.gate.Require(ctx, action+" posts")
	if err != nil {
		return err
	}
	post, ok := f.findPost(postID)
	if !ok {
		return fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	if !sess.Owns(post.UserID) && !sess.IsAdmin() {
		return fmt.Errorf("%s post %s: %w", action, postID, ErrForbidden)
	}

	if err := call(ctx, postID); err != nil {
		f.log.Errorw("post action failed", "action", action, "post_id", postID, "error", err)
		f.alertFailure(action+" post", err)
		return fmt.Errorf("%s post: %w", action, err)
	}
	f.log.Infow("post action done", "action", action, "post_id", postID)

	f.refreshAfter(ctx, action)
	return nil
}
