package services

import (
	"context"
	"errors"
	"fmt"

	"avocare/models"
)

// LikeState - локальное зеркало лайков сущности
type LikeState struct {
	Count int
	Liked bool
}

// Toggled - оптимистичная дельта: флаг меняется, счетчик сдвигается ровно на 1
func (s LikeState) Toggled() LikeState {
	if s.Liked {
		return LikeState{Count: s.Count - 1, Liked: false}
	}
	return LikeState{Count: s.Count + 1, Liked: true}
}

func fromLikeResponse(resp *models.LikeResponse) LikeState {
	return LikeState{Count: resp.Likes, Liked: resp.Liked()}
}

func (f *Forum) PostLikes(postID string) (LikeState, bool) {
	return f.postLikes.Get(postID)
}

func (f *Forum) CommentLikes(postID, commentID string) (LikeState, bool) {
	return f.commentLikes.Get(CommentKey{PostID: postID, CommentID: commentID})
}

// TogglePostLike ставит или снимает лайк поста. Счетчик и флаг меняются сразу,
// ответ сервера их заменяет, при ошибке восстанавливается прежняя пара.
func (f *Forum) TogglePostLike(ctx context.Context, postID string) (LikeState, error) {
	if _, err := f.gate.Require(ctx, "like posts"); err != nil {
		return LikeState{}, err
	}
	state, err := f.postLikes.MutateExisting(ctx, postID, LikeState.Toggled,
		func(ctx context.Context, _ LikeState) (LikeState, error) {
			resp, err := f.api.TogglePostLike(ctx, postID)
			if err != nil {
				return LikeState{}, err
			}
			return fromLikeResponse(resp), nil
		})
	if err != nil {
		return state, f.likeFailed("post", postID, err)
	}
	return state, nil
}

// ToggleCommentLike - то же для комментария. Комментарий без id не адресуется.
func (f *Forum) ToggleCommentLike(ctx context.Context, postID, commentID string) (LikeState, error) {
	if commentID == "" {
		return LikeState{}, ErrMissingCommentID
	}
	if _, err := f.gate.Require(ctx, "like comments"); err != nil {
		return LikeState{}, err
	}
	key := CommentKey{PostID: postID, CommentID: commentID}
	state, err := f.commentLikes.MutateExisting(ctx, key, LikeState.Toggled,
		func(ctx context.Context, _ LikeState) (LikeState, error) {
			resp, err := f.api.ToggleCommentLike(ctx, postID, commentID)
			if err != nil {
				return LikeState{}, err
			}
			return fromLikeResponse(resp), nil
		})
	if err != nil {
		return state, f.likeFailed("comment", commentID, err)
	}
	return state, nil
}

func (f *Forum) likeFailed(entity, id string, err error) error {
	switch {
	case errors.Is(err, ErrInFlight):
		f.log.Debugw("like toggle rejected, previous one in flight", "entity", entity, "id", id)
		return err
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}
	f.log.Errorw("like toggle failed, rolled back", "entity", entity, "id", id, "error", err)
	f.alertFailure("update like", err)
	return fmt.Errorf("toggle %s like: %w", entity, err)
}
