package client

import (
	"context"
	"net/http"
	"net/url"

	"avocare/models"
)

func postPath(id string, suffix ...string) string {
	p := "/api/forum/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func (c *Client) ListPosts(ctx context.Context) ([]models.Post, error) {
	var resp models.PostListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/forum/", "/api/forum/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

// ListArchivedPosts - архивные посты текущего пользователя
func (c *Client) ListArchivedPosts(ctx context.Context) ([]models.Post, error) {
	var resp models.PostListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/forum/archived", "/api/forum/archived", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *Client) CreatePost(ctx context.Context, form *PostForm) (*models.PostMutationResponse, error) {
	body, contentType, err := form.Build()
	if err != nil {
		return nil, err
	}
	var resp models.PostMutationResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		route:       "/api/forum/",
		path:        "/api/forum/",
		body:        body,
		contentType: contentType,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdatePost(ctx context.Context, id string, form *PostForm) (*models.PostMutationResponse, error) {
	body, contentType, err := form.Build()
	if err != nil {
		return nil, err
	}
	var resp models.PostMutationResponse
	err = c.do(ctx, request{
		method:      http.MethodPut,
		route:       "/api/forum/:id",
		path:        postPath(id),
		body:        body,
		contentType: contentType,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/forum/:id", postPath(id), nil, nil)
}

func (c *Client) ArchivePost(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPut, "/api/forum/:id/archive", postPath(id, "archive"), nil, nil)
}

func (c *Client) UnarchivePost(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPut, "/api/forum/:id/unarchive", postPath(id, "unarchive"), nil, nil)
}

// TogglePostLike - сервер сам решает, лайк это или снятие лайка
func (c *Client) TogglePostLike(ctx context.Context, id string) (*models.LikeResponse, error) {
	var resp models.LikeResponse
	if err := c.doJSON(ctx, http.MethodPut, "/api/forum/:id/like", postPath(id, "like"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AddComment(ctx context.Context, postID string, req models.CommentRequest) (*models.MessageResponse, error) {
	var resp models.MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/forum/:id/comment", postPath(postID, "comment"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateComment(ctx context.Context, postID, commentID, content string) (*models.MessageResponse, error) {
	var resp models.MessageResponse
	path := postPath(postID, "comment", url.PathEscape(commentID))
	if err := c.doJSON(ctx, http.MethodPut, "/api/forum/:id/comment/:cid", path, models.CommentRequest{Content: content}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteComment(ctx context.Context, postID, commentID string) error {
	path := postPath(postID, "comment", url.PathEscape(commentID))
	return c.doJSON(ctx, http.MethodDelete, "/api/forum/:id/comment/:cid", path, nil, nil)
}

func (c *Client) ToggleCommentLike(ctx context.Context, postID, commentID string) (*models.LikeResponse, error) {
	var resp models.LikeResponse
	path := postPath(postID, "comment", url.PathEscape(commentID), "like")
	if err := c.doJSON(ctx, http.MethodPut, "/api/forum/:id/comment/:cid/like", path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
