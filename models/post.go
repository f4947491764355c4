package models

import (
	"encoding/json"
	"strings"
	"time"
)

// MaxPostImages - максимальное количество изображений у поста
const MaxPostImages = 5

// EditSkew - допустимая разница между created_at и updated_at, в пределах которой пост не считается отредактированным
const EditSkew = time.Second

// Post - пост форума в том виде, в котором его отдает API
type Post struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Username      string     `json:"username"`
	UserID        string     `json:"user_id"`
	Category      Category   `json:"category"`
	ImageURLs     []string   `json:"imageUrls"`
	Likes         int        `json:"likes"`
	CommentsCount int        `json:"comments_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	Archived      bool       `json:"archived"`
	LikedBy       []string   `json:"liked_by,omitempty"`
	Comments      []Comment  `json:"comments"`
}

// UnmarshalJSON дополнительно принимает устаревшее поле imageUrl с одной картинкой
func (p *Post) UnmarshalJSON(data []byte) error {
	type alias Post
	aux := struct {
		*alias
		ImageURL *string `json:"imageUrl"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.ImageURL != nil && *aux.ImageURL != "" && !containsString(p.ImageURLs, *aux.ImageURL) {
		p.ImageURLs = append([]string{*aux.ImageURL}, p.ImageURLs...)
	}
	return nil
}

// WasEdited сообщает, был ли пост изменен после создания
func (p *Post) WasEdited() bool {
	return WasEdited(p.CreatedAt, p.UpdatedAt)
}

// IsLikedBy проверяет, есть ли пользователь в liked_by
func (p *Post) IsLikedBy(userID string) bool {
	return userID != "" && containsString(p.LikedBy, userID)
}

// Matches - предикат фильтра ленты: категория и подстрока (без учета регистра) в заголовке или тексте
func (p *Post) Matches(category Category, query string) bool {
	if category != "" && category != CategoryAll && p.Category != category {
		return false
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Content), q)
}

// WasEdited возвращает true, если updatedAt позже createdAt больше чем на EditSkew
func WasEdited(createdAt time.Time, updatedAt *time.Time) bool {
	if updatedAt == nil || updatedAt.IsZero() {
		return false
	}
	return updatedAt.Sub(createdAt) > EditSkew
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// PostListResponse - архивный эндпоинт может вернуть как массив, так и объект с полем posts
type PostListResponse struct {
	Posts []Post
}

func (r *PostListResponse) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(data, &r.Posts)
	}
	var obj struct {
		Posts []Post `json:"posts"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.Posts = obj.Posts
	return nil
}

// PostMutationResponse - ответ на создание/редактирование поста
type PostMutationResponse struct {
	Message  string `json:"message"`
	Post     *Post  `json:"post,omitempty"`
	Censored bool   `json:"censored,omitempty"`
}

// MessageResponse - общий ответ вида {"message": "..."}
type MessageResponse struct {
	Message  string `json:"message"`
	Censored bool   `json:"censored,omitempty"`
}

// LikeAction - значение поля message в ответе на лайк
type LikeAction string

const (
	ActionLiked   LikeAction = "liked"
	ActionUnliked LikeAction = "unliked"
)

// LikeResponse - ответ на PUT .../like
type LikeResponse struct {
	Likes   int        `json:"likes"`
	Message LikeAction `json:"message"`
}

// Liked интерпретирует признак действия сервера
func (r LikeResponse) Liked() bool {
	return r.Message == ActionLiked
}
