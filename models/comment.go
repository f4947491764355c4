package models

import "time"

// Comment - комментарий к посту. ReplyTo ссылается на родительский комментарий (один уровень вложенности)
type Comment struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name"`
	AuthorID   string    `json:"author_id"`
	ReplyTo    string    `json:"reply_to,omitempty"`
	Likes      int       `json:"likes"`
	LikedBy    []string  `json:"liked_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasStableID - комментарий без id нельзя адресовать ни для лайка, ни для правки
func (c *Comment) HasStableID() bool {
	return c.ID != ""
}

func (c *Comment) IsLikedBy(userID string) bool {
	return userID != "" && containsString(c.LikedBy, userID)
}

// CommentRequest - тело POST/PUT комментария
type CommentRequest struct {
	Content string `json:"content"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// CommentThread - комментарий верхнего уровня с прямыми ответами
type CommentThread struct {
	Comment Comment
	Replies []Comment
}

// Thread группирует комментарии в одноуровневые ветки, сохраняя порядок.
// Ответы на неизвестных родителей попадают на верхний уровень.
func Thread(comments []Comment) []CommentThread {
	ids := make(map[string]bool, len(comments))
	for _, c := range comments {
		if c.ID != "" && c.ReplyTo == "" {
			ids[c.ID] = true
		}
	}

	threads := make([]CommentThread, 0, len(comments))
	index := make(map[string]int, len(comments))
	for _, c := range comments {
		if c.ReplyTo != "" && ids[c.ReplyTo] {
			continue
		}
		if c.ID != "" && c.ReplyTo == "" {
			index[c.ID] = len(threads)
		}
		threads = append(threads, CommentThread{Comment: c})
	}

	for _, c := range comments {
		if c.ReplyTo == "" || !ids[c.ReplyTo] {
			continue
		}
		i := index[c.ReplyTo]
		threads[i].Replies = append(threads[i].Replies, c)
	}
	return threads
}
