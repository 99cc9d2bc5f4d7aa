package domain

import "time"

// Entry - общие поля узла дерева комментариев с точки зрения одного зрителя.
type Entry struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	Likes     int       `json:"likes"`
	IsLiked   bool      `json:"isLiked"`
}

// Toggled возвращает копию узла с инвертированным лайком.
// Likes и IsLiked всегда меняются вместе, ровно на единицу.
func (e Entry) Toggled() Entry {
	if e.IsLiked {
		e.Likes--
	} else {
		e.Likes++
	}
	e.IsLiked = !e.IsLiked
	return e
}

// TopLevelComment - корневой комментарий поездки. Только он может иметь ответы.
type TopLevelComment struct {
	Entry
	Replies []Reply `json:"replies"`
}

// Reply - ответ на корневой комментарий. Своих ответов не имеет.
type Reply struct {
	Entry
	ParentID string `json:"parentId"`
}

// LikeState - серверное состояние лайка после переключения.
type LikeState struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

// PageInfo - информация для курсорной пагинации.
type PageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor,omitempty"`
}

// Thread - страница комментариев поездки вместе с ответами.
type Thread struct {
	Comments []TopLevelComment `json:"comments"`
	PageInfo PageInfo          `json:"pageInfo"`
	Total    int               `json:"total"`
}
