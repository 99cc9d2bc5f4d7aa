package domain

import "time"

// MaxContentLength - максимальная длина текста комментария после обрезки пробелов.
const MaxContentLength = 2000

// Trip представляет поездку, к которой пишут комментарии.
type Trip struct {
	ID              string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title           string    `json:"title" gorm:"type:varchar(255);not null"`
	AuthorID        string    `json:"authorId" gorm:"type:varchar(255);not null"`
	CommentsEnabled bool      `json:"commentsEnabled" gorm:"not null"`
	CreatedAt       time.Time `json:"createdAt" gorm:"not null"`
}

// Author - снимок автора на момент публикации. Последующие правки профиля
// на старые комментарии не влияют.
type Author struct {
	ID         string `json:"id" gorm:"type:varchar(255);not null;index"`
	Name       string `json:"name" gorm:"type:varchar(255);not null"`
	Avatar     string `json:"avatar,omitempty" gorm:"type:varchar(1024)"`
	IsVerified bool   `json:"isVerified,omitempty" gorm:"not null;default:false"`
}

// Comment - строка хранилища. Корневой комментарий имеет ParentID == nil,
// ответ ссылается на корневой комментарий той же поездки.
type Comment struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	TripID    string    `json:"tripId" gorm:"type:varchar(36);not null;index"`
	ParentID  *string   `json:"parentId,omitempty" gorm:"type:varchar(36);index"`
	Author    Author    `json:"author" gorm:"embedded;embeddedPrefix:author_"`
	Content   string    `json:"content" gorm:"type:varchar(2000);not null"`
	Likes     int       `json:"likes" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;index"`
}

// IsTopLevel сообщает, является ли комментарий корневым.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// CommentLike - лайк пользователя на комментарий. Пара (CommentID, UserID) уникальна.
type CommentLike struct {
	CommentID string    `json:"commentId" gorm:"type:varchar(36);primaryKey"`
	UserID    string    `json:"userId" gorm:"type:varchar(255);primaryKey;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}
