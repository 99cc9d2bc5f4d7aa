// Package events описывает события изменения комментариев и их публикацию.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/domain"
)

type Type string

const (
	CommentAdded Type = "comment_added"
	ReplyAdded   Type = "reply_added"
	LikeChanged  Type = "like_changed"
)

// Event - изменение дерева комментариев одной поездки.
// IsLiked внутри событий всегда false: оно зависит от зрителя.
type Event struct {
	Type       Type                    `json:"type"`
	TripID     string                  `json:"tripId"`
	Comment    *domain.TopLevelComment `json:"comment,omitempty"`
	Reply      *domain.Reply           `json:"reply,omitempty"`
	CommentID  string                  `json:"commentId,omitempty"`
	Likes      int                     `json:"likes"`
	OccurredAt time.Time               `json:"occurredAt"`
}

// Publisher доставляет события подписчикам.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi рассылает событие всем издателям и собирает их ошибки.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop ничего не публикует.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
