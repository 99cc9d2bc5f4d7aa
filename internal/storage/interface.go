package storage

import (
	"context"
	"errors"

	"github.com/UkralStul/trip-comments-service/internal/domain"
)

var (
	ErrTripNotFound    = errors.New("trip not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrNestedReply     = errors.New("replies cannot have replies")
)

// PaginationArgs - аргументы для пагинации.
type PaginationArgs struct {
	Limit  int
	Cursor *string
}

// Storage определяет контракт для хранилищ.
type Storage interface {
	GetTrips(ctx context.Context, limit, offset int) ([]*domain.Trip, error)
	GetTripByID(ctx context.Context, id string) (*domain.Trip, error)
	CreateTrip(ctx context.Context, trip *domain.Trip) (*domain.Trip, error)
	ToggleComments(ctx context.Context, tripID string, enable bool) (*domain.Trip, error)

	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	CountComments(ctx context.Context, tripID string) (int, error)

	// Корневые комментарии поездки, от новых к старым
	GetCommentsByTripID(ctx context.Context, tripID string, args PaginationArgs) ([]*domain.Comment, error)

	// Метод для Dataloader'а: ответы для нескольких родителей одним запросом
	GetRepliesByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error)

	// Лайки
	SetLike(ctx context.Context, commentID, userID string, liked bool) (int, error)
	GetLikedCommentIDs(ctx context.Context, userID string, commentIDs []string) (map[string]bool, error)
	RecountLikes(ctx context.Context) (int, error)
}
