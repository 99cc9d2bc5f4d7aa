// Package service содержит бизнес-правила комментариев к поездкам.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/UkralStul/trip-comments-service/internal/dataloader"
	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/UkralStul/trip-comments-service/internal/events"
	"github.com/UkralStul/trip-comments-service/internal/lock"
	"github.com/UkralStul/trip-comments-service/internal/storage"
	"github.com/jinzhu/copier"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var ErrForbidden = errors.New("only the trip owner can change comment settings")

// CommentService - операции над деревом комментариев поездки.
type CommentService struct {
	store   storage.Storage
	locker  lock.Locker
	events  events.Publisher
	lockTTL time.Duration
}

func NewCommentService(store storage.Storage, locker lock.Locker, publisher events.Publisher, lockTTL time.Duration) *CommentService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &CommentService{
		store:   store,
		locker:  locker,
		events:  publisher,
		lockTTL: lockTTL,
	}
}

// === Trips ===

func (s *CommentService) CreateTrip(ctx context.Context, author *domain.Author, title string) (*domain.Trip, error) {
	if err := requireAuthor(author); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "must not be blank"}
	}
	return s.store.CreateTrip(ctx, &domain.Trip{
		Title:           title,
		AuthorID:        author.ID,
		CommentsEnabled: true,
	})
}

// ListTrips возвращает поездки, offset и limit как в хранилище.
func (s *CommentService) ListTrips(ctx context.Context, limit, offset int) ([]*domain.Trip, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	trips, err := s.store.GetTrips(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

func (s *CommentService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, err := s.store.GetTripByID(ctx, tripID)
	if err != nil {
		return nil, translate(err, tripID, "")
	}
	return trip, nil
}

func (s *CommentService) SetCommentsEnabled(ctx context.Context, tripID, userID string, enabled bool) (*domain.Trip, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.AuthorID != userID {
		return nil, ErrForbidden
	}
	trip, err = s.store.ToggleComments(ctx, tripID, enabled)
	if err != nil {
		return nil, translate(err, tripID, "")
	}
	return trip, nil
}

// === Comments ===

// SubmitComment создает корневой комментарий. Автор - снимок на момент публикации.
func (s *CommentService) SubmitComment(ctx context.Context, tripID string, author *domain.Author, content string) (*domain.TopLevelComment, error) {
	row, err := s.create(ctx, tripID, nil, author, content)
	if err != nil {
		return nil, err
	}

	entry, err := toEntry(row, false)
	if err != nil {
		return nil, err
	}
	out := &domain.TopLevelComment{Entry: entry, Replies: []domain.Reply{}}
	s.publish(ctx, events.Event{Type: events.CommentAdded, TripID: tripID, Comment: out})
	return out, nil
}

// SubmitReply создает ответ на корневой комментарий той же поездки.
func (s *CommentService) SubmitReply(ctx context.Context, tripID, parentID string, author *domain.Author, content string) (*domain.Reply, error) {
	if strings.TrimSpace(parentID) == "" {
		return nil, &domain.ValidationError{Field: "parentId", Reason: "must not be empty"}
	}

	row, err := s.create(ctx, tripID, &parentID, author, content)
	if err != nil {
		return nil, err
	}

	entry, err := toEntry(row, false)
	if err != nil {
		return nil, err
	}
	out := &domain.Reply{Entry: entry, ParentID: parentID}
	s.publish(ctx, events.Event{Type: events.ReplyAdded, TripID: tripID, Reply: out})
	return out, nil
}

func (s *CommentService) create(ctx context.Context, tripID string, parentID *string, author *domain.Author, content string) (*domain.Comment, error) {
	// Валидация до любых изменений
	if err := requireAuthor(author); err != nil {
		return nil, err
	}
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.CommentsEnabled {
		return nil, &domain.ValidationError{Field: "trip", Reason: "comments are disabled for this trip"}
	}

	lockKey := "submit:" + tripID + ":" + author.ID
	token, ok, err := s.locker.TryLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire submit lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSubmitInProgress
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			slog.WarnContext(ctx, "failed to release submit lock", "key", lockKey, "err", err)
		}
	}()

	row, err := s.store.CreateComment(ctx, &domain.Comment{
		TripID:   tripID,
		ParentID: parentID,
		Author:   *author,
		Content:  content,
	})
	if err != nil {
		var parent string
		if parentID != nil {
			parent = *parentID
		}
		return nil, translate(err, tripID, parent)
	}
	return row, nil
}

// === Likes ===

// SetLike приводит лайк пользователя к состоянию liked и возвращает серверный счетчик.
// Повторный вызов с тем же liked ничего не меняет.
func (s *CommentService) SetLike(ctx context.Context, commentID, userID string, liked bool) (*domain.LikeState, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Field: "author", Reason: "authentication required"}
	}

	comment, err := s.store.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, translateComment(err, commentID)
	}

	likes, err := s.store.SetLike(ctx, commentID, userID, liked)
	if err != nil {
		return nil, translateComment(err, commentID)
	}

	s.publish(ctx, events.Event{Type: events.LikeChanged, TripID: comment.TripID, CommentID: commentID, Likes: likes})
	return &domain.LikeState{Likes: likes, Liked: liked}, nil
}

// === Thread ===

// Thread возвращает страницу корневых комментариев (от новых к старым) с ответами.
// IsLiked вычисляется для viewerID; пустой viewerID - анонимный зритель.
func (s *CommentService) Thread(ctx context.Context, tripID, viewerID string, args storage.PaginationArgs) (*domain.Thread, error) {
	if _, err := s.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}

	limit := args.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	// Запрашиваем на один элемент больше, чтобы определить, есть ли следующая страница
	roots, err := s.store.GetCommentsByTripID(ctx, tripID, storage.PaginationArgs{Limit: limit + 1, Cursor: args.Cursor})
	if err != nil {
		return nil, fmt.Errorf("failed to get trip comments: %w", err)
	}
	hasNextPage := len(roots) > limit
	if hasNextPage {
		roots = roots[:limit]
	}

	rootIDs := make([]string, len(roots))
	for i, c := range roots {
		rootIDs[i] = c.ID
	}

	var (
		replies map[string][]*domain.Comment
		total   int
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		replies, err = dataloader.For(gCtx, s.store).LoadReplies(gCtx, rootIDs)
		if err != nil {
			return fmt.Errorf("failed to load replies: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountComments(gCtx, tripID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	allIDs := append([]string{}, rootIDs...)
	for _, rs := range replies {
		for _, r := range rs {
			allIDs = append(allIDs, r.ID)
		}
	}
	liked, err := s.store.GetLikedCommentIDs(ctx, viewerID, allIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load viewer likes: %w", err)
	}

	thread := &domain.Thread{
		Comments: make([]domain.TopLevelComment, 0, len(roots)),
		PageInfo: domain.PageInfo{HasNextPage: hasNextPage},
		Total:    total,
	}
	for _, root := range roots {
		entry, err := toEntry(root, liked[root.ID])
		if err != nil {
			return nil, err
		}
		node := domain.TopLevelComment{
			Entry:   entry,
			Replies: make([]domain.Reply, 0, len(replies[root.ID])),
		}
		for _, r := range replies[root.ID] {
			replyEntry, err := toEntry(r, liked[r.ID])
			if err != nil {
				return nil, err
			}
			node.Replies = append(node.Replies, domain.Reply{Entry: replyEntry, ParentID: root.ID})
		}
		thread.Comments = append(thread.Comments, node)
	}
	if n := len(roots); n > 0 {
		cursor := roots[n-1].ID
		thread.PageInfo.EndCursor = &cursor
	}
	return thread, nil
}

func (s *CommentService) publish(ctx context.Context, ev events.Event) {
	ev.OccurredAt = time.Now().UTC()
	if err := s.events.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish comment event", "type", ev.Type, "trip_id", ev.TripID, "err", err)
	}
}

func toEntry(c *domain.Comment, liked bool) (domain.Entry, error) {
	var e domain.Entry
	if c == nil {
		return e, errors.New("failed to map comment: nil row")
	}
	// Поля совпадают по именам: ID, Content, Author, CreatedAt, Likes
	if err := copier.Copy(&e, c); err != nil {
		return e, fmt.Errorf("failed to map comment %s: %w", c.ID, err)
	}
	e.IsLiked = liked
	return e, nil
}

func requireAuthor(author *domain.Author) error {
	if author == nil || author.ID == "" {
		return &domain.ValidationError{Field: "author", Reason: "authentication required"}
	}
	return nil
}

func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", &domain.ValidationError{Field: "content", Reason: "must not be blank"}
	}
	if utf8.RuneCountInString(content) > domain.MaxContentLength {
		return "", &domain.ValidationError{Field: "content", Reason: fmt.Sprintf("must be at most %d characters", domain.MaxContentLength)}
	}
	return content, nil
}

// translate переводит ошибки хранилища в доменные.
func translate(err error, tripID, parentID string) error {
	switch {
	case errors.Is(err, storage.ErrTripNotFound):
		return &domain.NotFoundError{Kind: "trip", ID: tripID}
	case errors.Is(err, storage.ErrCommentNotFound), errors.Is(err, storage.ErrNestedReply):
		return &domain.NotFoundError{Kind: "parent comment", ID: parentID}
	}
	return err
}

func translateComment(err error, commentID string) error {
	if errors.Is(err, storage.ErrCommentNotFound) {
		return &domain.NotFoundError{Kind: "comment", ID: commentID}
	}
	return err
}
