package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/UkralStul/trip-comments-service/internal/storage"
	"github.com/google/uuid"
)

// Store реализует интерфейс Storage в памяти.
type Store struct {
	mu               sync.RWMutex
	trips            map[string]*domain.Trip
	comments         map[string]*domain.Comment
	commentsByTrip   map[string][]string              // map[tripID][]commentID (только корневые)
	commentsByParent map[string][]string              // map[parentID][]commentID
	likes            map[string]map[string]time.Time // map[commentID]map[userID]
	now              func() time.Time
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		trips:            make(map[string]*domain.Trip),
		comments:         make(map[string]*domain.Comment),
		commentsByTrip:   make(map[string][]string),
		commentsByParent: make(map[string][]string),
		likes:            make(map[string]map[string]time.Time),
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// === Trip Methods ===

func (s *Store) CreateTrip(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *trip
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.now()
	s.trips[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *Store) GetTripByID(ctx context.Context, id string) (*domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trip, ok := s.trips[id]
	if !ok {
		return nil, storage.ErrTripNotFound
	}
	out := *trip
	return &out, nil
}

func (s *Store) GetTrips(ctx context.Context, limit, offset int) ([]*domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allTrips := make([]*domain.Trip, 0, len(s.trips))
	for _, t := range s.trips {
		cp := *t
		allTrips = append(allTrips, &cp)
	}

	sort.Slice(allTrips, func(i, j int) bool {
		return allTrips[i].CreatedAt.After(allTrips[j].CreatedAt)
	})

	start := offset
	if start >= len(allTrips) {
		return []*domain.Trip{}, nil
	}
	end := start + limit
	if end > len(allTrips) {
		end = len(allTrips)
	}
	return allTrips[start:end], nil
}

func (s *Store) ToggleComments(ctx context.Context, tripID string, enable bool) (*domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trip, ok := s.trips[tripID]
	if !ok {
		return nil, storage.ErrTripNotFound
	}
	trip.CommentsEnabled = enable
	out := *trip
	return &out, nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[comment.TripID]; !ok {
		return nil, storage.ErrTripNotFound
	}

	// Проверка родительского комментария: только корневой той же поездки
	if comment.ParentID != nil {
		parent, ok := s.comments[*comment.ParentID]
		if !ok || parent.TripID != comment.TripID {
			return nil, storage.ErrCommentNotFound
		}
		if !parent.IsTopLevel() {
			return nil, storage.ErrNestedReply
		}
	}

	stored := *comment
	stored.ID = uuid.NewString()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	stored.Likes = 0
	s.comments[stored.ID] = &stored

	// Обновление индексов для иерархии
	if stored.ParentID == nil {
		s.commentsByTrip[stored.TripID] = append(s.commentsByTrip[stored.TripID], stored.ID)
	} else {
		s.commentsByParent[*stored.ParentID] = append(s.commentsByParent[*stored.ParentID], stored.ID)
	}

	out := stored
	return &out, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrCommentNotFound
	}
	out := *comment
	return &out, nil
}

func (s *Store) CountComments(ctx context.Context, tripID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.commentsByTrip[tripID]), nil
}

// === Pagination Methods ===

func (s *Store) GetCommentsByTripID(ctx context.Context, tripID string, args storage.PaginationArgs) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	commentIDs, ok := s.commentsByTrip[tripID]
	if !ok {
		return []*domain.Comment{}, nil
	}

	return s.paginateComments(commentIDs, args), nil
}

// newestFirst возвращает копии комментариев, отсортированные от новых к старым.
// При равном времени более поздняя вставка идет первой.
func (s *Store) newestFirst(ids []string) []*domain.Comment {
	out := make([]*domain.Comment, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if c, ok := s.comments[ids[i]]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// paginateComments - вспомогательная функция для пагинации
func (s *Store) paginateComments(ids []string, args storage.PaginationArgs) []*domain.Comment {
	allComments := s.newestFirst(ids)

	startIndex := 0
	if args.Cursor != nil {
		for i, c := range allComments {
			if c.ID == *args.Cursor {
				startIndex = i + 1
				break
			}
		}
	}

	if startIndex >= len(allComments) {
		return []*domain.Comment{}
	}

	endIndex := startIndex + args.Limit
	if endIndex > len(allComments) {
		endIndex = len(allComments)
	}

	return allComments[startIndex:endIndex]
}

// === Dataloader Methods ===

func (s *Store) GetRepliesByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string][]*domain.Comment, len(parentIDs))
	for _, pID := range parentIDs {
		results[pID] = s.newestFirst(s.commentsByParent[pID])
	}

	return results, nil
}

// === Like Methods ===

func (s *Store) SetLike(ctx context.Context, commentID, userID string, liked bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[commentID]
	if !ok {
		return 0, storage.ErrCommentNotFound
	}

	users := s.likes[commentID]
	_, exists := users[userID]
	switch {
	case liked && !exists:
		if users == nil {
			users = make(map[string]time.Time)
			s.likes[commentID] = users
		}
		users[userID] = s.now()
		comment.Likes++
	case !liked && exists:
		delete(users, userID)
		comment.Likes--
	}

	return comment.Likes, nil
}

func (s *Store) GetLikedCommentIDs(ctx context.Context, userID string, commentIDs []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]bool, len(commentIDs))
	if userID == "" {
		return result, nil
	}
	for _, id := range commentIDs {
		if _, ok := s.likes[id][userID]; ok {
			result[id] = true
		}
	}
	return result, nil
}

// RecountLikes пересчитывает денормализованные счетчики по множеству лайков.
// Возвращает число исправленных комментариев.
func (s *Store) RecountLikes(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fixed := 0
	for id, c := range s.comments {
		if actual := len(s.likes[id]); c.Likes != actual {
			c.Likes = actual
			fixed++
		}
	}
	return fixed, nil
}
