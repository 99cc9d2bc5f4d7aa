package dataloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/UkralStul/trip-comments-service/internal/storage"
	"github.com/UkralStul/trip-comments-service/internal/storage/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore считает батч-запросы ответов
type countingStore struct {
	storage.Storage
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingStore) GetRepliesByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.Storage.GetRepliesByParentIDs(ctx, parentIDs)
}

func TestLoadReplies_SingleBatch(t *testing.T) {
	mem := inmemory.New()
	ctx := context.Background()
	trip, err := mem.CreateTrip(ctx, &domain.Trip{Title: "t", AuthorID: "u", CommentsEnabled: true})
	require.NoError(t, err)

	author := domain.Author{ID: "u", Name: "U"}
	var parents []string
	for i := 0; i < 3; i++ {
		p, err := mem.CreateComment(ctx, &domain.Comment{TripID: trip.ID, Author: author, Content: "p"})
		require.NoError(t, err)
		_, err = mem.CreateComment(ctx, &domain.Comment{TripID: trip.ID, ParentID: &p.ID, Author: author, Content: "r"})
		require.NoError(t, err)
		parents = append(parents, p.ID)
	}

	store := &countingStore{Storage: mem}
	replies, err := NewLoaders(store).LoadReplies(ctx, parents)
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls)
	for _, id := range parents {
		assert.Len(t, replies[id], 1)
	}
}

func TestLoadReplies_PropagatesError(t *testing.T) {
	store := &countingStore{Storage: inmemory.New(), err: errors.New("db down")}

	_, err := NewLoaders(store).LoadReplies(context.Background(), []string{"a", "b"})
	require.Error(t, err)
}

func TestMiddleware_InjectsLoaders(t *testing.T) {
	store := inmemory.New()
	var got *Loaders
	h := Middleware(store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = For(r.Context(), store)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, got)
	assert.NotNil(t, got.RepliesByCommentID)
}
