package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/UkralStul/trip-comments-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuthor = domain.Author{ID: "user-2", Name: "Sara"}

// newTestStore создает хранилище и одну поездку для тестов
func newTestStore(t *testing.T) (*Store, *domain.Trip) {
	store := New()
	trip, err := store.CreateTrip(context.Background(), &domain.Trip{
		Title:           "Test Trip",
		AuthorID:        "user-1",
		CommentsEnabled: true,
	})
	require.NoError(t, err)
	return store, trip
}

func TestStore_CreateAndGetTrip(t *testing.T) {
	store, trip := newTestStore(t)
	ctx := context.Background()

	retrieved, err := store.GetTripByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.Title, retrieved.Title)

	_, err = store.GetTripByID(ctx, "non-existent-id")
	assert.ErrorIs(t, err, storage.ErrTripNotFound)
}

func TestStore_ToggleComments(t *testing.T) {
	store, trip := newTestStore(t)
	ctx := context.Background()

	updated, err := store.ToggleComments(ctx, trip.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.CommentsEnabled)

	_, err = store.ToggleComments(ctx, "missing", true)
	assert.ErrorIs(t, err, storage.ErrTripNotFound)
}

func TestStore_CreateComment_Success(t *testing.T) {
	store, trip := newTestStore(t)
	ctx := context.Background()

	comment, err := store.CreateComment(ctx, &domain.Comment{TripID: trip.ID, Author: testAuthor, Content: "First comment!"})
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)
	assert.False(t, comment.CreatedAt.IsZero())

	comments, err := store.GetCommentsByTripID(ctx, trip.ID, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "First comment!", comments[0].Content)
	assert.Equal(t, testAuthor, comments[0].Author)
}

func TestStore_CreateComment_UnknownTrip(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.CreateComment(context.Background(), &domain.Comment{TripID: "nope", Author: testAuthor, Content: "x"})
	assert.ErrorIs(t, err, storage.ErrTripNotFound)
}

func TestStore_CreateReply(t *testing.T) {
	store, trip := newTestStore(t)
	ctx := context.Background()

	parent, err := store.CreateComment(ctx, &domain.Comment{TripID: trip.ID, Author: testAuthor, Content: "Parent"})
	require.NoError(t, err)

	reply, err := store.CreateComment(ctx, &domain.Comment{TripID: trip.ID, ParentID: &parent.ID, Author: testAuthor, Content: "Child"})
	require.NoError(t, err)

	// Ответ не попадает в корень поездки
	roots, err := store.GetCommentsByTripID(ctx, trip.ID, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, parent.ID, roots[0].ID)

	replies, err := store.GetRepliesByParentIDs(ctx, []string{parent.ID, "other"})
	require.NoError(t, err)
	require.Len(t, replies[parent.ID], 1)
	assert.Equal(t, reply.ID, replies[parent.ID][0].ID)
	assert.Empty(t, replies["other"])

	count, err := store.CountComments(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_CreateReply_Rejected(t *testing.T) {
	store, trip := newTestStore(t)
	ctx := context.Background()

	missing := "missing"
	_, err := store.CreateComment(ctx, &domain.Comment{TripID: trip.ID, ParentID: &missing, Author: testAuthor, Content: "x"})
	assert.ErrorIs(t, err, storage.ErrCommentNotFound)

	parent, err := store.CreateComment(ctx, &domain.Comment{TripID: trip.ID, Author: testAuthor, Content: "Parent"})
	require.NoError(t, err)
	reply, err := store.CreateComment(ctx, &domain.Comment{TripID: trip.ID, ParentID: &parent.ID, Author: testAuthor, Content: "Child"})
	require.NoError(t, err)

	_, err = store.CreateComment(ctx, &domain.Comment{TripID: trip.ID, ParentID: &reply.ID, Author: testAuthor, Content: "Grandchild"})
	assert.ErrorIs(t, err, storage.ErrNestedReply)

	other, err := store.CreateTrip(ctx, &domain.Trip{Title: "Other", AuthorID: "user-1", CommentsEnabled: true})
	require.NoError(t, err)
	_, err = store.CreateComment(ctx, &domain.Comment{TripID: other.ID, ParentID: &parent.ID, Author: testAuthor, Content: "Cross trip"})
	assert.ErrorIs(t, err, storage.ErrCommentNotFound)
}

func TestStore_NewestFirst(t *testing.T) {
	store, trip := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		c, err := store.CreateComment(ctx, &domain.Comment{TripID: trip.ID, Author: testAuthor, Content: "c"})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	comments, err := store.GetCommentsByTripID(ctx, trip.ID, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, ids[2], comments[0].ID)
	assert.Equal(t, ids[0], comments[2].ID)
}

func TestStore_SeededCreatedAtIsKept(t *testing.T) {
	store, trip := newTestStore(t)
	ctx := context.Background()

	old := time.Now().Add(-2 * time.Hour).UTC()
	seeded, err := store.CreateComment(ctx, &domain.Comment{TripID: trip.ID, Author: testAuthor, Content: "old", CreatedAt: old})
	require.NoError(t, err)
	assert.True(t, seeded.CreatedAt.Equal(old))

	fresh, err := store.CreateComment(ctx, &domain.Comment{TripID: trip.ID, Author: testAuthor, Content: "new"})
	require.NoError(t, err)

	comments, err := store.GetCommentsByTripID(ctx, trip.ID, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, fresh.ID, comments[0].ID)
}

func TestStore_Pagination(t *testing.T) {
	store, trip := newTestStore(t)
	ctx := context.Background()

	// Создаем 5 комментариев
	for i := 0; i < 5; i++ {
		_, err := store.CreateComment(ctx, &domain.Comment{TripID: trip.ID, Author: testAuthor, Content: "some comment"})
		require.NoError(t, err)
	}

	firstPage, err := store.GetCommentsByTripID(ctx, trip.ID, storage.PaginationArgs{Limit: 2})
	require.NoError(t, err)
	require.Len(t, firstPage, 2)

	// курсор - это ID последнего элемента на предыдущей странице
	cursor := firstPage[1].ID
	secondPage, err := store.GetCommentsByTripID(ctx, trip.ID, storage.PaginationArgs{Limit: 3, Cursor: &cursor})
	require.NoError(t, err)
	require.Len(t, secondPage, 3)

	assert.NotEqual(t, firstPage[0].ID, secondPage[0].ID)
	assert.NotEqual(t, firstPage[1].ID, secondPage[0].ID)
}

func TestStore_SetLike(t *testing.T) {
	store, trip := newTestStore(t)
	ctx := context.Background()

	c, err := store.CreateComment(ctx, &domain.Comment{TripID: trip.ID, Author: testAuthor, Content: "like me"})
	require.NoError(t, err)

	likes, err := store.SetLike(ctx, c.ID, "user-9", true)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)

	// Повторный лайк того же пользователя не меняет счетчик
	likes, err = store.SetLike(ctx, c.ID, "user-9", true)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)

	likes, err = store.SetLike(ctx, c.ID, "user-8", true)
	require.NoError(t, err)
	assert.Equal(t, 2, likes)

	liked, err := store.GetLikedCommentIDs(ctx, "user-9", []string{c.ID})
	require.NoError(t, err)
	assert.True(t, liked[c.ID])

	likes, err = store.SetLike(ctx, c.ID, "user-9", false)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)

	liked, err = store.GetLikedCommentIDs(ctx, "user-9", []string{c.ID})
	require.NoError(t, err)
	assert.False(t, liked[c.ID])

	_, err = store.SetLike(ctx, "missing", "user-9", true)
	assert.ErrorIs(t, err, storage.ErrCommentNotFound)
}

func TestStore_RecountLikes(t *testing.T) {
	store, trip := newTestStore(t)
	ctx := context.Background()

	c, err := store.CreateComment(ctx, &domain.Comment{TripID: trip.ID, Author: testAuthor, Content: "drift"})
	require.NoError(t, err)
	_, err = store.SetLike(ctx, c.ID, "user-9", true)
	require.NoError(t, err)

	// Портим денормализованный счетчик
	store.comments[c.ID].Likes = 42

	fixed, err := store.RecountLikes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	got, err := store.GetCommentByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)
}
