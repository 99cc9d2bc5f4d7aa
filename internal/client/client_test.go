package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/api"
	"github.com/UkralStul/trip-comments-service/internal/commenttree"
	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/UkralStul/trip-comments-service/internal/lock"
	"github.com/UkralStul/trip-comments-service/internal/realtime"
	"github.com/UkralStul/trip-comments-service/internal/security"
	"github.com/UkralStul/trip-comments-service/internal/service"
	"github.com/UkralStul/trip-comments-service/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ commenttree.Backend = (*Client)(nil)

var (
	owner = domain.Author{ID: "u-owner", Name: "Owner"}
	leo   = domain.Author{ID: "u-leo", Name: "Leo"}
)

type env struct {
	url    string
	issuer *security.Issuer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := inmemory.New()
	hub := realtime.NewHub()
	issuer := security.NewIssuer("secret", "trip-comments", time.Hour)
	svc := service.NewCommentService(store, lock.NewMemory(), hub, time.Minute)

	srv := httptest.NewServer(api.NewRouter(api.Deps{Comments: svc, Store: store, Hub: hub, Tokens: issuer}))
	t.Cleanup(srv.Close)
	return &env{url: srv.URL, issuer: issuer}
}

func (e *env) clientFor(t *testing.T, a domain.Author) *Client {
	t.Helper()
	tok, err := e.issuer.GenerateToken(a)
	require.NoError(t, err)
	return New(e.url, tok)
}

func TestClient_ManagerRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	trip, err := e.clientFor(t, owner).CreateTrip(ctx, "Kyoto")
	require.NoError(t, err)

	leoClient := e.clientFor(t, leo)
	thread, err := leoClient.Thread(ctx, trip.ID, 0, "")
	require.NoError(t, err)
	assert.Empty(t, thread.Comments)

	m := commenttree.New(trip.ID, thread.Comments, commenttree.WithBackend(leoClient))

	c, err := m.SubmitComment(ctx, &leo, "  Temples at dawn ")
	require.NoError(t, err)
	assert.Equal(t, "Temples at dawn", c.Content)

	r, err := m.SubmitReply(ctx, c.ID, &leo, "and the moss garden")
	require.NoError(t, err)
	assert.Equal(t, c.ID, r.ParentID)

	require.NoError(t, m.ToggleLike(ctx, r.ID, true, c.ID))
	require.NoError(t, m.ToggleLike(ctx, c.ID, false, ""))

	got := m.Render()
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Likes)
	assert.True(t, got[0].IsLiked)
	require.Len(t, got[0].Replies, 1)
	assert.Equal(t, 1, got[0].Replies[0].Likes)

	// Сервер видит то же дерево
	server, err := leoClient.Thread(ctx, trip.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1, server.Total)
	require.Len(t, server.Comments, 1)
	assert.Equal(t, got[0].ID, server.Comments[0].ID)
	assert.True(t, server.Comments[0].IsLiked)
	assert.True(t, server.Comments[0].Replies[0].IsLiked)

	require.NoError(t, m.ToggleLike(ctx, c.ID, false, ""))
	assert.Equal(t, 0, m.Render()[0].Likes)
}

func TestClient_TypedErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	trip, err := e.clientFor(t, owner).CreateTrip(ctx, "Oslo")
	require.NoError(t, err)
	leoClient := e.clientFor(t, leo)

	_, err = leoClient.CreateComment(ctx, trip.ID, "   ")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "content", ve.Field)

	_, err = leoClient.CreateReply(ctx, trip.ID, "missing", "hello")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "parent comment", nf.Kind)

	_, err = leoClient.GetTrip(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))

	_, err = leoClient.SetCommentsEnabled(ctx, trip.ID, false)
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusForbidden, te.StatusCode)

	_, err = New(e.url, "").CreateComment(ctx, trip.ID, "anon")
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
}

func TestClient_ManagerRollsBackWhenServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	initial := []domain.TopLevelComment{{
		Entry:   domain.Entry{ID: "c1", Content: "hello", Author: owner, Likes: 3},
		Replies: []domain.Reply{},
	}}
	m := commenttree.New("trip-1", initial, commenttree.WithBackend(New(srv.URL, "tok")))
	ctx := context.Background()

	_, err := m.SubmitComment(ctx, &leo, "lost")
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)

	err = m.ToggleLike(ctx, "c1", false, "")
	assert.True(t, domain.IsTransport(err))

	assert.Equal(t, initial, m.Render())
	assert.False(t, m.Submitting())
}

func TestClient_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "", WithTimeout(time.Second))
	_, err := c.Thread(context.Background(), "trip", 10, "cursor")
	assert.True(t, domain.IsTransport(err))
}
