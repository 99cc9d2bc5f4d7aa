package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/security"
	"github.com/UkralStul/trip-comments-service/internal/storage"
	"github.com/UkralStul/trip-comments-service/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillWithMockData(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	require.NoError(t, fillWithMockData(ctx, store))

	trips, err := store.GetTrips(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, trips, 2)

	var enabledID string
	for _, tr := range trips {
		if tr.CommentsEnabled {
			enabledID = tr.ID
		}
	}
	require.NotEmpty(t, enabledID)

	roots, err := store.GetCommentsByTripID(ctx, enabledID, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	require.Len(t, roots, 2)
	// Новые первыми
	assert.Equal(t, alex.ID, roots[0].Author.ID)
	assert.Equal(t, 12, roots[0].Likes)
	assert.Equal(t, maria.ID, roots[1].Author.ID)

	replies, err := store.GetRepliesByParentIDs(ctx, []string{roots[0].ID})
	require.NoError(t, err)
	require.Len(t, replies[roots[0].ID], 1)
	assert.Equal(t, 3, replies[roots[0].ID][0].Likes)
}

func TestPrintToken(t *testing.T) {
	issuer := security.NewIssuer("secret", "trip-comments", time.Hour)
	var buf bytes.Buffer
	require.NoError(t, printToken(&buf, issuer, "u-1", ""))

	claims, err := issuer.ValidateToken(strings.TrimSpace(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "u-1", claims.Name)
}
