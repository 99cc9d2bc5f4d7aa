// Команда demo прогоняет дерево комментариев поездки: без -server в памяти
// с искусственной задержкой, с -server через REST API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/client"
	"github.com/UkralStul/trip-comments-service/internal/commenttree"
	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/UkralStul/trip-comments-service/internal/logger"
	"github.com/UkralStul/trip-comments-service/internal/security"
	"github.com/goccy/go-json"
)

func main() {
	server := flag.String("server", "", "Base URL of the comments API; empty runs offline")
	token := flag.String("token", "", "Bearer token for the API")
	tripID := flag.String("trip", "demo-trip", "Trip id")
	userID := flag.String("user", "you", "Author id for new comments in offline mode")
	userName := flag.String("name", "You", "Author name for new comments in offline mode")
	delay := flag.Duration("delay", 500*time.Millisecond, "Artificial submit delay in offline mode")
	comment := flag.String("comment", "", "Post a top-level comment")
	replyTo := flag.String("reply-to", "", "Parent comment id for -reply")
	reply := flag.String("reply", "", "Post a reply to -reply-to")
	like := flag.String("like", "", "Toggle like on a comment id")
	likeParent := flag.String("like-parent", "", "Parent id when -like targets a reply")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger.Init(os.Stderr, *logLevel)
	ctx := context.Background()
	author, err := resolveAuthor(*server, *token, *userID, *userName)
	if err != nil {
		slog.Error("failed to resolve author", "err", err)
		os.Exit(1)
	}

	m, err := open(ctx, *server, *token, *tripID, *delay)
	if err != nil {
		slog.Error("failed to load comments", "err", err)
		os.Exit(1)
	}

	if *comment != "" {
		c, err := m.SubmitComment(ctx, author, *comment)
		if err != nil {
			slog.Error("failed to post comment", "err", err)
			os.Exit(1)
		}
		slog.Info("comment posted", "id", c.ID)
	}
	if *reply != "" {
		r, err := m.SubmitReply(ctx, *replyTo, author, *reply)
		if err != nil {
			slog.Error("failed to post reply", "err", err)
			os.Exit(1)
		}
		slog.Info("reply posted", "id", r.ID, "parent_id", r.ParentID)
	}
	if *like != "" {
		if err := m.ToggleLike(ctx, *like, *likeParent != "", *likeParent); err != nil {
			slog.Error("failed to toggle like", "err", err)
			os.Exit(1)
		}
	}

	out, err := json.MarshalIndent(m.Render(), "", "  ")
	if err != nil {
		slog.Error("failed to encode comments", "err", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// resolveAuthor: с сервером автор берется из токена, иначе из флагов.
func resolveAuthor(server, token, userID, userName string) (*domain.Author, error) {
	if server == "" {
		return &domain.Author{ID: userID, Name: userName}, nil
	}
	if token == "" {
		return nil, errors.New("-token is required with -server")
	}
	author, err := security.AuthorFromToken(token)
	if err != nil {
		return nil, err
	}
	return &author, nil
}

func open(ctx context.Context, server, token, tripID string, delay time.Duration) (*commenttree.Manager, error) {
	if server == "" {
		return commenttree.New(tripID, sample(), commenttree.WithSubmitDelay(delay)), nil
	}

	c := client.New(server, token)
	thread, err := c.Thread(ctx, tripID, 0, "")
	if err != nil {
		return nil, err
	}
	slog.Info("comments loaded", "trip_id", tripID, "total", thread.Total)
	return commenttree.New(tripID, thread.Comments, commenttree.WithBackend(c)), nil
}

func sample() []domain.TopLevelComment {
	sarah := domain.Author{ID: "user1", Name: "Sarah Johnson", IsVerified: true}
	return []domain.TopLevelComment{
		{
			Entry: domain.Entry{
				ID:        "1",
				Content:   "This looks absolutely amazing! Thailand has been on my bucket list forever.",
				Author:    domain.Author{ID: "user2", Name: "Alex Martinez", IsVerified: true},
				CreatedAt: time.Date(2024, 1, 17, 10, 30, 0, 0, time.UTC),
				Likes:     12,
			},
			Replies: []domain.Reply{{
				Entry: domain.Entry{
					ID:        "2",
					Content:   "You should definitely visit! The people there are so welcoming.",
					Author:    sarah,
					CreatedAt: time.Date(2024, 1, 17, 11, 0, 0, 0, time.UTC),
					Likes:     3,
				},
				ParentID: "1",
			}},
		},
		{
			Entry: domain.Entry{
				ID:        "3",
				Content:   "I was just in Chiang Rai last month! Did you visit the White Temple?",
				Author:    domain.Author{ID: "user3", Name: "Maria Rodriguez"},
				CreatedAt: time.Date(2024, 1, 17, 9, 15, 0, 0, time.UTC),
				Likes:     8,
				IsLiked:   true,
			},
			Replies: []domain.Reply{},
		},
	}
}
