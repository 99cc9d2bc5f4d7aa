// Package job - фоновые задачи по расписанию.
package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/logger"
	"github.com/google/uuid"
)

const recountTimeout = 2 * time.Minute

// LikeCounter пересчитывает денормализованные счетчики лайков.
type LikeCounter interface {
	RecountLikes(ctx context.Context) (int, error)
}

// RecountLikesJob сверяет счетчик likes каждого комментария с таблицей лайков.
type RecountLikesJob struct {
	store LikeCounter
}

func NewRecountLikesJob(store LikeCounter) *RecountLikesJob {
	return &RecountLikesJob{store: store}
}

func (j *RecountLikesJob) Run() {
	ctx := logger.WithTraceID(context.Background(), "job-recount-likes-"+uuid.NewString())
	ctx, cancel := context.WithTimeout(ctx, recountTimeout)
	defer cancel()

	start := time.Now()
	fixed, err := j.store.RecountLikes(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "RecountLikesJob failed", "err", err)
		return
	}
	slog.InfoContext(ctx, "RecountLikesJob done", "fixed", fixed, "duration", time.Since(start))
}
