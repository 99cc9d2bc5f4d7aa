package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/UkralStul/trip-comments-service/internal/storage"
)

var (
	sarah = domain.Author{
		ID:         "user1",
		Name:       "Sarah Johnson",
		Avatar:     "https://images.unsplash.com/photo-1494790108755-2616b612b786?w=150&h=150&fit=crop&crop=face",
		IsVerified: true,
	}
	alex = domain.Author{
		ID:         "user2",
		Name:       "Alex Martinez",
		Avatar:     "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=150&h=150&fit=crop&crop=face",
		IsVerified: true,
	}
	maria = domain.Author{
		ID:     "user3",
		Name:   "Maria Rodriguez",
		Avatar: "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=150&h=150&fit=crop&crop=face",
	}
)

func fillWithMockData(ctx context.Context, s storage.Storage) error {
	// 1. Поездка с включенными комментариями
	trip, err := s.CreateTrip(ctx, &domain.Trip{
		Title:           "Hidden Gems of Northern Thailand",
		AuthorID:        sarah.ID,
		CommentsEnabled: true,
	})
	if err != nil {
		return fmt.Errorf("create trip: %w", err)
	}

	// 2. Корневые комментарии, старший первым
	maria1, err := s.CreateComment(ctx, &domain.Comment{
		TripID:    trip.ID,
		Author:    maria,
		Content:   "I was just in Chiang Rai last month! Did you visit the White Temple?",
		CreatedAt: time.Date(2024, 1, 17, 9, 15, 0, 0, time.UTC),
	})
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	alex1, err := s.CreateComment(ctx, &domain.Comment{
		TripID:    trip.ID,
		Author:    alex,
		Content:   "This looks absolutely amazing! Thailand has been on my bucket list forever. Your photos are stunning!",
		CreatedAt: time.Date(2024, 1, 17, 10, 30, 0, 0, time.UTC),
	})
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	// 3. Ответ автора поездки
	reply, err := s.CreateComment(ctx, &domain.Comment{
		TripID:    trip.ID,
		ParentID:  &alex1.ID,
		Author:    sarah,
		Content:   "You should definitely visit! The people there are so welcoming.",
		CreatedAt: time.Date(2024, 1, 17, 11, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return fmt.Errorf("create reply: %w", err)
	}

	// 4. Лайки от условных читателей
	for commentID, count := range map[string]int{alex1.ID: 12, reply.ID: 3, maria1.ID: 8} {
		for i := 0; i < count; i++ {
			if _, err := s.SetLike(ctx, commentID, fmt.Sprintf("reader-%d", i), true); err != nil {
				return fmt.Errorf("set like: %w", err)
			}
		}
	}

	// 5. Поездка с выключенными комментариями
	disabled, err := s.CreateTrip(ctx, &domain.Trip{
		Title:           "Trip with comments turned off",
		AuthorID:        "user-admin",
		CommentsEnabled: false,
	})
	if err != nil {
		return fmt.Errorf("create disabled trip: %w", err)
	}

	slog.Info("mock data filled", "trip_id", trip.ID, "disabled_trip_id", disabled.ID)
	return nil
}
