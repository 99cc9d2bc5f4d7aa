package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/config"
	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/UkralStul/trip-comments-service/internal/logger"
	"github.com/UkralStul/trip-comments-service/internal/storage"
	"github.com/google/uuid"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store реализует интерфейс Storage поверх gorm (PostgreSQL или MySQL).
type Store struct {
	db *gorm.DB
}

// Open выбирает драйвер по конфигурации и создает хранилище.
func Open(cfg config.StorageConfig) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)

	return New(db)
}

// New выполняет миграцию схемы и оборачивает готовое соединение.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&domain.Trip{}, &domain.Comment{}, &domain.CommentLike{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// === Trip Methods ===

func (s *Store) CreateTrip(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	stored := *trip
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Create(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) GetTripByID(ctx context.Context, id string) (*domain.Trip, error) {
	var trip domain.Trip
	if err := s.db.WithContext(ctx).First(&trip, "id = ?", id).Error; err != nil {
		return nil, notFound(err, storage.ErrTripNotFound)
	}
	return &trip, nil
}

func (s *Store) GetTrips(ctx context.Context, limit, offset int) ([]*domain.Trip, error) {
	var trips []*domain.Trip
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&trips).Error
	return trips, err
}

func (s *Store) ToggleComments(ctx context.Context, tripID string, enable bool) (*domain.Trip, error) {
	var trip domain.Trip
	// Транзакция для атомарности чтения-записи
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&trip, "id = ?", tripID).Error; err != nil {
			return notFound(err, storage.ErrTripNotFound)
		}
		trip.CommentsEnabled = enable
		return tx.Model(&trip).Update("comments_enabled", enable).Error
	})
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	stored := *comment
	stored.ID = uuid.NewString()
	stored.Likes = 0
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Trip{}).Where("id = ?", stored.TripID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return storage.ErrTripNotFound
		}

		// Родитель должен быть корневым комментарием той же поездки
		if stored.ParentID != nil {
			var parent domain.Comment
			if err := tx.Select("id", "trip_id", "parent_id").
				First(&parent, "id = ? AND trip_id = ?", *stored.ParentID, stored.TripID).Error; err != nil {
				return notFound(err, storage.ErrCommentNotFound)
			}
			if !parent.IsTopLevel() {
				return storage.ErrNestedReply
			}
		}

		return tx.Create(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, notFound(err, storage.ErrCommentNotFound)
	}
	return &comment, nil
}

func (s *Store) CountComments(ctx context.Context, tripID string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Comment{}).
		Where("trip_id = ? AND parent_id IS NULL", tripID).
		Count(&count).Error
	return int(count), err
}

// === Pagination Methods ===

func (s *Store) GetCommentsByTripID(ctx context.Context, tripID string, args storage.PaginationArgs) ([]*domain.Comment, error) {
	var cursor *domain.Comment
	if args.Cursor != nil {
		var c domain.Comment
		if err := s.db.WithContext(ctx).Select("id", "created_at").First(&c, "id = ?", *args.Cursor).Error; err == nil {
			cursor = &c
		}
	}

	var comments []*domain.Comment
	err := rootsPage(s.db.WithContext(ctx), tripID, args.Limit, cursor).Find(&comments).Error
	return comments, err
}

// rootsPage - корневые комментарии поездки после курсора, от новых к старым.
// Ключ (created_at, id): записи с тем же временем, что у курсора, не теряются.
func rootsPage(tx *gorm.DB, tripID string, limit int, cursor *domain.Comment) *gorm.DB {
	query := tx.
		Where("trip_id = ? AND parent_id IS NULL", tripID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	return query
}

// === Dataloader Method ===

func (s *Store) GetRepliesByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	result := make(map[string][]*domain.Comment, len(parentIDs))
	if len(parentIDs) == 0 {
		return result, nil
	}

	var comments []*domain.Comment
	// Один запрос для всех родителей
	err := s.db.WithContext(ctx).
		Where("parent_id IN ?", parentIDs).
		Order("parent_id, created_at DESC, id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	for _, c := range comments {
		if c.ParentID != nil {
			result[*c.ParentID] = append(result[*c.ParentID], c)
		}
	}
	return result, nil
}

// === Like Methods ===

func (s *Store) SetLike(ctx context.Context, commentID, userID string, liked bool) (int, error) {
	var comment domain.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&comment, "id = ?", commentID).Error; err != nil {
			return notFound(err, storage.ErrCommentNotFound)
		}

		var res *gorm.DB
		delta := 1
		if liked {
			res = tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&domain.CommentLike{CommentID: commentID, UserID: userID, CreatedAt: time.Now().UTC()})
		} else {
			res = tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&domain.CommentLike{})
			delta = -1
		}
		if res.Error != nil {
			return res.Error
		}

		// Счетчик меняется только если множество лайков действительно изменилось
		if res.RowsAffected > 0 {
			if err := tx.Model(&domain.Comment{}).Where("id = ?", commentID).
				Update("likes", gorm.Expr("likes + ?", delta)).Error; err != nil {
				return err
			}
		}
		return tx.Select("likes").First(&comment, "id = ?", commentID).Error
	})
	if err != nil {
		return 0, err
	}
	return comment.Likes, nil
}

func (s *Store) GetLikedCommentIDs(ctx context.Context, userID string, commentIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(commentIDs))
	if userID == "" || len(commentIDs) == 0 {
		return result, nil
	}

	var ids []string
	err := s.db.WithContext(ctx).Model(&domain.CommentLike{}).
		Where("user_id = ? AND comment_id IN ?", userID, commentIDs).
		Pluck("comment_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

const recountLikesSQL = `UPDATE comments SET likes = (
	SELECT COUNT(*) FROM comment_likes WHERE comment_likes.comment_id = comments.id
) WHERE likes <> (
	SELECT COUNT(*) FROM comment_likes WHERE comment_likes.comment_id = comments.id
)`

// RecountLikes пересчитывает денормализованные счетчики по таблице лайков.
func (s *Store) RecountLikes(ctx context.Context) (int, error) {
	res := s.db.WithContext(ctx).Exec(recountLikesSQL)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
