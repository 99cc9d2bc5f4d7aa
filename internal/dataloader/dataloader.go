package dataloader

import (
	"context"
	"net/http"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/UkralStul/trip-comments-service/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

const batchWait = time.Millisecond

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	RepliesByCommentID *dataloader.Loader
}

// NewLoaders создает лоадеры, привязанные к хранилищу.
// Лоадеры кэшируют результаты, поэтому живут не дольше одного запроса.
func NewLoaders(store storage.Storage) *Loaders {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		parentIDs := make([]string, len(keys))
		for i, key := range keys {
			parentIDs[i] = key.String()
		}

		// Один запрос к хранилищу на всю пачку родителей
		repliesMap, err := store.GetRepliesByParentIDs(ctx, parentIDs)
		results := make([]*dataloader.Result, len(keys))
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		// Результат в том же порядке, что и ключи
		for i, parentID := range parentIDs {
			results[i] = &dataloader.Result{Data: repliesMap[parentID]}
		}
		return results
	}

	return &Loaders{
		RepliesByCommentID: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(batchWait)),
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithLoaders(r.Context(), NewLoaders(store))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, key, l)
}

// For извлекает лоадеры из контекста, либо создает новые для store.
func For(ctx context.Context, store storage.Storage) *Loaders {
	if l, ok := ctx.Value(key).(*Loaders); ok {
		return l
	}
	return NewLoaders(store)
}

// LoadReplies запускает загрузку ответов для всех родителей и дожидается их.
// Все ключи попадают в одну пачку.
func (l *Loaders) LoadReplies(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	thunks := make([]dataloader.Thunk, len(parentIDs))
	for i, id := range parentIDs {
		thunks[i] = l.RepliesByCommentID.Load(ctx, dataloader.StringKey(id))
	}

	out := make(map[string][]*domain.Comment, len(parentIDs))
	for i, thunk := range thunks {
		data, err := thunk()
		if err != nil {
			return nil, err
		}
		replies, _ := data.([]*domain.Comment)
		out[parentIDs[i]] = replies
	}
	return out, nil
}
