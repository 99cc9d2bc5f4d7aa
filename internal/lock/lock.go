// Package lock - короткоживущие блокировки по ключу. Используются, чтобы один
// автор не отправлял в ту же поездку второй комментарий, пока первый не сохранен.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Locker выдает блокировку на ttl. Освободить ее может только владелец токена.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

type entry struct {
	token   string
	expires time.Time
}

// Memory - Locker внутри одного процесса.
type Memory struct {
	mu    sync.Mutex
	locks map[string]entry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		locks: make(map[string]entry),
		now:   time.Now,
	}
}

func (m *Memory) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.locks[key]; ok && m.now().Before(e.expires) {
		return "", false, nil
	}
	token := uuid.NewString()
	m.locks[key] = entry{token: token, expires: m.now().Add(ttl)}
	return token, true, nil
}

func (m *Memory) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.locks[key]; ok && e.token == token {
		delete(m.locks, key)
	}
	return nil
}
