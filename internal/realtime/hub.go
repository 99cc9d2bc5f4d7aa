package realtime

import (
	"context"
	"sync"

	"github.com/UkralStul/trip-comments-service/internal/events"
	"github.com/google/uuid"
)

const subscriberBuffer = 16

// Hub хранит каналы подписчиков на события комментариев поездки.
type Hub struct {
	mu sync.RWMutex
	//          map[tripID] map[subscriberID] channel
	subs map[string]map[string]chan events.Event
}

// NewHub создает пустой хаб.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[string]chan events.Event),
	}
}

// Subscribe регистрирует подписчика. Вызов cancel отписывает и закрывает канал.
func (h *Hub) Subscribe(tripID string) (<-chan events.Event, func()) {
	ch := make(chan events.Event, subscriberBuffer)
	subID := uuid.NewString()

	h.mu.Lock()
	if h.subs[tripID] == nil {
		h.subs[tripID] = make(map[string]chan events.Event)
	}
	h.subs[tripID][subID] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if tripSubs, ok := h.subs[tripID]; ok {
				delete(tripSubs, subID)
				if len(tripSubs) == 0 {
					delete(h.subs, tripID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish рассылает событие без блокировки: медленный клиент пропускает событие.
func (h *Hub) Publish(_ context.Context, ev events.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[ev.TripID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribers возвращает число подписчиков поездки.
func (h *Hub) Subscribers(tripID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[tripID])
}
