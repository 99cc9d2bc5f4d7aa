// Package commenttree хранит дерево комментариев одной поездки на стороне клиента:
// корневые комментарии и один уровень ответов. Изменения применяются оптимистично
// и сверяются с ответом Backend, при транспортной ошибке откатываются.
//
// Срезы, которые возвращает Render, не изменяются: каждое изменение создает
// новый внешний срез и заменяет только затронутый корневой комментарий.
package commenttree

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/google/uuid"
)

// Backend - серверная сторона операций дерева. Каждый метод - один HTTP-вызов.
type Backend interface {
	CreateComment(ctx context.Context, tripID, content string) (*domain.TopLevelComment, error)
	CreateReply(ctx context.Context, tripID, parentID, content string) (*domain.Reply, error)
	SetLike(ctx context.Context, commentID string, liked bool) (*domain.LikeState, error)
}

type Option func(*Manager)

// WithBackend подключает сервер. Без него дерево живет только в памяти.
func WithBackend(b Backend) Option {
	return func(m *Manager) { m.backend = b }
}

// WithSubmitDelay задает искусственную задержку отправки в режиме без сервера.
func WithSubmitDelay(d time.Duration) Option {
	return func(m *Manager) { m.delay = d }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager - дерево комментариев одной поездки и состояние полей ввода.
type Manager struct {
	mu      sync.Mutex
	tripID  string
	backend Backend
	delay   time.Duration
	now     func() time.Time

	comments []domain.TopLevelComment
	// id оптимистичных узлов, которые сервер еще не подтвердил
	pending map[string]struct{}

	draft      string
	replyTo    string
	replyDraft string
	submitting bool
}

// New создает дерево из начального снимка.
func New(tripID string, initial []domain.TopLevelComment, opts ...Option) *Manager {
	m := &Manager{
		tripID:   tripID,
		now:      func() time.Time { return time.Now().UTC() },
		comments: append([]domain.TopLevelComment(nil), initial...),
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) TripID() string { return m.tripID }

// Render возвращает текущий снимок дерева. Снимок только для чтения.
func (m *Manager) Render() []domain.TopLevelComment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.comments
}

// Pending сообщает, что узел еще ждет ответа сервера. Лайкнуть его нельзя.
func (m *Manager) Pending(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[id]
	return ok
}

// Len - общее число узлов: корневые комментарии и ответы.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.comments)
	for _, c := range m.comments {
		n += len(c.Replies)
	}
	return n
}

// SubmitComment добавляет корневой комментарий в начало дерева.
func (m *Manager) SubmitComment(ctx context.Context, author *domain.Author, text string) (domain.TopLevelComment, error) {
	content, err := validate(author, text)
	if err != nil {
		return domain.TopLevelComment{}, err
	}

	m.mu.Lock()
	if m.submitting {
		m.mu.Unlock()
		return domain.TopLevelComment{}, domain.ErrSubmitInProgress
	}
	m.submitting = true
	pending := domain.TopLevelComment{Entry: m.newEntry(author, content), Replies: []domain.Reply{}}
	m.comments = append([]domain.TopLevelComment{pending}, m.comments...)
	m.pending[pending.ID] = struct{}{}
	m.mu.Unlock()

	created := pending
	if m.backend != nil {
		var res *domain.TopLevelComment
		if res, err = m.backend.CreateComment(ctx, m.tripID, content); err == nil {
			created = *res
			if created.Replies == nil {
				created.Replies = []domain.Reply{}
			}
		}
	} else {
		m.wait()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitting = false
	delete(m.pending, pending.ID)

	if err != nil {
		m.comments = removeTop(m.comments, pending.ID)
		return domain.TopLevelComment{}, transportErr("create comment", err)
	}
	m.updateTop(pending.ID, func(domain.TopLevelComment) domain.TopLevelComment { return created })
	m.draft = ""
	return created, nil
}

// SubmitReply добавляет ответ в начало списка ответов родителя.
// Остальные корневые комментарии не затрагиваются.
func (m *Manager) SubmitReply(ctx context.Context, parentID string, author *domain.Author, text string) (domain.Reply, error) {
	content, err := validate(author, text)
	if err != nil {
		return domain.Reply{}, err
	}
	if parentID == "" {
		return domain.Reply{}, &domain.ValidationError{Field: "parentId", Reason: "must not be empty"}
	}

	m.mu.Lock()
	if indexOf(m.comments, parentID) < 0 {
		m.mu.Unlock()
		return domain.Reply{}, &domain.NotFoundError{Kind: "parent comment", ID: parentID}
	}
	if m.submitting {
		m.mu.Unlock()
		return domain.Reply{}, domain.ErrSubmitInProgress
	}
	m.submitting = true
	pending := domain.Reply{Entry: m.newEntry(author, content), ParentID: parentID}
	m.updateTop(parentID, func(c domain.TopLevelComment) domain.TopLevelComment {
		c.Replies = append([]domain.Reply{pending}, c.Replies...)
		return c
	})
	m.pending[pending.ID] = struct{}{}
	m.mu.Unlock()

	created := pending
	if m.backend != nil {
		var res *domain.Reply
		if res, err = m.backend.CreateReply(ctx, m.tripID, parentID, content); err == nil {
			created = *res
		}
	} else {
		m.wait()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitting = false
	delete(m.pending, pending.ID)

	if err != nil {
		m.updateTop(parentID, func(c domain.TopLevelComment) domain.TopLevelComment {
			c.Replies = removeReply(c.Replies, pending.ID)
			return c
		})
		return domain.Reply{}, transportErr("create reply", err)
	}
	m.updateTop(parentID, func(c domain.TopLevelComment) domain.TopLevelComment {
		c.Replies = replaceReply(c.Replies, pending.ID, created)
		return c
	})
	m.replyDraft = ""
	if m.replyTo == parentID {
		m.replyTo = ""
	}
	return created, nil
}

// ToggleLike переключает лайк узла. Для ответа нужен parentID.
// Каждый вызов меняет состояние; два вызова подряд возвращают исходное.
func (m *Manager) ToggleLike(ctx context.Context, commentID string, isReply bool, parentID string) error {
	if isReply && parentID == "" {
		return &domain.ValidationError{Field: "parentId", Reason: "required for replies"}
	}

	m.mu.Lock()
	if _, ok := m.pending[commentID]; ok {
		m.mu.Unlock()
		return &domain.ValidationError{Field: "commentId", Reason: "comment is not saved yet"}
	}
	var toggled domain.Entry
	err := m.updateEntry(commentID, isReply, parentID, func(e domain.Entry) domain.Entry {
		toggled = e.Toggled()
		return toggled
	})
	m.mu.Unlock()
	if err != nil || m.backend == nil {
		return err
	}

	state, err := m.backend.SetLike(ctx, commentID, toggled.IsLiked)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		// Откат, если узел все еще в нашем оптимистичном состоянии
		_ = m.updateEntry(commentID, isReply, parentID, func(e domain.Entry) domain.Entry {
			if e.IsLiked == toggled.IsLiked {
				return e.Toggled()
			}
			return e
		})
		return transportErr("toggle like", err)
	}
	// Сервер авторитетен по счетчику
	_ = m.updateEntry(commentID, isReply, parentID, func(e domain.Entry) domain.Entry {
		if e.IsLiked == state.Liked {
			e.Likes = state.Likes
		}
		return e
	})
	return nil
}

// updateEntry применяет fn к узлу. Вызывается под m.mu.
func (m *Manager) updateEntry(commentID string, isReply bool, parentID string, fn func(domain.Entry) domain.Entry) error {
	if !isReply {
		if !m.updateTop(commentID, func(c domain.TopLevelComment) domain.TopLevelComment {
			c.Entry = fn(c.Entry)
			return c
		}) {
			return &domain.NotFoundError{Kind: "comment", ID: commentID}
		}
		return nil
	}

	i := indexOf(m.comments, parentID)
	if i < 0 {
		return &domain.NotFoundError{Kind: "parent comment", ID: parentID}
	}
	j := replyIndex(m.comments[i].Replies, commentID)
	if j < 0 {
		return &domain.NotFoundError{Kind: "reply", ID: commentID}
	}
	m.updateTop(parentID, func(c domain.TopLevelComment) domain.TopLevelComment {
		replies := append([]domain.Reply(nil), c.Replies...)
		replies[j].Entry = fn(replies[j].Entry)
		c.Replies = replies
		return c
	})
	return nil
}

// updateTop заменяет один корневой комментарий в новой копии внешнего среза.
func (m *Manager) updateTop(id string, fn func(domain.TopLevelComment) domain.TopLevelComment) bool {
	i := indexOf(m.comments, id)
	if i < 0 {
		return false
	}
	next := make([]domain.TopLevelComment, len(m.comments))
	copy(next, m.comments)
	next[i] = fn(next[i])
	m.comments = next
	return true
}

func (m *Manager) newEntry(author *domain.Author, content string) domain.Entry {
	return domain.Entry{
		ID:        uuid.NewString(),
		Content:   content,
		Author:    *author,
		CreatedAt: m.now(),
	}
}

// wait - искусственная задержка без сервера. Отмены нет: начатая отправка завершается.
func (m *Manager) wait() {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
}

func validate(author *domain.Author, text string) (string, error) {
	if author == nil || author.ID == "" {
		return "", &domain.ValidationError{Field: "author", Reason: "authentication required"}
	}
	content := strings.TrimSpace(text)
	if content == "" {
		return "", &domain.ValidationError{Field: "content", Reason: "must not be blank"}
	}
	return content, nil
}

// transportErr оставляет ответы сервера о валидации и отсутствии как есть,
// остальное считается транспортной ошибкой.
func transportErr(op string, err error) error {
	if domain.IsValidation(err) || domain.IsNotFound(err) || domain.IsTransport(err) || errors.Is(err, domain.ErrSubmitInProgress) {
		return err
	}
	return &domain.TransportError{Op: op, Err: err}
}

func indexOf(comments []domain.TopLevelComment, id string) int {
	for i := range comments {
		if comments[i].ID == id {
			return i
		}
	}
	return -1
}

func replyIndex(replies []domain.Reply, id string) int {
	for i := range replies {
		if replies[i].ID == id {
			return i
		}
	}
	return -1
}

func removeTop(comments []domain.TopLevelComment, id string) []domain.TopLevelComment {
	out := make([]domain.TopLevelComment, 0, len(comments))
	for _, c := range comments {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func removeReply(replies []domain.Reply, id string) []domain.Reply {
	out := make([]domain.Reply, 0, len(replies))
	for _, r := range replies {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func replaceReply(replies []domain.Reply, id string, r domain.Reply) []domain.Reply {
	out := append([]domain.Reply(nil), replies...)
	if j := replyIndex(out, id); j >= 0 {
		out[j] = r
	}
	return out
}
