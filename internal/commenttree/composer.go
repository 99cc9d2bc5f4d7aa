package commenttree

import (
	"context"

	"github.com/UkralStul/trip-comments-service/internal/domain"
)

// SetDraft сохраняет текст нового комментария.
func (m *Manager) SetDraft(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = text
}

func (m *Manager) Draft() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// OpenReply открывает поле ответа для корневого комментария.
func (m *Manager) OpenReply(parentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if indexOf(m.comments, parentID) < 0 {
		return &domain.NotFoundError{Kind: "parent comment", ID: parentID}
	}
	if m.replyTo != parentID {
		m.replyDraft = ""
	}
	m.replyTo = parentID
	return nil
}

func (m *Manager) CloseReply() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replyTo = ""
	m.replyDraft = ""
}

// ReplyTarget - id комментария, на который сейчас отвечают, или "".
func (m *Manager) ReplyTarget() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replyTo
}

func (m *Manager) SetReplyDraft(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replyDraft = text
}

func (m *Manager) ReplyDraft() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replyDraft
}

// Submitting сообщает, что отправка еще не завершилась и кнопка недоступна.
func (m *Manager) Submitting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitting
}

// SubmitDraft отправляет текущий черновик комментария.
func (m *Manager) SubmitDraft(ctx context.Context, author *domain.Author) (domain.TopLevelComment, error) {
	return m.SubmitComment(ctx, author, m.Draft())
}

// SubmitReplyDraft отправляет черновик ответа открытому комментарию.
func (m *Manager) SubmitReplyDraft(ctx context.Context, author *domain.Author) (domain.Reply, error) {
	target := m.ReplyTarget()
	if target == "" {
		return domain.Reply{}, &domain.ValidationError{Field: "parentId", Reason: "no reply composer is open"}
	}
	return m.SubmitReply(ctx, target, author, m.ReplyDraft())
}
