package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Manager запускает задачи по расписанию.
type Manager struct {
	engine *cron.Cron
}

func NewManager() *Manager {
	return &Manager{
		engine: cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
	}
}

// Register добавляет задачу. Пустое расписание отключает ее.
func (m *Manager) Register(name, spec string, j cron.Job) error {
	if spec == "" {
		slog.Info("cron job disabled", "job", name)
		return nil
	}
	if _, err := m.engine.AddJob(spec, j); err != nil {
		return fmt.Errorf("failed to schedule %s (%q): %w", name, spec, err)
	}
	slog.Info("cron job scheduled", "job", name, "spec", spec)
	return nil
}

func (m *Manager) Jobs() int {
	return len(m.engine.Entries())
}

func (m *Manager) Start() {
	slog.Info("cron engine started")
	m.engine.Start()
}

// Stop останавливает планировщик и ждет завершения запущенных задач.
func (m *Manager) Stop(ctx context.Context) {
	done := m.engine.Stop()
	select {
	case <-done.Done():
		slog.Info("cron engine stopped")
	case <-ctx.Done():
		slog.Warn("cron engine stop timed out")
	}
}
