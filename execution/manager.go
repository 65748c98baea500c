package execution

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is one live execution for a key.
type Task struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Manager keeps at most one live task per key. Starting a task for a key
// cancels the task previously registered under it.
type Manager struct {
	tasks map[string]*Task
	mutex sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		tasks: make(map[string]*Task),
	}
}

func (m *Manager) Start(key string) context.Context {
	return m.StartWithParent(context.Background(), key)
}

func (m *Manager) StartWithParent(parent context.Context, key string) context.Context {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if existing, exists := m.tasks[key]; exists {
		log.Debug().Str("task", key).Msg("Cancelling previous task")
		existing.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	m.tasks[key] = &Task{
		ctx:    ctx,
		cancel: cancel,
	}

	return ctx
}

// Cleanup removes the task for key only if ctx is still the registered one,
// so a finished task never unregisters its successor.
func (m *Manager) Cleanup(key string, ctx context.Context) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if task, exists := m.tasks[key]; exists && task.ctx == ctx {
		task.cancel()
		delete(m.tasks, key)
	}
}

// Current reports whether ctx is the live task for key.
func (m *Manager) Current(key string, ctx context.Context) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	task, exists := m.tasks[key]
	return exists && task.ctx == ctx && ctx.Err() == nil
}

// Active reports whether a live task is registered under key.
func (m *Manager) Active(key string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	task, exists := m.tasks[key]
	return exists && task.ctx.Err() == nil
}

// StopAll cancels every task.
func (m *Manager) StopAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for key, task := range m.tasks {
		task.cancel()
		delete(m.tasks, key)
	}
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.tasks)
}
