package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskStatus defines the possible states of a background task.
type TaskStatus string

const (
	TaskStatusStarted   TaskStatus = "started"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Task represents a long-running operation, typically a graph build over
// a large dataset.
type Task struct {
	ID              string     `json:"id"`
	Status          TaskStatus `json:"status"`
	ProgressMessage string     `json:"progress_message,omitempty"`
	Error           string     `json:"error,omitempty"`
	// Result holds the operation outcome once completed, e.g. a graph
	// summary.
	Result    any       `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	mu        sync.RWMutex
}

// TaskManager tracks all running asynchronous tasks.
type TaskManager struct {
	tasks map[string]*Task
	mu    sync.RWMutex
}

// NewTaskManager creates a new task manager.
func NewTaskManager() *TaskManager {
	return &TaskManager{
		tasks: make(map[string]*Task),
	}
}

// NewTask creates a task, registers it under a fresh UUID and returns it.
func (tm *TaskManager) NewTask() *Task {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	task := &Task{
		ID:        uuid.New().String(),
		Status:    TaskStatusStarted,
		CreatedAt: time.Now(),
	}
	tm.tasks[task.ID] = task
	return task
}

// GetTask safely retrieves a task by its ID.
func (tm *TaskManager) GetTask(id string) (*Task, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	task, found := tm.tasks[id]
	return task, found
}

// Snapshot returns a copy of the task safe for serialization.
func (t *Task) Snapshot() Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Task{
		ID:              t.ID,
		Status:          t.Status,
		ProgressMessage: t.ProgressMessage,
		Error:           t.Error,
		Result:          t.Result,
		CreatedAt:       t.CreatedAt,
	}
}

// SetStatus updates the status of the task.
func (t *Task) SetStatus(status TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = status
}

// SetError marks the task as failed and records the error message.
func (t *Task) SetError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusFailed
	t.Error = err.Error()
}

// SetProgress updates the progress message for the task.
func (t *Task) SetProgress(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ProgressMessage = message
}

// Complete marks the task as done and stores its result.
func (t *Task) Complete(result any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusCompleted
	t.Result = result
}
