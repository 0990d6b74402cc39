package services

import (
	"context"

	"github.com/localnerve/docsdb/internal/tasks"
)

// tasksStub replaces a task body with a call counter
type tasksStub struct {
	name  string
	calls *int
}

func (s tasksStub) task() *tasks.Task {
	return &tasks.Task{Name: s.name, Handler: func(ctx context.Context, kwargs tasks.Kwargs) error {
		*s.calls++
		return nil
	}}
}
