package session

import (
	"context"
	"errors"
	"sync"

	"github.com/joescharf/fixxy/internal/models"
)

// fakeAsker records calls and optionally blocks until released.
type fakeAsker struct {
	mu     sync.Mutex
	calls  []models.AskRequest
	answer string
	err    error

	// gates maps a task name to a channel that Ask waits on before returning.
	gates map[string]chan struct{}
	// started receives the task name of each call as it begins.
	started chan string
}

func newFakeAsker(answer string) *fakeAsker {
	return &fakeAsker{
		answer:  answer,
		gates:   map[string]chan struct{}{},
		started: make(chan string, 16),
	}
}

func (f *fakeAsker) hold(mode models.TaskMode) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[mode.String()] = ch
	return ch
}

func (f *fakeAsker) Ask(ctx context.Context, req models.AskRequest) (models.AskResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	gate := f.gates[req.Task]
	answer, err := f.answer, f.err
	f.mu.Unlock()

	f.started <- req.Task
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.AskResponse{}, ctx.Err()
		}
	}
	if err != nil {
		return models.AskResponse{}, err
	}
	return models.AskResponse{Answer: answer}, nil
}

func (f *fakeAsker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAsker) lastCall() models.AskRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

var errNetwork = errors.New("connection refused")
