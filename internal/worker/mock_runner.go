package worker

import (
	"context"
	"sync"

	"deskmind.app/support/internal/webhook"
)

// MockRunner records the jobs it receives. Used in worker tests.
type MockRunner struct {
	mu   sync.Mutex
	jobs []webhook.Job

	// RunFunc, when set, replaces the default recording behavior.
	RunFunc func(ctx context.Context, job webhook.Job)
}

func (m *MockRunner) Run(ctx context.Context, job webhook.Job) {
	if m.RunFunc != nil {
		m.RunFunc(ctx, job)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

func (m *MockRunner) Jobs() []webhook.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]webhook.Job(nil), m.jobs...)
}
