package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
	"github.com/custodia-labs/glowbox/internal/core/ports/driving"
)

// --- Mock implementations for delta processing ---

// listCall records one ListChanges invocation.
type listCall struct {
	root   string
	cursor string
}

// mockStorage serves a fixed sequence of listing pages and an in-memory file map.
type mockStorage struct {
	mu        sync.Mutex
	pages     []*domain.ListingPage
	listErrAt int // 1-based page index that fails, 0 for none
	calls     []listCall
	files     map[string][]byte
	uploads   map[string][]byte
	dlErr     map[string]error
	upErr     map[string]error
}

func newMockStorage(pages ...*domain.ListingPage) *mockStorage {
	return &mockStorage{
		pages:   pages,
		files:   make(map[string][]byte),
		uploads: make(map[string][]byte),
		dlErr:   make(map[string]error),
		upErr:   make(map[string]error),
	}
}

func (m *mockStorage) ListChanges(_ context.Context, root, cursor string) (*domain.ListingPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, listCall{root: root, cursor: cursor})
	idx := len(m.calls)
	if m.listErrAt == idx {
		return nil, errors.New("listing unavailable")
	}
	if idx > len(m.pages) {
		return &domain.ListingPage{}, nil
	}
	return m.pages[idx-1], nil
}

func (m *mockStorage) Download(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.dlErr[path]; err != nil {
		return nil, err
	}
	data, ok := m.files[path]
	if !ok {
		return []byte("raw:" + path), nil
	}
	return data, nil
}

func (m *mockStorage) Upload(_ context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.upErr[path]; err != nil {
		return err
	}
	m.uploads[path] = data
	return nil
}

func (m *mockStorage) listCalls() []listCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]listCall(nil), m.calls...)
}

func (m *mockStorage) uploaded() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.uploads))
	for k, v := range m.uploads {
		out[k] = v
	}
	return out
}

// mockCursorStore records every Set.
type mockCursorStore struct {
	mu     sync.Mutex
	cursor string
	sets   []string
	getErr error
	setErr error
}

func (m *mockCursorStore) Get(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	if m.cursor == "" {
		return "", domain.ErrNotFound
	}
	return m.cursor, nil
}

func (m *mockCursorStore) Set(_ context.Context, cursor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.cursor = cursor
	m.sets = append(m.sets, cursor)
	return nil
}

func (m *mockCursorStore) setCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sets...)
}

// mockEnhancer prefixes input bytes and fails for configured filenames.
type mockEnhancer struct {
	mu     sync.Mutex
	failOn map[string]error
	calls  int
	delay  time.Duration
}

func (m *mockEnhancer) Enhance(_ context.Context, data []byte, filename string) (*domain.EnhancementResult, error) {
	m.mu.Lock()
	m.calls++
	err := m.failOn[filename]
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return &domain.EnhancementResult{
		Data:     append([]byte("enhanced:"), data...),
		Model:    domain.DefaultImageModel,
		Strategy: domain.StrategyResponses,
	}, nil
}

// mockMetrics counts instrumentation calls.
type mockMetrics struct {
	mu        sync.Mutex
	started   int
	succeeded int
	failed    int
	runs      int
	lastErr   error
}

func (m *mockMetrics) JobStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *mockMetrics) JobFinished(success bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.succeeded++
	} else {
		m.failed++
	}
}

func (m *mockMetrics) RunFinished(_ *domain.RunSummary, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.lastErr = err
}

// mockDeltaProcessor implements driving.DeltaProcessor for scheduler tests.
type mockDeltaProcessor struct {
	mu       sync.Mutex
	calls    int
	triggers []domain.Trigger
	summary  *domain.RunSummary
	err      error
}

func (m *mockDeltaProcessor) RunOnce(_ context.Context, trigger domain.Trigger, requestID string) (*domain.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.triggers = append(m.triggers, trigger)
	if m.summary != nil {
		return m.summary, m.err
	}
	return domain.NewRunSummary(requestID, trigger), m.err
}

func (m *mockDeltaProcessor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu       sync.RWMutex
	tasks    map[string]*domain.ScheduledTask
	results  map[string][]domain.TaskResult
	saveErr  error
	listErr  error
	getErr   error
	pruneErr error
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks:   make(map[string]*domain.ScheduledTask),
		results: make(map[string][]domain.TaskResult),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, nil
	}
	taskCopy := *task
	return &taskCopy, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if task == nil {
		return domain.ErrInvalidInput
	}
	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *mockSchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == nil {
		return domain.ErrInvalidInput
	}
	m.results[result.TaskID] = append(m.results[result.TaskID], *result)
	return nil
}

func (m *mockSchedulerStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := m.results[taskID]
	if len(results) > limit {
		results = results[len(results)-limit:]
	}
	return results, nil
}

func (m *mockSchedulerStore) PruneHistory(_ context.Context, _ int) error {
	return m.pruneErr
}

func (m *mockSchedulerStore) resultCount(taskID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results[taskID])
}

// mockConfigStore is a map-backed driven.ConfigStore.
type mockConfigStore struct {
	data map[string]any
}

func newMockConfigStore(data map[string]any) *mockConfigStore {
	if data == nil {
		data = make(map[string]any)
	}
	return &mockConfigStore{data: data}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.data[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	switch v := m.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (m *mockConfigStore) GetBool(key string) bool {
	b, _ := m.data[key].(bool)
	return b
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Path() string { return "" }

// Ensure mocks implement interfaces
var (
	_ driven.RemoteStorage   = (*mockStorage)(nil)
	_ driven.CursorStore     = (*mockCursorStore)(nil)
	_ driven.ImageEnhancer   = (*mockEnhancer)(nil)
	_ driven.RunMetrics      = (*mockMetrics)(nil)
	_ driven.SchedulerStore  = (*mockSchedulerStore)(nil)
	_ driven.ConfigStore     = (*mockConfigStore)(nil)
	_ driving.DeltaProcessor = (*mockDeltaProcessor)(nil)
)
