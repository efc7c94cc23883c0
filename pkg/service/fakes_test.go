package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/raywall/fast-todo-service/pkg/apperr"
	"github.com/raywall/fast-todo-service/pkg/models"
)

// memoryRepository reproduz a semântica do store: chave (userId, todoId) e
// escritas condicionais à existência.
type memoryRepository struct {
	mu    sync.Mutex
	items map[string]map[string]models.TodoItem
	calls map[string]int
	fail  error
	// afterListSnapshot roda depois da leitura e antes do retorno de ListByUser
	afterListSnapshot func()
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		items: map[string]map[string]models.TodoItem{},
		calls: map[string]int{},
	}
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]models.TodoItem, error) {
	out, hook, err := r.snapshot(userID)
	if err != nil {
		return nil, err
	}
	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *memoryRepository) snapshot(userID string) ([]models.TodoItem, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["list"]++
	if r.fail != nil {
		return nil, nil, r.fail
	}

	out := make([]models.TodoItem, 0, len(r.items[userID]))
	for _, item := range r.items[userID] {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TodoID > out[j].TodoID })
	return out, r.afterListSnapshot, nil
}

func (r *memoryRepository) Get(_ context.Context, userID, todoID string) (*models.TodoItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[userID][todoID]
	if !ok {
		return nil, apperr.NotFound("todo", todoID)
	}
	return &item, nil
}

func (r *memoryRepository) Create(_ context.Context, item models.TodoItem) (models.TodoItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return models.TodoItem{}, r.fail
	}
	item.AttachmentURL = "https://attachments.s3.amazonaws.com/" + item.TodoID
	if r.items[item.UserID] == nil {
		r.items[item.UserID] = map[string]models.TodoItem{}
	}
	r.items[item.UserID][item.TodoID] = item
	return item, nil
}

func (r *memoryRepository) Update(_ context.Context, item models.TodoItem) (models.TodoItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[item.UserID][item.TodoID]
	if !ok {
		return models.TodoItem{}, apperr.NotFound("todo", item.TodoID)
	}
	current.Name = item.Name
	current.DueDate = item.DueDate
	current.Done = item.Done
	r.items[item.UserID][item.TodoID] = current
	return current, nil
}

func (r *memoryRepository) Delete(_ context.Context, userID, todoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[userID][todoID]; !ok {
		return apperr.NotFound("todo", todoID)
	}
	delete(r.items[userID], todoID)
	return nil
}

type fakeIssuer struct {
	gotTTL time.Duration
}

func (f *fakeIssuer) IssueUploadURL(_ context.Context, todoID string, ttl time.Duration) (string, error) {
	f.gotTTL = ttl
	return "https://attachments.s3.us-east-1.amazonaws.com/" + todoID + "?X-Amz-Signature=abc", nil
}

// memoryCache segue o contrato do RedisListCache: geração por usuário e
// preenchimento condicional
type memoryCache struct {
	mu          sync.Mutex
	entries     map[string][]models.TodoItem
	generations map[string]int64
	invalidated []string
	rejected    int
	broken      bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		entries:     map[string][]models.TodoItem{},
		generations: map[string]int64{},
	}
}

func (c *memoryCache) Version(_ context.Context, userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return 0, errCacheDown
	}
	return c.generations[userID], nil
}

var errCacheDown = errors.New("cache down")

func (c *memoryCache) Get(_ context.Context, userID string) ([]models.TodoItem, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return nil, false, errCacheDown
	}
	items, ok := c.entries[userID]
	return items, ok, nil
}

func (c *memoryCache) Set(_ context.Context, userID string, version int64, items []models.TodoItem) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return false, errCacheDown
	}
	if c.generations[userID] != version {
		c.rejected++
		return false, nil
	}
	c.entries[userID] = items
	return true, nil
}

func (c *memoryCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, userID)
	if c.broken {
		return errCacheDown
	}
	c.generations[userID]++
	delete(c.entries, userID)
	return nil
}

type recordedMetric struct {
	name string
	tags []string
}

type recordingMetrics struct {
	mu     sync.Mutex
	counts []recordedMetric
}

func (m *recordingMetrics) Count(name string, _ float64, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = append(m.counts, recordedMetric{name: name, tags: tags})
	return nil
}

func (m *recordingMetrics) Gauge(string, float64, []string) error     { return nil }
func (m *recordingMetrics) Histogram(string, float64, []string) error { return nil }
