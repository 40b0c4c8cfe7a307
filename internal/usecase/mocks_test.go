package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chesterzelaya/database-populator/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

type completionCall struct {
	prompt    string
	model     string
	maxTokens int
}

// MockCompletionClient answers calls in order from responses/errs
type MockCompletionClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     []completionCall
}

func NewMockCompletionClient(responses ...string) *MockCompletionClient {
	return &MockCompletionClient{responses: responses}
}

func (m *MockCompletionClient) Complete(ctx context.Context, prompt, model string, maxTokens int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := len(m.calls)
	m.calls = append(m.calls, completionCall{prompt: prompt, model: model, maxTokens: maxTokens})
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return "", errors.New("mock completion client: unexpected call")
}

func (m *MockCompletionClient) Calls() []completionCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]completionCall(nil), m.calls...)
}

// MockProductRepository records inserted products
type MockProductRepository struct {
	inserted    []*domain.ProductRecord
	categories  []string
	insertError error
}

func (m *MockProductRepository) Insert(ctx context.Context, record *domain.ProductRecord, category string) (string, error) {
	if m.insertError != nil {
		return "", m.insertError
	}
	m.inserted = append(m.inserted, record)
	m.categories = append(m.categories, category)
	return "id-" + category, nil
}

func motorsSchema() domain.CategorySchema {
	return domain.CategorySchema{
		Category: "motors",
		Attributes: []domain.Attribute{
			{Name: "Stator Size", Values: []string{"2205", "2207"}},
			{Name: "Mounting Pattern", Values: []string{"4-M2-12x12mm", "3-M1.4-φ6.6mm"}},
			{Name: "Voltage", Values: []string{"4S", "5S", "6S"}},
		},
	}
}

func newTestRegistry(t interface{ Fatalf(string, ...any) }) *SchemaRegistry {
	r, err := NewSchemaRegistry(motorsSchema())
	if err != nil {
		t.Fatalf("NewSchemaRegistry() error = %v", err)
	}
	return r
}

func floatPtr(f float64) *float64 { return &f }
