package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CompletionClient sends a prompt to the completion service and returns its raw answer
type CompletionClient interface {
	Complete(ctx context.Context, prompt, model string, maxTokens int) (string, error)
}

// ProductRepository persists final product records.
// Every call is an insert; the same product sent twice yields two entries.
type ProductRepository interface {
	Insert(ctx context.Context, record *ProductRecord, category string) (string, error)
}

// SchemaProvider exposes category schemas to the pipeline
type SchemaProvider interface {
	Get(category string) (CategorySchema, error)
}
