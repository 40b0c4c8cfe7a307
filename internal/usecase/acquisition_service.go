package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/chesterzelaya/database-populator/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// errNotJSONObject marks answers that cannot be a candidate record
var errNotJSONObject = errors.New("answer is not a JSON object")

// AcquisitionServiceConfig holds configuration for the acquisition service
type AcquisitionServiceConfig struct {
	RetrievalModel  string
	ValidationModel string
	AllowedModels   []string
	MaxTokens       int
	CacheTTL        time.Duration
}

// AcquisitionService turns a product name into a validated candidate record.
// It holds no per-request state and is safe to call from any goroutine.
type AcquisitionService struct {
	schemas         domain.SchemaProvider
	prompts         *PromptBuilder
	client          domain.CompletionClient
	cache           domain.CacheRepository
	retrievalModel  string
	validationModel string
	allowedModels   map[string]bool
	maxTokens       int
	cacheTTL        time.Duration
	log             *logrus.Entry
}

// NewAcquisitionService creates a new acquisition service with dependencies.
// cache may be nil to disable result caching.
func NewAcquisitionService(
	schemas domain.SchemaProvider,
	prompts *PromptBuilder,
	client domain.CompletionClient,
	cache domain.CacheRepository,
	config AcquisitionServiceConfig,
) *AcquisitionService {
	if prompts == nil {
		prompts = NewPromptBuilder("")
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4000
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	var allowed map[string]bool
	if len(config.AllowedModels) > 0 {
		allowed = make(map[string]bool, len(config.AllowedModels))
		for _, m := range config.AllowedModels {
			allowed[m] = true
		}
	}

	return &AcquisitionService{
		schemas:         schemas,
		prompts:         prompts,
		client:          client,
		cache:           cache,
		retrievalModel:  config.RetrievalModel,
		validationModel: config.ValidationModel,
		allowedModels:   allowed,
		maxTokens:       maxTokens,
		cacheTTL:        cacheTTL,
		log:             logrus.WithField("component", "acquisition"),
	}
}

// Acquire retrieves a product record and, when the answer is structured, runs one
// validation pass over it.
// Flow: check cache -> retrieve -> validate -> cache -> return
func (s *AcquisitionService) Acquire(ctx context.Context, request *domain.AcquisitionRequest) (domain.RetrievalResult, error) {
	req, err := s.normalizeRequest(request)
	if err != nil {
		return nil, err
	}

	cacheKey := generateCacheKey(req)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		s.log.WithFields(logrus.Fields{"category": req.Category, "product": req.ProductName}).Debug("acquisition served from cache")
		return domain.Structured{Candidate: cached}, nil
	}

	result, err := s.Retrieve(ctx, req.Category, req.ProductName, req.RetrievalModel)
	if err != nil {
		return nil, err
	}

	structured, ok := result.(domain.Structured)
	if !ok {
		return result, nil
	}

	validated, err := s.Validate(ctx, req.Category, structured.Candidate, req.ValidationModel)
	if err != nil {
		return nil, err
	}

	if coverage := nameCoverage(req.ProductName, validated.Name); coverage < nameMismatchThreshold {
		s.log.WithFields(logrus.Fields{
			"event":     "CandidateNameMismatch",
			"requested": req.ProductName,
			"candidate": validated.Name,
			"coverage":  coverage,
		}).Warn("candidate may describe a different product")
	}

	if err := s.setInCache(ctx, cacheKey, validated); err != nil {
		s.log.WithError(err).Warn("failed to cache acquisition result")
	}

	return domain.Structured{Candidate: validated}, nil
}

// Retrieve asks the completion service for a product record.
// An answer that does not parse is returned as domain.Unstructured, not as an error.
func (s *AcquisitionService) Retrieve(ctx context.Context, category, productName, model string) (domain.RetrievalResult, error) {
	schema, err := s.schemas.Get(category)
	if err != nil {
		return nil, err
	}

	prompt := s.prompts.BuildRetrievalPrompt(category, productName, schema)

	raw, err := s.client.Complete(ctx, prompt, model, s.maxTokens)
	if err != nil {
		return nil, err
	}

	text := ExtractJSON(raw)
	candidate, err := parseCandidate(text)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"category": category,
			"product":  productName,
			"model":    model,
		}).WithError(err).Info("retrieval answer is not valid JSON, returning raw text")
		return domain.Unstructured{Text: text}, nil
	}

	return domain.Structured{Candidate: candidate}, nil
}

// Validate submits a candidate for one corrective pass. If the answer does not
// parse, the original candidate is returned unchanged.
func (s *AcquisitionService) Validate(ctx context.Context, category string, candidate *domain.Candidate, model string) (*domain.Candidate, error) {
	if candidate == nil {
		return nil, fmt.Errorf("%w: candidate is nil", domain.ErrInvalidRequest)
	}

	prompt, err := s.prompts.BuildValidationPrompt(category, candidate)
	if err != nil {
		s.log.WithError(err).Warn("validation skipped, keeping original candidate")
		return candidate, nil
	}

	raw, err := s.client.Complete(ctx, prompt, model, s.maxTokens)
	if err != nil {
		return nil, err
	}

	text := ExtractJSON(raw)
	validated, err := parseCandidate(text)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"event":    "ValidationNoOp",
			"category": category,
			"model":    model,
			"answer":   truncate(text, 512),
		}).WithError(err).Warn("validation answer is not valid JSON, keeping original candidate")
		return candidate, nil
	}

	return validated, nil
}

// normalizeRequest checks a request and fills in default models
func (s *AcquisitionService) normalizeRequest(request *domain.AcquisitionRequest) (*domain.AcquisitionRequest, error) {
	if request == nil || strings.TrimSpace(request.Category) == "" || strings.TrimSpace(request.ProductName) == "" {
		return nil, domain.ErrInvalidRequest
	}

	req := *request
	if req.RetrievalModel == "" {
		req.RetrievalModel = s.retrievalModel
	}
	if req.ValidationModel == "" {
		req.ValidationModel = s.validationModel
	}
	if req.ValidationModel == "" {
		req.ValidationModel = req.RetrievalModel
	}

	if req.RetrievalModel == "" {
		return nil, fmt.Errorf("%w: no retrieval model selected", domain.ErrInvalidRequest)
	}
	for _, m := range []string{req.RetrievalModel, req.ValidationModel} {
		if s.allowedModels != nil && !s.allowedModels[m] {
			return nil, fmt.Errorf("%w: model %q is not allowed", domain.ErrInvalidRequest, m)
		}
	}

	return &req, nil
}

// parseCandidate decodes extracted answer text into a candidate record
func parseCandidate(text string) (*domain.Candidate, error) {
	if !strings.HasPrefix(text, "{") {
		return nil, errNotJSONObject
	}
	var candidate domain.Candidate
	if err := json.Unmarshal([]byte(text), &candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// generateCacheKey creates a normalized cache key from an acquisition request.
// Format: "acquisition:{category}:{normalized_product_name}:{retrieval_model}:{validation_model}"
func generateCacheKey(req *domain.AcquisitionRequest) string {
	return fmt.Sprintf("acquisition:%s:%s:%s:%s",
		normalizeForCacheKey(req.Category),
		normalizeForCacheKey(req.ProductName),
		req.RetrievalModel,
		req.ValidationModel,
	)
}

// normalizeForCacheKey normalizes a string for use as cache key component.
// Converts to lowercase, removes special characters, and trims whitespace.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// getFromCache retrieves a validated candidate from cache
func (s *AcquisitionService) getFromCache(ctx context.Context, key string) (*domain.Candidate, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch v := value.(type) {
	case *domain.Candidate:
		return v, nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		// decoded JSON values from other cache implementations
		data, err = json.Marshal(v)
		if err != nil {
			return nil, domain.ErrCacheMiss
		}
	}

	var candidate domain.Candidate
	if err := json.Unmarshal(data, &candidate); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return &candidate, nil
}

// setInCache stores a validated candidate in cache
func (s *AcquisitionService) setInCache(ctx context.Context, key string, candidate *domain.Candidate) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, key, candidate, s.cacheTTL)
}

// truncate shortens s to at most max bytes without splitting a UTF-8 sequence
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}
