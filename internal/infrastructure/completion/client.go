package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/chesterzelaya/database-populator/internal/domain"
)

// SystemPrompt frames every request sent to the completion service
const SystemPrompt = "You are a meticulous FPV drone parts specialist. " +
	"You report product data only when you can find it in reliable sources and never invent values. " +
	"When a field cannot be determined you leave it null."

const (
	// DefaultBaseURL is the hosted chat-completions endpoint root
	DefaultBaseURL = "https://api.perplexity.ai"

	defaultTimeout = 120 * time.Second
	maxErrorBody   = 512
)

// Options tunes a Client. Zero values select defaults.
type Options struct {
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client talks to an OpenAI-style chat-completions endpoint
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	log         *logrus.Entry
}

// NewClient creates a new completion client. An empty apiKey is accepted here;
// every Complete call then fails with ErrMissingCredential.
func NewClient(apiKey, baseURL string, opts Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60), opts.RequestsPerMinute)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      strings.TrimSpace(apiKey),
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: limiter,
		log:         logrus.WithField("component", "completion"),
	}
}

// Complete sends one system+user exchange and returns the first choice's content
// unmodified. Failures are not retried.
func (c *Client) Complete(ctx context.Context, prompt, model string, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", domain.ErrMissingCredential
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %w", domain.ErrTransport, err)
	}

	payload, err := json.Marshal(domain.ChatCompletionRequest{
		Model: model,
		Messages: []domain.ChatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	start := time.Now()
	resp, err := c.doRequest(ctx, payload)
	if err != nil {
		c.log.WithError(err).WithField("model", model).Warn("completion request failed")
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %w", domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.WithFields(logrus.Fields{
			"model":  model,
			"status": resp.StatusCode,
		}).Warn("completion service returned error status")
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrTransport, resp.StatusCode, truncateBody(body))
	}

	var completion domain.ChatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", domain.ErrTransport, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", domain.ErrTransport)
	}

	c.log.WithFields(logrus.Fields{
		"model":    model,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("completion received")

	return completion.Choices[0].Message.Content, nil
}

// doRequest executes the POST with auth headers
func (c *Client) doRequest(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "PartsCatalog/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	return resp, nil
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
