package oracle

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"doc2db/internal/document"
	"doc2db/internal/errs"
	"doc2db/internal/logger"
	"doc2db/internal/model"
)

const (
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 4000
	DefaultTimeout   = 120 * time.Second
)

// Config configures the OpenAI-backed oracle.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	Timeout    time.Duration // per call, retries included
	MaxRetries int
	// InitialBackoff is the first retry wait; zero uses the backoff default.
	InitialBackoff time.Duration
}

// Configured reports whether cfg carries a usable API key.
func (c Config) Configured() bool {
	k := strings.TrimSpace(c.APIKey)
	return k != "" && !strings.HasPrefix(k, "sk-placeholder")
}

// OpenAI talks to a chat-completions endpoint.
type OpenAI struct {
	cfg    Config
	client *openai.Client
	log    *logger.Logger
}

var _ Oracle = (*OpenAI)(nil)

// NewOpenAI builds a client. A missing key is reported per call, not here,
// so the server can start and report it through its health check.
func NewOpenAI(cfg Config, log *logger.Logger) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}

	oc := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAI{cfg: cfg, client: openai.NewClientWithConfig(oc), log: log}
}

// Extract runs the full schema-and-rows prompt.
func (o *OpenAI) Extract(ctx context.Context, doc document.Document) (model.Extraction, string, error) {
	raw, err := o.complete(ctx, systemPrompt, userPrompt, doc)
	if err != nil {
		return model.Extraction{}, "", err
	}
	if strings.TrimSpace(raw) == "" {
		return model.Extraction{}, "", errs.New(errs.ErrKindUpstream, "oracle returned an empty response")
	}
	return model.Decode([]byte(raw)), raw, nil
}

// ExtractRows runs the rows-only prompt. An empty answer is an empty result.
func (o *OpenAI) ExtractRows(ctx context.Context, doc document.Document, table string, columns []string) ([]model.RowBatch, error) {
	if len(columns) == 0 {
		return nil, nil
	}
	raw, err := o.complete(ctx, rowsSystemPrompt, rowsPromptFor(table, columns), doc)
	if err != nil {
		return nil, err
	}
	return model.DecodeRowBatches([]byte(raw)), nil
}

func (o *OpenAI) complete(ctx context.Context, system, prompt string, doc document.Document) (string, error) {
	if !o.cfg.Configured() {
		return "", errs.New(errs.ErrKindInvalidInput, "OPENAI_API_KEY is not set or invalid")
	}

	req := openai.ChatCompletionRequest{
		Model:     o.cfg.Model,
		MaxTokens: o.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			userMessage(prompt, doc),
		},
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	var answer string
	attempt := 0
	op := func() error {
		attempt++
		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err != nil {
			mapped := mapError(err)
			if !retryable(err) {
				return backoff.Permanent(mapped)
			}
			o.log.WarnWith("oracle call failed, retrying", err, map[string]any{"attempt": attempt, "model": o.cfg.Model})
			return mapped
		}
		if len(resp.Choices) > 0 {
			answer = resp.Choices[0].Message.Content
		}
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	if o.cfg.InitialBackoff > 0 {
		eb.InitialInterval = o.cfg.InitialBackoff
	}
	var b backoff.BackOff = backoff.WithMaxRetries(eb, uint64(max(o.cfg.MaxRetries, 0)))
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if errs.KindOf(err) == errs.ErrKindUnknown {
			err = errs.Wrap(errs.ErrKindTimeout, "oracle call abandoned", err)
		}
		return "", err
	}
	return answer, nil
}

func userMessage(prompt string, doc document.Document) openai.ChatCompletionMessage {
	if doc.Kind != document.KindImage {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: withContent(prompt, doc.Text)}
	}
	url := "data:" + doc.MIME + ";base64," + base64.StdEncoding.EncodeToString(doc.Image)
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: url}},
		},
	}
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func retryable(err error) bool {
	s := statusOf(err)
	return s == http.StatusTooManyRequests || s >= 500
}

func mapError(err error) error {
	switch s := statusOf(err); {
	case s == http.StatusUnauthorized || s == http.StatusForbidden:
		return errs.Wrap(errs.ErrKindPermissionDenied, "oracle rejected the API key", err)
	case s == http.StatusTooManyRequests:
		return errs.Wrap(errs.ErrKindRateLimited, "oracle rate limited", err)
	case s != 0:
		return errs.Wrap(errs.ErrKindUpstream, "oracle call failed", err)
	default:
		return errs.Wrap(errs.ErrKindConnectionFailed, "oracle unreachable", err)
	}
}
